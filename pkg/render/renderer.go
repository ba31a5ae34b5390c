package render

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/definition"
)

// Renderer converts a form definition plus a state snapshot into a byte
// representation (HTML, JSON, etc.). Renderers are pure consumers: they never
// mutate the definition or the engine that produced the snapshot.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, def definition.Form, opts Options) ([]byte, error)
}
