// Package formstate wires the library behind one import: form state engines,
// declarative definitions, OpenAPI conversion, rendering, and interactive
// sessions. Everything here delegates to the pkg and internal packages.
package formstate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/internal/definition/builder"
	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render"
	html "github.com/goliatone/go-formstate/pkg/renderers/html"
	"github.com/goliatone/go-formstate/pkg/renderers/jsonsnap"
	"github.com/goliatone/go-formstate/pkg/session"
)

// Form is the state engine; see pkg/form for the full API.
type Form = form.Form

// State is one immutable snapshot of a form engine.
type State = form.State

// FieldState bundles the value, error, and touched flag for one path.
type FieldState = form.FieldState

// Option configures a form engine built by New or NewFromDefinition.
type Option = form.Option

// Definition is a declarative form description; see pkg/definition.
type Definition = definition.Form

// Field describes one field inside a Definition.
type Field = definition.Field

// RenderOptions carries per-render values, errors, and theming.
type RenderOptions = render.Options

// ErrValidation reports a submit rejected by the validation pass.
var ErrValidation = form.ErrValidation

// ErrSubmitInFlight reports a submit attempted while another one is running.
var ErrSubmitInFlight = form.ErrSubmitInFlight

// New constructs a bare form engine. Most callers start from a Definition;
// see NewFromDefinition.
func New(opts ...Option) *Form {
	return form.New(opts...)
}

// NewFromDefinition builds an engine seeded with the definition's initial
// values and bound to its validation rules.
func NewFromDefinition(def Definition, opts ...Option) (*Form, error) {
	return def.Engine(opts...)
}

// NewSession prepares an interactive terminal session over the definition.
func NewSession(def Definition, opts ...session.Option) (*session.Session, error) {
	return session.New(def, opts...)
}

// LoadDefinition fetches and parses a standalone definition document (JSON or
// YAML) from a file, fs.FS entry, or URL source. Nameless documents take the
// source file's base name, matching directory loading.
func LoadDefinition(ctx context.Context, src pkgopenapi.Source, options ...pkgopenapi.LoaderOption) (Definition, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return Definition{}, err
	}
	def, err := definition.Parse(doc.Raw())
	if err != nil {
		return Definition{}, fmt.Errorf("%w (source %s)", err, doc.Location())
	}
	if def.Name == "" {
		def.Name = nameFromLocation(doc.Location())
	}
	return def, nil
}

// FromOpenAPI loads an OpenAPI document and builds a definition from the
// named operation's request body.
func FromOpenAPI(ctx context.Context, src pkgopenapi.Source, operationID string, options ...pkgopenapi.LoaderOption) (Definition, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return Definition{}, err
	}
	return FromDocument(ctx, doc, operationID)
}

// FromDocument builds a definition from a pre-loaded OpenAPI document,
// bypassing the loader stage.
func FromDocument(ctx context.Context, doc pkgopenapi.Document, operationID string) (Definition, error) {
	operations, err := NewParser().Operations(ctx, doc)
	if err != nil {
		return Definition{}, err
	}
	op, ok := operations[operationID]
	if !ok {
		return Definition{}, fmt.Errorf("formstate: operation %q not found in %s", operationID, doc.Location())
	}
	return builder.New(builder.Options{}).Build(op)
}

// RenderHTML renders the definition with the built-in themed HTML renderer.
// The renderer is constructed once and reused across calls.
func RenderHTML(ctx context.Context, def Definition, opts RenderOptions) ([]byte, error) {
	renderer, err := htmlRenderer()
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, def, opts)
}

var (
	htmlOnce sync.Once
	htmlInst *html.Renderer
	htmlErr  error
)

func htmlRenderer() (*html.Renderer, error) {
	htmlOnce.Do(func() {
		htmlInst, htmlErr = html.New()
	})
	return htmlInst, htmlErr
}

// Renderers returns the shared renderer registry.
func Renderers() *render.Registry {
	return render.Default()
}

// RegisterRenderer adds a renderer to the shared registry.
func RegisterRenderer(r render.Renderer) error {
	return render.Register(r)
}

// RegisterBuiltinRenderers places the HTML and JSON snapshot renderers in the
// shared registry under their default names ("html", "json"). A second call
// errors on the duplicates.
func RegisterBuiltinRenderers() error {
	page, err := htmlRenderer()
	if err != nil {
		return err
	}
	if err := render.Register(page); err != nil {
		return err
	}
	return render.Register(jsonsnap.New())
}

func nameFromLocation(location string) string {
	base := filepath.Base(location)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
