package formhttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/draft"
	"github.com/goliatone/go-formstate/pkg/render"
)

// SubmitFunc receives validated values once the engine accepts a submission.
// A non-nil error fails the request without clearing the stored draft.
type SubmitFunc func(ctx context.Context, formName string, values map[string]any) error

// GuardFunc runs before routing. Returning an error rejects the request; the
// status comes from HTTPError when the error carries one, 403 otherwise.
type GuardFunc func(r *http.Request) error

type Options struct {
	// RoutePath is the path segment the component mounts under basePath.
	RoutePath string

	// CookieName names the session cookie that scopes drafts to a client.
	CookieName string

	// Source resolves definitions by form name. *definition.Registry and
	// *DirSource both satisfy it.
	Source Source

	// Forms is a static definition list used when Source is nil.
	Forms []definition.Form

	// Renderer produces the HTML page. Defaults to the themed html renderer.
	Renderer render.Renderer

	// Snapshot produces the {form}.json body. Defaults to jsonsnap.
	Snapshot render.Renderer

	// Drafts persists per-client drafts. Nil disables the draft routes.
	Drafts draft.Store

	// OnSubmit receives accepted submissions.
	OnSubmit SubmitFunc

	// Guard screens every request before routing.
	Guard GuardFunc

	// Logger receives one structured line per request. The default logger
	// discards everything.
	Logger *slog.Logger

	// Clock stamps drafts and measures request durations.
	Clock func() time.Time
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:  "/forms",
		CookieName: "formstate_session",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      time.Now,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/forms"
	}
	if opts.CookieName == "" {
		opts.CookieName = "formstate_session"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Forms != nil {
		opts.Forms = append([]definition.Form{}, opts.Forms...)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithCookieName(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CookieName = name
	}
}

func WithSource(source Source) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Source = source
	}
}

func WithForms(forms ...definition.Form) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Forms = append([]definition.Form{}, forms...)
	}
}

func WithRenderer(renderer render.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = renderer
	}
}

func WithSnapshotRenderer(renderer render.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Snapshot = renderer
	}
}

func WithDraftStore(store draft.Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Drafts = store
	}
}

func WithSubmitHandler(fn SubmitFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.OnSubmit = fn
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func WithClock(clock func() time.Time) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Clock = clock
	}
}
