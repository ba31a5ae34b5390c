package formhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/draft"
	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
	"github.com/goliatone/go-formstate/pkg/renderers/jsonsnap"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type indexResponse struct {
	Data []string `json:"data"`
}

// Handler builds a net/http handler with default options plus any overrides.
// It is an alias of NewHandler to match the recommended component API surface.
func Handler(fns ...OptionFn) (http.Handler, error) {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) (http.Handler, error) {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options
// value. Callers are expected to pass an Options value produced by NewOptions
// (or equivalent) so defaults apply.
func HandlerWithOptions(opts Options) (http.Handler, error) {
	opts = NewOptions(func(o *Options) { *o = opts })
	return newHandler(opts, mountPath("", opts.RoutePath))
}

type handler struct {
	opts   Options
	source Source
	page   render.Renderer
	snap   render.Renderer
	prefix string
}

func newHandler(opts Options, prefix string) (*handler, error) {
	source := opts.Source
	if source == nil {
		reg, err := definition.NewRegistry(opts.Forms...)
		if err != nil {
			return nil, fmt.Errorf("formhttp: static definitions: %w", err)
		}
		source = reg
	}

	page := opts.Renderer
	if page == nil {
		renderer, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("formhttp: html renderer: %w", err)
		}
		page = renderer
	}

	snap := opts.Snapshot
	if snap == nil {
		snap = jsonsnap.New()
	}

	return &handler{opts: opts, source: source, page: page, snap: snap, prefix: prefix}, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := h.opts.Clock()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	formName := h.route(rec, r)
	h.opts.Logger.Info("formhttp: request",
		"method", r.Method,
		"path", r.URL.Path,
		"form", formName,
		"status", rec.status,
		"duration", h.opts.Clock().Sub(start),
	)
}

// route dispatches by path shape and returns the form name for the request
// log. Everything under the prefix is {form}, {form}.json, or {form}/draft.
func (h *handler) route(w http.ResponseWriter, r *http.Request) string {
	if h.opts.Guard != nil {
		if err := h.opts.Guard(r); err != nil {
			writeGuardError(w, err)
			return ""
		}
	}

	rest := strings.TrimPrefix(r.URL.Path, h.prefix)
	rest = strings.TrimPrefix(rest, "/")

	switch {
	case rest == "":
		h.index(w, r)
		return ""
	case strings.HasSuffix(rest, "/draft"):
		name := strings.TrimSuffix(rest, "/draft")
		h.draftRoute(w, r, name)
		return name
	case strings.HasSuffix(rest, ".json"):
		name := strings.TrimSuffix(rest, ".json")
		h.snapshot(w, r, name)
		return name
	default:
		h.pageRoute(w, r, rest)
		return rest
	}
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		httpError(w, http.StatusMethodNotAllowed)
		return
	}
	names := h.source.Names()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, r, http.StatusOK, indexResponse{Data: names})
}

func (h *handler) pageRoute(w http.ResponseWriter, r *http.Request, name string) {
	def, ok := h.lookup(name)
	if !ok {
		httpError(w, http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.renderPage(w, r, def, name)
	case http.MethodPost:
		h.submit(w, r, def, name)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		httpError(w, http.StatusMethodNotAllowed)
	}
}

func (h *handler) renderPage(w http.ResponseWriter, r *http.Request, def definition.Form, name string) {
	session := h.session(w, r)
	f, err := h.engine(name, def)
	if err != nil {
		h.fail(w, name, err)
		return
	}
	if h.opts.Drafts != nil {
		err := draft.Restore(r.Context(), f, h.opts.Drafts, draftID(name, session))
		if err != nil && !errors.Is(err, draft.ErrNotFound) {
			h.opts.Logger.Warn("formhttp: restore draft", "form", name, "error", err)
		}
	}
	h.writePage(w, r, def, name, f, http.StatusOK, nil)
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request, def definition.Form, name string) {
	session := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		httpError(w, http.StatusBadRequest)
		return
	}
	f, err := h.engine(name, def)
	if err != nil {
		h.fail(w, name, err)
		return
	}

	coerceErrs := h.apply(r.Context(), f, def.Fields, "", r.PostForm)
	if len(coerceErrs) > 0 {
		h.writePage(w, r, def, name, f, http.StatusUnprocessableEntity, coerceErrs)
		return
	}

	err = f.Submit(r.Context())
	switch {
	case errors.Is(err, form.ErrValidation):
		h.writePage(w, r, def, name, f, http.StatusUnprocessableEntity, nil)
		return
	case err != nil:
		h.fail(w, name, err)
		return
	}

	if h.opts.Drafts != nil {
		if err := h.opts.Drafts.Delete(r.Context(), draftID(name, session)); err != nil {
			h.opts.Logger.Warn("formhttp: discard draft after submit", "form", name, "error", err)
		}
	}
	http.Redirect(w, r, h.prefix+"/"+name, http.StatusSeeOther)
}

func (h *handler) draftRoute(w http.ResponseWriter, r *http.Request, name string) {
	if h.opts.Drafts == nil {
		httpError(w, http.StatusNotFound)
		return
	}
	def, ok := h.lookup(name)
	if !ok {
		httpError(w, http.StatusNotFound)
		return
	}
	session := h.session(w, r)
	id := draftID(name, session)

	switch r.Method {
	case http.MethodPost:
		h.saveDraft(w, r, def, name, id)
	case http.MethodDelete:
		if err := h.opts.Drafts.Delete(r.Context(), id); err != nil {
			h.fail(w, name, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", http.MethodPost+", "+http.MethodDelete)
		httpError(w, http.StatusMethodNotAllowed)
	}
}

func (h *handler) saveDraft(w http.ResponseWriter, r *http.Request, def definition.Form, name, id string) {
	if err := r.ParseForm(); err != nil {
		httpError(w, http.StatusBadRequest)
		return
	}
	f, err := h.engine(name, def)
	if err != nil {
		h.fail(w, name, err)
		return
	}
	// Leaves that fail coercion stay out of the draft; autosave should never
	// block on a half-typed number.
	h.apply(r.Context(), f, def.Fields, "", r.PostForm)

	d := draft.Draft{
		FormID:  id,
		Values:  f.Values(),
		Touched: f.Touched(),
		SavedAt: h.opts.Clock().UTC(),
	}
	if err := h.opts.Drafts.Save(r.Context(), d); err != nil {
		h.fail(w, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		httpError(w, http.StatusMethodNotAllowed)
		return
	}
	def, ok := h.lookup(name)
	if !ok {
		httpError(w, http.StatusNotFound)
		return
	}
	session := h.session(w, r)
	f, err := h.engine(name, def)
	if err != nil {
		h.fail(w, name, err)
		return
	}
	if h.opts.Drafts != nil {
		err := draft.Restore(r.Context(), f, h.opts.Drafts, draftID(name, session))
		if err != nil && !errors.Is(err, draft.ErrNotFound) {
			h.opts.Logger.Warn("formhttp: restore draft", "form", name, "error", err)
		}
	}

	opts := render.SnapshotOptions(f)
	opts.Action = h.prefix + "/" + name
	body, err := h.snap.Render(r.Context(), def, opts)
	if err != nil {
		h.fail(w, name, err)
		return
	}
	w.Header().Set("Content-Type", h.snap.ContentType())
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func (h *handler) writePage(w http.ResponseWriter, r *http.Request, def definition.Form, name string, f *form.Form, status int, extra map[string][]string) {
	opts := render.SnapshotOptions(f)
	for path, msgs := range extra {
		if opts.Errors == nil {
			opts.Errors = make(map[string][]string)
		}
		opts.Errors[path] = append(opts.Errors[path], msgs...)
	}
	opts.Action = h.prefix + "/" + name

	body, err := h.page.Render(r.Context(), def, opts)
	if err != nil {
		h.fail(w, name, err)
		return
	}
	w.Header().Set("Content-Type", h.page.ContentType())
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func (h *handler) lookup(name string) (definition.Form, bool) {
	if name == "" || strings.Contains(name, "/") {
		return definition.Form{}, false
	}
	return h.source.Form(name)
}

func (h *handler) engine(name string, def definition.Form) (*form.Form, error) {
	// Validation runs once, inside Submit; per-leaf writes stay silent.
	opts := []form.Option{
		form.WithValidateOnChange(false),
		form.WithValidateOnBlur(false),
	}
	if h.opts.OnSubmit != nil {
		submit := h.opts.OnSubmit
		opts = append(opts, form.WithSubmitHandler(func(ctx context.Context, values map[string]any, _ *form.Form) error {
			return submit(ctx, name, values)
		}))
	}
	f, err := def.Engine(opts...)
	if err != nil {
		return nil, fmt.Errorf("formhttp: build engine for %s: %w", name, err)
	}
	return f, nil
}

// apply walks the definition against the posted body, coercing each present
// leaf into the engine. The returned map carries coercion failures keyed by
// path; nil when everything coerced.
func (h *handler) apply(ctx context.Context, f *form.Form, fields []definition.Field, prefix string, posted url.Values) map[string][]string {
	errs := make(map[string][]string)
	h.applyFields(ctx, f, fields, prefix, posted, errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (h *handler) applyFields(ctx context.Context, f *form.Form, fields []definition.Field, prefix string, posted url.Values, errs map[string][]string) {
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		path := fieldpath.Join(prefix, field.Name)

		switch field.Type {
		case definition.FieldTypeObject:
			h.applyFields(ctx, f, field.Nested, path, posted, errs)

		case definition.FieldTypeArray:
			raws, ok := posted[path]
			if !ok {
				continue
			}
			value, err := definition.CoerceValues(field, raws)
			if err != nil {
				errs[path] = append(errs[path], invalidMessage(field))
				h.touch(ctx, f, path)
				continue
			}
			h.applyLeaf(ctx, f, path, value)

		case definition.FieldTypeBoolean:
			// Unchecked checkboxes never reach the body; an absent leaf
			// coerces to false.
			value, err := definition.CoerceValue(field, posted.Get(path))
			if err != nil {
				errs[path] = append(errs[path], invalidMessage(field))
				h.touch(ctx, f, path)
				continue
			}
			h.applyLeaf(ctx, f, path, value)

		default:
			raws, ok := posted[path]
			if !ok || len(raws) == 0 {
				continue
			}
			value, err := definition.CoerceValue(field, raws[0])
			if err != nil {
				errs[path] = append(errs[path], invalidMessage(field))
				h.touch(ctx, f, path)
				continue
			}
			h.applyLeaf(ctx, f, path, value)
		}
	}
}

func (h *handler) applyLeaf(ctx context.Context, f *form.Form, path string, value any) {
	if err := f.SetFieldValue(ctx, path, value); err != nil {
		h.opts.Logger.Warn("formhttp: set value", "path", path, "error", err)
		return
	}
	h.touch(ctx, f, path)
}

func (h *handler) touch(ctx context.Context, f *form.Form, path string) {
	if err := f.SetFieldTouched(ctx, path, true); err != nil {
		h.opts.Logger.Warn("formhttp: touch", "path", path, "error", err)
	}
}

// session returns the client's draft identity, issuing the cookie when the
// request carries none or carries something that is not a UUID.
func (h *handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.opts.CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *handler) fail(w http.ResponseWriter, name string, err error) {
	h.opts.Logger.Error("formhttp: request failed", "form", name, "error", err)
	httpError(w, http.StatusInternalServerError)
}

func draftID(name, session string) string {
	return name + "@" + session
}

func invalidMessage(field definition.Field) string {
	switch field.Type {
	case definition.FieldTypeInteger:
		return "must be a whole number"
	case definition.FieldTypeNumber:
		return "must be a number"
	case definition.FieldTypeBoolean:
		return "must be true or false"
	default:
		return "invalid value"
	}
}

func httpError(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if err == nil {
		httpError(w, http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	httpError(w, code)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
