// Package html renders form definitions as themeable HTML fragments. Markup
// comes from an embedded pongo2 template bundle: a form shell, a field
// wrapper, per-control templates, and error chrome, each replaceable through
// theme partials or an alternate template file system.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/render"
	rendertemplate "github.com/goliatone/go-formstate/pkg/render/template"
	gotemplate "github.com/goliatone/go-formstate/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

// Template names inside the default bundle. Theme partials override them per
// key: "forms.shell", "forms.field", "forms.errors", and "forms.<control>"
// for the control templates.
const (
	shellTemplate  = "templates/form.tmpl"
	fieldTemplate  = "templates/field.tmpl"
	errorsTemplate = "templates/chrome/errors.tmpl"

	partialShell  = "forms.shell"
	partialField  = "forms.field"
	partialErrors = "forms.errors"
)

// Control identifiers. Each maps to a template under templates/controls/ and
// doubles as the partial key suffix.
const (
	controlInput    = "input"
	controlTextarea = "textarea"
	controlSelect   = "select"
	controlCheckbox = "checkbox"
	controlChips    = "chips"
	controlFieldset = "fieldset"
	controlList     = "list"
)

var controlTemplates = map[string]string{
	controlInput:    "templates/controls/input.tmpl",
	controlTextarea: "templates/controls/textarea.tmpl",
	controlSelect:   "templates/controls/select.tmpl",
	controlCheckbox: "templates/controls/checkbox.tmpl",
	controlChips:    "templates/controls/chips.tmpl",
	controlFieldset: "templates/controls/fieldset.tmpl",
	controlList:     "templates/controls/list.tmpl",
}

// widgetControls maps resolved widget names onto the controls this renderer
// ships. Widgets without an entry fall back by field type.
var widgetControls = map[string]string{
	widgets.WidgetToggle:     controlCheckbox,
	widgets.WidgetSelect:     controlSelect,
	widgets.WidgetChips:      controlChips,
	widgets.WidgetTextarea:   controlTextarea,
	widgets.WidgetPassword:   controlInput,
	widgets.WidgetJSONEditor: controlTextarea,
	widgets.WidgetKeyValue:   controlTextarea,
}

// Option customises the renderer configuration.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	templateFuncs    map[string]any
	widgets          *widgets.Registry
	visibility       visibility.Evaluator
	assetURLPrefix   string
	stylesheetURL    string
	disableStyles    bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
// Template funcs registered through WithTemplateFuncs only reach the default
// engine; a custom renderer brings its own.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTemplateFuncs registers extra helper functions or filters with the
// default template engine.
func WithTemplateFuncs(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFuncs == nil {
			cfg.templateFuncs = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFuncs[name] = fn
		}
	}
}

// WithWidgetRegistry replaces the widget registry used for control dispatch.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithVisibilityEvaluator replaces the evaluator deciding which fields render
// hidden.
func WithVisibilityEvaluator(eval visibility.Evaluator) Option {
	return func(cfg *config) {
		if eval != nil {
			cfg.visibility = eval
		}
	}
}

// WithAssetURLPrefix prefixes relative asset URLs (e.g. "/static/forms").
func WithAssetURLPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetURLPrefix = prefix
	}
}

// WithStylesheet links the given URL instead of inlining the embedded base
// stylesheet. A theme asset resolver still wins when it rewrites the URL.
func WithStylesheet(url string) Option {
	return func(cfg *config) {
		cfg.stylesheetURL = strings.TrimSpace(url)
	}
}

// WithoutStyles drops the base stylesheet entirely. Theme CSS variable blocks
// still render.
func WithoutStyles() Option {
	return func(cfg *config) {
		cfg.disableStyles = true
	}
}

// Renderer turns a form definition plus render options into an HTML fragment.
type Renderer struct {
	templates      rendertemplate.TemplateRenderer
	widgets        *widgets.Registry
	visibility     visibility.Evaluator
	assetURLPrefix string
	stylesheetURL  string
	disableStyles  bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
			gotemplate.WithTemplateFunc(cfg.templateFuncs),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	reg := cfg.widgets
	if reg == nil {
		reg = widgets.NewRegistry()
	}
	eval := cfg.visibility
	if eval == nil {
		eval = expr.New()
	}

	return &Renderer{
		templates:      renderer,
		widgets:        reg,
		visibility:     eval,
		assetURLPrefix: cfg.assetURLPrefix,
		stylesheetURL:  cfg.stylesheetURL,
		disableStyles:  cfg.disableStyles,
	}, nil
}

// Name identifies the renderer inside the registry.
func (r *Renderer) Name() string {
	return "html"
}

// ContentType returns the MIME type for generated documents.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the form fragment: style blocks, the form element with
// theme data attributes, hidden inputs, and one wrapper per visible field.
func (r *Renderer) Render(_ context.Context, def definition.Form, opts render.Options) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	method, override := render.SubmitMethod(def, opts)
	hidden := render.MergeHiddenFields(nil, opts.Hidden...)
	if override != "" {
		hidden = render.MergeHiddenFields(hidden, render.MethodOverride(override))
	}
	hiddenFields := make([]map[string]any, 0, len(hidden))
	for _, field := range render.SortedHiddenFields(hidden) {
		hiddenFields = append(hiddenFields, map[string]any{
			"name":  field.Name,
			"value": field.Value,
		})
	}

	state := &renderState{
		templates:  r.templates,
		theme:      opts.Theme,
		widgets:    r.widgets,
		visibility: r.visibility,
		values:     nestedValues(opts.Values),
		errors:     opts.Errors,
		touched:    opts.Touched,
		extras:     opts.Extras,
	}

	fieldsHTML, err := state.renderFields(def.Fields, "")
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"form": map[string]any{
			"name":        def.Name,
			"title":       def.Title,
			"description": def.Description,
		},
		"action":        render.SubmitAction(def, opts),
		"method":        method,
		"submit_label":  submitLabel(def),
		"hidden_fields": hiddenFields,
		"form_errors":   formErrors(opts.Errors),
		"fields_html":   fieldsHTML,
		"styles_html":   r.stylesBlock(opts),
		"attrs":         formAttrs(opts.Theme),
		"extras":        opts.Extras,
	}

	rendered, err := r.templates.RenderTemplate(partialFor(opts.Theme, partialShell, shellTemplate), data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render form shell: %w", err)
	}
	return []byte(rendered), nil
}

// stylesBlock assembles the leading style markup: the base stylesheet as a
// link or inline block, then the theme's CSS variable overrides.
func (r *Renderer) stylesBlock(opts render.Options) string {
	var b strings.Builder

	url := r.stylesheetURL
	if opts.Theme != nil && opts.Theme.AssetURL != nil {
		if resolved := strings.TrimSpace(opts.Theme.AssetURL(themeAssetStylesheet)); resolved != "" {
			url = resolved
		}
	}

	switch {
	case url != "":
		b.WriteString(`<link rel="stylesheet" href="`)
		b.WriteString(escapeAttr(expandAssetURL(r.assetURLPrefix, url)))
		b.WriteString("\">\n")
	case !r.disableStyles:
		if css := defaultStylesheet(); css != "" {
			b.WriteString("<style>\n")
			b.WriteString(css)
			b.WriteString("</style>\n")
		}
	}

	if opts.Theme != nil {
		if block := cssVarsStyle(opts.Theme.CSSVars); block != "" {
			b.WriteString("<style>\n")
			b.WriteString(block)
			b.WriteString("\n</style>\n")
		}
	}
	return b.String()
}

func submitLabel(def definition.Form) string {
	if label := strings.TrimSpace(def.SubmitLabel); label != "" {
		return label
	}
	return "Submit"
}

// formErrors extracts messages that carry no field path.
func formErrors(errs map[string][]string) []string {
	if len(errs) == 0 {
		return nil
	}
	return errs[""]
}
