package render

import (
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/form"
)

// Options describe per-render data that renderers use to customise their
// output without mutating the definition or the engine state it came from.
type Options struct {
	// Action overrides the submit URL declared by the definition.
	Action string
	// Method overrides the HTTP method declared by the definition. Renderers
	// translate verbs browsers cannot submit (PATCH/PUT/DELETE) into POST plus
	// a hidden _method input; SubmitMethod implements that rule.
	Method string
	// Values pre-populates rendered controls, keyed by dotted field paths
	// (e.g. "author.email", "tags[0]").
	Values map[string]any
	// Errors surfaces validation feedback keyed by field path. Renderers map
	// these into inline chrome plus data-validation attributes.
	Errors map[string][]string
	// Touched marks the field paths the user has visited, so renderers can
	// distinguish untouched controls from touched-but-clean ones.
	Touched map[string]bool
	// Hidden lists extra hidden inputs to emit inside the form (CSRF tokens,
	// version fields). The method override input is added automatically.
	Hidden []HiddenField
	// Theme carries resolved go-theme output: tokens, CSS variables, partial
	// overrides, and the asset URL resolver.
	Theme *theme.RendererConfig
	// Extras feeds visibility rules and templates with out-of-band context
	// such as user roles or feature flags.
	Extras map[string]any
}

// SnapshotOptions bridges a live engine into renderer shape. Value and
// touched leaves flatten to dotted paths; string error leaves become
// single-message slices. Nil input yields zero options.
func SnapshotOptions(f *form.Form) Options {
	if f == nil {
		return Options{}
	}

	opts := Options{}

	if values := fieldpath.Flatten(f.Values()); len(values) > 0 {
		opts.Values = values
	}

	errs := make(map[string][]string)
	for path, leaf := range fieldpath.Flatten(f.Errors()) {
		msg, ok := leaf.(string)
		if !ok || strings.TrimSpace(msg) == "" {
			continue
		}
		errs[path] = []string{msg}
	}
	if len(errs) > 0 {
		opts.Errors = errs
	}

	touched := make(map[string]bool)
	for path, leaf := range fieldpath.Flatten(f.Touched()) {
		if flag, ok := leaf.(bool); ok && flag {
			touched[path] = true
		}
	}
	if len(touched) > 0 {
		opts.Touched = touched
	}

	return opts
}

// SubmitMethod resolves the form element's method and the override verb to
// tunnel through a hidden _method input. Options win over the definition,
// the fallback is POST. GET and POST need no override.
func SubmitMethod(def definition.Form, opts Options) (method, override string) {
	method = strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = strings.ToUpper(strings.TrimSpace(def.Method))
	}
	if method == "" {
		method = "POST"
	}
	switch method {
	case "GET", "POST":
		return method, ""
	default:
		return "POST", method
	}
}

// SubmitAction resolves the form element's action URL. Options win over the
// definition.
func SubmitAction(def definition.Form, opts Options) string {
	if action := strings.TrimSpace(opts.Action); action != "" {
		return action
	}
	return strings.TrimSpace(def.Action)
}
