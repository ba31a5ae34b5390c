package form

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/validate"
)

// SubmitHandler receives the validated values when a submission passes. The
// engine is handed along so handlers can set status or field errors.
type SubmitHandler func(ctx context.Context, values map[string]any, f *Form) error

// Option configures a Form before construction.
type Option func(*config)

type config struct {
	initialValues    map[string]any
	initialErrors    map[string]any
	initialTouched   map[string]any
	initialStatus    any
	validateOnChange bool
	validateOnBlur   bool
	validateOnInit   bool
	validator        validate.Form
	onSubmit         SubmitHandler
	onReset          func(values map[string]any)
	fieldValidators  map[string]validate.Field
}

func defaultConfig() config {
	return config{
		validateOnChange: true,
		validateOnBlur:   true,
	}
}

// WithInitialValues seeds the value tree. The map is cloned, so later caller
// mutations do not leak into the engine.
func WithInitialValues(values map[string]any) Option {
	return func(cfg *config) {
		cfg.initialValues = values
	}
}

// WithInitialErrors seeds the error tree.
func WithInitialErrors(errors map[string]any) Option {
	return func(cfg *config) {
		cfg.initialErrors = errors
	}
}

// WithInitialTouched seeds the touched tree.
func WithInitialTouched(touched map[string]any) Option {
	return func(cfg *config) {
		cfg.initialTouched = touched
	}
}

// WithInitialStatus seeds the opaque status slot.
func WithInitialStatus(status any) Option {
	return func(cfg *config) {
		cfg.initialStatus = status
	}
}

// WithValidateOnChange controls whether value mutations trigger a full
// validation pass. Enabled by default.
func WithValidateOnChange(enabled bool) Option {
	return func(cfg *config) {
		cfg.validateOnChange = enabled
	}
}

// WithValidateOnBlur controls whether touch mutations trigger a full
// validation pass. Enabled by default.
func WithValidateOnBlur(enabled bool) Option {
	return func(cfg *config) {
		cfg.validateOnBlur = enabled
	}
}

// WithValidateOnInit runs one validation pass during construction so initial
// values surface their errors immediately. Disabled by default.
func WithValidateOnInit(enabled bool) Option {
	return func(cfg *config) {
		cfg.validateOnInit = enabled
	}
}

// WithValidator installs the whole-form validator.
func WithValidator(v validate.Form) Option {
	return func(cfg *config) {
		cfg.validator = v
	}
}

// WithSubmitHandler installs the handler Submit invokes after validation
// passes.
func WithSubmitHandler(h SubmitHandler) Option {
	return func(cfg *config) {
		cfg.onSubmit = h
	}
}

// WithResetHandler installs a hook invoked after every Reset with the values
// the record was reset to.
func WithResetHandler(fn func(values map[string]any)) Option {
	return func(cfg *config) {
		cfg.onReset = fn
	}
}

// WithFieldValidator registers a field validator at construction time. The
// validator may be nil to register the field name without checks.
func WithFieldValidator(name string, v validate.Field) Option {
	return func(cfg *config) {
		if cfg.fieldValidators == nil {
			cfg.fieldValidators = make(map[string]validate.Field)
		}
		cfg.fieldValidators[name] = v
	}
}
