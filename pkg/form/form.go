package form

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// Form is the engine for one form instance. All mutations flow through the
// reducer as messages and run synchronously on the calling goroutine; an
// internal mutex makes an instance safe to share, but dispatch order across
// concurrent mutators is the callers' concern. Trees stored in the record are
// never mutated in place, so snapshots handed out remain stable.
type Form struct {
	mu      sync.Mutex
	state   State
	initial State

	regMu    sync.RWMutex
	registry map[string]validate.Field

	obsMu     sync.Mutex
	observers []*observer

	cfg config
}

// New constructs a Form. With no options the record starts empty: no values,
// no errors, nothing touched.
func New(opts ...Option) *Form {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	initial := State{
		Values:  fieldpath.CloneMap(cfg.initialValues),
		Errors:  fieldpath.CloneMap(cfg.initialErrors),
		Touched: fieldpath.CloneMap(cfg.initialTouched),
		Status:  cfg.initialStatus,
	}
	if initial.Values == nil {
		initial.Values = make(map[string]any)
	}

	f := &Form{
		state:    initial.Clone(),
		initial:  initial,
		registry: make(map[string]validate.Field, len(cfg.fieldValidators)),
		cfg:      cfg,
	}
	for name, v := range cfg.fieldValidators {
		f.registry[name] = v
	}

	if cfg.validateOnInit {
		// Faults here recur on the next explicit validation, so the pass only
		// needs to seed the error tree.
		_, _ = f.Validate(context.Background())
	}
	return f
}

// State returns a deep-copied snapshot of the record.
func (f *Form) State() State {
	f.mu.Lock()
	s := f.state
	f.mu.Unlock()
	return s.Clone()
}

// Values returns a deep copy of the value tree.
func (f *Form) Values() map[string]any {
	f.mu.Lock()
	values := f.state.Values
	f.mu.Unlock()
	out := fieldpath.CloneMap(values)
	if out == nil {
		out = make(map[string]any)
	}
	return out
}

// Errors returns a deep copy of the error tree.
func (f *Form) Errors() map[string]any {
	f.mu.Lock()
	errs := f.state.Errors
	f.mu.Unlock()
	return fieldpath.CloneMap(errs)
}

// Touched returns a deep copy of the touched tree.
func (f *Form) Touched() map[string]any {
	f.mu.Lock()
	touched := f.state.Touched
	f.mu.Unlock()
	return fieldpath.CloneMap(touched)
}

// Value resolves one path against the value tree, returning a deep copy of
// the subtree it addresses, or nil when the path is absent.
func (f *Form) Value(path string) any {
	f.mu.Lock()
	values := f.state.Values
	f.mu.Unlock()
	v, ok := fieldpath.Get(values, path)
	if !ok {
		return nil
	}
	return fieldpath.Clone(v)
}

// Field resolves value, error, and touched state for one path.
func (f *Form) Field(path string) FieldState {
	f.mu.Lock()
	s := f.state
	f.mu.Unlock()
	return s.Field(path)
}

// Status returns the opaque status value.
func (f *Form) Status() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Status
}

// SubmitCount reports how many submissions have been attempted.
func (f *Form) SubmitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.SubmitCount
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Submitting
}

// Validating reports whether a validation pass is running.
func (f *Form) Validating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Validating
}

// Dirty reports whether the value tree differs from its initial baseline.
func (f *Form) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !fieldpath.Equal(f.initial.Values, f.state.Values)
}

// Valid reports whether the error tree carries no messages.
func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !validate.HasErrors(f.state.Errors)
}

// SetValues replaces the whole value tree and, when change validation is
// enabled, runs a validation pass.
func (f *Form) SetValues(ctx context.Context, values map[string]any) error {
	f.dispatch(SetValuesMsg{Values: fieldpath.CloneMap(values)})
	return f.validateOnChange(ctx)
}

// SetFieldValue writes one value leaf and, when change validation is enabled,
// runs a validation pass.
func (f *Form) SetFieldValue(ctx context.Context, path string, value any) error {
	if _, err := fieldpath.Parse(path); err != nil {
		return err
	}
	f.dispatch(SetFieldValueMsg{Path: path, Value: value})
	return f.validateOnChange(ctx)
}

// RemoveFieldValue deletes one value leaf. Error and touched leaves at the
// same path are removed with it so the trees keep mirroring each other.
func (f *Form) RemoveFieldValue(ctx context.Context, path string) error {
	if _, err := fieldpath.Parse(path); err != nil {
		return err
	}
	f.mu.Lock()
	before := f.state
	next := before
	next.Values, _ = fieldpath.Remove(next.Values, path)
	next.Errors, _ = fieldpath.Remove(next.Errors, path)
	next.Touched, _ = fieldpath.Remove(next.Touched, path)
	f.state = next
	f.mu.Unlock()
	f.notify(before, next)
	return f.validateOnChange(ctx)
}

// SetErrors replaces the whole error tree.
func (f *Form) SetErrors(errors map[string]any) {
	f.dispatch(SetErrorsMsg{Errors: fieldpath.CloneMap(errors)})
}

// SetFieldError writes one error leaf. An empty message clears it.
func (f *Form) SetFieldError(path, message string) error {
	if _, err := fieldpath.Parse(path); err != nil {
		return err
	}
	f.dispatch(SetFieldErrorMsg{Path: path, Message: message})
	return nil
}

// SetTouched replaces the whole touched tree and, when blur validation is
// enabled, runs a validation pass.
func (f *Form) SetTouched(ctx context.Context, touched map[string]any) error {
	f.dispatch(SetTouchedMsg{Touched: fieldpath.CloneMap(touched)})
	return f.validateOnBlur(ctx)
}

// SetFieldTouched writes one touched leaf and, when blur validation is
// enabled, runs a validation pass.
func (f *Form) SetFieldTouched(ctx context.Context, path string, touched bool) error {
	if _, err := fieldpath.Parse(path); err != nil {
		return err
	}
	f.dispatch(SetFieldTouchedMsg{Path: path, Touched: touched})
	return f.validateOnBlur(ctx)
}

// SetStatus stores an opaque status value.
func (f *Form) SetStatus(status any) {
	f.dispatch(SetStatusMsg{Status: status})
}

// SetSubmitting toggles the submitting flag. Submit manages the flag itself;
// this is for callers driving submission by hand.
func (f *Form) SetSubmitting(submitting bool) {
	f.dispatch(SetSubmittingMsg{Submitting: submitting})
}

// RegisterField adds a field to the registry with an optional validator. A
// nil validator registers the name alone, which keeps the field part of
// validation bookkeeping without checks.
func (f *Form) RegisterField(name string, v validate.Field) error {
	if _, err := fieldpath.Parse(name); err != nil {
		return err
	}
	f.regMu.Lock()
	f.registry[name] = v
	f.regMu.Unlock()
	return nil
}

// UnregisterField removes a field from the registry.
func (f *Form) UnregisterField(name string) {
	f.regMu.Lock()
	delete(f.registry, name)
	f.regMu.Unlock()
}

// RegisteredFields lists registry names in sorted order.
func (f *Form) RegisteredFields() []string {
	f.regMu.RLock()
	names := make([]string, 0, len(f.registry))
	for name := range f.registry {
		names = append(names, name)
	}
	f.regMu.RUnlock()
	sort.Strings(names)
	return names
}

// Validate runs every registered field validator plus the whole-form
// validator, merges their results with field-level messages winning shared
// leaves, stores the merged tree, and returns it. The error return reports
// infrastructure faults only; invalid values are data in the returned tree.
func (f *Form) Validate(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.dispatch(SetValidatingMsg{Validating: true})
	merged, err := f.runValidators(ctx)
	if err != nil {
		f.dispatch(SetValidatingMsg{Validating: false})
		return nil, err
	}
	f.dispatch(SetErrorsMsg{Errors: merged}, SetValidatingMsg{Validating: false})
	return merged, nil
}

// ValidateField runs the registered validator for one field against its
// current value and stores the resulting error leaf. Fields without a
// validator always pass.
func (f *Form) ValidateField(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.regMu.RLock()
	v := f.registry[name]
	f.regMu.RUnlock()
	if v == nil {
		return "", nil
	}

	value, _ := fieldpath.Get(f.Values(), name)
	msg, err := v.Validate(ctx, value)
	if err != nil {
		return "", fmt.Errorf("form: field %s: %w", name, err)
	}
	f.dispatch(SetFieldErrorMsg{Path: name, Message: msg})
	return msg, nil
}

// Submit runs the submission flow: mark every field touched and bump the
// submit counter, validate, and on success hand the values to the submit
// handler. Validation failures return ErrValidation with the details stored
// in the error tree. The submitting flag is false again by the time Submit
// returns.
func (f *Form) Submit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	if f.state.Submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	before := f.state
	next := Reduce(before, SubmitAttemptMsg{})
	f.state = next
	f.mu.Unlock()
	f.notify(before, next)

	errTree, err := f.Validate(ctx)
	if err != nil {
		f.dispatch(SubmitFailureMsg{})
		return err
	}
	if validate.HasErrors(errTree) {
		f.dispatch(SubmitFailureMsg{})
		return ErrValidation
	}

	if f.cfg.onSubmit != nil {
		if err := f.cfg.onSubmit(ctx, f.Values(), f); err != nil {
			f.dispatch(SubmitFailureMsg{})
			return fmt.Errorf("form: submit handler: %w", err)
		}
	}
	f.dispatch(SubmitSuccessMsg{})
	return nil
}

// ResetOption adjusts the record Reset installs.
type ResetOption func(*resetSpec)

type resetSpec struct {
	values     map[string]any
	hasValues  bool
	errors     map[string]any
	hasErrors  bool
	touched    map[string]any
	hasTouched bool
	status     any
	hasStatus  bool
}

// ResetValues makes the given values the new record and the new baseline for
// Dirty.
func ResetValues(values map[string]any) ResetOption {
	return func(spec *resetSpec) {
		spec.values = values
		spec.hasValues = true
	}
}

// ResetErrors installs a replacement error tree instead of the initial one.
func ResetErrors(errors map[string]any) ResetOption {
	return func(spec *resetSpec) {
		spec.errors = errors
		spec.hasErrors = true
	}
}

// ResetTouched installs a replacement touched tree instead of the initial one.
func ResetTouched(touched map[string]any) ResetOption {
	return func(spec *resetSpec) {
		spec.touched = touched
		spec.hasTouched = true
	}
}

// ResetStatus installs a replacement status instead of the initial one.
func ResetStatus(status any) ResetOption {
	return func(spec *resetSpec) {
		spec.status = status
		spec.hasStatus = true
	}
}

// Reset returns the record to its initial state, or to the replacements the
// options carry. Replacement values, errors, touched, and status become the
// new initial baseline, so a reset to fresh values also resets Dirty.
func (f *Form) Reset(opts ...ResetOption) {
	spec := resetSpec{}
	for _, opt := range opts {
		opt(&spec)
	}

	f.mu.Lock()
	if spec.hasValues {
		f.initial.Values = fieldpath.CloneMap(spec.values)
		if f.initial.Values == nil {
			f.initial.Values = make(map[string]any)
		}
	}
	if spec.hasErrors {
		f.initial.Errors = fieldpath.CloneMap(spec.errors)
	}
	if spec.hasTouched {
		f.initial.Touched = fieldpath.CloneMap(spec.touched)
	}
	if spec.hasStatus {
		f.initial.Status = spec.status
	}
	before := f.state
	next := f.initial.Clone()
	f.state = next
	f.mu.Unlock()
	f.notify(before, next)

	if f.cfg.onReset != nil {
		f.cfg.onReset(fieldpath.CloneMap(next.Values))
	}
}

func (f *Form) dispatch(msgs ...Msg) {
	f.mu.Lock()
	before := f.state
	next := before
	for _, m := range msgs {
		next = Reduce(next, m)
	}
	f.state = next
	f.mu.Unlock()
	f.notify(before, next)
}

func (f *Form) validateOnChange(ctx context.Context) error {
	if !f.cfg.validateOnChange {
		return nil
	}
	_, err := f.Validate(ctx)
	return err
}

func (f *Form) validateOnBlur(ctx context.Context) error {
	if !f.cfg.validateOnBlur {
		return nil
	}
	_, err := f.Validate(ctx)
	return err
}

func (f *Form) runValidators(ctx context.Context) (map[string]any, error) {
	values := f.Values()

	var formErrs map[string]any
	if f.cfg.validator != nil {
		var err error
		formErrs, err = f.cfg.validator.Validate(ctx, values)
		if err != nil {
			return nil, fmt.Errorf("form: whole-form validation: %w", err)
		}
	}

	f.regMu.RLock()
	validators := make(map[string]validate.Field, len(f.registry))
	for name, v := range f.registry {
		validators[name] = v
	}
	f.regMu.RUnlock()

	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}
	sort.Strings(names)

	fieldErrs := make(map[string]any)
	for _, name := range names {
		v := validators[name]
		if v == nil {
			continue
		}
		value, _ := fieldpath.Get(values, name)
		msg, err := v.Validate(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("form: field %s: %w", name, err)
		}
		if msg == "" {
			continue
		}
		fieldErrs, err = fieldpath.Set(fieldErrs, name, msg)
		if err != nil {
			return nil, fmt.Errorf("form: field %s: %w", name, err)
		}
	}

	return validate.Merge(formErrs, fieldErrs), nil
}
