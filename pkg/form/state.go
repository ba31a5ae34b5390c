// Package form implements the state engine behind a single form: a record of
// values, validation errors, and touched flags addressed by field paths, a
// reducer that applies every mutation as a message, a registry of per-field
// validators, and selector-based subscriptions that fire only when the
// selected slice of state changes.
package form

import (
	"errors"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
)

// ErrValidation is returned by Submit when validation rejected the values.
// The error tree itself lives in the state record.
var ErrValidation = errors.New("form: validation failed")

// ErrSubmitInFlight is returned by Submit while a previous submission is
// still running.
var ErrSubmitInFlight = errors.New("form: submit already in flight")

// State is the complete record for one form. Errors and Touched mirror the
// path structure of Values: an error tree carries message strings at failing
// leaves, a touched tree carries booleans at visited leaves, and a path
// present in one tree may be absent in the others.
type State struct {
	Values      map[string]any
	Errors      map[string]any
	Touched     map[string]any
	Status      any
	SubmitCount int
	Submitting  bool
	Validating  bool
}

// Clone deep-copies the three trees. Status is opaque to the engine and is
// carried by reference.
func (s State) Clone() State {
	return State{
		Values:      fieldpath.CloneMap(s.Values),
		Errors:      fieldpath.CloneMap(s.Errors),
		Touched:     fieldpath.CloneMap(s.Touched),
		Status:      s.Status,
		SubmitCount: s.SubmitCount,
		Submitting:  s.Submitting,
		Validating:  s.Validating,
	}
}

// FieldState is the per-path view renderers and subscribers consume.
type FieldState struct {
	Value   any
	Error   string
	Touched bool
}

// Field resolves one path against the record. A non-string error leaf (a
// nested subtree) reads as no error, matching how renderers consume leaves.
func (s State) Field(path string) FieldState {
	fs := FieldState{}
	fs.Value, _ = fieldpath.Get(s.Values, path)
	if msg, ok := fieldpath.Get(s.Errors, path); ok {
		if str, ok := msg.(string); ok {
			fs.Error = str
		}
	}
	if touched, ok := fieldpath.Get(s.Touched, path); ok {
		if b, ok := touched.(bool); ok {
			fs.Touched = b
		}
	}
	return fs
}
