// Package draft persists form engine state between sessions. A Draft captures
// the value, touched, and status trees for one form; stores keep drafts in
// process memory or in an embedded badger database, and Autosave keeps a
// store current while the user edits.
package draft

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/form"
)

// ErrNotFound is returned by Load when no draft exists for the form.
var ErrNotFound = errors.New("draft: not found")

// Draft is a point-in-time capture of one form's editable state. Validation
// errors are deliberately not captured; they are recomputed from the values
// once the draft is back in an engine.
type Draft struct {
	FormID  string         `json:"form_id"`
	Values  map[string]any `json:"values"`
	Touched map[string]any `json:"touched,omitempty"`
	Status  any            `json:"status,omitempty"`
	SavedAt time.Time      `json:"saved_at"`
}

// Clone deep-copies the trees so the caller and the store never share
// structure. Status is opaque and carried by reference.
func (d Draft) Clone() Draft {
	out := d
	out.Values = fieldpath.CloneMap(d.Values)
	out.Touched = fieldpath.CloneMap(d.Touched)
	return out
}

// Capture snapshots an engine into a draft stamped with the current time.
func Capture(formID string, f *form.Form) Draft {
	return Draft{
		FormID:  formID,
		Values:  f.Values(),
		Touched: f.Touched(),
		Status:  f.Status(),
		SavedAt: time.Now().UTC(),
	}
}

// Store persists drafts keyed by form id. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes or replaces the draft stored under its FormID.
	Save(ctx context.Context, d Draft) error

	// Load returns the draft for formID. ErrNotFound when none exists.
	Load(ctx context.Context, formID string) (Draft, error)

	// Delete removes the draft for formID. Deleting a missing draft is
	// not an error.
	Delete(ctx context.Context, formID string) error

	// List returns the form ids that have a stored draft, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// Restore loads the draft for formID back into the engine: values, touched
// flags, and status. The engine keeps its validators, so whatever validation
// mode it runs in applies to the restored values like any other edit.
func Restore(ctx context.Context, f *form.Form, store Store, formID string) error {
	d, err := store.Load(ctx, formID)
	if err != nil {
		return err
	}
	if err := f.SetValues(ctx, d.Values); err != nil {
		return err
	}
	if err := f.SetTouched(ctx, d.Touched); err != nil {
		return err
	}
	if d.Status != nil {
		f.SetStatus(d.Status)
	}
	return nil
}
