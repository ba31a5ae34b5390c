package definition

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// Validators compiles every field's declarative constraints into reusable
// validators keyed by field path. Required flags, enum sets, and formats are
// folded into the compiled set alongside the explicit rules.
func (f Form) Validators() (map[string]validate.Field, error) {
	out := make(map[string]validate.Field)
	var firstErr error
	walkFields(f.Fields, "", func(path string, field Field) {
		if firstErr != nil {
			return
		}
		compiled, err := validate.CompileRules(field.Validations,
			validate.WithRequired(field.Required),
			validate.WithEnum(field.Enum),
			validate.WithFormat(field.Format),
		)
		if err != nil {
			firstErr = fmt.Errorf("definition: field %s: %w", path, err)
			return
		}
		out[path] = compiled
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Engine builds a form engine seeded from the definition: initial values from
// InitialValues and one registered validator per field path. Options run
// after the seeded initial values, so callers can override them.
func (f Form) Engine(opts ...form.Option) (*form.Form, error) {
	validators, err := f.Validators()
	if err != nil {
		return nil, err
	}

	all := make([]form.Option, 0, len(opts)+1)
	all = append(all, form.WithInitialValues(f.InitialValues()))
	all = append(all, opts...)
	eng := form.New(all...)

	if err := bindValidators(eng, validators); err != nil {
		return nil, err
	}
	return eng, nil
}

// Bind registers the definition's compiled validators on an existing engine.
func (f Form) Bind(target *form.Form) error {
	validators, err := f.Validators()
	if err != nil {
		return err
	}
	return bindValidators(target, validators)
}

func bindValidators(target *form.Form, validators map[string]validate.Field) error {
	paths := make([]string, 0, len(validators))
	for path := range validators {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := target.RegisterField(path, validators[path]); err != nil {
			return fmt.Errorf("definition: register %s: %w", path, err)
		}
	}
	return nil
}
