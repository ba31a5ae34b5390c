package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validate"
)

func requiredField(t *testing.T) validate.Field {
	t.Helper()
	return validate.MustCompileRules(nil, validate.WithRequired(true))
}

func TestNewStartsEmpty(t *testing.T) {
	f := form.New()

	if got := f.Values(); len(got) != 0 {
		t.Fatalf("values = %v, want empty", got)
	}
	if f.Dirty() {
		t.Fatal("fresh form reports dirty")
	}
	if !f.Valid() {
		t.Fatal("fresh form reports invalid")
	}
	if got := f.SubmitCount(); got != 0 {
		t.Fatalf("submit count = %d, want 0", got)
	}
}

func TestNewClonesInitialValues(t *testing.T) {
	seed := map[string]any{"user": map[string]any{"name": "Ada"}}
	f := form.New(form.WithInitialValues(seed))

	seed["user"].(map[string]any)["name"] = "mutated"

	if got := f.Value("user.name"); got != "Ada" {
		t.Fatalf("initial values shared with caller: %v", got)
	}
}

func TestSetFieldValueRunsChangeValidation(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithFieldValidator("email", requiredField(t)),
	)

	if err := f.SetFieldValue(ctx, "name", "Ada"); err != nil {
		t.Fatalf("SetFieldValue: %v", err)
	}

	want := map[string]any{"email": "required"}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if f.Valid() {
		t.Fatal("form with error leaf reports valid")
	}
}

func TestChangeValidationCanBeDisabled(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithFieldValidator("email", requiredField(t)),
		form.WithValidateOnChange(false),
	)

	if err := f.SetFieldValue(ctx, "name", "Ada"); err != nil {
		t.Fatalf("SetFieldValue: %v", err)
	}

	if got := f.Errors(); len(got) != 0 {
		t.Fatalf("errors = %v, want none without a validation pass", got)
	}
}

func TestSetFieldTouchedRunsBlurValidation(t *testing.T) {
	ctx := context.Background()
	f := form.New(form.WithFieldValidator("email", requiredField(t)))

	if err := f.SetFieldTouched(ctx, "email", true); err != nil {
		t.Fatalf("SetFieldTouched: %v", err)
	}

	if got := f.Field("email"); !got.Touched || got.Error != "required" {
		t.Fatalf("field state = %+v, want touched with required error", got)
	}
}

func TestValidateMergesFormAndFieldResults(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithValidator(validate.FormFunc(func(ctx context.Context, values map[string]any) (map[string]any, error) {
			return map[string]any{
				"name":    "form-level message",
				"company": "unknown company",
			}, nil
		})),
		form.WithFieldValidator("name", requiredField(t)),
	)

	errs, err := f.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := map[string]any{
		"name":    "required",
		"company": "unknown company",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("merged errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("stored errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateReportsInfrastructureFaults(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("rules store offline")
	f := form.New(
		form.WithValidator(validate.FormFunc(func(ctx context.Context, values map[string]any) (map[string]any, error) {
			return nil, cause
		})),
	)

	_, err := f.Validate(ctx)
	if !errors.Is(err, cause) {
		t.Fatalf("Validate error = %v, want wrapped cause", err)
	}
	if f.Validating() {
		t.Fatal("validating flag left raised after fault")
	}
}

func TestValidateFieldStoresSingleLeaf(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithFieldValidator("email", requiredField(t)),
		form.WithFieldValidator("name", requiredField(t)),
		form.WithValidateOnChange(false),
	)

	msg, err := f.ValidateField(ctx, "email")
	if err != nil {
		t.Fatalf("ValidateField: %v", err)
	}
	if msg != "required" {
		t.Fatalf("message = %q, want %q", msg, "required")
	}

	want := map[string]any{"email": "required"}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFieldWithoutValidatorPasses(t *testing.T) {
	ctx := context.Background()
	f := form.New()
	if err := f.RegisterField("nickname", nil); err != nil {
		t.Fatalf("RegisterField: %v", err)
	}

	msg, err := f.ValidateField(ctx, "nickname")
	if err != nil {
		t.Fatalf("ValidateField: %v", err)
	}
	if msg != "" {
		t.Fatalf("message = %q, want empty", msg)
	}
}

func TestRegisteredFieldsSorted(t *testing.T) {
	f := form.New()
	for _, name := range []string{"zip", "email", "name"} {
		if err := f.RegisterField(name, nil); err != nil {
			t.Fatalf("RegisterField(%q): %v", name, err)
		}
	}
	f.UnregisterField("email")

	want := []string{"name", "zip"}
	if diff := cmp.Diff(want, f.RegisteredFields()); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	ctx := context.Background()
	handlerRan := false
	f := form.New(
		form.WithInitialValues(map[string]any{
			"email": "",
			"profile": map[string]any{
				"name": "Ada",
			},
		}),
		form.WithFieldValidator("email", requiredField(t)),
		form.WithSubmitHandler(func(ctx context.Context, values map[string]any, f *form.Form) error {
			handlerRan = true
			return nil
		}),
	)

	err := f.Submit(ctx)

	if !errors.Is(err, form.ErrValidation) {
		t.Fatalf("Submit error = %v, want ErrValidation", err)
	}
	if handlerRan {
		t.Fatal("submit handler ran despite validation failure")
	}
	if got := f.SubmitCount(); got != 1 {
		t.Fatalf("submit count = %d, want 1", got)
	}
	if f.Submitting() {
		t.Fatal("submitting flag left raised")
	}

	wantTouched := map[string]any{
		"email": true,
		"profile": map[string]any{
			"name": true,
		},
	}
	if diff := cmp.Diff(wantTouched, f.Touched()); diff != "" {
		t.Fatalf("touched mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitHandsClonedValuesToHandler(t *testing.T) {
	ctx := context.Background()
	var received map[string]any
	f := form.New(
		form.WithInitialValues(map[string]any{"name": "Ada"}),
		form.WithSubmitHandler(func(ctx context.Context, values map[string]any, f *form.Form) error {
			received = values
			return nil
		}),
	)

	if err := f.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	received["name"] = "mutated"
	if got := f.Value("name"); got != "Ada" {
		t.Fatalf("handler mutation reached the record: %v", got)
	}
	if f.Submitting() {
		t.Fatal("submitting flag left raised after success")
	}
}

func TestSubmitWrapsHandlerError(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("endpoint unavailable")
	f := form.New(
		form.WithSubmitHandler(func(ctx context.Context, values map[string]any, f *form.Form) error {
			return cause
		}),
	)

	err := f.Submit(ctx)
	if !errors.Is(err, cause) {
		t.Fatalf("Submit error = %v, want wrapped cause", err)
	}
	if f.Submitting() {
		t.Fatal("submitting flag left raised after handler error")
	}
}

func TestSubmitRejectsReentry(t *testing.T) {
	ctx := context.Background()
	var nested error
	f := form.New(
		form.WithSubmitHandler(func(ctx context.Context, values map[string]any, f *form.Form) error {
			nested = f.Submit(ctx)
			return nil
		}),
	)

	if err := f.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !errors.Is(nested, form.ErrSubmitInFlight) {
		t.Fatalf("nested Submit error = %v, want ErrSubmitInFlight", nested)
	}
}

func TestDirtyTracksBaseline(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithInitialValues(map[string]any{"count": 1}),
		form.WithValidateOnChange(false),
	)

	if f.Dirty() {
		t.Fatal("unedited form reports dirty")
	}
	if err := f.SetFieldValue(ctx, "count", 2); err != nil {
		t.Fatalf("SetFieldValue: %v", err)
	}
	if !f.Dirty() {
		t.Fatal("edited form reports clean")
	}
	if err := f.SetFieldValue(ctx, "count", 1); err != nil {
		t.Fatalf("SetFieldValue: %v", err)
	}
	if f.Dirty() {
		t.Fatal("form restored to baseline still reports dirty")
	}
}

func TestResetRestoresInitialRecord(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithInitialValues(map[string]any{"name": "Ada"}),
		form.WithValidateOnChange(false),
	)
	if err := f.SetFieldValue(ctx, "name", "Grace"); err != nil {
		t.Fatalf("SetFieldValue: %v", err)
	}
	f.SetStatus("saved")

	f.Reset()

	if got := f.Value("name"); got != "Ada" {
		t.Fatalf("name = %v, want Ada", got)
	}
	if f.Dirty() {
		t.Fatal("reset form reports dirty")
	}
	if got := f.Status(); got != nil {
		t.Fatalf("status = %v, want nil", got)
	}
}

func TestResetValuesMovesBaseline(t *testing.T) {
	f := form.New(form.WithInitialValues(map[string]any{"name": "Ada"}))

	f.Reset(form.ResetValues(map[string]any{"name": "Grace"}))

	if got := f.Value("name"); got != "Grace" {
		t.Fatalf("name = %v, want Grace", got)
	}
	if f.Dirty() {
		t.Fatal("replacement values should be the new clean baseline")
	}
}

func TestResetInvokesHandler(t *testing.T) {
	var got map[string]any
	f := form.New(
		form.WithInitialValues(map[string]any{"name": "Ada"}),
		form.WithResetHandler(func(values map[string]any) {
			got = values
		}),
	)

	f.Reset()

	want := map[string]any{"name": "Ada"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reset handler payload mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveFieldValueClearsAllTrees(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithInitialValues(map[string]any{"email": "nope"}),
		form.WithValidateOnChange(false),
		form.WithValidateOnBlur(false),
	)
	if err := f.SetFieldError("email", "not an address"); err != nil {
		t.Fatalf("SetFieldError: %v", err)
	}
	if err := f.SetFieldTouched(ctx, "email", true); err != nil {
		t.Fatalf("SetFieldTouched: %v", err)
	}

	if err := f.RemoveFieldValue(ctx, "email"); err != nil {
		t.Fatalf("RemoveFieldValue: %v", err)
	}

	if got := f.Values(); len(got) != 0 {
		t.Fatalf("values = %v, want empty", got)
	}
	if got := f.Errors(); len(got) != 0 {
		t.Fatalf("errors = %v, want empty", got)
	}
	if got := f.Touched(); len(got) != 0 {
		t.Fatalf("touched = %v, want empty", got)
	}
}

func TestValidateOnInitSeedsErrors(t *testing.T) {
	f := form.New(
		form.WithFieldValidator("email", requiredField(t)),
		form.WithValidateOnInit(true),
	)

	want := map[string]any{"email": "required"}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldReadsNestedPath(t *testing.T) {
	ctx := context.Background()
	f := form.New(
		form.WithInitialValues(map[string]any{
			"user": map[string]any{
				"superPowers": []any{"flight", "invisibility"},
			},
		}),
		form.WithValidateOnChange(false),
		form.WithValidateOnBlur(false),
	)
	if err := f.SetFieldError("user.superPowers[1]", "too strong"); err != nil {
		t.Fatalf("SetFieldError: %v", err)
	}
	if err := f.SetFieldTouched(ctx, "user.superPowers[1]", true); err != nil {
		t.Fatalf("SetFieldTouched: %v", err)
	}

	got := f.Field("user.superPowers[1]")
	want := form.FieldState{Value: "invisibility", Error: "too strong", Touched: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("field state mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFieldValueRejectsMalformedPath(t *testing.T) {
	ctx := context.Background()
	f := form.New()

	err := f.SetFieldValue(ctx, "user..name", "x")
	if !errors.Is(err, fieldpath.ErrInvalidPath) {
		t.Fatalf("SetFieldValue error = %v, want ErrInvalidPath", err)
	}
	if got := f.Values(); len(got) != 0 {
		t.Fatalf("values = %v, want unchanged", got)
	}
}
