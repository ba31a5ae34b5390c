package definition_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/definition"
)

func subsetForm() definition.Form {
	return definition.Form{
		Name: "account",
		Fields: []definition.Field{
			{
				Name:     "email",
				Type:     definition.FieldTypeString,
				Metadata: map[string]string{"group": "Identity", "tags": "pii,contact"},
			},
			{
				Name:     "displayName",
				Type:     definition.FieldTypeString,
				Metadata: map[string]string{"group": "identity"},
			},
			{
				Name:     "plan",
				Type:     definition.FieldTypeString,
				Metadata: map[string]string{"section": "billing", "tags": `["billing","upgrade"]`},
			},
			{
				Name: "notes",
				Type: definition.FieldTypeString,
			},
		},
	}
}

func fieldNames(form definition.Form) []string {
	names := make([]string, 0, len(form.Fields))
	for _, field := range form.Fields {
		names = append(names, field.Name)
	}
	return names
}

func TestApplySubsetByGroup(t *testing.T) {
	t.Parallel()

	form := subsetForm()
	definition.ApplySubset(&form, definition.Subset{Groups: []string{"IDENTITY"}})

	if diff := cmp.Diff([]string{"email", "displayName"}, fieldNames(form)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySubsetByTag(t *testing.T) {
	t.Parallel()

	form := subsetForm()
	definition.ApplySubset(&form, definition.Subset{Tags: []string{"billing"}})

	if diff := cmp.Diff([]string{"plan"}, fieldNames(form)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySubsetBySection(t *testing.T) {
	t.Parallel()

	form := subsetForm()
	definition.ApplySubset(&form, definition.Subset{Sections: []string{"billing"}})

	if diff := cmp.Diff([]string{"plan"}, fieldNames(form)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySubsetEmptyLeavesFormAlone(t *testing.T) {
	t.Parallel()

	form := subsetForm()
	definition.ApplySubset(&form, definition.Subset{})

	if len(form.Fields) != 4 {
		t.Fatalf("expected all fields kept, got %v", fieldNames(form))
	}
}

func TestApplySubsetNoMatches(t *testing.T) {
	t.Parallel()

	form := subsetForm()
	definition.ApplySubset(&form, definition.Subset{Groups: []string{"shipping"}})

	if form.Fields != nil {
		t.Fatalf("expected no fields, got %v", fieldNames(form))
	}
}

func TestParseSubset(t *testing.T) {
	t.Parallel()

	subset, err := definition.ParseSubset([]string{"group:billing", "tag:pii", "section:shipping", "identity", " "})
	if err != nil {
		t.Fatalf("parse subset: %v", err)
	}

	want := definition.Subset{
		Groups:   []string{"billing", "identity"},
		Tags:     []string{"pii"},
		Sections: []string{"shipping"},
	}
	if diff := cmp.Diff(want, subset); diff != "" {
		t.Fatalf("subset mismatch (-want +got):\n%s", diff)
	}

	if _, err := definition.ParseSubset([]string{"widget:select"}); err == nil {
		t.Fatal("expected unknown subset kind to fail")
	}
}
