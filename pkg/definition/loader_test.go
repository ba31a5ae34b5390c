package definition_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/definition"
)

const signupYAML = `
name: signup
title: Create account
method: post
submitLabel: Sign up
fields:
  - name: email
    type: string
    format: email
    required: true
    label: Email
  - name: profile
    type: object
    nested:
      - name: name
        type: string
        required: true
        validations:
          - kind: minLength
            params: {value: "2"}
      - name: age
        type: integer
        validations:
          - kind: min
            params: {value: "13"}
  - name: newsletter
    type: boolean
    default: true
  - name: topics
    type: array
    visibleWhen: newsletter == true
    items:
      name: topic
      type: string
      enum: [go, rust, zig]
`

const signupJSON = `{
  "name": "signup",
  "method": "POST",
  "fields": [
    {"name": "email", "type": "string", "required": true}
  ]
}`

func TestParseYAML(t *testing.T) {
	form, err := definition.Parse([]byte(signupYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if form.Name != "signup" {
		t.Fatalf("name = %q, want signup", form.Name)
	}
	if form.Method != "POST" {
		t.Fatalf("method = %q, want POST (normalised)", form.Method)
	}
	if got := len(form.Fields); got != 4 {
		t.Fatalf("field count = %d, want 4", got)
	}
	if form.Fields[3].Items == nil || form.Fields[3].Items.Name != "topic" {
		t.Fatalf("array items not parsed: %+v", form.Fields[3])
	}
	if form.Fields[3].VisibleWhen != "newsletter == true" {
		t.Fatalf("visibleWhen not parsed: %q", form.Fields[3].VisibleWhen)
	}
}

func TestParseJSON(t *testing.T) {
	form, err := definition.Parse([]byte(signupJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if form.Name != "signup" || len(form.Fields) != 1 {
		t.Fatalf("unexpected form: %+v", form)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := definition.Parse([]byte("   ")); err == nil {
		t.Fatal("expected error for empty document")
	}
	if _, err := definition.Parse([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/signup.yaml":  {Data: []byte(signupYAML)},
		"forms/contact.json": {Data: []byte(`{"fields": [{"name": "message", "type": "string"}]}`)},
		"README.md":          {Data: []byte("not a definition")},
	}

	reg, err := definition.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	want := []string{"contact", "signup"}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	// contact.json has no name, so it takes its filename.
	form, ok := reg.Form("contact")
	if !ok {
		t.Fatal("contact form missing")
	}
	if form.Fields[0].Name != "message" {
		t.Fatalf("contact fields = %+v", form.Fields)
	}
}

func TestLoadFSRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("name: signup\nfields: []\n")},
		"b.yaml": {Data: []byte("name: signup\nfields: []\n")},
	}

	if _, err := definition.LoadFS(fsys); err == nil {
		t.Fatal("expected duplicate form error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.yaml")
	if err := os.WriteFile(path, []byte("fields:\n  - name: note\n    type: string\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	form, err := definition.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if form.Name != "feedback" {
		t.Fatalf("name = %q, want filename fallback", form.Name)
	}
}

func TestRegistryFormReturnsCopies(t *testing.T) {
	form, err := definition.Parse([]byte(signupYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg, err := definition.NewRegistry(form)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	first, _ := reg.Form("signup")
	first.Fields[0].Label = "mutated"
	second, _ := reg.Form("signup")

	if second.Fields[0].Label != "Email" {
		t.Fatalf("registry handed out shared state: %q", second.Fields[0].Label)
	}
}
