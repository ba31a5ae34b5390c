package html

import (
	"errors"
	"io"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

func TestControlForFallbacks(t *testing.T) {
	t.Parallel()

	state := &renderState{widgets: widgets.NewRegistry()}

	cases := []struct {
		name   string
		field  definition.Field
		expect string
	}{
		{
			name:   "boolean checkbox",
			field:  definition.Field{Type: definition.FieldTypeBoolean},
			expect: controlCheckbox,
		},
		{
			name: "object fieldset",
			field: definition.Field{
				Type:   definition.FieldTypeObject,
				Nested: []definition.Field{{Name: "a", Type: definition.FieldTypeString}},
			},
			expect: controlFieldset,
		},
		{
			name:   "bare object json textarea",
			field:  definition.Field{Type: definition.FieldTypeObject},
			expect: controlTextarea,
		},
		{
			name: "array enum chips",
			field: definition.Field{
				Type: definition.FieldTypeArray,
				Items: &definition.Field{
					Type: definition.FieldTypeString,
					Enum: []any{"x"},
				},
			},
			expect: controlChips,
		},
		{
			name: "array list",
			field: definition.Field{
				Type:  definition.FieldTypeArray,
				Items: &definition.Field{Type: definition.FieldTypeString},
			},
			expect: controlList,
		},
		{
			name:   "string enum select",
			field:  definition.Field{Type: definition.FieldTypeString, Enum: []any{"a"}},
			expect: controlSelect,
		},
		{
			name:   "secret password input",
			field:  definition.Field{Type: definition.FieldTypeString, Secret: true},
			expect: controlInput,
		},
		{
			name:   "plain string input",
			field:  definition.Field{Type: definition.FieldTypeString},
			expect: controlInput,
		},
		{
			name: "unknown widget falls back by type",
			field: definition.Field{
				Type:   definition.FieldTypeString,
				Widget: "rating",
				Enum:   []any{"1", "2"},
			},
			expect: controlSelect,
		},
		{
			name:   "widget naming a control directly",
			field:  definition.Field{Type: definition.FieldTypeString, Widget: "textarea"},
			expect: controlTextarea,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			widget, _ := state.widgets.Resolve(tc.field)
			if got := state.controlFor(tc.field, widget); got != tc.expect {
				t.Fatalf("control: want %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestInputType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		field  definition.Field
		expect string
	}{
		{"secret", definition.Field{Type: definition.FieldTypeString, Secret: true}, "password"},
		{"password format", definition.Field{Type: definition.FieldTypeString, Format: "password"}, "password"},
		{"integer", definition.Field{Type: definition.FieldTypeInteger}, "number"},
		{"number", definition.Field{Type: definition.FieldTypeNumber}, "number"},
		{"email", definition.Field{Type: definition.FieldTypeString, Format: "email"}, "email"},
		{"uri", definition.Field{Type: definition.FieldTypeString, Format: "uri"}, "url"},
		{"date", definition.Field{Type: definition.FieldTypeString, Format: "date"}, "date"},
		{"date-time", definition.Field{Type: definition.FieldTypeString, Format: "date-time"}, "datetime-local"},
		{"plain", definition.Field{Type: definition.FieldTypeString}, "text"},
	}

	for _, tc := range cases {
		if got := inputType(tc.field); got != tc.expect {
			t.Errorf("%s: want %q, got %q", tc.name, tc.expect, got)
		}
	}
}

func TestControlID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"name":        "fs-name",
		"owner.email": "fs-owner-email",
		"tags[0]":     "fs-tags-0",
		"a_b":         "fs-a_b",
	}
	for path, want := range cases {
		if got := controlID(path); got != want {
			t.Errorf("controlID(%q): want %q, got %q", path, want, got)
		}
	}
}

func TestNestedValuesRebuildsTree(t *testing.T) {
	t.Parallel()

	tree := nestedValues(map[string]any{
		"name":        "Ada",
		"owner.email": "a@b.c",
		"tags[0]":     "go",
		"tags[1]":     "forms",
	})

	owner, ok := tree["owner"].(map[string]any)
	if !ok || owner["email"] != "a@b.c" {
		t.Fatalf("owner subtree not rebuilt: %#v", tree)
	}
	tags, ok := tree["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != "forms" {
		t.Fatalf("tags subtree not rebuilt: %#v", tree)
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{false, "false"},
		{float64(2.5), "2.5"},
		{float64(3), "3"},
		{int(7), "7"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Errorf("formatValue(%v): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCoerceBool(t *testing.T) {
	t.Parallel()

	truthy := []any{true, "true", "on", "YES", "1", float64(1), int(2)}
	for _, v := range truthy {
		if !coerceBool(v) {
			t.Errorf("coerceBool(%v): want true", v)
		}
	}
	falsy := []any{nil, false, "false", "off", "", float64(0), int(0), []any{"x"}}
	for _, v := range falsy {
		if coerceBool(v) {
			t.Errorf("coerceBool(%v): want false", v)
		}
	}
}

func TestFormAttrs(t *testing.T) {
	t.Parallel()

	if got := formAttrs(nil); got != "" {
		t.Fatalf("nil config: want empty attrs, got %q", got)
	}

	got := formAttrs(&theme.RendererConfig{
		Theme:   "acme",
		Variant: "dark",
		Tokens: map[string]string{
			"brand":      "#111",
			"Surface BG": "#222",
		},
	})
	want := ` data-theme="acme" data-theme-variant="dark" data-theme-brand="#111" data-theme-surface-bg="#222"`
	if got != want {
		t.Fatalf("attrs:\nwant %q\ngot  %q", want, got)
	}
}

func TestAttrToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"brand":      "brand",
		"Surface BG": "surface-bg",
		"a--b":       "a-b",
		"  ":         "",
	}
	for in, want := range cases {
		if got := attrToken(in); got != want {
			t.Errorf("attrToken(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestCSSVarsStyleSorted(t *testing.T) {
	t.Parallel()

	if got := cssVarsStyle(nil); got != "" {
		t.Fatalf("nil vars: want empty, got %q", got)
	}

	got := cssVarsStyle(map[string]string{
		"--zeta":  "2",
		"--alpha": "1",
	})
	want := ":root {\n--alpha: 1;\n--zeta: 2;\n}"
	if got != want {
		t.Fatalf("style block:\nwant %q\ngot  %q", want, got)
	}
}

func TestExpandAssetURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prefix, name, want string
	}{
		{"", "a.css", "a.css"},
		{"/static", "a.css", "/static/a.css"},
		{"/static/", "a.css", "/static/a.css"},
		{"/static", "/abs.css", "/abs.css"},
		{"/static", "https://cdn/x.css", "https://cdn/x.css"},
		{"/static", "", ""},
	}
	for _, tc := range cases {
		if got := expandAssetURL(tc.prefix, tc.name); got != tc.want {
			t.Errorf("expandAssetURL(%q, %q): want %q, got %q", tc.prefix, tc.name, tc.want, got)
		}
	}
}

func TestRenderErrorsFallsBack(t *testing.T) {
	t.Parallel()

	state := &renderState{templates: failingTemplateRenderer{}}
	out := state.renderErrors([]string{"first", "<second>"})

	if !strings.Contains(out, "formstate-field-errors") {
		t.Fatalf("fallback chrome missing:\n%s", out)
	}
	if !strings.Contains(out, "<li>first</li>") {
		t.Fatalf("fallback message missing:\n%s", out)
	}
	if !strings.Contains(out, "&lt;second&gt;") {
		t.Fatalf("fallback should escape messages:\n%s", out)
	}

	if got := state.renderErrors(nil); got != "" {
		t.Fatalf("no messages: want empty chrome, got %q", got)
	}
}

type failingTemplateRenderer struct{}

func (failingTemplateRenderer) Render(string, any, ...io.Writer) (string, error) {
	return "", errors.New("boom")
}

func (failingTemplateRenderer) RenderTemplate(string, any, ...io.Writer) (string, error) {
	return "", errors.New("boom")
}

func (failingTemplateRenderer) RenderString(string, any, ...io.Writer) (string, error) {
	return "", errors.New("boom")
}

func (failingTemplateRenderer) RegisterFilter(string, func(any, any) (any, error)) error {
	return nil
}

func (failingTemplateRenderer) GlobalContext(any) error {
	return nil
}
