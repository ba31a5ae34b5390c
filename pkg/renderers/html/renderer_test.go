package html_test

import (
	"context"
	"io"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
)

func contactDefinition() definition.Form {
	return definition.Form{
		Name:        "contact",
		Title:       "Contact",
		Description: "Reach the team",
		Method:      "PATCH",
		Action:      "/contact",
		SubmitLabel: "Send",
		Fields: []definition.Field{
			{Name: "name", Type: definition.FieldTypeString, Label: "Name", Required: true, Placeholder: "Ada Lovelace"},
			{Name: "email", Type: definition.FieldTypeString, Format: "email", Label: "Email"},
			{Name: "password", Type: definition.FieldTypeString, Label: "Password", Secret: true},
			{Name: "plan", Type: definition.FieldTypeString, Label: "Plan", Enum: []any{"free", "pro"}},
			{Name: "urgent", Type: definition.FieldTypeBoolean, Label: "Urgent", Default: true},
			{Name: "newsletter", Type: definition.FieldTypeBoolean, Label: "Subscribe"},
			{Name: "frequency", Type: definition.FieldTypeString, Label: "Frequency", VisibleWhen: "newsletter"},
		},
	}
}

func mustRender(t *testing.T, def definition.Form, opts render.Options, options ...html.Option) string {
	t.Helper()

	renderer, err := html.New(options...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	output, err := renderer.Render(context.Background(), def, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(output)
}

func assertContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestRendererIdentity(t *testing.T) {
	t.Parallel()

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if got := renderer.Name(); got != "html" {
		t.Fatalf("name: want html, got %q", got)
	}
	if got := renderer.ContentType(); got != "text/html; charset=utf-8" {
		t.Fatalf("content type: got %q", got)
	}
}

func TestRendererRenderContract(t *testing.T) {
	t.Parallel()

	output := mustRender(t, contactDefinition(), render.Options{
		Values: map[string]any{
			"name":     "Ada",
			"email":    "not-an-email",
			"password": "hunter2",
			"plan":     "pro",
		},
		Errors:  map[string][]string{"email": {"must be a valid email address"}},
		Touched: map[string]bool{"name": true},
		Hidden:  []render.HiddenField{render.CSRFToken("_csrf", "tok123")},
	})

	assertContains(t, output,
		`<form class="formstate-form" name="contact" method="POST" action="/contact">`,
		`<h1>Contact</h1>`,
		`<p>Reach the team</p>`,
		`<input type="hidden" name="_csrf" value="tok123">`,
		`<input type="hidden" name="_method" value="PATCH">`,
		`<button type="submit">Send</button>`,
	)

	// Values pre-populate, touched-but-clean fields read ok.
	assertContains(t, output,
		`data-field="name" data-validation="ok"`,
		`value="Ada"`,
		`placeholder="Ada Lovelace"`,
	)

	// Errors surface inline and on the wrapper.
	assertContains(t, output,
		`data-field="email" data-validation="error"`,
		`type="email"`,
		`<li>must be a valid email address</li>`,
	)

	// Secret values never echo.
	if strings.Contains(output, "hunter2") {
		t.Errorf("secret value echoed into markup:\n%s", output)
	}
	assertContains(t, output, `type="password"`)

	// Enum select marks the current value.
	assertContains(t, output, `<option value="pro" selected>pro</option>`)
	if strings.Contains(output, `<option value="free" selected>`) {
		t.Errorf("unselected option marked selected:\n%s", output)
	}

	// Boolean default pre-checks the toggle.
	assertContains(t, output, `id="fs-urgent"`, `checked`)

	// The conditional field renders hidden with its rule attached.
	assertContains(t, output, `hidden data-visible-when="newsletter"`)

	// Default styling ships inline.
	assertContains(t, output, `<style>`, `.formstate-form {`)
}

func TestRendererVisibleWhenTrue(t *testing.T) {
	t.Parallel()

	output := mustRender(t, contactDefinition(), render.Options{
		Values: map[string]any{"newsletter": true},
	})

	if strings.Contains(output, `hidden data-visible-when`) {
		t.Fatalf("satisfied rule should not hide the field:\n%s", output)
	}
	assertContains(t, output, `data-field="frequency"`)
}

func TestRendererNestedStructures(t *testing.T) {
	t.Parallel()

	def := definition.Form{
		Name: "project",
		Fields: []definition.Field{
			{
				Name:  "owner",
				Type:  definition.FieldTypeObject,
				Label: "Owner",
				Nested: []definition.Field{
					{Name: "email", Type: definition.FieldTypeString, Format: "email", Label: "Email"},
					{Name: "active", Type: definition.FieldTypeBoolean, Label: "Active"},
				},
			},
			{
				Name:  "tags",
				Type:  definition.FieldTypeArray,
				Label: "Tags",
				Items: &definition.Field{Type: definition.FieldTypeString},
			},
			{
				Name:  "labels",
				Type:  definition.FieldTypeArray,
				Label: "Labels",
				Items: &definition.Field{Type: definition.FieldTypeString, Enum: []any{"alpha", "beta"}},
			},
		},
	}

	output := mustRender(t, def, render.Options{
		Values: map[string]any{
			"owner.email": "owner@example.com",
			"tags[0]":     "go",
			"tags[1]":     "forms",
			"labels[0]":   "beta",
		},
	})

	assertContains(t, output,
		`<legend>Owner</legend>`,
		`name="owner.email"`,
		`id="fs-owner-email"`,
		`value="owner@example.com"`,
	)

	assertContains(t, output,
		`data-list="tags" data-list-size="2"`,
		`name="tags[0]"`,
		`value="go"`,
		`name="tags[1]"`,
		`value="forms"`,
	)

	assertContains(t, output,
		`<input type="checkbox" name="labels" value="beta" checked>`,
		`<input type="checkbox" name="labels" value="alpha">`,
	)
}

func TestRendererEmptyListRendersOneRow(t *testing.T) {
	t.Parallel()

	def := definition.Form{
		Name: "project",
		Fields: []definition.Field{
			{
				Name:  "tags",
				Type:  definition.FieldTypeArray,
				Label: "Tags",
				Items: &definition.Field{Type: definition.FieldTypeString},
			},
		},
	}

	output := mustRender(t, def, render.Options{})
	assertContains(t, output, `data-list-size="1"`, `name="tags[0]"`)
}

func TestRendererThemeConfig(t *testing.T) {
	t.Parallel()

	cfg := &theme.RendererConfig{
		Theme:   "acme",
		Variant: "dark",
		Tokens:  map[string]string{"brand": "#654321"},
		CSSVars: map[string]string{"--brand": "#654321"},
		AssetURL: func(key string) string {
			if key == "html.stylesheet" {
				return "themes/acme/form.css"
			}
			return ""
		},
	}

	output := mustRender(t, contactDefinition(), render.Options{Theme: cfg},
		html.WithAssetURLPrefix("/static"))

	assertContains(t, output,
		` data-theme="acme" data-theme-variant="dark" data-theme-brand="#654321">`,
		`<link rel="stylesheet" href="/static/themes/acme/form.css">`,
		`:root {`,
		`--brand: #654321;`,
	)

	// The resolver replaced the embedded stylesheet.
	if strings.Contains(output, "formstate-accent") {
		t.Fatalf("base stylesheet should not inline when a theme rewrites the URL:\n%s", output)
	}
}

func TestRendererWithoutStyles(t *testing.T) {
	t.Parallel()

	output := mustRender(t, contactDefinition(), render.Options{}, html.WithoutStyles())
	if strings.Contains(output, "<style>") {
		t.Fatalf("expected no style block:\n%s", output)
	}
}

func TestRendererWithTemplateRenderer(t *testing.T) {
	t.Parallel()

	stub := &stubTemplateRenderer{
		renderTemplateFunc: func(name string, data any, out ...io.Writer) (string, error) {
			if name == "templates/form.tmpl" {
				return "custom-output", nil
			}
			return "<control />", nil
		},
	}

	renderer, err := html.New(html.WithTemplateRenderer(stub))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(context.Background(), contactDefinition(), render.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "custom-output" {
		t.Fatalf("unexpected output: %s", out)
	}
	if !stub.called {
		t.Fatalf("expected render template to be called")
	}
}

func TestRendererThemePartialOverrides(t *testing.T) {
	t.Parallel()

	stub := &stubTemplateRenderer{}
	renderer, err := html.New(html.WithTemplateRenderer(stub))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := definition.Form{
		Name: "one",
		Fields: []definition.Field{
			{Name: "title", Type: definition.FieldTypeString},
		},
	}
	cfg := &theme.RendererConfig{
		Partials: map[string]string{
			"forms.input": "themes/acme/input.tmpl",
			"forms.shell": "themes/acme/form.tmpl",
		},
	}

	if _, err := renderer.Render(context.Background(), def, render.Options{Theme: cfg}); err != nil {
		t.Fatalf("render: %v", err)
	}

	if !stub.sawTemplate("themes/acme/input.tmpl") {
		t.Fatalf("input partial override not used, saw %v", stub.names)
	}
	if !stub.sawTemplate("themes/acme/form.tmpl") {
		t.Fatalf("shell partial override not used, saw %v", stub.names)
	}
	if stub.sawTemplate("templates/controls/input.tmpl") {
		t.Fatalf("default input template used despite override, saw %v", stub.names)
	}
}

type stubTemplateRenderer struct {
	called             bool
	names              []string
	renderTemplateFunc func(name string, data any, out ...io.Writer) (string, error)
}

func (s *stubTemplateRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return s.RenderTemplate(name, data, out...)
}

func (s *stubTemplateRenderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	s.called = true
	s.names = append(s.names, name)
	if s.renderTemplateFunc != nil {
		return s.renderTemplateFunc(name, data, out...)
	}
	return "", nil
}

func (s *stubTemplateRenderer) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	return "", nil
}

func (s *stubTemplateRenderer) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	return nil
}

func (s *stubTemplateRenderer) GlobalContext(data any) error {
	return nil
}

func (s *stubTemplateRenderer) sawTemplate(name string) bool {
	for _, seen := range s.names {
		if seen == name {
			return true
		}
	}
	return false
}
