package template_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formstate/pkg/render/template/gotemplate"
)

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"hello.tmpl":      {Data: []byte("Hello {{ name }}!")},
		"use-global.tmpl": {Data: []byte("env={{ settings.env }}")},
		"use-filter.tmpl": {Data: []byte("{{ name|shout }}")},
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	engine, err := gotemplate.New(gotemplate.WithFS(testTemplates()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRequiresTemplateSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatal("expected constructor to fail without a template source")
	}
}

func TestEngineRenderTemplate(t *testing.T) {
	engine := newEngine(t)

	var captured bytes.Buffer
	result, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &captured)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	want := "Hello Ada!"
	if result != want {
		t.Fatalf("render template mismatch\nwant: %q\n got: %q", want, result)
	}
	if captured.String() != want {
		t.Fatalf("writer mismatch\nwant: %q\n got: %q", want, captured.String())
	}
}

func TestEngineRenderDetectsInlineContent(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.Render("inline {{ name }}", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render inline: %v", err)
	}
	if result != "inline Ada" {
		t.Fatalf("unexpected inline output: %q", result)
	}

	result, err = engine.Render("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render stored: %v", err)
	}
	if result != "Hello Ada!" {
		t.Fatalf("unexpected stored output: %q", result)
	}
}

func TestEngineGlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("unexpected output: %q", result)
	}
}

func TestEngineRegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("unexpected output: %q", result)
	}

	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return input, nil
	}); err == nil {
		t.Fatal("expected duplicate filter registration to fail")
	}
}

func TestEngineConvertsStructContext(t *testing.T) {
	engine := newEngine(t)

	data := struct {
		Name string `json:"name"`
	}{Name: "Grace"}

	result, err := engine.RenderTemplate("hello", data)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if result != "Hello Grace!" {
		t.Fatalf("unexpected output: %q", result)
	}
}

func TestEngineDefaultFilters(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderString(`{{ value|trim }}`, map[string]any{"value": "  spaced  "})
	if err != nil {
		t.Fatalf("render trim: %v", err)
	}
	if result != "spaced" {
		t.Fatalf("unexpected trim output: %q", result)
	}

	result, err = engine.RenderString(`{{ value|lowerfirst }}`, map[string]any{"value": "Title Case"})
	if err != nil {
		t.Fatalf("render lowerfirst: %v", err)
	}
	if result != "title Case" {
		t.Fatalf("unexpected lowerfirst output: %q", result)
	}
}
