// Package widgets selects the input widget a renderer or prompt session
// should use for a field. Explicit hints on the definition win; otherwise
// registered matchers pick by field shape.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/definition"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetToggle     = "toggle"
	WidgetSelect     = "select"
	WidgetChips      = "chips"
	WidgetTextarea   = "textarea"
	WidgetPassword   = "password"
	WidgetJSONEditor = "json-editor"
	WidgetKeyValue   = "key-value"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field definition.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on explicit hints or registered
// matchers. Higher priority wins; ties fall back to registration order. An
// empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence. Callers should avoid duplicate names; the
// latest registration wins during resolution.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field. The definition's own Widget
// field and "widget" metadata are honoured before matcher evaluation.
func (r *Registry) Resolve(field definition.Field) (string, bool) {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate applies registry resolution to every field in the definition,
// filling in Widget where it is empty. Explicit widget choices survive.
func (r *Registry) Decorate(form *definition.Form) error {
	if r == nil || form == nil {
		return nil
	}
	form.Fields = r.decorateFields(form.Fields)
	return nil
}

func (r *Registry) decorateFields(fields []definition.Field) []definition.Field {
	if len(fields) == 0 {
		return fields
	}
	decorated := make([]definition.Field, len(fields))
	for idx, field := range fields {
		decorated[idx] = r.decorateField(field)
	}
	return decorated
}

func (r *Registry) decorateField(field definition.Field) definition.Field {
	if field.Widget == "" {
		if widget, ok := r.Resolve(field); ok && widget != "" {
			field.Widget = widget
		}
	}

	if field.Items != nil {
		item := r.decorateField(*field.Items)
		field.Items = &item
	}
	if len(field.Nested) > 0 {
		field.Nested = r.decorateFields(field.Nested)
	}
	return field
}

func explicitWidget(field definition.Field) string {
	if widget := strings.TrimSpace(field.Widget); widget != "" {
		return widget
	}
	if field.Metadata != nil {
		if widget := strings.TrimSpace(field.Metadata["widget"]); widget != "" {
			return widget
		}
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetPassword, 95, func(field definition.Field) bool {
		if field.Secret {
			return true
		}
		return strings.EqualFold(strings.TrimSpace(field.Format), "password")
	})

	r.Register(WidgetToggle, 90, func(field definition.Field) bool {
		return field.Type == definition.FieldTypeBoolean
	})

	r.Register(WidgetChips, 80, func(field definition.Field) bool {
		if field.Type != definition.FieldTypeArray {
			return false
		}
		if len(field.Enum) > 0 {
			return true
		}
		return field.Items != nil && len(field.Items.Enum) > 0
	})

	r.Register(WidgetSelect, 70, func(field definition.Field) bool {
		if field.Type == definition.FieldTypeArray || field.Type == definition.FieldTypeObject {
			return false
		}
		return len(field.Enum) > 0
	})

	r.Register(WidgetTextarea, 60, func(field definition.Field) bool {
		if field.Type != definition.FieldTypeString {
			return false
		}
		format := strings.TrimSpace(strings.ToLower(field.Format))
		switch format {
		case "multiline", "markdown", "json", "yaml":
			return true
		}
		return false
	})

	r.Register(WidgetJSONEditor, 50, func(field definition.Field) bool {
		return field.Type == definition.FieldTypeObject && len(field.Nested) == 0
	})

	r.Register(WidgetKeyValue, 40, func(field definition.Field) bool {
		if field.Type != definition.FieldTypeArray || field.Items == nil {
			return false
		}
		return field.Items.Type == definition.FieldTypeObject && len(field.Items.Nested) == 0
	})
}
