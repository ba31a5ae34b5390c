package html

import (
	"encoding/json"
	"fmt"
	stdhtml "html"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/fieldpath"
	rendertemplate "github.com/goliatone/go-formstate/pkg/render/template"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

// renderState carries one render pass worth of inputs: the template engine,
// theme partial overrides, and the engine snapshot rebuilt as a value tree so
// subtrees resolve for containers.
type renderState struct {
	templates  rendertemplate.TemplateRenderer
	theme      *theme.RendererConfig
	widgets    *widgets.Registry
	visibility visibility.Evaluator
	values     map[string]any
	errors     map[string][]string
	touched    map[string]bool
	extras     map[string]any
}

func (s *renderState) renderFields(fields []definition.Field, parent string) (string, error) {
	var b strings.Builder
	for _, field := range fields {
		path := fieldpath.Join(parent, field.Name)
		markup, err := s.renderField(field, path)
		if err != nil {
			return "", err
		}
		b.WriteString(markup)
	}
	return b.String(), nil
}

func (s *renderState) renderField(field definition.Field, path string) (string, error) {
	widget, _ := s.widgets.Resolve(field)
	control := s.controlFor(field, widget)

	visible := true
	rule := strings.TrimSpace(field.VisibleWhen)
	if rule != "" {
		shown, err := s.visibility.Eval(path, rule, visibility.Context{Values: s.values, Extras: s.extras})
		if err != nil {
			return "", fmt.Errorf("html renderer: evaluate visibility for %q: %w", path, err)
		}
		visible = shown
	}

	fieldErrors := s.errors[path]
	validation := ""
	switch {
	case len(fieldErrors) > 0:
		validation = "error"
	case s.touched[path]:
		validation = "ok"
	}

	// The checkbox control carries its own label and the fieldset its legend,
	// so the wrapper label stays out of their way. Labels only point at
	// labelable elements.
	showLabel := control != controlCheckbox && control != controlFieldset
	labelFor := ""
	switch control {
	case controlInput, controlTextarea, controlSelect:
		labelFor = controlID(path)
	}

	ctx := map[string]any{
		"field": map[string]any{
			"name":        field.Name,
			"label":       field.Label,
			"description": field.Description,
			"placeholder": field.Placeholder,
			"required":    field.Required,
			"read_only":   field.ReadOnly,
			"type":        string(field.Type),
			"format":      field.Format,
			"widget":      widget,
		},
		"path":         path,
		"name":         path,
		"id":           controlID(path),
		"control":      control,
		"show_label":   showLabel,
		"label_for":    labelFor,
		"visible":      visible,
		"visible_when": rule,
		"validation":   validation,
		"errors":       fieldErrors,
	}

	if err := s.controlContext(ctx, field, path, control, widget); err != nil {
		return "", err
	}

	controlHTML, err := s.templates.RenderTemplate(s.controlTemplate(control), ctx)
	if err != nil {
		return "", fmt.Errorf("html renderer: render %s control for %q: %w", control, path, err)
	}
	ctx["control_html"] = controlHTML
	ctx["errors_html"] = s.renderErrors(fieldErrors)

	wrapper, err := s.templates.RenderTemplate(partialFor(s.theme, partialField, fieldTemplate), ctx)
	if err != nil {
		return "", fmt.Errorf("html renderer: render field %q: %w", path, err)
	}
	return wrapper, nil
}

// controlFor picks the control template for a field. Known widgets map
// directly; anything else falls back by field type so unknown custom widget
// names still render a usable control.
func (s *renderState) controlFor(field definition.Field, widget string) string {
	if widget != "" {
		if control, ok := widgetControls[widget]; ok {
			return control
		}
		if _, ok := controlTemplates[widget]; ok {
			return widget
		}
	}

	switch field.Type {
	case definition.FieldTypeBoolean:
		return controlCheckbox
	case definition.FieldTypeObject:
		if len(field.Nested) > 0 {
			return controlFieldset
		}
		return controlTextarea
	case definition.FieldTypeArray:
		if len(enumValues(field)) > 0 {
			return controlChips
		}
		if field.Items != nil && field.Items.Type == definition.FieldTypeObject && len(field.Items.Nested) == 0 {
			return controlTextarea
		}
		return controlList
	default:
		if len(field.Enum) > 0 {
			return controlSelect
		}
		return controlInput
	}
}

func (s *renderState) controlTemplate(control string) string {
	return partialFor(s.theme, "forms."+control, controlTemplates[control])
}

// controlContext fills the control-specific context keys, recursing into
// nested fields and array items before the control template runs.
func (s *renderState) controlContext(ctx map[string]any, field definition.Field, path, control, widget string) error {
	switch control {
	case controlFieldset:
		children, err := s.renderFields(field.Nested, path)
		if err != nil {
			return err
		}
		ctx["children_html"] = children
	case controlList:
		children, count, err := s.renderListItems(field, path)
		if err != nil {
			return err
		}
		ctx["children_html"] = children
		// Numbers render through pongo2's float formatting, so counts pass
		// through as strings.
		ctx["item_count"] = strconv.Itoa(count)
	case controlCheckbox:
		ctx["checked"] = !field.Secret && coerceBool(s.valueOrDefault(field, path))
	case controlSelect:
		current := ""
		if !field.Secret {
			current = formatValue(s.valueOrDefault(field, path))
		}
		ctx["options"] = enumOptions(enumValues(field), func(v string) bool {
			return v != "" && v == current
		})
		ctx["blank_label"] = blankLabel(field)
	case controlChips:
		selected := s.selectedSet(field, path)
		ctx["options"] = enumOptions(enumValues(field), func(v string) bool {
			_, ok := selected[v]
			return ok
		})
	case controlTextarea:
		rows, value := s.textareaValue(field, path, widget)
		ctx["rows"] = strconv.Itoa(rows)
		ctx["value"] = value
	default:
		kind := inputType(field)
		ctx["input_type"] = kind
		ctx["step"] = stepFor(field)
		value := ""
		if !field.Secret && kind != "password" {
			value = formatValue(s.valueOrDefault(field, path))
		}
		ctx["value"] = value
	}
	return nil
}

func (s *renderState) renderListItems(field definition.Field, path string) (string, int, error) {
	item := definition.Field{Type: definition.FieldTypeString}
	if field.Items != nil {
		item = *field.Items
	}

	count := 1
	if v, ok := fieldpath.Get(s.values, path); ok {
		if list, ok := v.([]any); ok && len(list) > 0 {
			count = len(list)
		}
	}

	var b strings.Builder
	for i := 0; i < count; i++ {
		markup, err := s.renderField(item, fieldpath.Index(path, i))
		if err != nil {
			return "", 0, err
		}
		b.WriteString(markup)
	}
	return b.String(), count, nil
}

// renderErrors renders the inline error chrome for a field, falling back to
// plain markup when the chrome template fails so feedback never disappears.
func (s *renderState) renderErrors(messages []string) string {
	if len(messages) == 0 {
		return ""
	}

	rendered, err := s.templates.RenderTemplate(
		partialFor(s.theme, partialErrors, errorsTemplate),
		map[string]any{"errors": messages},
	)
	if err == nil {
		return rendered
	}

	var b strings.Builder
	b.WriteString("  <ul class=\"formstate-field-errors\" data-validation=\"error\">\n")
	for _, msg := range messages {
		b.WriteString("    <li>")
		b.WriteString(stdhtml.EscapeString(msg))
		b.WriteString("</li>\n")
	}
	b.WriteString("  </ul>\n")
	return b.String()
}

func (s *renderState) valueOrDefault(field definition.Field, path string) any {
	if v, ok := fieldpath.Get(s.values, path); ok {
		return v
	}
	return field.Default
}

func (s *renderState) selectedSet(field definition.Field, path string) map[string]struct{} {
	set := make(map[string]struct{})
	if field.Secret {
		return set
	}
	if list, ok := s.valueOrDefault(field, path).([]any); ok {
		for _, item := range list {
			set[formatValue(item)] = struct{}{}
		}
	}
	return set
}

func (s *renderState) textareaValue(field definition.Field, path, widget string) (int, string) {
	const plainRows, editorRows = 4, 8

	if field.Secret {
		return plainRows, ""
	}

	v := s.valueOrDefault(field, path)
	structured := widget == widgets.WidgetJSONEditor || widget == widgets.WidgetKeyValue ||
		field.Type == definition.FieldTypeObject || field.Type == definition.FieldTypeArray
	if !structured {
		return plainRows, formatValue(v)
	}
	if v == nil {
		return editorRows, ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return editorRows, ""
	}
	return editorRows, string(data)
}

// nestedValues rebuilds a value tree from dotted-path leaves. Already nested
// maps pass through Set unchanged, so both shapes are accepted.
func nestedValues(flat map[string]any) map[string]any {
	tree := make(map[string]any)
	for path, value := range flat {
		next, err := fieldpath.Set(tree, path, value)
		if err != nil {
			continue
		}
		tree = next
	}
	return tree
}

func enumValues(field definition.Field) []any {
	if len(field.Enum) > 0 {
		return field.Enum
	}
	if field.Items != nil {
		return field.Items.Enum
	}
	return nil
}

func enumOptions(values []any, selected func(string) bool) []map[string]any {
	options := make([]map[string]any, 0, len(values))
	for _, raw := range values {
		value := formatValue(raw)
		options = append(options, map[string]any{
			"value":    value,
			"label":    value,
			"selected": selected(value),
		})
	}
	return options
}

func blankLabel(field definition.Field) string {
	if placeholder := strings.TrimSpace(field.Placeholder); placeholder != "" {
		return placeholder
	}
	return "Select"
}

func inputType(field definition.Field) string {
	if field.Secret {
		return "password"
	}
	switch field.Type {
	case definition.FieldTypeInteger, definition.FieldTypeNumber:
		return "number"
	}
	switch strings.ToLower(strings.TrimSpace(field.Format)) {
	case "password":
		return "password"
	case "email":
		return "email"
	case "uri", "url":
		return "url"
	case "date":
		return "date"
	case "time":
		return "time"
	case "date-time", "datetime":
		return "datetime-local"
	}
	return "text"
}

func stepFor(field definition.Field) string {
	if field.Type == definition.FieldTypeNumber {
		return "any"
	}
	return ""
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "on", "yes", "1":
			return true
		}
		return false
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

// controlID derives a DOM id from a field path: runs of characters outside
// [a-zA-Z0-9_] collapse into single dashes ("tags[0]" becomes "fs-tags-0").
func controlID(path string) string {
	var b strings.Builder
	b.WriteString("fs-")
	lastDash := true
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func escapeAttr(s string) string {
	return stdhtml.EscapeString(s)
}
