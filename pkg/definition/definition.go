// Package definition models declarative form definitions: named fields with
// types, defaults, validation rules, and presentation hints, loaded from JSON
// or YAML documents. A definition is the static description a form engine,
// renderer, or prompt session consumes; it carries no runtime state.
package definition

import (
	"github.com/goliatone/go-formstate/pkg/validate"
)

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Field models an individual input inside a form definition. Struct fields
// are annotated so renderers and stores can serialise them directly.
//
// Nested holds child fields for object types, Items describes the element
// shape for array types. VisibleWhen carries a visibility rule expression
// evaluated against current values; an empty rule means always visible.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Type        FieldType         `json:"type" yaml:"type"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty" yaml:"enum,omitempty"`
	Widget      string            `json:"widget,omitempty" yaml:"widget,omitempty"`
	ReadOnly    bool              `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Secret      bool              `json:"secret,omitempty" yaml:"secret,omitempty"`
	VisibleWhen string            `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Nested      []Field           `json:"nested,omitempty" yaml:"nested,omitempty"`
	Items       *Field            `json:"items,omitempty" yaml:"items,omitempty"`
	Validations []validate.Rule   `json:"validations,omitempty" yaml:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Form is the top-level definition a renderer or engine consumes.
type Form struct {
	Name        string            `json:"name" yaml:"name"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Method      string            `json:"method,omitempty" yaml:"method,omitempty"`
	Action      string            `json:"action,omitempty" yaml:"action,omitempty"`
	SubmitLabel string            `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	Fields      []Field           `json:"fields" yaml:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the definition.
func (f Form) Clone() Form {
	out := f
	out.Fields = cloneFields(f.Fields)
	out.Metadata = cloneStringMap(f.Metadata)
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.Enum = cloneAnySlice(f.Enum)
	out.Nested = cloneFields(f.Nested)
	if f.Items != nil {
		items := f.Items.Clone()
		out.Items = &items
	}
	if len(f.Validations) > 0 {
		out.Validations = make([]validate.Rule, len(f.Validations))
		for i, rule := range f.Validations {
			cloned := rule
			cloned.Params = cloneStringMap(rule.Params)
			out.Validations[i] = cloned
		}
	}
	out.Metadata = cloneStringMap(f.Metadata)
	return out
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		out[i] = field.Clone()
	}
	return out
}

func cloneStringMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneAnySlice(src []any) []any {
	if src == nil {
		return nil
	}
	out := make([]any, len(src))
	copy(out, src)
	return out
}
