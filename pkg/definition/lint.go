package definition

import (
	"fmt"

	"github.com/goliatone/go-formstate/pkg/validate"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

// Violation is one lint finding, addressed by field path. The empty-path
// findings describe the form itself.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return "form: " + v.Message
	}
	return v.Path + ": " + v.Message
}

// Lint checks the definition for structural problems: missing or duplicate
// names, unknown field types, arrays without an item shape, rules that do not
// compile, and malformed visibility expressions. Findings come back in
// document order.
func (f Form) Lint() []Violation {
	var out []Violation
	if f.Name == "" {
		out = append(out, Violation{Message: "name is required"})
	}
	out = append(out, lintFields(f.Fields, "")...)
	return out
}

// Validate reports the first lint violation as an error, for callers that
// only need a go/no-go answer.
func (f Form) Validate() error {
	violations := f.Lint()
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("definition: %s", violations[0])
}

func lintFields(fields []Field, prefix string) []Violation {
	var out []Violation
	seen := make(map[string]struct{}, len(fields))

	for i, field := range fields {
		path := joinLintPath(prefix, field.Name)
		if field.Name == "" {
			out = append(out, Violation{
				Path:    fmt.Sprintf("%s[%d]", levelLabel(prefix), i),
				Message: "field name is required",
			})
			continue
		}
		if _, dup := seen[field.Name]; dup {
			out = append(out, Violation{Path: path, Message: "duplicate field name"})
			continue
		}
		seen[field.Name] = struct{}{}

		out = append(out, lintField(field, path)...)
	}
	return out
}

func lintField(field Field, path string) []Violation {
	var out []Violation

	switch field.Type {
	case FieldTypeString, FieldTypeInteger, FieldTypeNumber, FieldTypeBoolean:
	case FieldTypeArray:
		if field.Items == nil {
			out = append(out, Violation{Path: path, Message: "array field requires items"})
		} else {
			out = append(out, lintField(*field.Items, path+"[]")...)
		}
	case FieldTypeObject:
		out = append(out, lintFields(field.Nested, path)...)
	case "":
		out = append(out, Violation{Path: path, Message: "field type is required"})
	default:
		out = append(out, Violation{Path: path, Message: fmt.Sprintf("unknown field type %q", field.Type)})
	}

	for _, entry := range field.Enum {
		switch entry.(type) {
		case map[string]any, []any:
			out = append(out, Violation{Path: path, Message: "enum entries must be scalars"})
		}
	}

	if _, err := validate.CompileRules(field.Validations,
		validate.WithRequired(field.Required),
		validate.WithEnum(field.Enum),
		validate.WithFormat(field.Format),
	); err != nil {
		out = append(out, Violation{Path: path, Message: err.Error()})
	}

	if field.VisibleWhen != "" {
		if err := expr.Compile(field.VisibleWhen); err != nil {
			out = append(out, Violation{Path: path, Message: err.Error()})
		}
	}

	return out
}

func joinLintPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func levelLabel(prefix string) string {
	if prefix == "" {
		return "fields"
	}
	return prefix
}
