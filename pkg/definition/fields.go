package definition

import (
	"github.com/goliatone/go-formstate/pkg/fieldpath"
)

// Paths lists the path of every declared field in document order. Object
// fields contribute their own path plus one per nested field. Array fields
// terminate the walk; their element shape is described by Items and element
// paths only exist at runtime, indexed.
func (f Form) Paths() []string {
	var out []string
	walkFields(f.Fields, "", func(path string, _ Field) {
		out = append(out, path)
	})
	return out
}

// FieldByPath resolves the definition field a path addresses. Key tokens
// match field names level by level; an index token steps into the Items
// shape of an array field, whatever the index.
func (f Form) FieldByPath(path string) (Field, bool) {
	tokens, err := fieldpath.Parse(path)
	if err != nil {
		return Field{}, false
	}

	fields := f.Fields
	var current Field
	found := false
	for _, token := range tokens {
		if token.IsIndex {
			if !found || current.Items == nil {
				return Field{}, false
			}
			current = *current.Items
			fields = current.Nested
			continue
		}
		found = false
		for i := range fields {
			if fields[i].Name == token.Key {
				current = fields[i]
				fields = fields[i].Nested
				found = true
				break
			}
		}
		if !found {
			return Field{}, false
		}
	}
	if !found {
		return Field{}, false
	}
	return current.Clone(), true
}

// InitialValues builds the starting value tree: each field's declared
// default, or a type-appropriate empty value. Strings start empty, booleans
// false, arrays as empty lists, objects as their nested tree. Numeric fields
// without a default start absent so a required check still fails on them.
func (f Form) InitialValues() map[string]any {
	return initialValueTree(f.Fields)
}

func initialValueTree(fields []Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = initialValue(field)
	}
	return out
}

func initialValue(field Field) any {
	if field.Default != nil {
		return fieldpath.Clone(field.Default)
	}
	switch field.Type {
	case FieldTypeObject:
		return initialValueTree(field.Nested)
	case FieldTypeArray:
		return []any{}
	case FieldTypeString:
		return ""
	case FieldTypeBoolean:
		return false
	default:
		return nil
	}
}

// walkFields visits every field with its full path, descending into object
// children. Fields with empty names are skipped; lint reports them.
func walkFields(fields []Field, prefix string, visit func(path string, field Field)) {
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		path := fieldpath.Join(prefix, field.Name)
		visit(path, field)
		if field.Type == FieldTypeObject {
			walkFields(field.Nested, path, visit)
		}
	}
}
