package definition

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceValue converts one raw text input, as read from a prompt or an HTML
// control, into the field's Go representation. Empty input maps to the
// field's notion of absent: nil for numbers, false for booleans, the empty
// string for strings.
func CoerceValue(field Field, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	switch field.Type {
	case FieldTypeString, "":
		return raw, nil
	case FieldTypeBoolean:
		if trimmed == "" {
			return false, nil
		}
		// Bare HTML checkboxes post "on".
		if strings.EqualFold(trimmed, "on") {
			return true, nil
		}
		v, err := strconv.ParseBool(trimmed)
		if err != nil {
			return nil, fmt.Errorf("definition: field %s: %q is not a boolean", field.Name, raw)
		}
		return v, nil
	case FieldTypeInteger:
		if trimmed == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("definition: field %s: %q is not an integer", field.Name, raw)
		}
		return v, nil
	case FieldTypeNumber:
		if trimmed == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("definition: field %s: %q is not a number", field.Name, raw)
		}
		return v, nil
	case FieldTypeArray:
		if trimmed == "" {
			return []any{}, nil
		}
		return CoerceValues(field, strings.Split(raw, ","))
	case FieldTypeObject:
		return nil, fmt.Errorf("definition: field %s: cannot coerce an object from text", field.Name)
	default:
		return nil, fmt.Errorf("definition: field %s: unknown type %q", field.Name, field.Type)
	}
}

// CoerceValues converts repeated raw inputs, as posted by multi-valued HTML
// controls, into a list shaped by the array field's Items. Entries are
// trimmed; empty entries are dropped.
func CoerceValues(field Field, raws []string) (any, error) {
	item := Field{Name: field.Name, Type: FieldTypeString}
	if field.Items != nil {
		item = *field.Items
		if item.Name == "" {
			item.Name = field.Name
		}
	}

	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		v, err := CoerceValue(item, trimmed)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
