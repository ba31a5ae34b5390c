// Package validate defines the validation contracts the form engine runs.
// Failures are data: a field validator yields a message string, a form
// validator yields a nested error tree mirroring the value tree. The error
// return on both contracts is reserved for infrastructure faults such as
// context cancellation, never for invalid input.
package validate

import "context"

// Field validates a single field value. An empty message means the value
// passed.
type Field interface {
	Validate(ctx context.Context, value any) (string, error)
}

// FieldFunc adapts a function into a Field.
type FieldFunc func(ctx context.Context, value any) (string, error)

// Validate delegates to the underlying function.
func (fn FieldFunc) Validate(ctx context.Context, value any) (string, error) {
	return fn(ctx, value)
}

// Form validates a whole value tree and returns an error tree mirroring its
// structure, with message strings at the failing leaves. A nil or empty tree
// means the values passed.
type Form interface {
	Validate(ctx context.Context, values map[string]any) (map[string]any, error)
}

// FormFunc adapts a function into a Form.
type FormFunc func(ctx context.Context, values map[string]any) (map[string]any, error)

// Validate delegates to the underlying function.
func (fn FormFunc) Validate(ctx context.Context, values map[string]any) (map[string]any, error) {
	return fn(ctx, values)
}

// Merge deep-merges two error trees and returns the result without mutating
// either input. Maps merge key-wise, slices merge element-wise padding with
// nils, and when both sides carry a leaf at the same path the src side wins.
// Callers merge whole-form results first and field-level results second so
// field validators take precedence.
func Merge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, sv := range src {
		if dv, ok := out[k]; ok {
			out[k] = mergeValue(dv, sv)
			continue
		}
		out[k] = sv
	}
	return out
}

func mergeValue(dst, src any) any {
	if dm, ok := dst.(map[string]any); ok {
		if sm, ok := src.(map[string]any); ok {
			return Merge(dm, sm)
		}
	}
	if ds, ok := dst.([]any); ok {
		if ss, ok := src.([]any); ok {
			return mergeSlices(ds, ss)
		}
	}
	return src
}

func mergeSlices(dst, src []any) []any {
	n := len(dst)
	if len(src) > n {
		n = len(src)
	}
	out := make([]any, n)
	copy(out, dst)
	for i, sv := range src {
		if sv == nil {
			continue
		}
		if out[i] == nil {
			out[i] = sv
			continue
		}
		out[i] = mergeValue(out[i], sv)
	}
	return out
}

// HasErrors reports whether the tree carries at least one non-empty message
// leaf. Empty branches left behind by merges do not count.
func HasErrors(tree map[string]any) bool {
	return hasErrorValue(tree)
}

func hasErrorValue(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, child := range t {
			if hasErrorValue(child) {
				return true
			}
		}
		return false
	case []any:
		for _, child := range t {
			if hasErrorValue(child) {
				return true
			}
		}
		return false
	case string:
		return t != ""
	default:
		return false
	}
}
