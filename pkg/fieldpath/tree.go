package fieldpath

import "reflect"

// Clone deep-copies a value tree. Maps and slices are copied recursively,
// scalars are returned as-is.
func Clone(tree any) any {
	switch t := tree.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = Clone(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = Clone(v)
		}
		return out
	default:
		return tree
	}
}

// CloneMap is Clone specialised for tree roots. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Clone(m).(map[string]any)
}

// Equal reports deep equality of two value trees. Numeric leaves compare by
// value across integer and float representations, so trees decoded from JSON
// and YAML agree on the same data.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	if af, ok := toFloat(a); ok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

// FillLeaves returns a tree of the same shape with every scalar leaf replaced
// by leaf. Empty containers stay empty. Marking every field of a value tree
// touched before submission is the primary use.
func FillLeaves(tree, leaf any) any {
	switch t := tree.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = FillLeaves(v, leaf)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = FillLeaves(v, leaf)
		}
		return out
	default:
		return leaf
	}
}

// Flatten maps every scalar leaf of the tree to its path, using dot notation
// for keys and bracket notation for indices. Empty containers contribute no
// entries.
func Flatten(tree map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", tree)
	return out
}

func flattenInto(out map[string]any, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flattenInto(out, Join(prefix, k), child)
		}
	case []any:
		for i, child := range t {
			flattenInto(out, Index(prefix, i), child)
		}
	default:
		if prefix != "" {
			out[prefix] = v
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
