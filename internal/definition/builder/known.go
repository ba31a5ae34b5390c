package builder

import "sort"

var (
	hintKeys = []string{
		"description",
		"helpText",
		"hint",
		"label",
		"placeholder",
		"readOnly",
		"secret",
		"submitLabel",
		"title",
		"visibleWhen",
		"widget",
	}

	hintKeySet = func(keys []string) map[string]struct{} {
		set := make(map[string]struct{}, len(keys))
		for _, key := range keys {
			set[key] = struct{}{}
		}
		return set
	}(hintKeys)
)

// KnownHintKeys returns a sorted copy of the hint keys the builder maps onto
// form definitions.
func KnownHintKeys() []string {
	keys := append([]string(nil), hintKeys...)
	sort.Strings(keys)
	return keys
}

// IsKnownHintKey reports whether the key, in canonical or kebab spelling,
// names a recognised hint.
func IsKnownHintKey(key string) bool {
	_, ok := hintKeySet[canonicalHintKey(key)]
	return ok
}

// RenderableHintValue reports whether a hint value survives conversion. The
// builder silently drops values that cannot become non-empty strings; lint
// tooling reports them instead.
func RenderableHintValue(value any) bool {
	_, ok := renderHintValue(value)
	return ok
}
