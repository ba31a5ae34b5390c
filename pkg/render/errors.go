package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
)

// ErrorMapping splits an error payload into field-level and form-level
// messages keyed by the dotted field paths used throughout the render
// pipeline.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises server and engine error payloads into dotted
// field identifiers renderers can consume. Paths arrive in many shapes (JSON
// pointers like #/body/name, dotted, bracketed) and payloads in several
// container types (map[string][]string, map[string]string, or a nested
// map[string]any error tree). Unknown paths degrade to form-level errors so
// messages are not lost.
func MapErrorPayload(payload any, def definition.Form) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}

	flat := coercePayload(payload)
	if len(flat) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{})
	collectFieldPaths(def.Fields, "", known)

	for rawPath, messages := range flat {
		cleaned := normalizeMessages(messages)
		if len(cleaned) == 0 {
			continue
		}

		mapped, formLevel := resolveErrorPath(rawPath, known)
		if formLevel || mapped == "" {
			mapping.Form = append(mapping.Form, cleaned...)
			continue
		}
		mapping.Fields[mapped] = append(mapping.Fields[mapped], cleaned...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// coercePayload flattens the supported payload shapes into path -> messages.
// Nested maps join with dots, slices index with brackets so downstream path
// parsing treats both uniformly.
func coercePayload(payload any) map[string][]string {
	switch p := payload.(type) {
	case nil:
		return nil
	case ErrorMapping:
		return p.Fields
	case map[string][]string:
		return p
	case map[string]string:
		out := make(map[string][]string, len(p))
		for key, message := range p {
			out[key] = []string{message}
		}
		return out
	case map[string]any:
		out := make(map[string][]string)
		flattenPayload(out, "", p)
		return out
	default:
		return nil
	}
}

func flattenPayload(out map[string][]string, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			flattenPayload(out, path, child)
		}
	case []string:
		if prefix != "" {
			out[prefix] = append(out[prefix], v...)
		}
	case []any:
		for i, child := range v {
			switch c := child.(type) {
			case map[string]any, []any:
				flattenPayload(out, prefix+"["+strconv.Itoa(i)+"]", c)
			default:
				if prefix != "" && c != nil {
					out[prefix] = append(out[prefix], fmt.Sprint(c))
				}
			}
		}
	case string:
		if prefix != "" {
			out[prefix] = append(out[prefix], v)
		}
	default:
		if prefix != "" && v != nil {
			out[prefix] = append(out[prefix], fmt.Sprint(v))
		}
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveErrorPath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := splitErrorPath(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range segmentVariants(segments) {
		if path := longestKnownPath(variant, known); path != "" {
			if strings.Count(path, ".") > strings.Count(best, ".") || best == "" {
				best = path
			}
		}
	}

	if best != "" {
		return best, false
	}
	return "", true
}

// splitErrorPath tokenises a raw error path. JSON pointer prefixes (#/, $/)
// and leading separators strip away, brackets normalise to dots, and the
// ~1/~0 pointer escapes decode per segment.
func splitErrorPath(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	clean = strings.TrimLeft(clean, "#/.$")

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// segmentVariants produces candidate interpretations of a path: as-is, with
// transport envelopes (body, data, ...) dropped, with numeric indices
// dropped, and both.
func segmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{}, 4)

	add := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, ".")
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, append([]string(nil), candidate...))
	}

	add(segments)

	noEnvelope := dropEnvelopeSegments(segments)
	add(noEnvelope)
	add(dropIndexSegments(segments))
	add(dropIndexSegments(noEnvelope))

	return variants
}

func dropEnvelopeSegments(segments []string) []string {
	envelopes := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
	}

	out := segments
	for len(out) > 0 {
		if _, ok := envelopes[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropIndexSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestKnownPath(segments []string, known map[string]struct{}) string {
	if len(segments) == 0 || len(known) == 0 {
		return ""
	}

	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := known[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func collectFieldPaths(fields []definition.Field, prefix string, dest map[string]struct{}) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		dest[path] = struct{}{}

		if len(field.Nested) > 0 {
			collectFieldPaths(field.Nested, path, dest)
		}
		if field.Items != nil {
			collectItemPaths(field.Items, path, dest)
		}
	}
}

func collectItemPaths(item *definition.Field, prefix string, dest map[string]struct{}) {
	if item == nil {
		return
	}
	if len(item.Nested) > 0 {
		collectFieldPaths(item.Nested, prefix, dest)
	}
	if item.Items != nil {
		collectItemPaths(item.Items, prefix, dest)
	}
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
