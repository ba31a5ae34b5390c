package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
)

// extensionHints flattens x-formstate extension payloads into string hints.
// Both the grouped map and x-formstate-* keys contribute; grouped keys win.
func extensionHints(ext map[string]any) map[string]string {
	if len(ext) == 0 {
		return nil
	}

	hints := make(map[string]string)
	for key, value := range ext {
		if !strings.HasPrefix(key, extensionNamespace+"-") {
			continue
		}
		trimmed := strings.TrimPrefix(key, extensionNamespace+"-")
		if rendered, ok := renderHintValue(value); ok {
			hints[canonicalHintKey(trimmed)] = rendered
		}
	}
	if grouped, ok := ext[extensionNamespace].(map[string]any); ok {
		for key, value := range grouped {
			if rendered, ok := renderHintValue(value); ok {
				hints[canonicalHintKey(key)] = rendered
			}
		}
	}

	if len(hints) == 0 {
		return nil
	}
	return hints
}

// mergeHints overlays updates onto target in sorted key order.
func mergeHints(target map[string]string, updates map[string]string) {
	if len(updates) == 0 || target == nil {
		return
	}
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		target[key] = updates[key]
	}
}

// canonicalHintKey maps kebab-case spellings onto the camelCase keys the
// definition model uses.
func canonicalHintKey(key string) string {
	switch strings.ToLower(key) {
	case "submitlabel", "submit-label":
		return "submitLabel"
	case "visiblewhen", "visible-when":
		return "visibleWhen"
	case "readonly", "read-only":
		return "readOnly"
	case "helptext", "help-text":
		return "helpText"
	default:
		return key
	}
}

func renderHintValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case fmt.Stringer:
		s := v.String()
		if s == "" {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

// applyFormHints consumes form-level hints; anything unrecognised lands in
// form metadata.
func applyFormHints(form *definition.Form, hints map[string]string) {
	for _, key := range sortedHintKeys(hints) {
		value := hints[key]
		switch key {
		case "title":
			form.Title = value
		case "description":
			if form.Description == "" {
				form.Description = value
			}
		case "submitLabel":
			form.SubmitLabel = value
		default:
			if form.Metadata == nil {
				form.Metadata = make(map[string]string)
			}
			form.Metadata[key] = value
		}
	}
}

// applyFieldHints consumes field-level hints; anything unrecognised lands in
// field metadata.
func applyFieldHints(field *definition.Field, hints map[string]string) {
	for _, key := range sortedHintKeys(hints) {
		value := hints[key]
		switch key {
		case "widget":
			field.Widget = value
		case "label":
			field.Label = value
		case "placeholder":
			field.Placeholder = value
		case "hint":
			if field.Description == "" {
				field.Description = value
			}
		case "secret":
			field.Secret = value == "true"
		case "readOnly":
			field.ReadOnly = value == "true"
		case "visibleWhen":
			field.VisibleWhen = value
		default:
			if field.Metadata == nil {
				field.Metadata = make(map[string]string)
			}
			field.Metadata[key] = value
		}
	}
}

func sortedHintKeys(hints map[string]string) []string {
	if len(hints) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hints))
	for key := range hints {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
