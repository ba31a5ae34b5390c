package definition

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce  sync.Once
	plainPolicy *bluemonday.Policy
	copyPolicy  *bluemonday.Policy
)

// Sanitized returns a copy of the definition with display text cleaned:
// titles, labels, placeholders, and submit labels are stripped to plain text,
// descriptions keep a small set of inline markup (links, emphasis, code).
// Definitions loaded from untrusted sources should pass through here before
// their text reaches a renderer.
func (f Form) Sanitized() Form {
	out := f.Clone()
	out.Title = sanitizePlain(out.Title)
	out.Description = sanitizeCopy(out.Description)
	out.SubmitLabel = sanitizePlain(out.SubmitLabel)
	for i := range out.Fields {
		sanitizeField(&out.Fields[i])
	}
	return out
}

func sanitizeField(field *Field) {
	field.Label = sanitizePlain(field.Label)
	field.Placeholder = sanitizePlain(field.Placeholder)
	field.Description = sanitizeCopy(field.Description)
	for i := range field.Nested {
		sanitizeField(&field.Nested[i])
	}
	if field.Items != nil {
		sanitizeField(field.Items)
	}
}

func sanitizePlain(raw string) string {
	if raw == "" {
		return ""
	}
	plain, _ := sanitizers()
	return strings.TrimSpace(plain.Sanitize(raw))
}

func sanitizeCopy(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	_, markup := sanitizers()
	return strings.TrimSpace(markup.Sanitize(trimmed))
}

func sanitizers() (plain, markup *bluemonday.Policy) {
	policyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()

		policy := bluemonday.StrictPolicy()
		policy.AllowElements("a", "strong", "em", "code", "br")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		copyPolicy = policy
	})
	return plainPolicy, copyPolicy
}
