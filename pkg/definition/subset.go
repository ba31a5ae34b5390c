package definition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subset selects top-level fields by the group, tag, or section recorded in
// their metadata. A field matches when any of its memberships appears in any
// filter list; matching is case-insensitive.
type Subset struct {
	Groups   []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Empty reports whether the subset carries no filters.
func (s Subset) Empty() bool {
	return len(s.Groups) == 0 && len(s.Tags) == 0 && len(s.Sections) == 0
}

// ApplySubset removes top-level fields that do not match the subset. Field
// membership comes from Metadata: "group", "tags" (comma list or JSON
// array), and "section". An empty subset or nil form is left unchanged.
func ApplySubset(f *Form, subset Subset) {
	if f == nil {
		return
	}

	matcher := newSubsetMatcher(subset)
	if matcher.empty() {
		return
	}

	filtered := make([]Field, 0, len(f.Fields))
	for _, field := range f.Fields {
		if matcher.matches(field) {
			filtered = append(filtered, field)
		}
	}
	f.Fields = filtered
	if len(f.Fields) == 0 {
		f.Fields = nil
	}
}

// ParseSubset builds a Subset from "kind:value" tokens (group:billing,
// tag:pii, section:shipping). Bare tokens count as groups.
func ParseSubset(tokens []string) (Subset, error) {
	var subset Subset
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		kind, value, found := strings.Cut(token, ":")
		if !found {
			subset.Groups = append(subset.Groups, token)
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "group":
			subset.Groups = append(subset.Groups, value)
		case "tag":
			subset.Tags = append(subset.Tags, value)
		case "section":
			subset.Sections = append(subset.Sections, value)
		default:
			return Subset{}, fmt.Errorf("definition: unknown subset kind %q", kind)
		}
	}
	return subset, nil
}

type subsetMatcher struct {
	groups   map[string]struct{}
	tags     map[string]struct{}
	sections map[string]struct{}
}

func newSubsetMatcher(subset Subset) subsetMatcher {
	return subsetMatcher{
		groups:   tokenSet(subset.Groups),
		tags:     tokenSet(subset.Tags),
		sections: tokenSet(subset.Sections),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.groups) == 0 && len(m.tags) == 0 && len(m.sections) == 0
}

func (m subsetMatcher) matches(field Field) bool {
	if len(m.groups) > 0 {
		if group := normalizeToken(field.Metadata["group"]); group != "" {
			if _, ok := m.groups[group]; ok {
				return true
			}
		}
	}

	if len(m.tags) > 0 {
		for _, tag := range parseTokenList(field.Metadata["tags"]) {
			if _, ok := m.tags[tag]; ok {
				return true
			}
		}
	}

	if len(m.sections) > 0 {
		if section := normalizeToken(field.Metadata["section"]); section != "" {
			if _, ok := m.sections[section]; ok {
				return true
			}
		}
	}

	return false
}

func tokenSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := normalizeToken(value)
		if token == "" {
			continue
		}
		result[token] = struct{}{}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// parseTokenList accepts either a JSON string array or a comma-separated
// list, normalising and deduplicating tokens.
func parseTokenList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			tokens := make([]string, 0, len(parsed))
			for _, entry := range parsed {
				if token := normalizeToken(fmt.Sprint(entry)); token != "" {
					tokens = append(tokens, token)
				}
			}
			return dedupeTokens(tokens)
		}
	}

	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := normalizeToken(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return dedupeTokens(tokens)
}

func dedupeTokens(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
