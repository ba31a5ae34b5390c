package html

import (
	stdhtml "html"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// themeAssetStylesheet is the asset key the renderer asks a theme's AssetURL
// resolver for when rewriting the stylesheet location.
const themeAssetStylesheet = "html.stylesheet"

// formAttrs renders theme identity and tokens as data attributes for the form
// element, sorted so output stays stable. The returned string starts with a
// space when non-empty.
func formAttrs(cfg *theme.RendererConfig) string {
	if cfg == nil {
		return ""
	}

	var b strings.Builder
	if name := strings.TrimSpace(cfg.Theme); name != "" {
		writeAttr(&b, "data-theme", name)
	}
	if variant := strings.TrimSpace(cfg.Variant); variant != "" {
		writeAttr(&b, "data-theme-variant", variant)
	}

	keys := make([]string, 0, len(cfg.Tokens))
	for key := range cfg.Tokens {
		if attrToken(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		writeAttr(&b, "data-theme-"+attrToken(key), cfg.Tokens[key])
	}
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(stdhtml.EscapeString(value))
	b.WriteString(`"`)
}

// attrToken lowercases a token key and squeezes anything outside [a-z0-9]
// into single dashes so it is usable inside an attribute name.
func attrToken(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	var b strings.Builder
	lastDash := true
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// partialFor resolves the template name for a partial key, honouring theme
// overrides before the built-in default.
func partialFor(cfg *theme.RendererConfig, key, fallback string) string {
	if cfg != nil {
		if name := strings.TrimSpace(cfg.Partials[key]); name != "" {
			return name
		}
	}
	return fallback
}

func expandAssetURL(prefix, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "//") ||
		strings.HasPrefix(name, "/") {
		return name
	}
	if prefix == "" {
		return name
	}
	p := strings.TrimRight(prefix, "/")
	n := strings.TrimLeft(name, "/")
	if p == "" {
		return n
	}
	return p + "/" + n
}
