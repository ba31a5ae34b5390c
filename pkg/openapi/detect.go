package openapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DetectDocument reports whether the raw payload appears to be an OpenAPI
// document, so callers can route between OpenAPI parsing and plain form
// definitions without trusting file extensions.
func DetectDocument(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if _, ok := payload["openapi"]; ok {
				return true
			}
			if _, ok := payload["swagger"]; ok {
				return true
			}
		}
	}
	lower := strings.ToLower(string(trimmed))
	return strings.Contains(lower, "openapi:") || strings.Contains(lower, "swagger:")
}
