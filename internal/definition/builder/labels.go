package builder

import (
	"regexp"
	"strings"
)

var wordSeparators = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler converts a property name into a human-friendly label. It
// splits on underscores, dashes, and camelCase or letter/digit boundaries,
// then title-cases each word: "firstName" -> "First Name".
func DefaultLabeler(name string) string {
	if name == "" {
		return ""
	}

	var words []string
	for _, chunk := range wordSeparators.Split(name, -1) {
		words = append(words, splitCamelWords(chunk)...)
	}

	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

func splitCamelWords(chunk string) []string {
	if chunk == "" {
		return nil
	}

	var words []string
	start := 0
	runes := []rune(chunk)
	for i := 1; i < len(runes); i++ {
		if camelBoundary(runes[i-1], runes[i]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func camelBoundary(prev, curr rune) bool {
	switch {
	case isLower(prev) && isUpper(curr):
		return true
	case isLetter(prev) && isDigit(curr):
		return true
	case isDigit(prev) && isLetter(curr):
		return true
	default:
		return false
	}
}

func isUpper(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return isUpper(r) || isLower(r) }
