// Package fieldpath resolves dot and bracket notation paths such as
// "user.superPowers[1].name" against nested map and slice trees. It is the
// addressing layer shared by the form engine, renderers, and stores: reads
// never materialise intermediate containers, writes clone the touched spine
// and create missing containers lazily.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath reports a path that does not follow the dot/bracket grammar.
// Callers can match it with errors.Is to distinguish malformed paths from
// other failures.
var ErrInvalidPath = errors.New("fieldpath: invalid path")

// Token addresses a single step in a path: either a map key or a slice index.
type Token struct {
	Key     string
	Index   int
	IsIndex bool
}

// String renders the token the way it would appear inside a path.
func (t Token) String() string {
	if t.IsIndex {
		return "[" + strconv.Itoa(t.Index) + "]"
	}
	return t.Key
}

// Parse splits a path into an ordered sequence of key and index tokens.
//
// Dots separate map keys, brackets carry either a non-negative integer index
// or a quoted key for names containing reserved characters. Bare numeric dot
// segments are index tokens, so "a.0.b" and "a[0].b" address the same
// location. A bare numeric segment with a leading zero stays a key. Empty
// paths, empty segments, unterminated brackets, and negative indices are
// rejected.
func Parse(path string) ([]Token, error) {
	if path == "" {
		return nil, fmt.Errorf("fieldpath: empty path: %w", ErrInvalidPath)
	}

	var tokens []Token
	i, n := 0, len(path)
	for i < n {
		switch path[i] {
		case '.':
			return nil, parseErr(path, i, "empty segment")
		case '[':
			tok, next, err := parseBracket(path, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		default:
			start := i
			for i < n && path[i] != '.' && path[i] != '[' {
				i++
			}
			tokens = append(tokens, segmentToken(path[start:i]))
		}

		if i < n && path[i] == '.' {
			i++
			if i == n {
				return nil, parseErr(path, i, "trailing dot")
			}
		}
	}
	return tokens, nil
}

// MustParse is Parse for fixtures and tests; it panics on malformed paths.
func MustParse(path string) []Token {
	tokens, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return tokens
}

// Join appends a key segment to a parent path, quoting keys that contain
// reserved characters so the result parses back to the same tokens.
func Join(parent, key string) string {
	if strings.ContainsAny(key, ".[]\"") {
		quoted := `["` + strings.ReplaceAll(key, `"`, `\"`) + `"]`
		return parent + quoted
	}
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// Index appends an index segment to a parent path.
func Index(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func parseBracket(path string, i int) (Token, int, error) {
	n := len(path)
	j := i + 1
	if j >= n {
		return Token{}, 0, parseErr(path, i, "unterminated bracket")
	}

	if quote := path[j]; quote == '"' || quote == '\'' {
		j++
		var key strings.Builder
		for j < n && path[j] != quote {
			if path[j] == '\\' && j+1 < n && path[j+1] == quote {
				j++
			}
			key.WriteByte(path[j])
			j++
		}
		if j >= n {
			return Token{}, 0, parseErr(path, i, "unterminated quote")
		}
		j++ // closing quote
		if j >= n || path[j] != ']' {
			return Token{}, 0, parseErr(path, j, "expected closing bracket")
		}
		return Token{Key: key.String()}, j + 1, nil
	}

	end := strings.IndexByte(path[j:], ']')
	if end < 0 {
		return Token{}, 0, parseErr(path, i, "unterminated bracket")
	}
	content := path[j : j+end]
	next := j + end + 1

	if content == "" {
		return Token{}, 0, parseErr(path, i, "empty brackets")
	}
	if content[0] == '-' && isDigits(content[1:]) {
		return Token{}, 0, parseErr(path, i, "negative index")
	}
	return segmentToken(content), next, nil
}

// segmentToken classifies a raw segment as an index or a key. Only canonical
// decimal numbers become indices; leading zeros keep the segment a key so
// "a.01" and "a[1]" stay distinct locations.
func segmentToken(seg string) Token {
	if isIndexSegment(seg) {
		if n, err := strconv.Atoi(seg); err == nil {
			return Token{Index: n, IsIndex: true}
		}
	}
	return Token{Key: seg}
}

func isIndexSegment(s string) bool {
	if s == "" || !isDigits(s) {
		return false
	}
	return s == "0" || s[0] != '0'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseErr(path string, pos int, reason string) error {
	return fmt.Errorf("fieldpath: parse %q at %d: %s: %w", path, pos, reason, ErrInvalidPath)
}
