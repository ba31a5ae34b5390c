package fieldpath

import "strconv"

// Get walks the path and returns the value it addresses. The second return is
// false when any intermediate is missing: an absent map key, an index past the
// end of a slice, or a scalar where a container is needed. Reads never create
// containers. Malformed paths read as missing.
func Get(root any, path string) (any, bool) {
	tokens, err := Parse(path)
	if err != nil {
		return nil, false
	}
	return getTokens(root, tokens)
}

// GetOr returns the value at path, or fallback when the path does not resolve.
func GetOr(root any, path string, fallback any) any {
	if v, ok := Get(root, path); ok {
		return v
	}
	return fallback
}

// Exists reports whether the path resolves to a value, including an explicit
// nil leaf.
func Exists(root any, path string) bool {
	_, ok := Get(root, path)
	return ok
}

func getTokens(cur any, tokens []Token) (any, bool) {
	for _, tok := range tokens {
		switch c := cur.(type) {
		case map[string]any:
			key := tok.Key
			if tok.IsIndex {
				key = strconv.Itoa(tok.Index)
			}
			v, ok := c[key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !tok.IsIndex || tok.Index >= len(c) {
				return nil, false
			}
			cur = c[tok.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at path and returns the new root. The write is
// copy-on-write: containers along the spine are cloned, untouched branches are
// shared with the input, and the input tree itself is never mutated. Missing
// intermediates are created lazily, with index tokens producing slices and key
// tokens producing maps. Growing a slice fills the gap with nils, and a scalar
// occupying an intermediate position is replaced by the container the next
// token requires.
func Set(root map[string]any, path string, value any) (map[string]any, error) {
	tokens, err := Parse(path)
	if err != nil {
		return nil, err
	}
	out := setTokens(root, tokens, value)
	return out.(map[string]any), nil
}

func setTokens(cur any, tokens []Token, value any) any {
	if len(tokens) == 0 {
		return value
	}
	tok := tokens[0]

	if tok.IsIndex {
		// Index tokens address existing maps through their decimal key, the
		// same equivalence Get applies.
		if m, ok := cur.(map[string]any); ok {
			return setMapKey(m, strconv.Itoa(tok.Index), tokens[1:], value)
		}
		prev, _ := cur.([]any)
		length := len(prev)
		if tok.Index+1 > length {
			length = tok.Index + 1
		}
		next := make([]any, length)
		copy(next, prev)
		next[tok.Index] = setTokens(next[tok.Index], tokens[1:], value)
		return next
	}

	m, _ := cur.(map[string]any)
	return setMapKey(m, tok.Key, tokens[1:], value)
}

func setMapKey(m map[string]any, key string, rest []Token, value any) map[string]any {
	next := make(map[string]any, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[key] = setTokens(next[key], rest, value)
	return next
}

// Remove deletes the leaf the path addresses and returns the new root. Map
// leaves are deleted by key, slice leaves are spliced out so later elements
// shift down. A path that does not resolve leaves the tree untouched and
// returns the original root. Like Set, the write clones only the spine.
func Remove(root map[string]any, path string) (map[string]any, error) {
	tokens, err := Parse(path)
	if err != nil {
		return nil, err
	}
	out, removed := removeTokens(root, tokens)
	if !removed {
		return root, nil
	}
	return out.(map[string]any), nil
}

func removeTokens(cur any, tokens []Token) (any, bool) {
	tok := tokens[0]
	last := len(tokens) == 1

	switch c := cur.(type) {
	case map[string]any:
		key := tok.Key
		if tok.IsIndex {
			key = strconv.Itoa(tok.Index)
		}
		child, ok := c[key]
		if !ok {
			return cur, false
		}
		next := make(map[string]any, len(c))
		for k, v := range c {
			next[k] = v
		}
		if last {
			delete(next, key)
			return next, true
		}
		replaced, removed := removeTokens(child, tokens[1:])
		if !removed {
			return cur, false
		}
		next[key] = replaced
		return next, true

	case []any:
		if !tok.IsIndex || tok.Index >= len(c) {
			return cur, false
		}
		if last {
			next := make([]any, 0, len(c)-1)
			next = append(next, c[:tok.Index]...)
			next = append(next, c[tok.Index+1:]...)
			return next, true
		}
		replaced, removed := removeTokens(c[tok.Index], tokens[1:])
		if !removed {
			return cur, false
		}
		next := make([]any, len(c))
		copy(next, c)
		next[tok.Index] = replaced
		return next, true

	default:
		return cur, false
	}
}
