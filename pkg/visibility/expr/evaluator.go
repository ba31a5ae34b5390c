// Package expr implements the rule language used by visibleWhen expressions.
//
// Supported forms:
//   - truthiness: `newsletter`
//   - comparisons: `plan == "pro"`, `seats >= 5`, `owner != null`
//   - composition: `plan == "pro" && seats >= 5`, `admin || extras.preview`
//   - grouping and negation: `!(archived || hidden)`
//
// Identifiers are field paths resolved against the value tree, including
// bracket indices such as `members[0].role`. The `extras.` prefix reads from
// Context.Extras instead.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Evaluator parses and evaluates visibility rules. The zero value is ready to
// use; rules are parsed per call.
type Evaluator struct{}

// New returns an expression evaluator.
func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval parses rule and evaluates it against ctx. An empty rule is visible.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	node, err := parse(rule)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: field %s: %w", fieldPath, err)
	}
	if node == nil {
		return true, nil
	}
	ok, err := node.eval(ctx)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: field %s: %w", fieldPath, err)
	}
	return ok, nil
}

// Compile parses rule without evaluating it, so definition linting can reject
// malformed rules before a form ever runs.
func Compile(rule string) error {
	if _, err := parse(rule); err != nil {
		return fmt.Errorf("visibility/expr: %w", err)
	}
	return nil
}

func parse(rule string) (node, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := scan(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	p := &parser{tokens: tokens}
	out, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q", p.tokens[p.pos].text)
	}
	return out, nil
}

type kind int

const (
	kindIdent kind = iota
	kindString
	kindNumber
	kindBool
	kindNull
	kindEq
	kindNeq
	kindLT
	kindLTE
	kindGT
	kindGTE
	kindAnd
	kindOr
	kindNot
	kindLParen
	kindRParen
)

type tok struct {
	kind kind
	text string
}

func scan(input string) ([]tok, error) {
	var out []tok
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			out = append(out, tok{kindLParen, "("})
			i++
		case ch == ')':
			out = append(out, tok{kindRParen, ")"})
			i++
		case ch == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{kindNeq, "!="})
				i += 2
			} else {
				out = append(out, tok{kindNot, "!"})
				i++
			}
		case ch == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, errors.New("unexpected '='; use '=='")
			}
			out = append(out, tok{kindEq, "=="})
			i += 2
		case ch == '<':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{kindLTE, "<="})
				i += 2
			} else {
				out = append(out, tok{kindLT, "<"})
				i++
			}
		case ch == '>':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{kindGTE, ">="})
				i += 2
			} else {
				out = append(out, tok{kindGT, ">"})
				i++
			}
		case ch == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, errors.New("unexpected '&'; use '&&'")
			}
			out = append(out, tok{kindAnd, "&&"})
			i += 2
		case ch == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, errors.New("unexpected '|'; use '||'")
			}
			out = append(out, tok{kindOr, "||"})
			i += 2
		case ch == '"' || ch == '\'':
			text, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			out = append(out, tok{kindString, text})
			i = next
		default:
			text, next := scanWord(input, i)
			if text == "" {
				return nil, fmt.Errorf("unexpected character %q", string(ch))
			}
			i = next
			switch strings.ToLower(text) {
			case "true", "false":
				out = append(out, tok{kindBool, strings.ToLower(text)})
			case "null", "nil":
				out = append(out, tok{kindNull, "null"})
			default:
				if isNumeric(text) {
					out = append(out, tok{kindNumber, text})
				} else {
					out = append(out, tok{kindIdent, text})
				}
			}
		}
	}
	return out, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		c := input[i]
		if c == '\\' && i+1 < len(input) {
			b.WriteByte(input[i+1])
			i += 2
			continue
		}
		if c == quote {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, errors.New("unterminated string literal")
}

func scanWord(input string, start int) (string, int) {
	i := start
	for i < len(input) {
		c := input[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
			c == '(' || c == ')' || c == '!' || c == '=' ||
			c == '<' || c == '>' || c == '&' || c == '|' {
			break
		}
		i++
	}
	return strings.TrimSpace(input[start:i]), i
}

func isNumeric(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	if c != '-' && c != '+' && (c < '0' || c > '9') {
		return false
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

type node interface {
	eval(ctx visibility.Context) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(ctx visibility.Context) (bool, error) {
	value, ok := lookup(ctx, n.ident)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type litKind int

const (
	litString litKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind litKind
	text string
}

type compareNode struct {
	ident string
	op    kind
	lit   literal
}

func (n compareNode) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.ident)

	switch n.op {
	case kindLT, kindLTE, kindGT, kindGTE:
		return n.evalOrdered(value)
	}

	var equal bool
	switch n.lit.kind {
	case litNull:
		equal = value == nil
	case litBool:
		got, _ := toBool(value)
		equal = got == (n.lit.text == "true")
	case litNumber:
		want, err := strconv.ParseFloat(n.lit.text, 64)
		if err != nil {
			return false, fmt.Errorf("invalid number literal %q", n.lit.text)
		}
		got, ok := toNumber(value)
		equal = ok && got == want
	default:
		equal = toString(value) == n.lit.text
	}
	if n.op == kindNeq {
		return !equal, nil
	}
	return equal, nil
}

func (n compareNode) evalOrdered(value any) (bool, error) {
	if n.lit.kind != litNumber {
		return false, fmt.Errorf("operator %q needs a number literal", opText(n.op))
	}
	want, err := strconv.ParseFloat(n.lit.text, 64)
	if err != nil {
		return false, fmt.Errorf("invalid number literal %q", n.lit.text)
	}
	got, ok := toNumber(value)
	if !ok {
		return false, nil
	}
	switch n.op {
	case kindLT:
		return got < want, nil
	case kindLTE:
		return got <= want, nil
	case kindGT:
		return got > want, nil
	default:
		return got >= want, nil
	}
}

func opText(k kind) string {
	switch k {
	case kindEq:
		return "=="
	case kindNeq:
		return "!="
	case kindLT:
		return "<"
	case kindLTE:
		return "<="
	case kindGT:
		return ">"
	case kindGTE:
		return ">="
	default:
		return "?"
	}
}

type parser struct {
	tokens []tok
	pos    int
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(kindOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(kindAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.match(kindNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.match(kindLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(kindRParen) {
			return nil, errors.New("missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.consume(kindIdent)
	if !ok {
		if p.pos >= len(p.tokens) {
			return nil, errors.New("empty expression")
		}
		return nil, fmt.Errorf("expected identifier, got %q", p.tokens[p.pos].text)
	}

	for _, op := range []kind{kindEq, kindNeq, kindLT, kindLTE, kindGT, kindGTE} {
		if p.match(op) {
			lit, err := p.consumeLiteral()
			if err != nil {
				return nil, err
			}
			return compareNode{ident: ident.text, op: op, lit: lit}, nil
		}
	}

	return truthyNode{ident: ident.text}, nil
}

func (p *parser) match(k kind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == k {
		p.pos++
		return true
	}
	return false
}

func (p *parser) consume(k kind) (tok, bool) {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == k {
		out := p.tokens[p.pos]
		p.pos++
		return out, true
	}
	return tok{}, false
}

func (p *parser) consumeLiteral() (literal, error) {
	if p.pos >= len(p.tokens) {
		return literal{}, errors.New("missing literal")
	}
	t := p.tokens[p.pos]
	p.pos++
	switch t.kind {
	case kindString:
		return literal{litString, t.text}, nil
	case kindNumber:
		return literal{litNumber, t.text}, nil
	case kindBool:
		return literal{litBool, t.text}, nil
	case kindNull:
		return literal{litNull, "null"}, nil
	case kindIdent:
		// Bare words compare as strings so `plan == pro` keeps working.
		return literal{litString, t.text}, nil
	default:
		return literal{}, fmt.Errorf("expected literal, got %q", t.text)
	}
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	if rest, ok := strings.CutPrefix(key, "extras."); ok {
		return fieldpath.Get(ctx.Extras, rest)
	}
	return fieldpath.Get(ctx.Values, key)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		if f, ok := toNumber(value); ok {
			return f != 0
		}
		return true
	}
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
