package validate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Canonical rule kinds. Numeric bounds and length limits carry their
// threshold in Params["value"], pattern rules keep the expression in
// Params["pattern"], and format rules name a format in Params["name"].
const (
	RuleRequired  = "required"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleFormat    = "format"
)

// Rule is one declarative validation constraint. Message, when set, replaces
// the built-in failure message for that rule. The struct is annotated so form
// definitions can carry rules verbatim in JSON or YAML.
type Rule struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
}

// RuleOption adjusts a compiled rule set with constraints that live outside
// the rule list, such as a field's required flag or enum values.
type RuleOption func(*Rules)

// WithRequired marks the compiled set as requiring a present, non-empty value.
func WithRequired(required bool) RuleOption {
	return func(r *Rules) {
		r.required = required
	}
}

// WithEnum restricts scalar values, and each element of slice values, to the
// given set. Comparison is by rendered string so numeric enum entries match
// numeric input.
func WithEnum(values []any) RuleOption {
	return func(r *Rules) {
		if len(values) == 0 {
			return
		}
		r.enum = make(map[string]struct{}, len(values))
		for _, v := range values {
			r.enum[renderScalar(v)] = struct{}{}
		}
	}
}

// WithFormat attaches a named format check (email, uuid, url, ...). Unknown
// format names are ignored so schema formats the engine does not know keep
// working as plain strings.
func WithFormat(name string) RuleOption {
	return func(r *Rules) {
		if field, ok := Format(name); ok {
			r.format = field
			r.formatName = name
		}
	}
}

// Rules is a compiled, reusable field validator. Checks dispatch on the
// value's dynamic type: strings see length, pattern, enum, and format checks,
// numbers see min/max bounds, slices see length bounds plus per-element enum
// membership. Absent optional values pass every check except required.
type Rules struct {
	required   bool
	min        *float64
	max        *float64
	minLen     *int
	maxLen     *int
	pattern    *regexp.Regexp
	enum       map[string]struct{}
	format     Field
	formatName string
	messages   map[string]string
}

var _ Field = (*Rules)(nil)

// CompileRules builds a Rules validator from declarative constraints. Unknown
// rule kinds and unparseable parameters are compile errors so definition
// linting can surface them before a form ever runs.
func CompileRules(rules []Rule, opts ...RuleOption) (*Rules, error) {
	compiled := &Rules{}

	for _, rule := range rules {
		switch rule.Kind {
		case RuleRequired:
			compiled.required = true
		case RuleMin:
			val, err := ruleFloat(rule)
			if err != nil {
				return nil, err
			}
			compiled.min = &val
		case RuleMax:
			val, err := ruleFloat(rule)
			if err != nil {
				return nil, err
			}
			compiled.max = &val
		case RuleMinLength:
			val, err := ruleInt(rule)
			if err != nil {
				return nil, err
			}
			compiled.minLen = &val
		case RuleMaxLength:
			val, err := ruleInt(rule)
			if err != nil {
				return nil, err
			}
			compiled.maxLen = &val
		case RulePattern:
			expr := rule.Params["pattern"]
			if expr == "" {
				return nil, fmt.Errorf("validate: pattern rule missing expression")
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("validate: pattern rule: %w", err)
			}
			compiled.pattern = re
		case RuleFormat:
			name := rule.Params["name"]
			field, ok := Format(name)
			if !ok {
				return nil, fmt.Errorf("validate: unknown format %q", name)
			}
			compiled.format = field
			compiled.formatName = name
		default:
			return nil, fmt.Errorf("validate: unknown rule kind %q", rule.Kind)
		}

		if rule.Message != "" {
			if compiled.messages == nil {
				compiled.messages = make(map[string]string)
			}
			compiled.messages[rule.Kind] = rule.Message
		}
	}

	for _, opt := range opts {
		opt(compiled)
	}
	return compiled, nil
}

// MustCompileRules panics when compilation fails. Intended for fixtures.
func MustCompileRules(rules []Rule, opts ...RuleOption) *Rules {
	compiled, err := CompileRules(rules, opts...)
	if err != nil {
		panic(err)
	}
	return compiled
}

// Validate runs the compiled checks against a value.
func (r *Rules) Validate(ctx context.Context, value any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if isEmptyValue(value) {
		if r.required {
			return r.message(RuleRequired, "required"), nil
		}
		return "", nil
	}

	switch v := value.(type) {
	case string:
		return r.validateString(ctx, v)
	case bool:
		return "", nil
	case []any:
		return r.validateSlice(v)
	case map[string]any:
		return "", nil
	default:
		if f, ok := asFloat(value); ok {
			return r.validateNumber(f), nil
		}
		return "", nil
	}
}

func (r *Rules) validateString(ctx context.Context, value string) (string, error) {
	if r.minLen != nil && len(value) < *r.minLen {
		return r.message(RuleMinLength, fmt.Sprintf("min length %d", *r.minLen)), nil
	}
	if r.maxLen != nil && len(value) > *r.maxLen {
		return r.message(RuleMaxLength, fmt.Sprintf("max length %d", *r.maxLen)), nil
	}
	if r.pattern != nil && !r.pattern.MatchString(value) {
		return r.message(RulePattern, "does not match required pattern"), nil
	}
	if r.enum != nil {
		if _, ok := r.enum[value]; !ok {
			return r.message("enum", "not an allowed value"), nil
		}
	}
	if r.format != nil {
		msg, err := r.format.Validate(ctx, value)
		if err != nil {
			return "", err
		}
		if msg != "" {
			return r.message(RuleFormat, msg), nil
		}
	}
	return "", nil
}

func (r *Rules) validateNumber(value float64) string {
	if r.min != nil && value < *r.min {
		return r.message(RuleMin, fmt.Sprintf("min %v", *r.min))
	}
	if r.max != nil && value > *r.max {
		return r.message(RuleMax, fmt.Sprintf("max %v", *r.max))
	}
	return ""
}

func (r *Rules) validateSlice(value []any) (string, error) {
	if r.minLen != nil && len(value) < *r.minLen {
		return r.message(RuleMinLength, fmt.Sprintf("min length %d", *r.minLen)), nil
	}
	if r.maxLen != nil && len(value) > *r.maxLen {
		return r.message(RuleMaxLength, fmt.Sprintf("max length %d", *r.maxLen)), nil
	}
	if r.enum != nil {
		for _, element := range value {
			if _, ok := r.enum[renderScalar(element)]; !ok {
				return r.message("enum", "not an allowed value"), nil
			}
		}
	}
	return "", nil
}

func (r *Rules) message(kind, fallback string) string {
	if msg, ok := r.messages[kind]; ok {
		return msg
	}
	return fallback
}

func ruleFloat(rule Rule) (float64, error) {
	raw := rule.Params["value"]
	if raw == "" {
		return 0, fmt.Errorf("validate: %s rule missing value", rule.Kind)
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("validate: %s rule value %q: %w", rule.Kind, raw, err)
	}
	return val, nil
}

func ruleInt(rule Rule) (int, error) {
	raw := rule.Params["value"]
	if raw == "" {
		return 0, fmt.Errorf("validate: %s rule missing value", rule.Kind)
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("validate: %s rule value %q: %w", rule.Kind, raw, err)
	}
	return val, nil
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func renderScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
