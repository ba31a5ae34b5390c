package expr

import (
	"testing"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

func TestEvaluatorComparisons(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("plan", `plan == "pro"`, visibility.Context{
		Values: map[string]any{"plan": "pro"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for string equality")
	}

	ok, err = eval.Eval("enabled", "enabled == true", visibility.Context{
		Values: map[string]any{"enabled": "true"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected string %q to coerce to true", "true")
	}

	ok, err = eval.Eval("seats", "seats != 3", visibility.Context{
		Values: map[string]any{"seats": 4},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for numeric inequality")
	}
}

func TestEvaluatorOrderedComparisons(t *testing.T) {
	t.Parallel()

	eval := New()

	cases := []struct {
		rule   string
		values map[string]any
		want   bool
	}{
		{"seats >= 5", map[string]any{"seats": 5}, true},
		{"seats >= 5", map[string]any{"seats": 4}, false},
		{"seats > 5", map[string]any{"seats": 5}, false},
		{"seats < 10", map[string]any{"seats": float64(9.5)}, true},
		{"seats <= 10", map[string]any{"seats": "10"}, true},
		{"seats > 0", map[string]any{}, false},
	}
	for _, tc := range cases {
		got, err := eval.Eval("seats", tc.rule, visibility.Context{Values: tc.values})
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v with %v, want %v", tc.rule, got, tc.values, tc.want)
		}
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("newsletter", "newsletter", visibility.Context{
		Values: map[string]any{"newsletter": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("archived", "!(archived || hidden)", visibility.Context{
		Values: map[string]any{"archived": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for negated disjunction")
	}
}

func TestEvaluatorPathLookup(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("cta.headline", `cta.headline == "Hello"`, visibility.Context{
		Values: map[string]any{
			"cta": map[string]any{"headline": "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for nested lookup")
	}

	ok, err = eval.Eval("members", `members[0].role == "owner"`, visibility.Context{
		Values: map[string]any{
			"members": []any{
				map[string]any{"role": "owner"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for bracket index lookup")
	}
}

func TestEvaluatorNullLiteral(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("owner", "owner == null", visibility.Context{
		Values: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for missing == null")
	}

	ok, err = eval.Eval("enabled", "enabled != null", visibility.Context{
		Values: map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for present != null")
	}
}

func TestEvaluatorExtrasPrefix(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("beta", `extras.role == "admin"`, visibility.Context{
		Values: map[string]any{"role": "user"},
		Extras: map[string]any{"role": "admin"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected extras lookup to win")
	}
}

func TestEvaluatorEmptyRuleIsVisible(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("anything", "   ", visibility.Context{})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected empty rule to be visible")
	}
}

func TestCompileRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{
		"plan ==",
		"a = b",
		"(a || b",
		`plan == "unterminated`,
		"a &| b",
	} {
		if err := Compile(rule); err == nil {
			t.Fatalf("Compile(%q) accepted a malformed rule", rule)
		}
	}
}

func TestCompileAcceptsSupportedForms(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{
		"",
		"enabled",
		`plan == "pro" && seats >= 5`,
		"!(archived || hidden)",
		"owner != null",
		"extras.preview",
	} {
		if err := Compile(rule); err != nil {
			t.Fatalf("Compile(%q) = %v", rule, err)
		}
	}
}
