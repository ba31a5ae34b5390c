// Package visibility decides whether a field should be shown given the
// current form values. Renderers skip hidden fields, prompt sessions skip
// their questions, and HTTP handlers ignore their submitted values.
package visibility

// Evaluator decides whether the field at fieldPath is visible under rule.
// An empty rule always evaluates to visible.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context carries the inputs rules are evaluated against. Values is the
// current value tree; Extras lets callers inject out-of-band context such as
// user roles or feature flags, addressed with an "extras." prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Always is an Evaluator that shows every field regardless of rule.
var Always Evaluator = EvaluatorFunc(func(string, string, Context) (bool, error) {
	return true, nil
})
