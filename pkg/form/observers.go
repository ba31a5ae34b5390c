package form

import (
	"reflect"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
)

// Selector picks the slice of state a subscriber cares about. Selectors must
// treat the record as read-only; the trees they see are live snapshots.
type Selector func(State) any

type observer struct {
	sel Selector
	fn  func(State)
}

// Subscribe registers a subscriber gated by a selector: after every applied
// message the selector runs against the previous and next records, and fn is
// invoked with the next record only when the selected slices differ. A nil
// selector subscribes to any state change. Dispatch is synchronous and in
// subscription order, on the goroutine that performed the mutation. The
// returned function cancels the subscription.
func (f *Form) Subscribe(sel Selector, fn func(State)) (cancel func()) {
	obs := &observer{sel: sel, fn: fn}
	f.obsMu.Lock()
	f.observers = append(f.observers, obs)
	f.obsMu.Unlock()

	return func() {
		f.obsMu.Lock()
		for i, o := range f.observers {
			if o == obs {
				f.observers = append(f.observers[:i], f.observers[i+1:]...)
				break
			}
		}
		f.obsMu.Unlock()
	}
}

// SubscribeValues invokes fn with a deep copy of the value tree whenever it
// changes.
func (f *Form) SubscribeValues(fn func(values map[string]any)) (cancel func()) {
	return f.Subscribe(
		func(s State) any { return s.Values },
		func(s State) { fn(fieldpath.CloneMap(s.Values)) },
	)
}

// SubscribeField invokes fn with the field view for one path whenever its
// value, error, or touched state changes.
func (f *Form) SubscribeField(path string, fn func(FieldState)) (cancel func()) {
	return f.Subscribe(
		func(s State) any { return s.Field(path) },
		func(s State) { fn(s.Field(path)) },
	)
}

func (f *Form) notify(before, after State) {
	f.obsMu.Lock()
	observers := make([]*observer, len(f.observers))
	copy(observers, f.observers)
	f.obsMu.Unlock()

	for _, obs := range observers {
		if obs.sel == nil {
			if !statesEqual(before, after) {
				obs.fn(after)
			}
			continue
		}
		if !selectedEqual(obs.sel(before), obs.sel(after)) {
			obs.fn(after)
		}
	}
}

func selectedEqual(a, b any) bool {
	return fieldpath.Equal(a, b)
}

func statesEqual(a, b State) bool {
	if a.SubmitCount != b.SubmitCount || a.Submitting != b.Submitting || a.Validating != b.Validating {
		return false
	}
	if !fieldpath.Equal(a.Values, b.Values) || !fieldpath.Equal(a.Errors, b.Errors) || !fieldpath.Equal(a.Touched, b.Touched) {
		return false
	}
	return reflect.DeepEqual(a.Status, b.Status)
}
