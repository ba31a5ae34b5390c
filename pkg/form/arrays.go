package form

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
)

// Array helpers mutate a slice-valued path in the value tree and mirror the
// structural change onto the error and touched trees so the three stay
// index-aligned. Push and replace leave errors and touched alone; insert,
// remove, swap, move, unshift, and pop reorder them the same way they reorder
// the values, padding fresh positions with nil. A missing path reads as an
// empty list; a non-list value at the path is an error.

// ArrayPush appends a value to the list at path.
func (f *Form) ArrayPush(ctx context.Context, path string, value any) error {
	return f.applyArray(ctx, path, func(list []any) ([]any, error) {
		out := make([]any, len(list)+1)
		copy(out, list)
		out[len(list)] = value
		return out, nil
	}, nil)
}

// ArrayPop removes and returns the last element of the list at path.
func (f *Form) ArrayPop(ctx context.Context, path string) (any, error) {
	var popped any
	err := f.applyArray(ctx, path, func(list []any) ([]any, error) {
		if len(list) == 0 {
			return nil, fmt.Errorf("pop from empty list")
		}
		popped = list[len(list)-1]
		out := make([]any, len(list)-1)
		copy(out, list[:len(list)-1])
		return out, nil
	}, func(list []any) []any {
		if len(list) == 0 {
			return list
		}
		out := make([]any, len(list)-1)
		copy(out, list[:len(list)-1])
		return out
	})
	return popped, err
}

// ArrayInsert inserts a value at index, shifting later elements up. An index
// past the end appends.
func (f *Form) ArrayInsert(ctx context.Context, path string, index int, value any) error {
	if index < 0 {
		return fmt.Errorf("form: array %s: negative index %d", path, index)
	}
	return f.applyArray(ctx, path, func(list []any) ([]any, error) {
		return insertAt(list, index, value), nil
	}, func(list []any) []any {
		return insertAt(list, index, nil)
	})
}

// ArrayUnshift prepends a value, shifting every element up.
func (f *Form) ArrayUnshift(ctx context.Context, path string, value any) error {
	return f.ArrayInsert(ctx, path, 0, value)
}

// ArrayRemove removes and returns the element at index.
func (f *Form) ArrayRemove(ctx context.Context, path string, index int) (any, error) {
	var removed any
	err := f.applyArray(ctx, path, func(list []any) ([]any, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("index %d out of range", index)
		}
		removed = list[index]
		return removeAt(list, index), nil
	}, func(list []any) []any {
		if index < 0 || index >= len(list) {
			return list
		}
		return removeAt(list, index)
	})
	return removed, err
}

// ArrayReplace writes a value over the element at index.
func (f *Form) ArrayReplace(ctx context.Context, path string, index int, value any) error {
	return f.applyArray(ctx, path, func(list []any) ([]any, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("index %d out of range", index)
		}
		out := make([]any, len(list))
		copy(out, list)
		out[index] = value
		return out, nil
	}, nil)
}

// ArraySwap exchanges the elements at indices i and j.
func (f *Form) ArraySwap(ctx context.Context, path string, i, j int) error {
	return f.applyArray(ctx, path, func(list []any) ([]any, error) {
		if i < 0 || i >= len(list) || j < 0 || j >= len(list) {
			return nil, fmt.Errorf("indices %d and %d out of range", i, j)
		}
		out := make([]any, len(list))
		copy(out, list)
		out[i], out[j] = out[j], out[i]
		return out, nil
	}, func(list []any) []any {
		if i < 0 || i >= len(list) || j < 0 || j >= len(list) {
			return list
		}
		out := make([]any, len(list))
		copy(out, list)
		out[i], out[j] = out[j], out[i]
		return out
	})
}

// ArrayMove relocates the element at from to position to, shifting the
// elements between them.
func (f *Form) ArrayMove(ctx context.Context, path string, from, to int) error {
	return f.applyArray(ctx, path, func(list []any) ([]any, error) {
		if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
			return nil, fmt.Errorf("indices %d and %d out of range", from, to)
		}
		return moveAt(list, from, to), nil
	}, func(list []any) []any {
		if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
			return list
		}
		return moveAt(list, from, to)
	})
}

// applyArray runs the values mutation and, when mirror is non-nil, the same
// structural change against existing error and touched lists. The batch is
// applied atomically before observers run.
func (f *Form) applyArray(ctx context.Context, path string, mutate func([]any) ([]any, error), mirror func([]any) []any) error {
	if _, err := fieldpath.Parse(path); err != nil {
		return err
	}

	f.mu.Lock()
	before := f.state

	var list []any
	if cur, ok := fieldpath.Get(before.Values, path); ok && cur != nil {
		typed, isList := cur.([]any)
		if !isList {
			f.mu.Unlock()
			return fmt.Errorf("form: array %s: value is %T, not a list", path, cur)
		}
		list = typed
	}

	newList, err := mutate(list)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("form: array %s: %w", path, err)
	}

	next := before
	next.Values, _ = fieldpath.Set(next.Values, path, newList)
	if mirror != nil {
		next.Errors = mirrorList(next.Errors, path, mirror)
		next.Touched = mirrorList(next.Touched, path, mirror)
	}
	f.state = next
	f.mu.Unlock()
	f.notify(before, next)

	return f.validateOnChange(ctx)
}

func mirrorList(tree map[string]any, path string, mirror func([]any) []any) map[string]any {
	cur, ok := fieldpath.Get(tree, path)
	if !ok {
		return tree
	}
	list, isList := cur.([]any)
	if !isList {
		return tree
	}
	out, err := fieldpath.Set(tree, path, mirror(list))
	if err != nil {
		return tree
	}
	return out
}

func insertAt(list []any, index int, value any) []any {
	if index > len(list) {
		index = len(list)
	}
	out := make([]any, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, value)
	out = append(out, list[index:]...)
	return out
}

func removeAt(list []any, index int) []any {
	out := make([]any, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	return out
}

func moveAt(list []any, from, to int) []any {
	out := make([]any, 0, len(list))
	out = append(out, list...)
	element := out[from]
	out = append(out[:from], out[from+1:]...)

	rebuilt := make([]any, 0, len(list))
	rebuilt = append(rebuilt, out[:to]...)
	rebuilt = append(rebuilt, element)
	rebuilt = append(rebuilt, out[to:]...)
	return rebuilt
}
