package ndalign

import (
	"fmt"
	"sort"
)

// Align returns new objects with aligned indexes and dimension sizes, so
// that along each dimension every output has the same index and size.
// Positions introduced by a non-inner join are filled with the configured
// fill value.
//
// Objects are never mutated; with WithCopy(false) and no reindexing
// required, outputs may alias input storage.
func Align[T Alignable](objects []T, opts ...Option) ([]T, error) {
	generic := make([]Alignable, len(objects))
	for i, obj := range objects {
		generic[i] = obj
	}
	aligned, err := alignAny(generic, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	out := make([]T, len(aligned))
	for i, obj := range aligned {
		t, ok := obj.(T)
		if !ok {
			return nil, fmt.Errorf("%w: aligned object %d is %T", ErrInvalidInputType, i, obj)
		}
		out[i] = t
	}
	return out, nil
}

func alignAny(objects []Alignable, opts alignOptions) ([]Alignable, error) {
	a, err := newAligner(objects, opts)
	if err != nil {
		return nil, err
	}
	if err := a.align(); err != nil {
		return nil, err
	}
	return a.results, nil
}

// DeepAlign aligns a mixed list for merging, recursing one level into
// map[string]any containers: every Alignable element, and every Alignable
// value inside a map element, participates in one shared alignment and is
// replaced by its aligned counterpart in the returned copy. Map keys that
// name an explicitly supplied index are skipped; those coordinates are
// being overwritten, not aligned. Any other element kind is
// ErrInvalidInputType.
func DeepAlign(items []any, opts ...Option) ([]any, error) {
	o := applyOptions(opts)

	out := make([]any, len(items))
	var targets []Alignable
	type slot struct {
		position int
		key      string
		inMap    bool
	}
	var slots []slot

	for i, item := range items {
		switch v := item.(type) {
		case Alignable:
			targets = append(targets, v)
			slots = append(slots, slot{position: i})
		case map[string]any:
			current := make(map[string]any, len(v))
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				obj, ok := v[k].(Alignable)
				if _, overwritten := o.indexes[k]; ok && !overwritten {
					targets = append(targets, obj)
					slots = append(slots, slot{position: i, key: k, inMap: true})
				} else {
					current[k] = v[k]
				}
			}
			out[i] = current
		default:
			return nil, fmt.Errorf("%w: element %d is %T, not alignable or a map of alignables",
				ErrInvalidInputType, i, item)
		}
	}

	aligned, err := alignAny(targets, o)
	if err != nil {
		return nil, err
	}
	for i, s := range slots {
		if s.inMap {
			out[s.position].(map[string]any)[s.key] = aligned[i]
		} else {
			out[s.position] = aligned[i]
		}
	}
	return out, nil
}
