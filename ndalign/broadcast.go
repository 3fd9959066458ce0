package ndalign

import "fmt"

// Broadcast expands every object against the others so that all outputs
// share the same dimensions and sizes, inserting missing dimensions and
// replicating data along them. Coordinate indexes are first unified with
// an outer join; no new index computation happens beyond that.
// WithExcludeDims keeps the named dimensions out of the expansion; an
// excluded dimension an object already has keeps its own size.
func Broadcast[T Alignable](objects []T, opts ...Option) ([]T, error) {
	o := applyOptions(opts)
	o.join = JoinOuter
	o.copy = false
	o.indexes = nil

	generic := make([]Alignable, len(objects))
	for i, obj := range objects {
		generic[i] = obj
	}
	aligned, err := alignAny(generic, o)
	if err != nil {
		return nil, err
	}

	dims, sizes, coords, indexes := broadcastDimsAndCoords(aligned, o.exclude)

	out := make([]T, len(aligned))
	for i, obj := range aligned {
		b, ok := obj.(broadcaster)
		if !ok {
			return nil, fmt.Errorf("%w: %T cannot be broadcast", ErrInvalidInputType, obj)
		}
		expanded, err := b.broadcastTo(dims, sizes, coords, indexes, o.exclude)
		if err != nil {
			return nil, err
		}
		t, ok := expanded.(T)
		if !ok {
			return nil, fmt.Errorf("%w: broadcast object %d is %T", ErrInvalidInputType, i, expanded)
		}
		out[i] = t
	}
	return out, nil
}

// broadcastDimsAndCoords computes the unified dimension order and sizes in
// first-seen order across the aligned objects, plus the union of
// coordinates attached to indexes covering those dimensions.
func broadcastDimsAndCoords(objects []Alignable, exclude map[string]struct{}) ([]string, map[string]int, map[string]*Variable, map[string]Index) {
	var dims []string
	sizes := make(map[string]int)
	coords := make(map[string]*Variable)
	indexes := make(map[string]Index)

	for _, obj := range objects {
		objSizes := obj.Sizes()
		set := obj.Indexes()
		covered := set.Dims()
		for _, dim := range obj.Dims() {
			if _, ok := sizes[dim]; ok {
				continue
			}
			if _, excl := exclude[dim]; excl {
				continue
			}
			dims = append(dims, dim)
			sizes[dim] = objSizes[dim]
			if _, ok := covered[dim]; !ok {
				continue
			}
			// Carry every coordinate of every index touching this dim.
			for _, g := range set.GroupByIndex() {
				touches := false
				for _, d := range g.Index.Dims() {
					if d == dim {
						touches = true
					}
				}
				if !touches {
					continue
				}
				for _, name := range g.Names {
					coords[name] = g.Vars[name]
					indexes[name] = g.Index
				}
			}
		}
	}
	return dims, sizes, coords, indexes
}
