package ndalign

import (
	"fmt"
)

// Reindex conforms obj onto the coordinates given by indexers, a mapping
// from dimension name to an Index, a label slice, or a 1-d Variable. It is
// a single-object alignment where indexers play the role of externally
// supplied indexes. Positions with no matching label are filled.
func Reindex[T Alignable](obj T, indexers map[string]any, opts ...Option) (T, error) {
	o := applyOptions(opts)
	o.join = JoinInner
	o.indexes = indexers

	var zero T
	aligned, err := alignAny([]Alignable{obj}, o)
	if err != nil {
		return zero, err
	}
	out, ok := aligned[0].(T)
	if !ok {
		return zero, fmt.Errorf("%w: reindexed object is %T", ErrInvalidInputType, aligned[0])
	}
	return out, nil
}

// ReindexLike conforms obj onto other's coordinate system. Dimensions that
// are unindexed in other are validated for size agreement before
// delegating to Reindex.
func ReindexLike[T Alignable](obj T, other Alignable, opts ...Option) (T, error) {
	var zero T
	otherIndexes := other.Indexes()
	if otherIndexes.Len() == 0 {
		// This check is not performed by the aligner itself.
		objSizes := Alignable(obj).Sizes()
		otherSizes := other.Sizes()
		for _, dim := range other.Dims() {
			objSize, ok := objSizes[dim]
			if !ok {
				continue
			}
			if otherSize := otherSizes[dim]; otherSize != objSize {
				return zero, fmt.Errorf(
					"%w: different size for unlabeled dimension %q: %d vs %d",
					ErrDimensionSizeConflict, dim, otherSize, objSize)
			}
		}
	}

	indexers := make(map[string]any, otherIndexes.Len())
	for _, g := range otherIndexes.GroupByIndex() {
		for _, name := range g.Names {
			indexers[name] = g.Index
		}
	}
	return Reindex(obj, indexers, opts...)
}

// reindexVariables conforms a set of variables onto new coordinates using
// per-dimension positional indexers, filling positions marked -1. fills
// carries the resolved fill value per entry. Shared by the built-in object
// kinds' reindex callbacks.
func reindexVariables(variables map[string]*Variable, names []string, fills map[string]any, plan *ReindexPlan) (map[string]*Variable, error) {
	if plan.Sparse {
		return nil, fmt.Errorf("%w: sparse reindexing", ErrUnsupported)
	}
	dimSizes, err := CalculateDimensions(variables)
	if err != nil {
		return nil, err
	}

	// A dimension whose indexer introduces no -1 and is the identity
	// needs no gather at all.
	unchanged := make(map[string]struct{})
	for dim, indexer := range plan.DimIndexers {
		hasMissing := false
		for _, idx := range indexer {
			if idx < 0 {
				hasMissing = true
				break
			}
		}
		if !hasMissing && isIdentityIndexer(indexer, dimSizes[dim]) {
			unchanged[dim] = struct{}{}
		}
	}

	out := make(map[string]*Variable, len(variables))
	for _, name := range names {
		v := variables[name]
		fill := fills[name]

		gathered := v
		touched := false
		for _, dim := range v.Dims() {
			indexer, ok := plan.DimIndexers[dim]
			if !ok {
				continue
			}
			if _, skip := unchanged[dim]; skip {
				continue
			}
			gathered, err = gathered.take(dim, indexer, fill)
			if err != nil {
				return nil, fmt.Errorf("reindexing %q: %w", name, err)
			}
			touched = true
		}
		if !touched {
			gathered = v.Clone(plan.Copy)
		}
		out[name] = gathered
	}
	return out, nil
}
