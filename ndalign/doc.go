// Package ndalign aligns, reindexes and broadcasts collections of
// dimension-named data containers so that arithmetic and merge operations
// between them work on consistent coordinate systems.
//
// # Overview
//
// An alignable object carries named dimensions, a size per dimension, and
// zero or more coordinate indexes. Given several such objects, [Align]
// groups coordinate variables into equivalence classes keyed by the index
// they belong to, unifies each group under a join policy, rejects
// conflicting index structures, and reindexes each object's data onto the
// unified coordinates. [Broadcast] is built directly on top: an outer join
// followed by dimension-size unification.
//
// # Join policies
//
//	Join      | Unified index per group
//	----------|------------------------------------------------
//	inner     | intersection of labels, in join reduction order
//	outer     | union of labels (sorted when inputs are sorted)
//	left      | the first object's index, verbatim
//	right     | the last object's index, verbatim
//	exact     | none; differing indexes are an error
//	override  | the first object's index rewritten onto all
//	          | objects (sizes must already agree)
//
// # Objects and indexes
//
// The engine is decoupled from its inputs through two capability
// interfaces. [Alignable] is the object protocol: [DataArray] (a single
// array) and [Dataset] (a bundle of named arrays) implement it, and so can
// external container types. [Index] is the lookup protocol, implemented by
// [LabelIndex] (single-dimension ordered labels) and [MultiIndex]
// (composite multi-level labels along one dimension).
//
// # Basic usage
//
//	a, _ := ndalign.NewDataArray("a", va, map[string]any{"x": []float64{0, 10, 20}})
//	b, _ := ndalign.NewDataArray("b", vb, map[string]any{"x": []float64{5, 10, 15, 20}})
//
//	aligned, err := ndalign.Align([]*ndalign.DataArray{a, b},
//		ndalign.WithJoin(ndalign.JoinOuter))
//
// Positions introduced by non-inner joins are filled with the configured
// fill value (NaN by default for float data). [Reindex] and [ReindexLike]
// are single-object specializations of the same orchestration.
//
// # Ownership
//
// Input objects are never mutated in place. With WithCopy(false), returned
// objects may alias the input's underlying storage when no reindexing is
// required; callers must treat the result as the sole owner from then on.
// All operations either fully succeed or fail atomically.
package ndalign
