// Package label provides coordinate label value handling for the alignment
// engine.
//
// Coordinate labels are the values an index looks positions up by. The engine
// supports a closed set of label kinds, mapped to Go types as follows:
//
//	Label kind   | Go type
//	-------------|------------------
//	Int          | int64
//	Float        | float64
//	String       | string
//	Bool         | bool
//	Time         | time.Time
//
// This package provides functionality to:
//
//   - Detect the kind of a label value or slice ([KindOf], [SliceOf])
//   - Compare and order label values of the same kind ([Compare], [Equal])
//   - Compute ordered set operations used by index joins
//     ([Intersection], [Union])
//   - Encode labels as canonical strings for composite lookup keys ([Key])
//   - Resolve missing-value fills per kind ([NA], [FillFor])
//   - Measure distances between labels for tolerance-based matching ([Diff]),
//     with overflow detection for time labels
//
// Mixed-kind comparisons are usage errors: every index carries labels of
// exactly one kind, established when the index is built.
package label
