package ndalign

import "fmt"

// Join selects how multiple indexes along the same coordinate group are
// unified during alignment.
type Join int

const (
	// JoinInner uses the intersection of index labels.
	JoinInner Join = iota
	// JoinOuter uses the union of index labels.
	JoinOuter
	// JoinLeft uses the first object's index.
	JoinLeft
	// JoinRight uses the last object's index.
	JoinRight
	// JoinExact performs no alignment; differing indexes raise an error.
	JoinExact
	// JoinOverride rewrites every object's indexes to the first object's,
	// requiring equal sizes along shared dimensions.
	JoinOverride
)

// String returns the join mode literal.
func (j Join) String() string {
	switch j {
	case JoinInner:
		return "inner"
	case JoinOuter:
		return "outer"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinExact:
		return "exact"
	case JoinOverride:
		return "override"
	default:
		return fmt.Sprintf("join(%d)", int(j))
	}
}

func (j Join) valid() bool {
	return j >= JoinInner && j <= JoinOverride
}

// ParseJoin parses a join mode literal.
func ParseJoin(s string) (Join, error) {
	switch s {
	case "inner":
		return JoinInner, nil
	case "outer":
		return JoinOuter, nil
	case "left":
		return JoinLeft, nil
	case "right":
		return JoinRight, nil
	case "exact":
		return JoinExact, nil
	case "override":
		return JoinOverride, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidJoin, s)
	}
}

// ReindexMethod selects how labels absent from a source index are matched
// during reindexing.
type ReindexMethod string

const (
	// MethodExact matches labels exactly; misses become fill positions.
	MethodExact ReindexMethod = ""
	// MethodNearest matches the closest label within tolerance.
	// Numeric and time labels only.
	MethodNearest ReindexMethod = "nearest"
	// MethodPad propagates the last valid label forward.
	// "ffill" is accepted as an alias.
	MethodPad ReindexMethod = "pad"
	// MethodBackfill propagates the next valid label backward.
	// "bfill" is accepted as an alias.
	MethodBackfill ReindexMethod = "backfill"
)

// normalize resolves the fill-direction aliases onto their canonical
// method names.
func (m ReindexMethod) normalize() ReindexMethod {
	switch m {
	case "ffill":
		return MethodPad
	case "bfill":
		return MethodBackfill
	default:
		return m
	}
}
