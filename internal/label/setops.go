package label

import "math"

// IsMonotonic reports whether the labels are in non-decreasing order.
// Mixed-kind slices and slices containing NaN are never monotonic, since
// NaN has no place in an ordering.
func IsMonotonic(values []any) bool {
	for _, v := range values {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return false
		}
	}
	for i := 1; i < len(values); i++ {
		c, err := Compare(values[i-1], values[i])
		if err != nil || c > 0 {
			return false
		}
	}
	return true
}

// Intersection returns the labels present in both slices, in the order they
// appear in a. Duplicates in a are kept once. Membership uses the canonical
// Key encoding, so NaN matches NaN and times match by instant, consistent
// with Equal.
func Intersection(a, b []any) []any {
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[Key(v)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	var out []any
	for _, v := range a {
		k := Key(v)
		if _, ok := inB[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Union returns the labels present in either slice. When both inputs are
// monotonic the result is a sorted, deduplicated merge; otherwise it is the
// labels of a in order followed by the labels of b not already seen.
func Union(a, b []any) []any {
	if IsMonotonic(a) && IsMonotonic(b) {
		return mergeSorted(a, b)
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]any, 0, len(a)+len(b))
	for _, v := range a {
		k := Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	for _, v := range b {
		k := Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mergeSorted(a, b []any) []any {
	out := make([]any, 0, len(a)+len(b))
	i, j := 0, 0
	push := func(v any) {
		if len(out) == 0 || !Equal(out[len(out)-1], v) {
			out = append(out, v)
		}
	}
	for i < len(a) && j < len(b) {
		c, err := Compare(a[i], b[j])
		if err != nil {
			// Kind mismatch between inputs; fall back to append order.
			break
		}
		switch {
		case c < 0:
			push(a[i])
			i++
		case c > 0:
			push(b[j])
			j++
		default:
			push(a[i])
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		push(a[i])
	}
	for ; j < len(b); j++ {
		push(b[j])
	}
	return out
}
