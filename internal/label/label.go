package label

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies the value kind of a coordinate label.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindTime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Common errors
var (
	ErrMixedKinds        = errors.New("mixed label kinds")
	ErrUnsupportedKind   = errors.New("unsupported label kind")
	ErrTimedeltaOverflow = errors.New("time difference exceeds representable range")
)

// KindOf returns the kind of a single label value, or KindInvalid if the
// value is not a supported label type.
func KindOf(v any) Kind {
	switch v.(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	default:
		return KindInvalid
	}
}

// Canon normalizes a label value to its canonical form. Integer widths are
// widened to int64 and float32 to float64 so that map lookups and equality
// behave uniformly. Times are stripped of their monotonic clock reading,
// which would otherwise break == comparison.
func Canon(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		return x, nil
	case bool:
		return x, nil
	case time.Time:
		return x.Round(0), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKind, v)
	}
}

// SliceOf converts a typed slice of label values into canonical form and
// reports the common kind. Supported inputs: []int, []int64, []float64,
// []string, []bool, []time.Time and []any holding supported values of one
// kind.
func SliceOf(values any) ([]any, Kind, error) {
	var out []any
	switch vs := values.(type) {
	case []any:
		out = make([]any, len(vs))
		copy(out, vs)
	case []int:
		out = make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
	case []int64:
		out = make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
	case []float64:
		out = make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
	case []string:
		out = make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
	case []bool:
		out = make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
	case []time.Time:
		out = make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
	default:
		return nil, KindInvalid, fmt.Errorf("%w: %T", ErrUnsupportedKind, values)
	}

	kind := KindInvalid
	for i, v := range out {
		c, err := Canon(v)
		if err != nil {
			return nil, KindInvalid, err
		}
		out[i] = c
		k := KindOf(c)
		if kind == KindInvalid {
			kind = k
		} else if k != kind {
			return nil, KindInvalid, fmt.Errorf("%w: %s and %s", ErrMixedKinds, kind, k)
		}
	}
	return out, kind, nil
}

// Equal reports whether two canonical label values are equal.
// NaN floats compare equal to each other so that indexes carrying NaN
// labels still satisfy reflexive equality.
func Equal(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok && math.IsNaN(af) && math.IsNaN(bf) {
		return true
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

// Compare orders two canonical label values of the same kind.
// Returns -1, 0 or 1. Bool orders false before true.
func Compare(a, b any) (int, error) {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrMixedKinds, ka, kb)
	}
	switch ka {
	case KindInt:
		return cmpOrdered(a.(int64), b.(int64)), nil
	case KindFloat:
		return cmpOrdered(a.(float64), b.(float64)), nil
	case KindString:
		return cmpOrdered(a.(string), b.(string)), nil
	case KindBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0, nil
		}
		if !av {
			return -1, nil
		}
		return 1, nil
	case KindTime:
		return a.(time.Time).Compare(b.(time.Time)), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedKind, a)
	}
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Diff returns the absolute distance between two labels as a float64, for
// tolerance-based nearest matching. Only numeric and time kinds have a
// meaningful distance. Time differences that saturate the time.Duration
// range return ErrTimedeltaOverflow.
func Diff(a, b any) (float64, error) {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return 0, fmt.Errorf("%w: cannot subtract %s from %s", ErrMixedKinds, kb, ka)
	}
	switch ka {
	case KindInt:
		return math.Abs(float64(a.(int64)) - float64(b.(int64))), nil
	case KindFloat:
		return math.Abs(a.(float64) - b.(float64)), nil
	case KindTime:
		d := a.(time.Time).Sub(b.(time.Time))
		// Sub saturates instead of wrapping when the difference does not
		// fit in a Duration (about 292 years).
		if d == math.MaxInt64 || d == math.MinInt64 {
			return 0, fmt.Errorf("%w: %v and %v", ErrTimedeltaOverflow, a, b)
		}
		if d < 0 {
			d = -d
		}
		return float64(d), nil
	default:
		return 0, fmt.Errorf("%w: no distance for %s labels", ErrUnsupportedKind, ka)
	}
}

// Key encodes a canonical label value as a string usable in composite
// lookup keys. The encoding is kind-tagged so values of different kinds
// never collide.
func Key(v any) string {
	switch x := v.(type) {
	case int64:
		return "i:" + strconv.FormatInt(x, 10)
	case float64:
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	case time.Time:
		return "t:" + strconv.FormatInt(x.UnixNano(), 10)
	default:
		return fmt.Sprintf("?:%v", x)
	}
}
