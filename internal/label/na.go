package label

import (
	"math"
	"time"
)

type naType struct{}

// NA is the missing-value marker used as the default fill for positions
// introduced by outer/left/right joins.
var NA any = naType{}

// IsNA reports whether v is the missing-value marker.
func IsNA(v any) bool {
	_, ok := v.(naType)
	return ok
}

// FillFor resolves the NA marker to a concrete fill value for the given
// kind: NaN for floats, the zero value otherwise. Promoting non-float
// buffers to a NaN-capable kind is deliberately out of scope; callers that
// need a distinguishable fill for int/string/bool data pass an explicit
// fill value instead.
func FillFor(k Kind) any {
	switch k {
	case KindFloat:
		return math.NaN()
	case KindInt:
		return int64(0)
	case KindString:
		return ""
	case KindBool:
		return false
	case KindTime:
		return time.Time{}
	default:
		return nil
	}
}
