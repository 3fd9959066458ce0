package ndalign

import (
	"fmt"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

// FillValue is the value used for positions introduced by non-inner joins.
// It is either the NA marker (the zero value), a single scalar applied to
// every variable, or a per-variable-name mapping. The mapping form lets a
// Dataset fill each data variable differently; names absent from the map
// fall back to NA.
type FillValue struct {
	scalar any
	byName map[string]any
}

// ScalarFill fills every variable with the same value.
func ScalarFill(v any) FillValue { return FillValue{scalar: v} }

// FillByName fills variables by name, defaulting to NA for absent names.
func FillByName(m map[string]any) FillValue { return FillValue{byName: m} }

// For resolves the fill value for a named variable. Returns the NA marker
// when no explicit fill applies; the NA marker resolves per buffer kind at
// gather time (NaN for floats, the zero value otherwise).
func (f FillValue) For(name string) any {
	if f.byName != nil {
		if v, ok := f.byName[name]; ok {
			return v
		}
		return label.NA
	}
	if f.scalar == nil {
		return label.NA
	}
	return f.scalar
}

// coerceFill resolves a fill value against a buffer kind, converting
// between numeric kinds where the value is representable.
func coerceFill(kind label.Kind, fill any) (any, error) {
	if fill == nil || label.IsNA(fill) {
		return label.FillFor(kind), nil
	}
	c, err := label.Canon(fill)
	if err != nil {
		return nil, fmt.Errorf("fill value: %w", err)
	}
	fk := label.KindOf(c)
	if fk == kind {
		return c, nil
	}
	switch {
	case kind == label.KindFloat && fk == label.KindInt:
		return float64(c.(int64)), nil
	case kind == label.KindInt && fk == label.KindFloat:
		fv := c.(float64)
		if fv == float64(int64(fv)) {
			return int64(fv), nil
		}
	}
	return nil, fmt.Errorf("fill value %v (%s) does not fit %s buffer", fill, fk, kind)
}
