package ndalign

import (
	"fmt"
	"slices"
	"time"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

// Variable is a dimension-named block of values: an ordered list of
// dimension names, a shape, and a flat row-major buffer holding one of the
// supported kinds ([]float64, []int64, []string, []bool, []time.Time).
type Variable struct {
	dims  []string
	shape []int
	data  any
}

// NewVariable creates a Variable from dims, shape and a flat buffer.
// A nil shape is allowed for one-dimensional data and is inferred from the
// buffer length.
func NewVariable(dims []string, shape []int, data any) (*Variable, error) {
	n, kind := bufferLen(data)
	if kind == label.KindInvalid {
		return nil, fmt.Errorf("%w: variable buffer %T", label.ErrUnsupportedKind, data)
	}
	if shape == nil {
		if len(dims) != 1 {
			return nil, fmt.Errorf("shape required for %d-dimensional variable", len(dims))
		}
		shape = []int{n}
	}
	if len(shape) != len(dims) {
		return nil, fmt.Errorf("variable has %d dims but %d shape entries", len(dims), len(shape))
	}
	total := 1
	for _, s := range shape {
		total *= s
	}
	if total != n {
		return nil, fmt.Errorf("variable shape %v implies %d elements, buffer has %d", shape, total, n)
	}
	return &Variable{
		dims:  slices.Clone(dims),
		shape: slices.Clone(shape),
		data:  data,
	}, nil
}

func bufferLen(data any) (int, label.Kind) {
	switch d := data.(type) {
	case []float64:
		return len(d), label.KindFloat
	case []int64:
		return len(d), label.KindInt
	case []string:
		return len(d), label.KindString
	case []bool:
		return len(d), label.KindBool
	case []time.Time:
		return len(d), label.KindTime
	default:
		return 0, label.KindInvalid
	}
}

// Dims returns the dimension names in order.
func (v *Variable) Dims() []string { return slices.Clone(v.dims) }

// Shape returns the size along each dimension.
func (v *Variable) Shape() []int { return slices.Clone(v.shape) }

// Kind returns the label kind of the underlying buffer.
func (v *Variable) Kind() label.Kind {
	_, k := bufferLen(v.data)
	return k
}

// Len returns the total number of elements.
func (v *Variable) Len() int {
	n, _ := bufferLen(v.data)
	return n
}

// Size returns the size along the named dimension.
func (v *Variable) Size(dim string) (int, bool) {
	for i, d := range v.dims {
		if d == dim {
			return v.shape[i], true
		}
	}
	return 0, false
}

// Sizes returns a dimension-to-size map.
func (v *Variable) Sizes() map[string]int {
	out := make(map[string]int, len(v.dims))
	for i, d := range v.dims {
		out[d] = v.shape[i]
	}
	return out
}

// Values returns the underlying flat buffer. The buffer is shared, not
// copied; mutating it mutates the variable.
func (v *Variable) Values() any { return v.data }

// Clone returns a copy of the variable. With deep=true the buffer is
// copied; otherwise the copy shares the buffer.
func (v *Variable) Clone(deep bool) *Variable {
	out := &Variable{
		dims:  slices.Clone(v.dims),
		shape: slices.Clone(v.shape),
		data:  v.data,
	}
	if deep {
		out.data = cloneBuffer(v.data)
	}
	return out
}

func cloneBuffer(data any) any {
	switch d := data.(type) {
	case []float64:
		return slices.Clone(d)
	case []int64:
		return slices.Clone(d)
	case []string:
		return slices.Clone(d)
	case []bool:
		return slices.Clone(d)
	case []time.Time:
		return slices.Clone(d)
	default:
		return data
	}
}

// Equal reports whether two variables have the same dims, shape and
// element-wise equal buffers. NaN elements compare equal to each other.
func (v *Variable) Equal(other *Variable) bool {
	if other == nil || !slices.Equal(v.dims, other.dims) || !slices.Equal(v.shape, other.shape) {
		return false
	}
	if v.Kind() != other.Kind() {
		return false
	}
	a, b := v.labels(), other.labels()
	for i := range a {
		if !label.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// labels returns the buffer as canonical label values.
func (v *Variable) labels() []any {
	vals, _, _ := label.SliceOf(v.data)
	return vals
}

// variableFromLabels builds a 1-d variable along dim from any supported
// label slice.
func variableFromLabels(dim string, values any) (*Variable, error) {
	labels, kind, err := label.SliceOf(values)
	if err != nil {
		return nil, err
	}
	if kind == label.KindInvalid {
		kind = label.KindFloat
	}
	return newLabelVariable(dim, labels, kind)
}

// newLabelVariable builds a 1-d variable along dim from canonical labels.
func newLabelVariable(dim string, values []any, kind label.Kind) (*Variable, error) {
	data, err := typedBuffer(values, kind)
	if err != nil {
		return nil, err
	}
	return NewVariable([]string{dim}, nil, data)
}

func typedBuffer(values []any, kind label.Kind) (any, error) {
	switch kind {
	case label.KindFloat:
		return typedAs[float64](values)
	case label.KindInt:
		return typedAs[int64](values)
	case label.KindString:
		return typedAs[string](values)
	case label.KindBool:
		return typedAs[bool](values)
	case label.KindTime:
		return typedAs[time.Time](values)
	default:
		return nil, fmt.Errorf("%w: %s", label.ErrUnsupportedKind, kind)
	}
}

func typedAs[T any](values []any) (any, error) {
	out := make([]T, len(values))
	for i, v := range values {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %T in %T buffer", label.ErrMixedKinds, v, out)
		}
		out[i] = t
	}
	return out, nil
}

// take gathers the variable along dim using positional indices. A negative
// index marks a position absent from the source and is filled with fill
// (resolved against the buffer kind). Dimensions the variable does not
// have are ignored by the caller.
func (v *Variable) take(dim string, indexer []int, fill any) (*Variable, error) {
	axis := slices.Index(v.dims, dim)
	if axis < 0 {
		return v, nil
	}
	fv, err := coerceFill(v.Kind(), fill)
	if err != nil {
		return nil, fmt.Errorf("variable along %q: %w", dim, err)
	}

	shape := slices.Clone(v.shape)
	shape[axis] = len(indexer)

	var data any
	switch d := v.data.(type) {
	case []float64:
		data = takeAlong(d, v.shape, axis, indexer, fv.(float64))
	case []int64:
		data = takeAlong(d, v.shape, axis, indexer, fv.(int64))
	case []string:
		data = takeAlong(d, v.shape, axis, indexer, fv.(string))
	case []bool:
		data = takeAlong(d, v.shape, axis, indexer, fv.(bool))
	case []time.Time:
		data = takeAlong(d, v.shape, axis, indexer, fv.(time.Time))
	default:
		return nil, fmt.Errorf("%w: %T", label.ErrUnsupportedKind, v.data)
	}
	return &Variable{dims: slices.Clone(v.dims), shape: shape, data: data}, nil
}

func takeAlong[T any](data []T, shape []int, axis int, indexer []int, fill T) []T {
	outer, inner := 1, 1
	for i := 0; i < axis; i++ {
		outer *= shape[i]
	}
	for i := axis + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	n := shape[axis]

	out := make([]T, outer*len(indexer)*inner)
	pos := 0
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for _, idx := range indexer {
			if idx < 0 {
				for k := 0; k < inner; k++ {
					out[pos] = fill
					pos++
				}
				continue
			}
			pos += copy(out[pos:pos+inner], data[base+idx*inner:base+(idx+1)*inner])
		}
	}
	return out
}

// expandDims broadcasts the variable to the given dimension order, with
// sizes drawn from the sizes map. Existing dimensions keep their data;
// inserted dimensions replicate it. Every current dimension must appear in
// dims.
func (v *Variable) expandDims(dims []string, sizes map[string]int) (*Variable, error) {
	for _, d := range v.dims {
		if !slices.Contains(dims, d) {
			return nil, fmt.Errorf("cannot expand: existing dimension %q missing from target dims %v", d, dims)
		}
	}
	shape := make([]int, len(dims))
	srcAxis := make([]int, len(dims))
	for i, d := range dims {
		if j := slices.Index(v.dims, d); j >= 0 {
			shape[i] = v.shape[j]
			srcAxis[i] = j
		} else {
			s, ok := sizes[d]
			if !ok {
				return nil, fmt.Errorf("no size for inserted dimension %q", d)
			}
			shape[i] = s
			srcAxis[i] = -1
		}
	}
	if slices.Equal(dims, v.dims) {
		return v, nil
	}

	var data any
	switch d := v.data.(type) {
	case []float64:
		data = broadcastBuffer(d, v.shape, shape, srcAxis)
	case []int64:
		data = broadcastBuffer(d, v.shape, shape, srcAxis)
	case []string:
		data = broadcastBuffer(d, v.shape, shape, srcAxis)
	case []bool:
		data = broadcastBuffer(d, v.shape, shape, srcAxis)
	case []time.Time:
		data = broadcastBuffer(d, v.shape, shape, srcAxis)
	default:
		return nil, fmt.Errorf("%w: %T", label.ErrUnsupportedKind, v.data)
	}
	return &Variable{dims: slices.Clone(dims), shape: shape, data: data}, nil
}

func broadcastBuffer[T any](data []T, srcShape, dstShape []int, srcAxis []int) []T {
	srcStrides := rowMajorStrides(srcShape)
	total := 1
	for _, s := range dstShape {
		total *= s
	}
	out := make([]T, total)

	idx := make([]int, len(dstShape))
	for pos := 0; pos < total; pos++ {
		src := 0
		for i, ax := range srcAxis {
			if ax >= 0 {
				src += idx[i] * srcStrides[ax]
			}
		}
		out[pos] = data[src]
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < dstShape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// CalculateDimensions computes a dimension-to-size map across a set of
// variables, rejecting conflicting sizes for the same dimension.
func CalculateDimensions(variables map[string]*Variable) (map[string]int, error) {
	sizes := make(map[string]int)
	owner := make(map[string]string)
	for name, v := range variables {
		for dim, size := range v.Sizes() {
			if prev, ok := sizes[dim]; ok && prev != size {
				return nil, fmt.Errorf("%w: dimension %q has sizes %d (%q) and %d (%q)",
					ErrDimensionSizeConflict, dim, prev, owner[dim], size, name)
			}
			sizes[dim] = size
			owner[dim] = name
		}
	}
	return sizes, nil
}

// isIdentityIndexer reports whether indexer is 0..n-1.
func isIdentityIndexer(indexer []int, n int) bool {
	if len(indexer) != n {
		return false
	}
	for i, idx := range indexer {
		if idx != i {
			return false
		}
	}
	return true
}
