package ndalign

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVariable(t *testing.T, dims []string, shape []int, data any) *Variable {
	t.Helper()
	v, err := NewVariable(dims, shape, data)
	require.NoError(t, err)
	return v
}

func mustArray(t *testing.T, name string, dims []string, data []float64, coords map[string]any) *DataArray {
	t.Helper()
	v := mustVariable(t, dims, nil, data)
	arr, err := NewDataArray(name, v, coords)
	require.NoError(t, err)
	return arr
}

// The two canonical arrays of most scenarios: labels [0,10,20] and
// [5,10,15,20] along x.
func scenarioArrays(t *testing.T) (*DataArray, *DataArray) {
	t.Helper()
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2, 3},
		map[string]any{"x": []float64{0, 10, 20}})
	b := mustArray(t, "b", []string{"x"}, []float64{10, 20, 30, 40},
		map[string]any{"x": []float64{5, 10, 15, 20}})
	return a, b
}

func floatValues(t *testing.T, arr *DataArray) []float64 {
	t.Helper()
	vals, ok := arr.Values().([]float64)
	require.True(t, ok, "expected float64 data, got %T", arr.Values())
	return vals
}

func coordLabels(t *testing.T, arr *DataArray, name string) []float64 {
	t.Helper()
	cv, ok := arr.Coord(name)
	require.True(t, ok, "missing coordinate %q", name)
	vals, ok := cv.Values().([]float64)
	require.True(t, ok)
	return vals
}

func assertNaNPattern(t *testing.T, want []float64, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "position %d: expected NaN, got %v", i, got[i])
		} else {
			assert.Equal(t, want[i], got[i], "position %d", i)
		}
	}
}

func TestAlignInner(t *testing.T) {
	a, b := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a, b})
	require.NoError(t, err)
	require.Len(t, aligned, 2)

	assert.Equal(t, []float64{10, 20}, coordLabels(t, aligned[0], "x"))
	assert.Equal(t, []float64{10, 20}, coordLabels(t, aligned[1], "x"))
	assert.Equal(t, []float64{2, 3}, floatValues(t, aligned[0]))
	assert.Equal(t, []float64{20, 40}, floatValues(t, aligned[1]))
}

func TestAlignOuter(t *testing.T) {
	a, b := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a, b}, WithJoin(JoinOuter))
	require.NoError(t, err)

	nan := math.NaN()
	assert.Equal(t, []float64{0, 5, 10, 15, 20}, coordLabels(t, aligned[0], "x"))
	assertNaNPattern(t, []float64{1, nan, 2, nan, 3}, floatValues(t, aligned[0]))
	assertNaNPattern(t, []float64{nan, 10, 20, 30, 40}, floatValues(t, aligned[1]))
}

func TestAlignOuterFillValue(t *testing.T) {
	a, b := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a, b},
		WithJoin(JoinOuter), WithFillValue(-999))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, -999, 2, -999, 3}, floatValues(t, aligned[0]))
	assert.Equal(t, []float64{-999, 10, 20, 30, 40}, floatValues(t, aligned[1]))
}

func TestAlignLeft(t *testing.T) {
	a, b := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a, b}, WithJoin(JoinLeft), WithCopy(false))
	require.NoError(t, err)

	// First object keeps its index and data untouched; with copy=false it
	// aliases the input buffer.
	assert.Equal(t, []float64{0, 10, 20}, coordLabels(t, aligned[0], "x"))
	assert.Equal(t, []float64{1, 2, 3}, floatValues(t, aligned[0]))
	in := floatValues(t, a)
	out := floatValues(t, aligned[0])
	assert.Same(t, &in[0], &out[0], "left join should not copy the first object's data")

	nan := math.NaN()
	assertNaNPattern(t, []float64{nan, 20, 40}, floatValues(t, aligned[1]))
}

func TestAlignRight(t *testing.T) {
	a, b := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a, b}, WithJoin(JoinRight))
	require.NoError(t, err)

	nan := math.NaN()
	assert.Equal(t, []float64{5, 10, 15, 20}, coordLabels(t, aligned[0], "x"))
	assertNaNPattern(t, []float64{nan, 2, nan, 3}, floatValues(t, aligned[0]))
	assert.Equal(t, []float64{10, 20, 30, 40}, floatValues(t, aligned[1]))
}

func TestAlignExact(t *testing.T) {
	t.Run("mismatch", func(t *testing.T) {
		a, b := scenarioArrays(t)
		_, err := Align([]*DataArray{a, b}, WithJoin(JoinExact))
		assert.ErrorIs(t, err, ErrExactJoinMismatch)
	})

	t.Run("equal indexes", func(t *testing.T) {
		a := mustArray(t, "a", []string{"x"}, []float64{1, 2},
			map[string]any{"x": []float64{0, 1}})
		b := mustArray(t, "b", []string{"x"}, []float64{3, 4},
			map[string]any{"x": []float64{0, 1}})
		aligned, err := Align([]*DataArray{a, b}, WithJoin(JoinExact))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, floatValues(t, aligned[0]))
		assert.Equal(t, []float64{3, 4}, floatValues(t, aligned[1]))
	})

	t.Run("no copy passthrough", func(t *testing.T) {
		a := mustArray(t, "a", []string{"x"}, []float64{1, 2},
			map[string]any{"x": []float64{0, 1}})
		b := mustArray(t, "b", []string{"x"}, []float64{3, 4},
			map[string]any{"x": []float64{0, 1}})
		aligned, err := Align([]*DataArray{a, b}, WithJoin(JoinExact), WithCopy(false))
		require.NoError(t, err)
		assert.Same(t, a, aligned[0])
		assert.Same(t, b, aligned[1])
	})
}

func TestAlignOverride(t *testing.T) {
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2, 3},
		map[string]any{"x": []float64{0, 10, 20}})
	b := mustArray(t, "b", []string{"x"}, []float64{4, 5, 6},
		map[string]any{"x": []float64{7, 8, 9}})

	aligned, err := Align([]*DataArray{a, b}, WithJoin(JoinOverride))
	require.NoError(t, err)

	// Data untouched, second object's labels rewritten to the first's.
	assert.Equal(t, []float64{1, 2, 3}, floatValues(t, aligned[0]))
	assert.Equal(t, []float64{4, 5, 6}, floatValues(t, aligned[1]))
	assert.Equal(t, []float64{0, 10, 20}, coordLabels(t, aligned[1], "x"))
}

func TestAlignOverrideSizeMismatch(t *testing.T) {
	a, b := scenarioArrays(t) // sizes 3 and 4 along x
	_, err := Align([]*DataArray{a, b}, WithJoin(JoinOverride))
	assert.ErrorIs(t, err, ErrOverrideSizeMismatch)
}

func TestAlignInvalidJoin(t *testing.T) {
	a, _ := scenarioArrays(t)
	_, err := Align([]*DataArray{a}, WithJoin(Join(42)))
	assert.ErrorIs(t, err, ErrInvalidJoin)

	_, err = ParseJoin("sideways")
	assert.ErrorIs(t, err, ErrInvalidJoin)
}

func TestAlignNoObjects(t *testing.T) {
	for _, join := range []Join{JoinInner, JoinOuter, JoinExact, JoinOverride} {
		t.Run(join.String(), func(t *testing.T) {
			aligned, err := Align([]*DataArray{}, WithJoin(join))
			require.NoError(t, err)
			assert.Empty(t, aligned)
		})
	}
}

func TestAlignSingleObjectFastPath(t *testing.T) {
	a, _ := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a}, WithCopy(false))
	require.NoError(t, err)

	in := floatValues(t, a)
	out := floatValues(t, aligned[0])
	assert.Same(t, &in[0], &out[0], "single-object alignment should alias with copy=false")

	copied, err := Align([]*DataArray{a})
	require.NoError(t, err)
	out = floatValues(t, copied[0])
	assert.NotSame(t, &in[0], &out[0], "copy=true must not alias")
	assert.Equal(t, in, out)
}

func TestAlignEqualIndexesNoReindex(t *testing.T) {
	// Identical duplicate-label indexes never reindex, so alignment still
	// succeeds where a positional lookup would be impossible.
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2, 3},
		map[string]any{"x": []float64{0, 0, 1}})
	b := mustArray(t, "b", []string{"x"}, []float64{4, 5, 6},
		map[string]any{"x": []float64{0, 0, 1}})

	aligned, err := Align([]*DataArray{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, floatValues(t, aligned[0]))
	assert.Equal(t, []float64{4, 5, 6}, floatValues(t, aligned[1]))
}

func TestAlignUnindexedDimSizeConflict(t *testing.T) {
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2, 3}, nil)
	b := mustArray(t, "b", []string{"x"}, []float64{1, 2}, nil)

	_, err := Align([]*DataArray{a, b})
	assert.ErrorIs(t, err, ErrDimensionSizeConflict)
}

func TestAlignUnindexedDimAgainstIndex(t *testing.T) {
	// b has no index along x but a different size than a's index implies.
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2, 3},
		map[string]any{"x": []float64{0, 1, 2}})
	b := mustArray(t, "b", []string{"x"}, []float64{1, 2}, nil)

	_, err := Align([]*DataArray{a, b})
	assert.ErrorIs(t, err, ErrDimensionSizeConflict)
}

func TestAlignConflictingIndexes(t *testing.T) {
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2, 3},
		map[string]any{"x": []float64{0, 1, 2}})
	b := mustArray(t, "b", []string{"x"}, []float64{4, 5, 6}, nil)
	b, err := b.WithMultiIndex("x", []string{"one", "two"}, map[string]any{
		"one": []string{"p", "p", "q"},
		"two": []int64{0, 1, 0},
	})
	require.NoError(t, err)

	// Dimension x is claimed by a LabelIndex in a and a MultiIndex in b.
	_, err = Align([]*DataArray{a, b})
	assert.ErrorIs(t, err, ErrConflictingIndexes)
}

func TestAlignExcludeDims(t *testing.T) {
	// Differing sizes along y are tolerated when y is excluded.
	va := mustVariable(t, []string{"x", "y"}, []int{2, 2}, []float64{1, 2, 3, 4})
	a, err := NewDataArray("a", va, map[string]any{"x": []float64{0, 1}})
	require.NoError(t, err)
	vb := mustVariable(t, []string{"x", "y"}, []int{2, 3}, []float64{5, 6, 7, 8, 9, 10})
	b, err := NewDataArray("b", vb, map[string]any{"x": []float64{0, 1}})
	require.NoError(t, err)

	aligned, err := Align([]*DataArray{a, b}, WithExcludeDims("y"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 2, "y": 2}, aligned[0].Sizes())
	assert.Equal(t, map[string]int{"x": 2, "y": 3}, aligned[1].Sizes())

	_, err = Align([]*DataArray{a, b})
	assert.ErrorIs(t, err, ErrDimensionSizeConflict)
}

// spanIndex is a minimal two-dimensional index used to exercise the
// partial-exclusion check, which single-dimension indexes cannot reach.
type spanIndex struct {
	dims []string
	vars map[string]*Variable
}

func (s *spanIndex) Dims() []string     { return s.dims }
func (s *spanIndex) Equal(o Index) bool { return s == o }
func (s *spanIndex) Join(o Index, how Join) (Index, error) {
	return s, nil
}
func (s *spanIndex) ReindexLike(Index, ReindexMethod, float64) (map[string][]int, error) {
	return map[string][]int{}, nil
}
func (s *spanIndex) CreateVariables() (map[string]*Variable, error) { return s.vars, nil }

func TestAlignPartialExclusionError(t *testing.T) {
	grid := mustVariable(t, []string{"x", "y"}, []int{2, 2}, []float64{0, 1, 2, 3})
	va := mustVariable(t, []string{"x", "y"}, []int{2, 2}, []float64{1, 2, 3, 4})
	a, err := NewDataArray("a", va, map[string]any{"cell": grid})
	require.NoError(t, err)
	idx := &spanIndex{dims: []string{"x", "y"}, vars: map[string]*Variable{"cell": grid}}
	a.indexes["cell"] = idx
	b := a.Clone(true).(*DataArray)

	_, err = Align([]*DataArray{a, b}, WithExcludeDims("y"))
	assert.ErrorIs(t, err, ErrInvalidExclusion)
}

func TestAlignExplicitIndexes(t *testing.T) {
	a, b := scenarioArrays(t)

	aligned, err := Align([]*DataArray{a, b},
		WithIndexes(map[string]any{"x": []float64{10, 20, 30}}))
	require.NoError(t, err)

	nan := math.NaN()
	assert.Equal(t, []float64{10, 20, 30}, coordLabels(t, aligned[0], "x"))
	assertNaNPattern(t, []float64{2, 3, nan}, floatValues(t, aligned[0]))
	assertNaNPattern(t, []float64{20, 40, nan}, floatValues(t, aligned[1]))
}

func TestAlignMultiIndex(t *testing.T) {
	base := mustArray(t, "a", []string{"s"}, []float64{1, 2, 3}, nil)
	a, err := base.WithMultiIndex("s", []string{"city", "year"}, map[string]any{
		"city": []string{"ams", "ams", "rtm"},
		"year": []int64{2020, 2021, 2020},
	})
	require.NoError(t, err)

	other := mustArray(t, "b", []string{"s"}, []float64{10, 20}, nil)
	b, err := other.WithMultiIndex("s", []string{"city", "year"}, map[string]any{
		"city": []string{"ams", "rtm"},
		"year": []int64{2021, 2020},
	})
	require.NoError(t, err)

	aligned, err := Align([]*DataArray{a, b})
	require.NoError(t, err)

	// Inner join keeps the tuples present in both, in a's order.
	assert.Equal(t, []float64{2, 3}, floatValues(t, aligned[0]))
	assert.Equal(t, []float64{10, 20}, floatValues(t, aligned[1]))
	city, ok := aligned[0].Coord("city")
	require.True(t, ok)
	assert.Equal(t, []string{"ams", "rtm"}, city.Values().([]string))
	year, ok := aligned[1].Coord("year")
	require.True(t, ok)
	assert.Equal(t, []int64{2021, 2020}, year.Values().([]int64))
}

func TestAlignDatasetFillByName(t *testing.T) {
	mk := func(vals map[string][]float64, labels []float64) *Dataset {
		dataVars := make(map[string]*Variable, len(vals))
		for name, data := range vals {
			dataVars[name] = mustVariable(t, []string{"x"}, nil, data)
		}
		ds, err := NewDataset(dataVars, map[string]any{"x": labels})
		require.NoError(t, err)
		return ds
	}
	ds1 := mk(map[string][]float64{"u": {1, 2}, "w": {3, 4}}, []float64{0, 1})
	ds2 := mk(map[string][]float64{"u": {5, 6}, "w": {7, 8}}, []float64{1, 2})

	aligned, err := Align([]*Dataset{ds1, ds2},
		WithJoin(JoinOuter),
		WithFillValue(map[string]any{"u": -1.0}))
	require.NoError(t, err)

	u, ok := aligned[0].Var("u")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, -1}, u.Values().([]float64))
	w, ok := aligned[0].Var("w")
	require.True(t, ok)
	got := w.Values().([]float64)
	assert.Equal(t, []float64{3, 4}, got[:2])
	assert.True(t, math.IsNaN(got[2]))
}

func TestAlignMixedObjectKinds(t *testing.T) {
	a, _ := scenarioArrays(t)
	vb := mustVariable(t, []string{"x"}, nil, []float64{10, 20, 30, 40})
	ds, err := NewDataset(map[string]*Variable{"b": vb},
		map[string]any{"x": []float64{5, 10, 15, 20}})
	require.NoError(t, err)

	aligned, err := Align([]Alignable{a, ds})
	require.NoError(t, err)

	arr := aligned[0].(*DataArray)
	assert.Equal(t, []float64{2, 3}, floatValues(t, arr))
	out := aligned[1].(*Dataset)
	b, ok := out.Var("b")
	require.True(t, ok)
	assert.Equal(t, []float64{20, 40}, b.Values().([]float64))
}

func TestDeepAlign(t *testing.T) {
	a, b := scenarioArrays(t)

	out, err := DeepAlign([]any{a, map[string]any{"b": b, "note": "kept"}})
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0].(*DataArray)
	assert.Equal(t, []float64{2, 3}, floatValues(t, first))
	m := out[1].(map[string]any)
	assert.Equal(t, "kept", m["note"])
	second := m["b"].(*DataArray)
	assert.Equal(t, []float64{20, 40}, floatValues(t, second))
}

func TestDeepAlignInvalidInput(t *testing.T) {
	_, err := DeepAlign([]any{42})
	assert.ErrorIs(t, err, ErrInvalidInputType)
}
