package ndalign

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

func mustLabelIndex(t *testing.T, dim string, values any) *LabelIndex {
	t.Helper()
	x, err := NewLabelIndex(dim, values)
	require.NoError(t, err)
	return x
}

func TestLabelIndexJoin(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 10, 20})
	b := mustLabelIndex(t, "x", []float64{5, 10, 15, 20})

	inner, err := a.Join(b, JoinInner)
	require.NoError(t, err)
	assert.Equal(t, []any{10.0, 20.0}, inner.(*LabelIndex).Labels())

	outer, err := a.Join(b, JoinOuter)
	require.NoError(t, err)
	assert.Equal(t, []any{0.0, 5.0, 10.0, 15.0, 20.0}, outer.(*LabelIndex).Labels())

	_, err = a.Join(b, JoinLeft)
	assert.ErrorIs(t, err, ErrInvalidJoin)
}

func TestLabelIndexJoinUnsorted(t *testing.T) {
	// Union falls back to left-then-unseen-right order when a side is not
	// monotonic.
	a := mustLabelIndex(t, "x", []float64{20, 0, 10})
	b := mustLabelIndex(t, "x", []float64{10, 5})

	outer, err := a.Join(b, JoinOuter)
	require.NoError(t, err)
	assert.Equal(t, []any{20.0, 0.0, 10.0, 5.0}, outer.(*LabelIndex).Labels())
}

func TestLabelIndexJoinKindMismatch(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 1})
	b := mustLabelIndex(t, "x", []string{"p", "q"})

	_, err := a.Join(b, JoinOuter)
	assert.ErrorIs(t, err, label.ErrMixedKinds)

	// An empty side adopts the other's labels without a kind error.
	empty := mustLabelIndex(t, "x", []float64{})
	joined, err := empty.Join(b, JoinOuter)
	require.NoError(t, err)
	assert.Equal(t, []any{"p", "q"}, joined.(*LabelIndex).Labels())
}

func TestLabelIndexEqual(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 1})
	b := mustLabelIndex(t, "x", []float64{0, 1})
	c := mustLabelIndex(t, "x", []float64{0, 2})
	d := mustLabelIndex(t, "y", []float64{0, 1})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d), "same labels along a different dimension")
}

func TestLabelIndexReindexLike(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 10, 20})
	target := mustLabelIndex(t, "x", []float64{20, 5, 0})

	indexers, err := a.ReindexLike(target, MethodExact, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"x": {2, -1, 0}}, indexers)
}

func TestLabelIndexReindexLikeKindMismatch(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 10})
	target := mustLabelIndex(t, "x", []string{"p"})

	indexers, err := a.ReindexLike(target, MethodExact, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, indexers["x"])
}

func TestLabelIndexIntLabels(t *testing.T) {
	a := mustLabelIndex(t, "x", []int64{3, 1, 2})
	assert.Equal(t, label.KindInt, a.Kind())
	assert.True(t, a.IsUnique())

	target := mustLabelIndex(t, "x", []int64{2, 9})
	indexers, err := a.ReindexLike(target, MethodExact, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []int{2, -1}, indexers["x"])
}

func TestLabelIndexTimeLabels(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	labels := []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)}
	a := mustLabelIndex(t, "t", labels)

	target := mustLabelIndex(t, "t", []time.Time{t0.Add(90 * time.Minute)})
	indexers, err := a.ReindexLike(target, MethodNearest, math.Inf(1))
	require.NoError(t, err)
	// Ties resolve toward the earlier label.
	assert.Equal(t, []int{1}, indexers["t"])

	indexers, err = a.ReindexLike(target, MethodNearest, float64(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, indexers["t"])
}

func TestLabelIndexNaNLabels(t *testing.T) {
	nan := math.NaN()

	t.Run("join keeps NaN present on both sides", func(t *testing.T) {
		a := mustLabelIndex(t, "x", []float64{nan, 0, 1})
		b := mustLabelIndex(t, "x", []float64{0, 1, nan})
		inner, err := a.Join(b, JoinInner)
		require.NoError(t, err)
		got := inner.(*LabelIndex).Labels()
		require.Len(t, got, 3)
		assert.True(t, math.IsNaN(got[0].(float64)))
		assert.Equal(t, []any{0.0, 1.0}, got[1:])
	})

	t.Run("duplicate NaN labels detected", func(t *testing.T) {
		a := mustLabelIndex(t, "x", []float64{nan, nan})
		assert.False(t, a.IsUnique())

		target := mustLabelIndex(t, "x", []float64{nan})
		_, err := a.ReindexLike(target, MethodExact, math.Inf(1))
		assert.ErrorIs(t, err, ErrDuplicateLabels)
	})

	t.Run("NaN target matches NaN source", func(t *testing.T) {
		a := mustLabelIndex(t, "x", []float64{0, nan})
		target := mustLabelIndex(t, "x", []float64{nan, 0})
		indexers, err := a.ReindexLike(target, MethodExact, math.Inf(1))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 0}, indexers["x"])
	})
}

func TestLabelIndexTimeLocationLookup(t *testing.T) {
	// The same instant expressed in different locations must match, as it
	// does under Equal.
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := mustLabelIndex(t, "t", []time.Time{t0, t0.Add(time.Hour)})
	target := mustLabelIndex(t, "t", []time.Time{t0.In(time.FixedZone("plus2", 2*3600))})

	indexers, err := a.ReindexLike(target, MethodExact, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indexers["t"])
}

func TestLabelIndexDuplicates(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 0, 1})
	assert.False(t, a.IsUnique())

	target := mustLabelIndex(t, "x", []float64{0})
	_, err := a.ReindexLike(target, MethodExact, math.Inf(1))
	assert.ErrorIs(t, err, ErrDuplicateLabels)
}

func TestLabelIndexCreateVariables(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{0, 1})
	vars, err := a.CreateVariables()
	require.NoError(t, err)
	v, ok := vars["x"]
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, v.Dims())
	assert.Equal(t, []float64{0, 1}, v.Values().([]float64))
}

func TestLabelIndexEmpty(t *testing.T) {
	a := mustLabelIndex(t, "x", []float64{})
	assert.Equal(t, label.KindFloat, a.Kind())
	vars, err := a.CreateVariables()
	require.NoError(t, err)
	assert.Equal(t, 0, vars["x"].Len())
}
