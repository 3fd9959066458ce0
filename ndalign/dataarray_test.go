package ndalign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataArray(t *testing.T) {
	t.Run("auto index for dimension coord", func(t *testing.T) {
		a := mustArray(t, "a", []string{"x"}, []float64{1, 2},
			map[string]any{"x": []float64{0, 1}})
		set := a.Indexes()
		assert.Equal(t, 1, set.Len())
		idx, ok := set.Get("x")
		require.True(t, ok)
		assert.IsType(t, &LabelIndex{}, idx)
	})

	t.Run("non-dimension slice coord rejected", func(t *testing.T) {
		v := mustVariable(t, []string{"x"}, nil, []float64{1, 2})
		_, err := NewDataArray("a", v, map[string]any{"q": []float64{0, 1}})
		assert.Error(t, err)
	})

	t.Run("coord size validated", func(t *testing.T) {
		v := mustVariable(t, []string{"x"}, nil, []float64{1, 2})
		_, err := NewDataArray("a", v, map[string]any{"x": []float64{0, 1, 2}})
		assert.ErrorIs(t, err, ErrDimensionSizeConflict)
	})

	t.Run("non-index coord carries no index", func(t *testing.T) {
		v := mustVariable(t, []string{"x"}, nil, []float64{1, 2})
		q := mustVariable(t, []string{"x"}, nil, []string{"p", "q"})
		a, err := NewDataArray("a", v, map[string]any{"q": q})
		require.NoError(t, err)
		assert.Equal(t, 0, a.Indexes().Len())
	})

	t.Run("any-typed labels", func(t *testing.T) {
		a, err := NewDataArray("a",
			mustVariable(t, []string{"x"}, nil, []float64{1, 2}),
			map[string]any{"x": []any{int64(0), int64(1)}})
		require.NoError(t, err)
		cv, ok := a.Coord("x")
		require.True(t, ok)
		assert.Equal(t, []int64{0, 1}, cv.Values().([]int64))
	})
}

func TestDataArrayWithMultiIndex(t *testing.T) {
	base := mustArray(t, "a", []string{"s"}, []float64{1, 2}, nil)
	a, err := base.WithMultiIndex("s", []string{"city", "year"}, map[string]any{
		"city": []string{"ams", "rtm"},
		"year": []int64{2020, 2021},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"city", "year"}, a.CoordNames())
	groups := a.Indexes().GroupByIndex()
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"city", "year"}, groups[0].Names)
	assert.IsType(t, &MultiIndex{}, groups[0].Index)
}

func TestDataArrayEqual(t *testing.T) {
	a := mustArray(t, "a", []string{"x"}, []float64{1, 2},
		map[string]any{"x": []float64{0, 1}})
	b := mustArray(t, "a", []string{"x"}, []float64{1, 2},
		map[string]any{"x": []float64{0, 1}})
	c := mustArray(t, "a", []string{"x"}, []float64{1, 2},
		map[string]any{"x": []float64{0, 2}})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNewDataset(t *testing.T) {
	t.Run("size conflict across variables", func(t *testing.T) {
		u := mustVariable(t, []string{"x"}, nil, []float64{1, 2})
		w := mustVariable(t, []string{"x"}, nil, []float64{1, 2, 3})
		_, err := NewDataset(map[string]*Variable{"u": u, "w": w}, nil)
		assert.ErrorIs(t, err, ErrDimensionSizeConflict)
	})

	t.Run("dims union in first-seen order", func(t *testing.T) {
		u := mustVariable(t, []string{"x", "y"}, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		w := mustVariable(t, []string{"z"}, nil, []float64{7})
		ds, err := NewDataset(map[string]*Variable{"u": u, "w": w}, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"x": 2, "y": 3, "z": 1}, ds.Sizes())
	})

	t.Run("auto index", func(t *testing.T) {
		u := mustVariable(t, []string{"x"}, nil, []float64{1, 2})
		ds, err := NewDataset(map[string]*Variable{"u": u},
			map[string]any{"x": []float64{0, 1}})
		require.NoError(t, err)
		assert.Equal(t, 1, ds.Indexes().Len())
	})
}

func TestIndexSetGrouping(t *testing.T) {
	set := NewIndexSet()
	shared := mustMultiIndex(t, "s", []string{"one", "two"}, map[string]any{
		"one": []string{"p"},
		"two": []int64{0},
	})
	sharedVars, err := shared.CreateVariables()
	require.NoError(t, err)
	solo := mustLabelIndex(t, "x", []float64{0})
	soloVars, err := solo.CreateVariables()
	require.NoError(t, err)

	set.Add("one", shared, sharedVars["one"])
	set.Add("two", shared, sharedVars["two"])
	set.Add("x", solo, soloVars["x"])

	groups := set.GroupByIndex()
	require.Len(t, groups, 2)
	// Groups come out in first-seen order, level names together.
	assert.Equal(t, []string{"one", "two"}, groups[0].Names)
	assert.Equal(t, []string{"x"}, groups[1].Names)
	assert.Same(t, shared, groups[0].Index.(*MultiIndex))
}
