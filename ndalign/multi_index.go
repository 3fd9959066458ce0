package ndalign

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

// MultiIndex is a composite index: k named level variables along one shared
// dimension, looked up by full level tuple. Its levels expand into the
// matching-index key individually, so grouping sees each level coordinate.
type MultiIndex struct {
	dim    string
	names  []string
	levels map[string][]any
	kinds  map[string]label.Kind
	n      int

	lookup map[string]int
	dups   bool
	probed bool
}

// NewMultiIndex builds a composite index along dim. names gives the level
// order; values maps each level name to its label slice. All levels must
// have the same length.
func NewMultiIndex(dim string, names []string, values map[string]any) (*MultiIndex, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("multi-index along %q needs at least one level", dim)
	}
	mi := &MultiIndex{
		dim:    dim,
		names:  slices.Clone(names),
		levels: make(map[string][]any, len(names)),
		kinds:  make(map[string]label.Kind, len(names)),
		n:      -1,
	}
	for _, name := range names {
		raw, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("multi-index along %q: missing level %q", dim, name)
		}
		labels, kind, err := label.SliceOf(raw)
		if err != nil {
			return nil, fmt.Errorf("multi-index level %q: %w", name, err)
		}
		if mi.n < 0 {
			mi.n = len(labels)
		} else if len(labels) != mi.n {
			return nil, fmt.Errorf("multi-index level %q has %d labels, expected %d", name, len(labels), mi.n)
		}
		mi.levels[name] = labels
		mi.kinds[name] = kind
	}
	return mi, nil
}

// Dims returns the single dimension the index spans.
func (x *MultiIndex) Dims() []string { return []string{x.dim} }

// Len returns the number of positions.
func (x *MultiIndex) Len() int { return x.n }

// LevelNames returns the level names in order.
func (x *MultiIndex) LevelNames() []string { return slices.Clone(x.names) }

// tupleKey encodes the full level tuple at position i.
func (x *MultiIndex) tupleKey(i int) string {
	parts := make([]string, len(x.names))
	for j, name := range x.names {
		parts[j] = label.Key(x.levels[name][i])
	}
	return strings.Join(parts, "\x1f")
}

func (x *MultiIndex) probe() {
	if x.probed {
		return
	}
	x.probed = true
	m := make(map[string]int, x.n)
	for i := 0; i < x.n; i++ {
		k := x.tupleKey(i)
		if _, dup := m[k]; dup {
			x.dups = true
			return
		}
		m[k] = i
	}
	x.lookup = m
}

// Equal reports whether other is a MultiIndex over the same dimension with
// the same level names and element-wise equal level labels.
func (x *MultiIndex) Equal(other Index) bool {
	o, ok := other.(*MultiIndex)
	if !ok || o.dim != x.dim || o.n != x.n || !slices.Equal(o.names, x.names) {
		return false
	}
	for _, name := range x.names {
		a, b := x.levels[name], o.levels[name]
		for i := range a {
			if !label.Equal(a[i], b[i]) {
				return false
			}
		}
	}
	return true
}

// compatible checks that other has the same shape of levels.
func (x *MultiIndex) compatible(other Index) (*MultiIndex, error) {
	o, ok := other.(*MultiIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %T and %T", ErrIncompatibleIndexes, x, other)
	}
	if !slices.Equal(o.names, x.names) {
		return nil, fmt.Errorf("%w: multi-index levels %v and %v", ErrIncompatibleIndexes, x.names, o.names)
	}
	return o, nil
}

// Join combines the two indexes on full level tuples: inner keeps tuples
// present in both, in this index's order; outer appends other's unseen
// tuples after this index's.
func (x *MultiIndex) Join(other Index, how Join) (Index, error) {
	o, err := x.compatible(other)
	if err != nil {
		return nil, err
	}

	inOther := make(map[string]struct{}, o.n)
	for i := 0; i < o.n; i++ {
		inOther[o.tupleKey(i)] = struct{}{}
	}

	joined := &MultiIndex{
		dim:    x.dim,
		names:  slices.Clone(x.names),
		levels: make(map[string][]any, len(x.names)),
		kinds:  make(map[string]label.Kind, len(x.names)),
	}
	for _, name := range x.names {
		joined.kinds[name] = x.kinds[name]
	}
	appendPos := func(src *MultiIndex, i int) {
		for _, name := range src.names {
			joined.levels[name] = append(joined.levels[name], src.levels[name][i])
		}
		joined.n++
	}

	switch how {
	case JoinInner:
		seen := make(map[string]struct{})
		for i := 0; i < x.n; i++ {
			k := x.tupleKey(i)
			if _, ok := inOther[k]; !ok {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			appendPos(x, i)
		}
	case JoinOuter:
		seen := make(map[string]struct{})
		for i := 0; i < x.n; i++ {
			k := x.tupleKey(i)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			appendPos(x, i)
		}
		for i := 0; i < o.n; i++ {
			k := o.tupleKey(i)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			appendPos(o, i)
		}
	default:
		return nil, fmt.Errorf("%w: cannot join indexes with %q", ErrInvalidJoin, how)
	}
	return joined, nil
}

// ReindexLike returns positional indices into this index for every level
// tuple of target, -1 for absent tuples. Only exact matching is supported
// for composite indexes.
func (x *MultiIndex) ReindexLike(target Index, method ReindexMethod, tolerance float64) (map[string][]int, error) {
	t, err := x.compatible(target)
	if err != nil {
		return nil, err
	}
	if method != MethodExact {
		return nil, fmt.Errorf("%w: method %q on a multi-index", ErrUnsupported, method)
	}
	x.probe()
	if x.dups {
		return nil, fmt.Errorf("%w: along dimension %q", ErrDuplicateLabels, x.dim)
	}

	indexer := make([]int, t.n)
	for i := 0; i < t.n; i++ {
		if pos, ok := x.lookup[t.tupleKey(i)]; ok {
			indexer[i] = pos
		} else {
			indexer[i] = -1
		}
	}
	return map[string][]int{x.dim: indexer}, nil
}

// CreateVariables produces one coordinate variable per level.
func (x *MultiIndex) CreateVariables() (map[string]*Variable, error) {
	out := make(map[string]*Variable, len(x.names))
	for _, name := range x.names {
		v, err := newLabelVariable(x.dim, x.levels[name], x.kinds[name])
		if err != nil {
			return nil, fmt.Errorf("multi-index level %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
