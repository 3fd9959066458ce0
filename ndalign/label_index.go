package ndalign

import (
	"fmt"
	"math"
	"sort"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

// LabelIndex is an ordered label lookup over a single coordinate variable
// along one dimension. It is the default index built for one-dimensional
// coordinates whose name equals their dimension.
type LabelIndex struct {
	name   string
	dim    string
	labels []any
	kind   label.Kind

	// lookup is built lazily on first positional query, keyed by the
	// canonical label.Key encoding so that NaN and same-instant times
	// match the way Equal does. It stays nil for indexes with duplicate
	// labels, which support equality and joins but cannot serve as a
	// reindex source.
	lookup map[string]int
	dups   bool
	probed bool
}

// NewLabelIndex builds an index along dim from a slice of label values
// ([]float64, []int64, []string, []bool, []time.Time or []any of one
// kind). The coordinate name equals the dimension name.
func NewLabelIndex(dim string, values any) (*LabelIndex, error) {
	labels, kind, err := label.SliceOf(values)
	if err != nil {
		return nil, fmt.Errorf("index along %q: %w", dim, err)
	}
	if kind == label.KindInvalid {
		// Empty index; float is the conventional kind for it.
		kind = label.KindFloat
	}
	return &LabelIndex{name: dim, dim: dim, labels: labels, kind: kind}, nil
}

func newLabelIndexFrom(name, dim string, labels []any, kind label.Kind) *LabelIndex {
	return &LabelIndex{name: name, dim: dim, labels: labels, kind: kind}
}

// Name returns the coordinate name.
func (x *LabelIndex) Name() string { return x.name }

// Dims returns the single dimension the index spans.
func (x *LabelIndex) Dims() []string { return []string{x.dim} }

// Len returns the number of labels.
func (x *LabelIndex) Len() int { return len(x.labels) }

// Kind returns the label kind.
func (x *LabelIndex) Kind() label.Kind { return x.kind }

// Labels returns the labels in index order. The slice is shared.
func (x *LabelIndex) Labels() []any { return x.labels }

// IsUnique reports whether all labels are distinct.
func (x *LabelIndex) IsUnique() bool {
	x.probe()
	return !x.dups
}

func (x *LabelIndex) probe() {
	if x.probed {
		return
	}
	x.probed = true
	m := make(map[string]int, len(x.labels))
	for i, v := range x.labels {
		k := label.Key(v)
		if _, dup := m[k]; dup {
			x.dups = true
			return
		}
		m[k] = i
	}
	x.lookup = m
}

// Equal reports whether other is a LabelIndex over the same dimension with
// element-wise equal labels.
func (x *LabelIndex) Equal(other Index) bool {
	o, ok := other.(*LabelIndex)
	if !ok || o.dim != x.dim || len(o.labels) != len(x.labels) || o.kind != x.kind {
		return false
	}
	for i := range x.labels {
		if !label.Equal(x.labels[i], o.labels[i]) {
			return false
		}
	}
	return true
}

// Join returns the inner (ordered intersection) or outer (union, sorted
// when both sides are sorted) combination of the two indexes.
func (x *LabelIndex) Join(other Index, how Join) (Index, error) {
	o, ok := other.(*LabelIndex)
	if !ok {
		return nil, fmt.Errorf("%w: cannot join %T with %T", ErrIncompatibleIndexes, x, other)
	}
	if o.kind != x.kind && len(x.labels) > 0 && len(o.labels) > 0 {
		return nil, fmt.Errorf("join along %q: %w: %s and %s",
			x.dim, label.ErrMixedKinds, x.kind, o.kind)
	}
	var joined []any
	switch how {
	case JoinInner:
		joined = label.Intersection(x.labels, o.labels)
	case JoinOuter:
		joined = label.Union(x.labels, o.labels)
	default:
		return nil, fmt.Errorf("%w: cannot join indexes with %q", ErrInvalidJoin, how)
	}
	kind := x.kind
	if len(x.labels) == 0 && len(o.labels) > 0 {
		// An empty side adopts the other's label kind.
		kind = o.kind
	}
	return newLabelIndexFrom(x.name, x.dim, joined, kind), nil
}

// ReindexLike returns positional indices into this index for every label
// of target, with -1 marking labels this index does not have. This index
// must not contain duplicate labels. method selects inexact matching for
// misses; inexact methods require monotonic labels.
func (x *LabelIndex) ReindexLike(target Index, method ReindexMethod, tolerance float64) (map[string][]int, error) {
	t, ok := target.(*LabelIndex)
	if !ok {
		return nil, fmt.Errorf("%w: cannot reindex %T onto %T", ErrIncompatibleIndexes, x, target)
	}
	method = method.normalize()
	x.probe()
	if x.dups {
		return nil, fmt.Errorf("%w: along dimension %q", ErrDuplicateLabels, x.dim)
	}
	if method != MethodExact && !label.IsMonotonic(x.labels) {
		return nil, fmt.Errorf("reindex with method %q requires monotonic labels along %q", method, x.dim)
	}

	indexer := make([]int, len(t.labels))
	for i, tl := range t.labels {
		if pos, ok := x.lookup[label.Key(tl)]; ok {
			indexer[i] = pos
			continue
		}
		pos, err := x.inexact(tl, method, tolerance)
		if err != nil {
			return nil, err
		}
		indexer[i] = pos
	}
	return map[string][]int{x.dim: indexer}, nil
}

// inexact resolves a missing target label according to method, or -1.
func (x *LabelIndex) inexact(tl any, method ReindexMethod, tolerance float64) (int, error) {
	if method == MethodExact || len(x.labels) == 0 {
		return -1, nil
	}
	if label.KindOf(tl) != x.kind {
		return -1, nil
	}

	// First position whose label is >= tl.
	var searchErr error
	hi := sort.Search(len(x.labels), func(i int) bool {
		c, err := label.Compare(x.labels[i], tl)
		if err != nil {
			searchErr = err
		}
		return c >= 0
	})
	if searchErr != nil {
		return 0, searchErr
	}
	lo := hi - 1

	var pos int
	switch method {
	case MethodPad:
		pos = lo
	case MethodBackfill:
		if hi >= len(x.labels) {
			return -1, nil
		}
		pos = hi
	case MethodNearest:
		switch {
		case lo < 0:
			pos = hi
		case hi >= len(x.labels):
			pos = lo
		default:
			dlo, err := label.Diff(tl, x.labels[lo])
			if err != nil {
				return 0, err
			}
			dhi, err := label.Diff(x.labels[hi], tl)
			if err != nil {
				return 0, err
			}
			if dlo <= dhi {
				pos = lo
			} else {
				pos = hi
			}
		}
	default:
		return 0, fmt.Errorf("%w: reindex method %q", ErrUnsupported, method)
	}
	if pos < 0 || pos >= len(x.labels) {
		return -1, nil
	}
	if !math.IsInf(tolerance, 1) {
		d, err := label.Diff(tl, x.labels[pos])
		if err != nil {
			return 0, err
		}
		if d > tolerance {
			return -1, nil
		}
	}
	return pos, nil
}

// CreateVariables produces the single coordinate variable backing the
// index.
func (x *LabelIndex) CreateVariables() (map[string]*Variable, error) {
	v, err := newLabelVariable(x.dim, x.labels, x.kind)
	if err != nil {
		return nil, err
	}
	return map[string]*Variable{x.name: v}, nil
}
