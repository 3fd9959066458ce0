package ndalign

import (
	"fmt"
	"slices"
	"strings"
)

// Index is a lookup structure over one or more coordinate variables sharing
// the same dimension(s). Implementations are compared, joined and queried
// for positional reindexers without the engine knowing their internals.
type Index interface {
	// Dims returns the dimensions spanned by the index.
	Dims() []string

	// Equal reports whether other is an index of compatible type carrying
	// the same labels.
	Equal(other Index) bool

	// Join returns a new unified index. Only JoinInner and JoinOuter are
	// meaningful here; other modes never reach the index.
	Join(other Index, how Join) (Index, error)

	// ReindexLike returns, per dimension, positional indices into this
	// index for every label of target. A -1 entry marks a target label
	// absent from this index, to be fill-valued by the caller.
	ReindexLike(target Index, method ReindexMethod, tolerance float64) (map[string][]int, error)

	// CreateVariables produces the coordinate variable(s) backing the
	// index.
	CreateVariables() (map[string]*Variable, error)
}

// IndexSet is an ordered mapping from coordinate name to the Index it
// belongs to, together with the backing coordinate variables. Several
// names may share one Index (the levels of a MultiIndex).
type IndexSet struct {
	names   []string
	indexes map[string]Index
	vars    map[string]*Variable
}

// NewIndexSet returns an empty index set.
func NewIndexSet() *IndexSet {
	return &IndexSet{
		indexes: make(map[string]Index),
		vars:    make(map[string]*Variable),
	}
}

// Add registers a coordinate with its index and backing variable.
// Re-adding a name replaces the previous entry but keeps its position.
func (s *IndexSet) Add(name string, idx Index, v *Variable) {
	if _, ok := s.indexes[name]; !ok {
		s.names = append(s.names, name)
	}
	s.indexes[name] = idx
	s.vars[name] = v
}

// Len returns the number of coordinates.
func (s *IndexSet) Len() int { return len(s.names) }

// Names returns the coordinate names in insertion order.
func (s *IndexSet) Names() []string { return slices.Clone(s.names) }

// Get returns the index a coordinate belongs to.
func (s *IndexSet) Get(name string) (Index, bool) {
	idx, ok := s.indexes[name]
	return idx, ok
}

// Var returns the coordinate variable for a name.
func (s *IndexSet) Var(name string) (*Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Dims returns every dimension covered by at least one index.
func (s *IndexSet) Dims() map[string]struct{} {
	out := make(map[string]struct{})
	for _, idx := range s.indexes {
		for _, d := range idx.Dims() {
			out[d] = struct{}{}
		}
	}
	return out
}

// IndexGroup is one equivalence class of coordinates belonging to a single
// Index.
type IndexGroup struct {
	Index Index
	Names []string
	Vars  map[string]*Variable
}

// GroupByIndex partitions the set into groups of coordinates sharing one
// Index, in first-seen order.
func (s *IndexSet) GroupByIndex() []IndexGroup {
	var groups []IndexGroup
	pos := make(map[Index]int)
	for _, name := range s.names {
		idx := s.indexes[name]
		i, ok := pos[idx]
		if !ok {
			i = len(groups)
			pos[idx] = i
			groups = append(groups, IndexGroup{
				Index: idx,
				Vars:  make(map[string]*Variable),
			})
		}
		groups[i].Names = append(groups[i].Names, name)
		groups[i].Vars[name] = s.vars[name]
	}
	return groups
}

// matchingKey is the canonical grouping key for one index across objects:
// the ordered (coordinate name, dims) pairs it covers plus the index
// implementation type. Two coordinates belong to the same group iff their
// keys are structurally equal.
type matchingKey struct {
	coords    string
	indexType string
}

// coordDims records one (name, dims) pair of a matching key for error
// reporting and conflict counting.
type coordDims struct {
	name string
	dims []string
}

func buildMatchingKey(idx Index, names []string, vars map[string]*Variable) (matchingKey, []coordDims) {
	pairs := make([]coordDims, 0, len(names))
	enc := ""
	for _, name := range names {
		dims := vars[name].Dims()
		pairs = append(pairs, coordDims{name: name, dims: dims})
		enc += fmt.Sprintf("%q(", name)
		for i, d := range dims {
			if i > 0 {
				enc += ","
			}
			enc += fmt.Sprintf("%q", d)
		}
		enc += ");"
	}
	return matchingKey{coords: enc, indexType: fmt.Sprintf("%T", idx)}, pairs
}

func (c coordDims) String() string {
	return fmt.Sprintf("%q %v", c.name, c.dims)
}

func describeKey(pairs []coordDims) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
