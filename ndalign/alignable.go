package ndalign

// Alignable is the object protocol consumed by the engine. An alignable
// object exposes its named dimensions, per-dimension sizes and attached
// coordinate indexes, and supplies the callbacks the engine drives to
// produce realigned objects. The engine never mutates an input in place.
type Alignable interface {
	// Dims returns the dimension names in order.
	Dims() []string

	// Sizes returns a dimension-to-size map.
	Sizes() map[string]int

	// Indexes returns the object's own coordinate indexes and backing
	// variables.
	Indexes() *IndexSet

	// Clone returns an independent copy. With deep=false the copy may
	// share underlying buffers.
	Clone(deep bool) Alignable

	// OverwriteIndexes returns a new object with the given coordinates
	// substituted. Used only in override mode.
	OverwriteIndexes(indexes map[string]Index, variables map[string]*Variable) (Alignable, error)

	// ReindexCallback returns a new object with data gathered and padded
	// according to the plan's positional indexers. Dimensions absent from
	// the plan are left unchanged.
	ReindexCallback(plan *ReindexPlan) (Alignable, error)
}

// ReindexPlan carries everything an object needs to reindex itself onto
// the unified coordinates: per-dimension positional indexers (-1 marks
// fill positions), the new coordinate variables and indexes, the fill
// value, exclusions, and the copy/sparse flags from the caller.
type ReindexPlan struct {
	DimIndexers map[string][]int
	Variables   map[string]*Variable
	Indexes     map[string]Index
	Fill        FillValue
	ExcludeDims map[string]struct{}
	ExcludeVars map[string]struct{}
	Copy        bool
	Sparse      bool
}

// broadcaster is implemented by objects that can expand their shape to a
// unified dimension-size map. Broadcast requires it.
type broadcaster interface {
	broadcastTo(dims []string, sizes map[string]int, coords map[string]*Variable, indexes map[string]Index, exclude map[string]struct{}) (Alignable, error)
}
