package ndalign

import "math"

// Option configures an alignment, reindex or broadcast operation.
type Option func(*alignOptions)

type alignOptions struct {
	join        Join
	copy        bool
	indexes     map[string]any
	exclude     map[string]struct{}
	excludeVars map[string]struct{}
	fill        FillValue
	method      ReindexMethod
	tolerance   float64
	sparse      bool
}

func defaultAlignOptions() alignOptions {
	return alignOptions{
		join:      JoinInner,
		copy:      true,
		tolerance: math.Inf(1),
	}
}

// WithJoin sets the join mode. Default: JoinInner.
func WithJoin(j Join) Option {
	return func(o *alignOptions) { o.join = j }
}

// WithCopy controls whether returned objects always copy their data. With
// copy=false and no reindexing required, outputs may alias inputs.
// Default: true.
func WithCopy(copy bool) Option {
	return func(o *alignOptions) { o.copy = copy }
}

// WithIndexes supplies explicit indexes used in preference to the aligned
// ones. Values are either an Index, a label slice, or a 1-d *Variable; a
// non-Index value becomes a LabelIndex along the dimension named by its
// key.
func WithIndexes(indexes map[string]any) Option {
	return func(o *alignOptions) { o.indexes = indexes }
}

// WithExcludeDims excludes dimensions from alignment.
func WithExcludeDims(dims ...string) Option {
	return func(o *alignOptions) {
		if o.exclude == nil {
			o.exclude = make(map[string]struct{}, len(dims))
		}
		for _, d := range dims {
			o.exclude[d] = struct{}{}
		}
	}
}

// WithExcludeVars excludes named variables from reindexing.
func WithExcludeVars(names ...string) Option {
	return func(o *alignOptions) {
		if o.excludeVars == nil {
			o.excludeVars = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			o.excludeVars[n] = struct{}{}
		}
	}
}

// WithFillValue sets the fill for positions introduced by non-inner joins.
// Accepts a scalar, a map[string]any keyed by variable name, or a
// FillValue. Default: NA (NaN for float data, zero value otherwise).
func WithFillValue(fill any) Option {
	return func(o *alignOptions) {
		switch f := fill.(type) {
		case FillValue:
			o.fill = f
		case map[string]any:
			o.fill = FillByName(f)
		default:
			o.fill = ScalarFill(fill)
		}
	}
}

// WithMethod selects inexact label matching for reindex misses.
// Default: exact.
func WithMethod(m ReindexMethod) Option {
	return func(o *alignOptions) { o.method = m }
}

// WithTolerance bounds the distance accepted by inexact matching.
// Default: unlimited.
func WithTolerance(t float64) Option {
	return func(o *alignOptions) { o.tolerance = t }
}

// WithSparse requests sparse output buffers from reindexing. Not
// implemented by the built-in objects; they return ErrUnsupported.
func WithSparse() Option {
	return func(o *alignOptions) { o.sparse = true }
}

func applyOptions(opts []Option) alignOptions {
	o := defaultAlignOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
