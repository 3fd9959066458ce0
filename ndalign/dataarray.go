package ndalign

import (
	"fmt"
	"slices"
	"sort"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

// DataArray is a single named, dimension-labeled array with attached
// coordinates. One-dimensional coordinates whose name equals their
// dimension are automatically indexed with a LabelIndex.
type DataArray struct {
	name       string
	data       *Variable
	coordNames []string
	coords     map[string]*Variable
	indexes    map[string]Index
}

// dataKey keys the data variable in internal gather maps, where it must
// not collide with a coordinate name.
const dataKey = "\x00data"

// NewDataArray creates a DataArray from a data variable and coordinate
// values. Coordinate values are either a *Variable or a label slice; a
// slice coordinate must be named after one of the array's dimensions.
func NewDataArray(name string, data *Variable, coords map[string]any) (*DataArray, error) {
	d := &DataArray{
		name:    name,
		data:    data,
		coords:  make(map[string]*Variable),
		indexes: make(map[string]Index),
	}
	sizes := data.Sizes()

	coordNames := make([]string, 0, len(coords))
	for cn := range coords {
		coordNames = append(coordNames, cn)
	}
	sort.Strings(coordNames)

	for _, cn := range coordNames {
		var cv *Variable
		switch v := coords[cn].(type) {
		case *Variable:
			cv = v
		default:
			if _, ok := sizes[cn]; !ok {
				return nil, fmt.Errorf("coordinate %q is not a dimension of array %q; pass a Variable with explicit dims", cn, name)
			}
			var err error
			cv, err = variableFromLabels(cn, v)
			if err != nil {
				return nil, fmt.Errorf("coordinate %q: %w", cn, err)
			}
		}
		for dim, size := range cv.Sizes() {
			want, ok := sizes[dim]
			if !ok {
				return nil, fmt.Errorf("coordinate %q has dimension %q not present on array %q", cn, dim, name)
			}
			if size != want {
				return nil, fmt.Errorf("%w: coordinate %q has size %d along %q, array has %d",
					ErrDimensionSizeConflict, cn, size, dim, want)
			}
		}
		d.coordNames = append(d.coordNames, cn)
		d.coords[cn] = cv

		if dims := cv.Dims(); len(dims) == 1 && dims[0] == cn {
			labels, kind, err := label.SliceOf(cv.Values())
			if err != nil {
				return nil, fmt.Errorf("coordinate %q: %w", cn, err)
			}
			d.indexes[cn] = newLabelIndexFrom(cn, cn, labels, kind)
		}
	}
	return d, nil
}

// WithMultiIndex returns a copy of the array with a composite index along
// dim, built from the named level slices. The dimension must not already
// carry an index.
func (d *DataArray) WithMultiIndex(dim string, levels []string, values map[string]any) (*DataArray, error) {
	mi, err := NewMultiIndex(dim, levels, values)
	if err != nil {
		return nil, err
	}
	if _, ok := d.Sizes()[dim]; !ok {
		return nil, fmt.Errorf("array %q has no dimension %q", d.name, dim)
	}
	for _, idx := range d.indexes {
		if slices.Contains(idx.Dims(), dim) {
			return nil, fmt.Errorf("%w: dimension %q already carries an index", ErrConflictingIndexes, dim)
		}
	}
	vars, err := mi.CreateVariables()
	if err != nil {
		return nil, err
	}
	out := d.shallow()
	for _, name := range levels {
		if _, ok := out.coords[name]; !ok {
			out.coordNames = append(out.coordNames, name)
		}
		out.coords[name] = vars[name]
		out.indexes[name] = mi
	}
	return out, nil
}

func (d *DataArray) shallow() *DataArray {
	out := &DataArray{
		name:       d.name,
		data:       d.data,
		coordNames: slices.Clone(d.coordNames),
		coords:     make(map[string]*Variable, len(d.coords)),
		indexes:    make(map[string]Index, len(d.indexes)),
	}
	for k, v := range d.coords {
		out.coords[k] = v
	}
	for k, v := range d.indexes {
		out.indexes[k] = v
	}
	return out
}

// Name returns the array name.
func (d *DataArray) Name() string { return d.name }

// Variable returns the data variable.
func (d *DataArray) Variable() *Variable { return d.data }

// Values returns the underlying flat data buffer.
func (d *DataArray) Values() any { return d.data.Values() }

// Dims returns the array's dimension names in order.
func (d *DataArray) Dims() []string { return d.data.Dims() }

// Sizes returns a dimension-to-size map.
func (d *DataArray) Sizes() map[string]int { return d.data.Sizes() }

// CoordNames returns the attached coordinate names.
func (d *DataArray) CoordNames() []string { return slices.Clone(d.coordNames) }

// Coord returns a coordinate variable by name.
func (d *DataArray) Coord(name string) (*Variable, bool) {
	v, ok := d.coords[name]
	return v, ok
}

// Indexes returns the array's coordinate indexes.
func (d *DataArray) Indexes() *IndexSet {
	set := NewIndexSet()
	for _, cn := range d.coordNames {
		if idx, ok := d.indexes[cn]; ok {
			set.Add(cn, idx, d.coords[cn])
		}
	}
	return set
}

// Clone returns an independent copy. With deep=false, buffers are shared.
func (d *DataArray) Clone(deep bool) Alignable {
	out := d.shallow()
	out.data = d.data.Clone(deep)
	for k, v := range out.coords {
		out.coords[k] = v.Clone(deep)
	}
	return out
}

// OverwriteIndexes returns a new array with the given coordinates and
// indexes substituted.
func (d *DataArray) OverwriteIndexes(indexes map[string]Index, variables map[string]*Variable) (Alignable, error) {
	out := d.shallow()
	for name, v := range variables {
		if _, ok := out.coords[name]; !ok {
			out.coordNames = append(out.coordNames, name)
		}
		out.coords[name] = v
	}
	for name, idx := range indexes {
		out.indexes[name] = idx
	}
	return out, nil
}

// ReindexCallback gathers the array's data and unreplaced coordinates
// according to the plan's positional indexers and substitutes the unified
// coordinates.
func (d *DataArray) ReindexCallback(plan *ReindexPlan) (Alignable, error) {
	vars := map[string]*Variable{dataKey: d.data}
	names := []string{dataKey}
	fills := map[string]any{dataKey: plan.Fill.For(d.name)}
	for _, cn := range d.coordNames {
		if _, replaced := plan.Variables[cn]; replaced {
			continue
		}
		if _, excl := plan.ExcludeVars[cn]; excl {
			continue
		}
		vars[cn] = d.coords[cn]
		names = append(names, cn)
		fills[cn] = plan.Fill.For(cn)
	}

	gathered, err := reindexVariables(vars, names, fills, plan)
	if err != nil {
		return nil, fmt.Errorf("reindexing array %q: %w", d.name, err)
	}

	out := &DataArray{
		name:    d.name,
		data:    gathered[dataKey],
		coords:  make(map[string]*Variable),
		indexes: make(map[string]Index),
	}
	for _, cn := range d.coordNames {
		if v, ok := gathered[cn]; ok {
			out.coordNames = append(out.coordNames, cn)
			out.coords[cn] = v
			if idx, indexed := d.indexes[cn]; indexed {
				out.indexes[cn] = idx
			}
		}
	}
	newNames := make([]string, 0, len(plan.Variables))
	for name := range plan.Variables {
		newNames = append(newNames, name)
	}
	sort.Strings(newNames)
	for _, name := range newNames {
		if _, excl := plan.ExcludeVars[name]; excl {
			continue
		}
		if _, ok := out.coords[name]; !ok {
			out.coordNames = append(out.coordNames, name)
		}
		out.coords[name] = plan.Variables[name]
		if idx, ok := plan.Indexes[name]; ok {
			out.indexes[name] = idx
		}
	}
	return out, nil
}

// broadcastTo expands the array to the unified dimension order, keeping
// its own size along excluded dimensions it already has.
func (d *DataArray) broadcastTo(dims []string, sizes map[string]int, coords map[string]*Variable, indexes map[string]Index, exclude map[string]struct{}) (Alignable, error) {
	targetDims, targetSizes := broadcastTargets(d.data, dims, sizes, exclude)
	expanded, err := d.data.expandDims(targetDims, targetSizes)
	if err != nil {
		return nil, fmt.Errorf("broadcasting array %q: %w", d.name, err)
	}

	out := &DataArray{
		name:    d.name,
		data:    expanded,
		coords:  make(map[string]*Variable),
		indexes: make(map[string]Index),
	}
	for _, cn := range d.coordNames {
		out.coordNames = append(out.coordNames, cn)
		out.coords[cn] = d.coords[cn]
		if idx, ok := d.indexes[cn]; ok {
			out.indexes[cn] = idx
		}
	}
	mergeCommonCoords(out, coords, indexes)
	return out, nil
}

// broadcastTargets computes the dimension order and sizes one variable
// expands to: the unified dims, then any excluded dims the variable
// already has, keeping their own size.
func broadcastTargets(v *Variable, dims []string, sizes map[string]int, exclude map[string]struct{}) ([]string, map[string]int) {
	targetDims := slices.Clone(dims)
	targetSizes := make(map[string]int, len(sizes)+len(exclude))
	for d, s := range sizes {
		targetSizes[d] = s
	}
	for _, d := range v.Dims() {
		if _, excl := exclude[d]; !excl {
			continue
		}
		if !slices.Contains(targetDims, d) {
			targetDims = append(targetDims, d)
		}
		s, _ := v.Size(d)
		targetSizes[d] = s
	}
	return targetDims, targetSizes
}

func mergeCommonCoords(d *DataArray, coords map[string]*Variable, indexes map[string]Index) {
	names := make([]string, 0, len(coords))
	for name := range coords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := d.coords[name]; !ok {
			d.coordNames = append(d.coordNames, name)
		}
		d.coords[name] = coords[name]
		if idx, ok := indexes[name]; ok {
			d.indexes[name] = idx
		}
	}
}

// Equal reports whether two arrays have equal data and coordinates.
func (d *DataArray) Equal(other *DataArray) bool {
	if other == nil || d.name != other.name || !d.data.Equal(other.data) {
		return false
	}
	if len(d.coords) != len(other.coords) {
		return false
	}
	for name, v := range d.coords {
		ov, ok := other.coords[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
