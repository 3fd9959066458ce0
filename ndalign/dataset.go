package ndalign

import (
	"fmt"
	"slices"
	"sort"

	"github.com/robert-malhotra/go-ndalign/internal/label"
)

// Dataset is a bundle of named data variables sharing one coordinate set.
// Like DataArray, one-dimensional coordinates named after their dimension
// are automatically indexed.
type Dataset struct {
	varNames   []string
	dataVars   map[string]*Variable
	coordNames []string
	coords     map[string]*Variable
	indexes    map[string]Index
}

// NewDataset creates a Dataset from data variables and coordinate values.
// Coordinate values follow the NewDataArray rules. All variables must
// agree on the size of every shared dimension.
func NewDataset(dataVars map[string]*Variable, coords map[string]any) (*Dataset, error) {
	ds := &Dataset{
		dataVars: make(map[string]*Variable, len(dataVars)),
		coords:   make(map[string]*Variable),
		indexes:  make(map[string]Index),
	}
	for name := range dataVars {
		ds.varNames = append(ds.varNames, name)
	}
	sort.Strings(ds.varNames)
	for _, name := range ds.varNames {
		ds.dataVars[name] = dataVars[name]
	}

	sizes, err := CalculateDimensions(ds.dataVars)
	if err != nil {
		return nil, err
	}

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
			cv, err = variableFromLabels(cn, v)
			if err != nil {
				return nil, fmt.Errorf("coordinate %q: %w", cn, err)
			}
		}
		for dim, size := range cv.Sizes() {
			if want, ok := sizes[dim]; ok && size != want {
				return nil, fmt.Errorf("%w: coordinate %q has size %d along %q, data has %d",
					ErrDimensionSizeConflict, cn, size, dim, want)
			}
		}
		ds.coordNames = append(ds.coordNames, cn)
		ds.coords[cn] = cv

		if dims := cv.Dims(); len(dims) == 1 && dims[0] == cn {
			labels, kind, err := label.SliceOf(cv.Values())
			if err != nil {
				return nil, fmt.Errorf("coordinate %q: %w", cn, err)
			}
			ds.indexes[cn] = newLabelIndexFrom(cn, cn, labels, kind)
		}
	}
	return ds, nil
}

// WithMultiIndex returns a copy of the dataset with a composite index
// along dim, built from the named level slices.
func (ds *Dataset) WithMultiIndex(dim string, levels []string, values map[string]any) (*Dataset, error) {
	mi, err := NewMultiIndex(dim, levels, values)
	if err != nil {
		return nil, err
	}
	for _, idx := range ds.indexes {
		if slices.Contains(idx.Dims(), dim) {
			return nil, fmt.Errorf("%w: dimension %q already carries an index", ErrConflictingIndexes, dim)
		}
	}
	vars, err := mi.CreateVariables()
	if err != nil {
		return nil, err
	}
	out := ds.shallow()
	for _, name := range levels {
		if _, ok := out.coords[name]; !ok {
			out.coordNames = append(out.coordNames, name)
		}
		out.coords[name] = vars[name]
		out.indexes[name] = mi
	}
	return out, nil
}

func (ds *Dataset) shallow() *Dataset {
	out := &Dataset{
		varNames:   slices.Clone(ds.varNames),
		dataVars:   make(map[string]*Variable, len(ds.dataVars)),
		coordNames: slices.Clone(ds.coordNames),
		coords:     make(map[string]*Variable, len(ds.coords)),
		indexes:    make(map[string]Index, len(ds.indexes)),
	}
	for k, v := range ds.dataVars {
		out.dataVars[k] = v
	}
	for k, v := range ds.coords {
		out.coords[k] = v
	}
	for k, v := range ds.indexes {
		out.indexes[k] = v
	}
	return out
}

// VarNames returns the data variable names in order.
func (ds *Dataset) VarNames() []string { return slices.Clone(ds.varNames) }

// Var returns a data variable by name.
func (ds *Dataset) Var(name string) (*Variable, bool) {
	v, ok := ds.dataVars[name]
	return v, ok
}

// CoordNames returns the attached coordinate names.
func (ds *Dataset) CoordNames() []string { return slices.Clone(ds.coordNames) }

// Coord returns a coordinate variable by name.
func (ds *Dataset) Coord(name string) (*Variable, bool) {
	v, ok := ds.coords[name]
	return v, ok
}

// Dims returns the dataset's dimensions, in first-seen order across data
// variables then coordinates.
func (ds *Dataset) Dims() []string {
	var dims []string
	seen := make(map[string]struct{})
	add := func(v *Variable) {
		for _, d := range v.Dims() {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				dims = append(dims, d)
			}
		}
	}
	for _, name := range ds.varNames {
		add(ds.dataVars[name])
	}
	for _, cn := range ds.coordNames {
		add(ds.coords[cn])
	}
	return dims
}

// Sizes returns a dimension-to-size map across all variables.
func (ds *Dataset) Sizes() map[string]int {
	sizes := make(map[string]int)
	for _, name := range ds.varNames {
		for d, s := range ds.dataVars[name].Sizes() {
			sizes[d] = s
		}
	}
	for _, cn := range ds.coordNames {
		for d, s := range ds.coords[cn].Sizes() {
			sizes[d] = s
		}
	}
	return sizes
}

// Indexes returns the dataset's coordinate indexes.
func (ds *Dataset) Indexes() *IndexSet {
	set := NewIndexSet()
	for _, cn := range ds.coordNames {
		if idx, ok := ds.indexes[cn]; ok {
			set.Add(cn, idx, ds.coords[cn])
		}
	}
	return set
}

// Clone returns an independent copy. With deep=false, buffers are shared.
func (ds *Dataset) Clone(deep bool) Alignable {
	out := ds.shallow()
	for k, v := range out.dataVars {
		out.dataVars[k] = v.Clone(deep)
	}
	for k, v := range out.coords {
		out.coords[k] = v.Clone(deep)
	}
	return out
}

// OverwriteIndexes returns a new dataset with the given coordinates and
// indexes substituted.
func (ds *Dataset) OverwriteIndexes(indexes map[string]Index, variables map[string]*Variable) (Alignable, error) {
	out := ds.shallow()
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

// ReindexCallback gathers every data variable and unreplaced coordinate
// according to the plan's positional indexers and substitutes the unified
// coordinates.
func (ds *Dataset) ReindexCallback(plan *ReindexPlan) (Alignable, error) {
	vars := make(map[string]*Variable)
	fills := make(map[string]any)
	var names []string
	for _, name := range ds.varNames {
		if _, excl := plan.ExcludeVars[name]; excl {
			continue
		}
		vars[name] = ds.dataVars[name]
		names = append(names, name)
		fills[name] = plan.Fill.For(name)
	}
	var gatheredCoords []string
	for _, cn := range ds.coordNames {
		if _, replaced := plan.Variables[cn]; replaced {
			continue
		}
		if _, excl := plan.ExcludeVars[cn]; excl {
			continue
		}
		vars[cn] = ds.coords[cn]
		names = append(names, cn)
		fills[cn] = plan.Fill.For(cn)
		gatheredCoords = append(gatheredCoords, cn)
	}

	gathered, err := reindexVariables(vars, names, fills, plan)
	if err != nil {
		return nil, fmt.Errorf("reindexing dataset: %w", err)
	}

	out := &Dataset{
		dataVars: make(map[string]*Variable),
		coords:   make(map[string]*Variable),
		indexes:  make(map[string]Index),
	}
	for _, name := range ds.varNames {
		v, ok := gathered[name]
		if !ok {
			// Excluded data variables carry over untouched.
			v = ds.dataVars[name].Clone(plan.Copy)
		}
		out.varNames = append(out.varNames, name)
		out.dataVars[name] = v
	}
	for _, cn := range gatheredCoords {
		out.coordNames = append(out.coordNames, cn)
		out.coords[cn] = gathered[cn]
		if idx, indexed := ds.indexes[cn]; indexed {
			out.indexes[cn] = idx
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

// broadcastTo expands every data variable to the unified dimension order.
func (ds *Dataset) broadcastTo(dims []string, sizes map[string]int, coords map[string]*Variable, indexes map[string]Index, exclude map[string]struct{}) (Alignable, error) {
	out := &Dataset{
		dataVars: make(map[string]*Variable),
		coords:   make(map[string]*Variable),
		indexes:  make(map[string]Index),
	}
	for _, name := range ds.varNames {
		v := ds.dataVars[name]
		targetDims, targetSizes := broadcastTargets(v, dims, sizes, exclude)
		expanded, err := v.expandDims(targetDims, targetSizes)
		if err != nil {
			return nil, fmt.Errorf("broadcasting variable %q: %w", name, err)
		}
		out.varNames = append(out.varNames, name)
		out.dataVars[name] = expanded
	}
	for _, cn := range ds.coordNames {
		out.coordNames = append(out.coordNames, cn)
		out.coords[cn] = ds.coords[cn]
		if idx, ok := ds.indexes[cn]; ok {
			out.indexes[cn] = idx
		}
	}
	names := make([]string, 0, len(coords))
	for name := range coords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := out.coords[name]; !ok {
			out.coordNames = append(out.coordNames, name)
		}
		out.coords[name] = coords[name]
		if idx, ok := indexes[name]; ok {
			out.indexes[name] = idx
		}
	}
	return out, nil
}

// Equal reports whether two datasets have equal data variables and
// coordinates.
func (ds *Dataset) Equal(other *Dataset) bool {
	if other == nil || !slices.Equal(ds.varNames, other.varNames) {
		return false
	}
	for name, v := range ds.dataVars {
		if !v.Equal(other.dataVars[name]) {
			return false
		}
	}
	if len(ds.coords) != len(other.coords) {
		return false
	}
	for name, v := range ds.coords {
		ov, ok := other.coords[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
