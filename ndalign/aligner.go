package ndalign

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// aligner implements the alignment and re-indexing logic. One instance is
// created per top-level call, driven through its phases in a fixed order,
// and discarded after producing the result tuple.
type aligner struct {
	objects []Alignable
	opts    alignOptions

	// explicitly supplied indexes, normalized and grouped
	indexes    map[matchingKey]Index
	indexVars  map[matchingKey]map[string]*Variable
	indexOrder []matchingKey

	// per-key (name, dims) pairs, for conflict counting and messages
	keyMeta map[matchingKey][]coordDims

	objectsMatching []map[matchingKey]Index
	allIndexes      map[matchingKey][]Index
	allIndexVars    map[matchingKey][]map[string]*Variable
	keyOrder        []matchingKey
	keyDimSizes     map[matchingKey]map[string]map[int]struct{}

	unindexedSizes map[string]map[int]struct{}
	unindexedOrder []string

	alignedIndexes map[matchingKey]Index
	alignedVars    map[matchingKey]map[string]*Variable
	alignedOrder   []matchingKey
	reindexNeeded  map[matchingKey]bool
	newVars        map[string]*Variable

	results []Alignable
}

func newAligner(objects []Alignable, opts alignOptions) (*aligner, error) {
	if !opts.join.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidJoin, int(opts.join))
	}
	a := &aligner{
		objects:        objects,
		opts:           opts,
		keyMeta:        make(map[matchingKey][]coordDims),
		allIndexes:     make(map[matchingKey][]Index),
		allIndexVars:   make(map[matchingKey][]map[string]*Variable),
		keyDimSizes:    make(map[matchingKey]map[string]map[int]struct{}),
		unindexedSizes: make(map[string]map[int]struct{}),
		alignedIndexes: make(map[matchingKey]Index),
		alignedVars:    make(map[matchingKey]map[string]*Variable),
		reindexNeeded:  make(map[matchingKey]bool),
		newVars:        make(map[string]*Variable),
	}
	set, err := indexSetFromRaw(opts.indexes)
	if err != nil {
		return nil, err
	}
	a.indexes, a.indexVars, a.indexOrder, err = a.normalizeIndexSet(set)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// indexSetFromRaw converts the explicit indexes/indexers of a call into an
// IndexSet. A raw slice or a 1-d Variable becomes a LabelIndex along the
// dimension named by its key; an Index is taken as-is, with its entry
// keyed by one of its own coordinate names.
func indexSetFromRaw(raw map[string]any) (*IndexSet, error) {
	set := NewIndexSet()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var idx Index
		switch v := raw[name].(type) {
		case Index:
			idx = v
		case *Variable:
			if !slices.Equal(v.Dims(), []string{name}) {
				return nil, fmt.Errorf("%w: indexer has dimensions %v, expected (%q)",
					ErrIndexerDimMismatch, v.Dims(), name)
			}
			li, err := NewLabelIndex(name, v.Values())
			if err != nil {
				return nil, err
			}
			idx = li
		default:
			li, err := NewLabelIndex(name, v)
			if err != nil {
				return nil, err
			}
			idx = li
		}

		vars, err := idx.CreateVariables()
		if err != nil {
			return nil, err
		}
		v, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("index supplied for %q has no such coordinate", name)
		}
		set.Add(name, idx, v)
	}
	return set, nil
}

// normalizeIndexSet groups a set of coordinate indexes into canonical
// matching keys, dropping groups whose dimensions are all excluded and
// rejecting groups only partially excluded.
func (a *aligner) normalizeIndexSet(set *IndexSet) (map[matchingKey]Index, map[matchingKey]map[string]*Variable, []matchingKey, error) {
	indexes := make(map[matchingKey]Index)
	indexVars := make(map[matchingKey]map[string]*Variable)
	var order []matchingKey

	for _, g := range set.GroupByIndex() {
		allDims := make(map[string]struct{})
		for _, v := range g.Vars {
			for _, d := range v.Dims() {
				allDims[d] = struct{}{}
			}
		}
		var excluded, included []string
		for d := range allDims {
			if _, ok := a.opts.exclude[d]; ok {
				excluded = append(excluded, d)
			} else {
				included = append(included, d)
			}
		}
		if len(excluded) == len(allDims) && len(allDims) > 0 {
			continue
		}
		if len(excluded) > 0 {
			sort.Strings(excluded)
			sort.Strings(included)
			return nil, nil, nil, fmt.Errorf(
				"%w: dimension(s) %v are used by an index together with non-excluded dimension(s) %v",
				ErrInvalidExclusion, excluded, included)
		}

		key, pairs := buildMatchingKey(g.Index, g.Names, g.Vars)
		indexes[key] = g.Index
		indexVars[key] = g.Vars
		order = append(order, key)
		a.keyMeta[key] = pairs
	}
	return indexes, indexVars, order, nil
}

// findMatchingIndexes gathers, across all objects, every index group keyed
// identically, recording per-dimension sizes for the override pre-check.
func (a *aligner) findMatchingIndexes() error {
	for _, obj := range a.objects {
		objIndexes, objVars, order, err := a.normalizeIndexSet(obj.Indexes())
		if err != nil {
			return err
		}
		a.objectsMatching = append(a.objectsMatching, objIndexes)

		for _, key := range order {
			if _, seen := a.allIndexes[key]; !seen {
				a.keyOrder = append(a.keyOrder, key)
			}
			a.allIndexes[key] = append(a.allIndexes[key], objIndexes[key])
			a.allIndexVars[key] = append(a.allIndexVars[key], objVars[key])

			sizes, err := CalculateDimensions(objVars[key])
			if err != nil {
				return err
			}
			byDim := a.keyDimSizes[key]
			if byDim == nil {
				byDim = make(map[string]map[int]struct{})
				a.keyDimSizes[key] = byDim
			}
			for dim, size := range sizes {
				if byDim[dim] == nil {
					byDim[dim] = make(map[int]struct{})
				}
				byDim[dim][size] = struct{}{}
			}
		}
	}

	if a.opts.join == JoinOverride {
		for _, key := range a.keyOrder {
			for dim, sizes := range a.keyDimSizes[key] {
				if len(sizes) > 1 {
					return fmt.Errorf(
						"%w: cannot align with join=override along dimension %q",
						ErrOverrideSizeMismatch, dim)
				}
			}
		}
	}
	return nil
}

// findMatchingUnindexedDims records, per dimension carrying no index in an
// object, the sizes observed across all objects.
func (a *aligner) findMatchingUnindexedDims() {
	for _, obj := range a.objects {
		covered := obj.Indexes().Dims()
		sizes := obj.Sizes()
		for _, dim := range obj.Dims() {
			if _, excl := a.opts.exclude[dim]; excl {
				continue
			}
			if _, ok := covered[dim]; ok {
				continue
			}
			if a.unindexedSizes[dim] == nil {
				a.unindexedSizes[dim] = make(map[int]struct{})
				a.unindexedOrder = append(a.unindexedOrder, dim)
			}
			a.unindexedSizes[dim][sizes[dim]] = struct{}{}
		}
	}
}

// assertNoIndexConflict rejects coordinate or dimension names claimed by
// more than one distinct matching key.
func (a *aligner) assertNoIndexConflict() error {
	keys := slices.Clone(a.keyOrder)
	for _, key := range a.indexOrder {
		if _, ok := a.allIndexes[key]; !ok {
			keys = append(keys, key)
		}
	}

	coordCount := make(map[string]int)
	dimCount := make(map[string]int)
	var coordOrder, dimOrder []string
	for _, key := range keys {
		dimsSeen := make(map[string]struct{})
		for _, pair := range a.keyMeta[key] {
			if coordCount[pair.name] == 0 {
				coordOrder = append(coordOrder, pair.name)
			}
			coordCount[pair.name]++
			for _, d := range pair.dims {
				dimsSeen[d] = struct{}{}
			}
		}
		for d := range dimsSeen {
			if dimCount[d] == 0 {
				dimOrder = append(dimOrder, d)
			}
			dimCount[d]++
		}
	}

	report := func(count map[string]int, order []string, what string) error {
		var dup []string
		for _, name := range order {
			if count[name] > 1 {
				dup = append(dup, fmt.Sprintf("%q (%d conflicting indexes)", name, count[name]))
			}
		}
		if dup == nil {
			return nil
		}
		sort.Strings(dup)
		return fmt.Errorf("%w: found for the following %s: %s",
			ErrConflictingIndexes, what, strings.Join(dup, ", "))
	}
	if err := report(coordCount, coordOrder, "coordinates"); err != nil {
		return err
	}
	return report(dimCount, dimOrder, "dimensions")
}

type cmpEntry struct {
	idx  Index
	vars map[string]*Variable
}

// needReindex decides whether a set of matching indexes requires any
// object to be reindexed. False iff all candidates are pairwise equal and
// every spanned dimension that is also unindexed elsewhere has one
// consistent size matching the index-implied size. Skipping the reindex
// when nothing would change also keeps indexes with duplicate labels
// usable as long as no object disagrees.
func (a *aligner) needReindex(dims map[string]struct{}, cmp []cmpEntry) bool {
	for i := 1; i < len(cmp); i++ {
		if !cmp[0].idx.Equal(cmp[i].idx) {
			return true
		}
	}

	unindexed := make(map[string]int)
	for d := range dims {
		sizes, ok := a.unindexedSizes[d]
		if !ok {
			continue
		}
		if len(sizes) > 1 {
			return true
		}
		for s := range sizes {
			unindexed[d] = s
		}
	}
	if len(unindexed) == 0 {
		return false
	}

	indexed := make(map[string]int)
	for _, c := range cmp {
		for _, v := range c.vars {
			for d, s := range v.Sizes() {
				indexed[d] = s
			}
		}
	}
	for d, size := range unindexed {
		if got, ok := indexed[d]; !ok || got != size {
			return true
		}
	}
	return false
}

// alignIndexes computes the unified index and coordinate variables per
// matching key, and whether each key requires reindexing.
func (a *aligner) alignIndexes() error {
	for _, key := range a.keyOrder {
		matching := a.allIndexes[key]
		matchingVars := a.allIndexVars[key]
		dims := make(map[string]struct{})
		for _, v := range matchingVars[0] {
			for _, d := range v.Dims() {
				dims[d] = struct{}{}
			}
		}

		var (
			joined     Index
			joinedVars map[string]*Variable
			need       bool
			err        error
		)
		if a.opts.join == JoinOverride {
			joined = matching[0]
			joinedVars = matchingVars[0]
		} else if explicit, ok := a.indexes[key]; ok {
			joined = explicit
			joinedVars = a.indexVars[key]
			cmp := make([]cmpEntry, 0, len(matching)+1)
			cmp = append(cmp, cmpEntry{joined, joinedVars})
			for i := range matching {
				cmp = append(cmp, cmpEntry{matching[i], matchingVars[i]})
			}
			need = a.needReindex(dims, cmp)
		} else {
			if len(matching) > 1 {
				cmp := make([]cmpEntry, len(matching))
				for i := range matching {
					cmp[i] = cmpEntry{matching[i], matchingVars[i]}
				}
				need = a.needReindex(dims, cmp)
			}
			if need {
				joined, joinedVars, err = a.joinMatching(key, matching, matchingVars)
				if err != nil {
					return err
				}
			} else {
				joined = matching[0]
				joinedVars = matchingVars[0]
			}
		}

		a.reindexNeeded[key] = need
		a.alignedIndexes[key] = joined
		a.alignedVars[key] = joinedVars
		a.alignedOrder = append(a.alignedOrder, key)
		for name, v := range joinedVars {
			a.newVars[name] = v
		}
	}

	// Explicitly provided indexes never matched by any object may relate
	// to unindexed dimensions, so carry them through.
	for _, key := range a.indexOrder {
		if _, ok := a.alignedIndexes[key]; ok {
			continue
		}
		a.reindexNeeded[key] = false
		a.alignedIndexes[key] = a.indexes[key]
		a.alignedVars[key] = a.indexVars[key]
		a.alignedOrder = append(a.alignedOrder, key)
		for name, v := range a.indexVars[key] {
			a.newVars[name] = v
		}
	}
	return nil
}

// joinMatching folds the matching indexes left-to-right under the active
// join mode.
func (a *aligner) joinMatching(key matchingKey, matching []Index, matchingVars []map[string]*Variable) (Index, map[string]*Variable, error) {
	switch a.opts.join {
	case JoinExact:
		return nil, nil, fmt.Errorf(
			"%w: cannot align with join=exact along these coordinates (dimensions): %s",
			ErrExactJoinMismatch, describeKey(a.keyMeta[key]))
	case JoinLeft:
		return matching[0], matchingVars[0], nil
	case JoinRight:
		return matching[len(matching)-1], matchingVars[len(matchingVars)-1], nil
	case JoinInner, JoinOuter:
		joined := matching[0]
		for _, next := range matching[1:] {
			var err error
			joined, err = joined.Join(next, a.opts.join)
			if err != nil {
				return nil, nil, err
			}
		}
		vars, err := joined.CreateVariables()
		if err != nil {
			return nil, nil, err
		}
		return joined, vars, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidJoin, a.opts.join)
	}
}

// assertUnindexedDimSizesEqual validates that every unindexed dimension
// has one consistent size, including the size implied by any index now
// covering it.
func (a *aligner) assertUnindexedDimSizesEqual() error {
	indexDims, err := CalculateDimensions(a.newVars)
	if err != nil {
		return err
	}
	for _, dim := range a.unindexedOrder {
		sizes := make(map[int]struct{}, len(a.unindexedSizes[dim]))
		for s := range a.unindexedSizes[dim] {
			sizes[s] = struct{}{}
		}
		note := ""
		if idxSize, ok := indexDims[dim]; ok {
			sizes[idxSize] = struct{}{}
			note = fmt.Sprintf(" (an index covers that dimension with size %d)", idxSize)
		}
		if len(sizes) > 1 {
			all := make([]int, 0, len(sizes))
			for s := range sizes {
				all = append(all, s)
			}
			sort.Ints(all)
			return fmt.Errorf("%w: cannot reindex or align along dimension %q, sizes %v%s",
				ErrDimensionSizeConflict, dim, all, note)
		}
	}
	return nil
}

// overrideIndexes rewrites every object's matched coordinates with the
// first object's index and variables. The first object passes through
// unchanged.
func (a *aligner) overrideIndexes() error {
	a.results = make([]Alignable, len(a.objects))
	a.results[0] = a.objects[0]

	for i := 1; i < len(a.objects); i++ {
		matching := a.objectsMatching[i]
		newIndexes := make(map[string]Index)
		newVariables := make(map[string]*Variable)
		for _, key := range a.alignedOrder {
			if _, ok := matching[key]; !ok {
				continue
			}
			for name, v := range a.alignedVars[key] {
				newIndexes[name] = a.alignedIndexes[key]
				newVariables[name] = v.Clone(a.opts.copy)
			}
		}
		obj, err := a.objects[i].OverwriteIndexes(newIndexes, newVariables)
		if err != nil {
			return err
		}
		a.results[i] = obj
	}
	return nil
}

// dimPosIndexers asks each matched object index for positional indexers
// against the unified index, for keys that actually require reindexing.
func (a *aligner) dimPosIndexers(matching map[matchingKey]Index) (map[string][]int, error) {
	out := make(map[string][]int)
	for _, key := range a.alignedOrder {
		objIdx, ok := matching[key]
		if !ok || !a.reindexNeeded[key] {
			continue
		}
		indexers, err := objIdx.ReindexLike(a.alignedIndexes[key], a.opts.method, a.opts.tolerance)
		if err != nil {
			return nil, err
		}
		for dim, idxr := range indexers {
			out[dim] = idxr
		}
	}
	return out, nil
}

// indexesAndVarsFor collects the new coordinate indexes and variables for
// one object, adopting unified indexes whose dimensions the object has but
// left unindexed.
func (a *aligner) indexesAndVarsFor(obj Alignable, matching map[matchingKey]Index) (map[string]Index, map[string]*Variable) {
	newIndexes := make(map[string]Index)
	newVariables := make(map[string]*Variable)
	objDims := make(map[string]struct{})
	for _, d := range obj.Dims() {
		objDims[d] = struct{}{}
	}

	for _, key := range a.alignedOrder {
		vars := a.alignedVars[key]
		_, matched := matching[key]
		if !matched {
			inObj := true
			for _, v := range vars {
				for _, d := range v.Dims() {
					if _, ok := objDims[d]; !ok {
						inObj = false
					}
				}
			}
			if !inObj {
				continue
			}
		}
		for name, v := range vars {
			newIndexes[name] = a.alignedIndexes[key]
			newVariables[name] = v.Clone(a.opts.copy)
		}
	}
	return newIndexes, newVariables
}

func (a *aligner) reindexOne(obj Alignable, matching map[matchingKey]Index) (Alignable, error) {
	newIndexes, newVariables := a.indexesAndVarsFor(obj, matching)
	dimIndexers, err := a.dimPosIndexers(matching)
	if err != nil {
		return nil, err
	}
	return obj.ReindexCallback(&ReindexPlan{
		DimIndexers: dimIndexers,
		Variables:   newVariables,
		Indexes:     newIndexes,
		Fill:        a.opts.fill,
		ExcludeDims: a.opts.exclude,
		ExcludeVars: a.opts.excludeVars,
		Copy:        a.opts.copy,
		Sparse:      a.opts.sparse,
	})
}

func (a *aligner) reindexAll() error {
	a.results = make([]Alignable, len(a.objects))
	for i, obj := range a.objects {
		res, err := a.reindexOne(obj, a.objectsMatching[i])
		if err != nil {
			return err
		}
		a.results[i] = res
	}
	return nil
}

// align drives all phases in order.
func (a *aligner) align() error {
	if len(a.objects) == 0 {
		a.results = []Alignable{}
		return nil
	}
	if len(a.indexes) == 0 && len(a.objects) == 1 {
		// Trivial fast path.
		a.results = []Alignable{a.objects[0].Clone(a.opts.copy)}
		return nil
	}

	if err := a.findMatchingIndexes(); err != nil {
		return err
	}
	a.findMatchingUnindexedDims()
	if err := a.assertNoIndexConflict(); err != nil {
		return err
	}
	if err := a.alignIndexes(); err != nil {
		return err
	}
	if err := a.assertUnindexedDimSizesEqual(); err != nil {
		return err
	}

	switch {
	case a.opts.join == JoinOverride:
		return a.overrideIndexes()
	case a.opts.join == JoinExact && !a.opts.copy:
		a.results = slices.Clone(a.objects)
		return nil
	default:
		return a.reindexAll()
	}
}
