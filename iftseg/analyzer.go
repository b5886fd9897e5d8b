package iftseg

import (
	"math"
	"sort"
	"strconv"

	"github.com/npillmayer/ift/iftmap"
)

// Face is the planner's view of a font: a glyph-closure oracle plus a
// per-glyph byte-size estimate used by the patch-size governor.
//
// A Face handle is not re-entrant; callers running planners in parallel must
// hold one exclusive handle per planner.
type Face interface {
	// GlyphClosure returns the set of glyph ids that the font's shaping
	// pipeline may require for the given codepoints.
	GlyphClosure(codepoints iftmap.CodepointSet) (GlyphSet, error)
	// GlyphBytes estimates the byte size of the glyph's records in the font.
	GlyphBytes(g GlyphID) uint32
}

// SegmentationOptions configures the planner. Use DefaultOptions as the
// starting point: the zero value of PatchSizeMaxBytes is a real (and very
// aggressive) ceiling of zero bytes, not "disabled".
type SegmentationOptions struct {
	// PatchSizeMinBytes is the lower bound for the merge pass; 0 disables
	// merging.
	PatchSizeMinBytes uint32
	// PatchSizeMaxBytes is the upper bound for the split pass;
	// math.MaxUint32 disables splitting.
	PatchSizeMaxBytes uint32
	// ProbingBudget is the maximum segment-combination size the analyzer
	// probes when attributing shared glyphs; values < 2 select the default
	// of 3.
	ProbingBudget int
	// FallbackAbsorbsUnmapped moves glyphs whose attribution exceeded the
	// probing budget into a catch-all fallback patch instead of reporting
	// them as unmapped.
	FallbackAbsorbsUnmapped bool
	// Diagnostics, if set, receives non-fatal planning notes as they occur.
	// Notes are always also collected on the resulting segmentation.
	Diagnostics func(Note)
}

// DefaultOptions returns planner options with no size bounds and the default
// probing budget.
func DefaultOptions() SegmentationOptions {
	return SegmentationOptions{
		PatchSizeMaxBytes: math.MaxUint32,
		ProbingBudget:     3,
	}
}

// classKind ranks candidate patches for patch-id allocation.
type classKind int

const (
	classExclusive classKind = iota // single-segment condition
	classAnd                        // conjunction, incl. composite merge products
	classOr                         // multi-segment disjunction
	classFallback                   // catch-all, always last
)

// candidate is a patch under construction: a glyph group plus the CNF
// clauses of its activation condition.
type candidate struct {
	class   classKind
	clauses []SegmentSet
	glyphs  GlyphSet
	seq     int // split sub-ordinal, keeps sibling order stable
}

// bytes sums the byte-size estimates of the candidate's glyphs.
func (cand *candidate) bytes(face Face) uint64 {
	var sum uint64
	for g := range cand.glyphs {
		sum += uint64(face.GlyphBytes(g))
	}
	return sum
}

// ComputeSegmentation analyzes a list of codepoint segments using the face's
// glyph closure and computes a GlyphSegmentation which satisfies the glyph
// closure requirement for the face.
//
// initialSegment is the set of codepoints that will be placed into the
// initial font; its closure ships with the font and is excluded from all
// patches. codepointSegments are the caller's disjoint segments; a segment's
// index in this list is its identity in all activation conditions.
//
// The result is deterministic for identical faces and inputs.
func ComputeSegmentation(face Face, initialSegment iftmap.CodepointSet,
	codepointSegments []iftmap.CodepointSet, opts SegmentationOptions) (*GlyphSegmentation, error) {
	//
	budget := opts.ProbingBudget
	if budget < 2 {
		budget = 3
	}
	if initialSegment == nil {
		initialSegment = iftmap.NewCodepointSet()
	}
	notes := &noteSink{emit: opts.Diagnostics}

	attributions, err := analyzeSegments(face, initialSegment, codepointSegments, budget, notes)
	if err != nil {
		return nil, err
	}
	candidates := resolveGroups(attributions, len(codepointSegments), opts.FallbackAbsorbsUnmapped)
	candidates = governPatchSizes(face, candidates, opts, notes)

	gs := buildSegmentation(candidates, codepointSegments)
	gs.initFontGlyphs = attributions.initClosure
	if !opts.FallbackAbsorbsUnmapped {
		gs.unmappedGlyphs = attributions.unmapped
	} else {
		gs.unmappedGlyphs = NewGlyphSet()
	}
	gs.notes = notes.notes
	return gs, nil
}

// attribution is the analyzer's output: per-glyph minimal segment groups.
type attribution struct {
	initClosure GlyphSet
	orGroups    map[string]*glyphGroup // incl. size-1 groups (exclusive glyphs)
	andGroups   map[string]*glyphGroup
	unmapped    GlyphSet // attribution too complex for the probing budget
}

type glyphGroup struct {
	segments SegmentSet
	glyphs   GlyphSet
}

// analyzeSegments attributes every glyph in the closure of the union of all
// segments (minus the initial closure) to the minimal conjunction or
// disjunction of segments that forces its inclusion.
func analyzeSegments(face Face, initialSegment iftmap.CodepointSet,
	segments []iftmap.CodepointSet, budget int, notes *noteSink) (*attribution, error) {
	//
	initClosure, err := face.GlyphClosure(initialSegment)
	if err != nil {
		return nil, iftmap.WrapError(err, iftmap.KindOracle, "initialClosure")
	}
	all := initialSegment.Clone()
	for _, seg := range segments {
		all = all.Union(seg)
	}
	fullClosure, err := face.GlyphClosure(all)
	if err != nil {
		return nil, iftmap.WrapError(err, iftmap.KindOracle, "fullClosure")
	}
	pending := fullClosure.Minus(initClosure)
	tracer().Debugf("analyzing %d glyphs across %d segments", pending.Len(), len(segments))

	perSegment := make([]GlyphSet, len(segments))
	for i, seg := range segments {
		closure, err := face.GlyphClosure(initialSegment.Union(seg))
		if err != nil {
			return nil, iftmap.WrapError(err, iftmap.KindOracle, "segmentClosure")
		}
		perSegment[i] = closure.Minus(initClosure)
	}

	attr := &attribution{
		initClosure: initClosure,
		orGroups:    make(map[string]*glyphGroup),
		andGroups:   make(map[string]*glyphGroup),
		unmapped:    NewGlyphSet(),
	}

	// Glyphs reachable through individual segments form OR groups; a group
	// of size 1 is an exclusive glyph of its segment.
	remaining := NewGlyphSet()
	for _, g := range pending.Sorted() {
		group := SegmentSet{}
		for i := range segments {
			if perSegment[i].Has(g) {
				group = group.With(SegmentIndex(i))
			}
		}
		if len(group) == 0 {
			remaining.Add(g)
			continue
		}
		addToGroup(attr.orGroups, group, g)
	}

	// Remaining glyphs appear only when segments combine. Probe ascending
	// combination sizes and record the minimal combinations per glyph.
	minimal := make(map[GlyphID][]SegmentSet)
	if remaining.Len() > 0 {
		for size := 2; size <= budget && size <= len(segments); size++ {
			err := forEachCombination(len(segments), size, func(combo SegmentSet) error {
				union := initialSegment.Clone()
				for _, i := range combo {
					union = union.Union(segments[i])
				}
				closure, err := face.GlyphClosure(union)
				if err != nil {
					return iftmap.WrapError(err, iftmap.KindOracle, "comboClosure")
				}
				for g := range remaining {
					if !closure.Has(g) {
						continue
					}
					covered := false
					for _, prev := range minimal[g] {
						if combo.ContainsAll(prev) {
							covered = true
							break
						}
					}
					if !covered {
						minimal[g] = append(minimal[g], combo)
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	for _, g := range remaining.Sorted() {
		combos := minimal[g]
		if len(combos) == 1 {
			addToGroup(attr.andGroups, combos[0], g)
			continue
		}
		// Not a pure AND (or not found at all) within the probing budget.
		attr.unmapped.Add(g)
	}
	if attr.unmapped.Len() > 0 {
		notes.add(Note{
			Code:    NoteUnmapped,
			Message: "attribution exceeds probing budget for " + glyphList(attr.unmapped),
		})
	}
	return attr, nil
}

func addToGroup(groups map[string]*glyphGroup, segments SegmentSet, g GlyphID) {
	key := segments.key()
	grp, ok := groups[key]
	if !ok {
		grp = &glyphGroup{segments: segments, glyphs: NewGlyphSet()}
		groups[key] = grp
	}
	grp.glyphs.Add(g)
}

// forEachCombination calls visit for every size-k combination of [0, n),
// in ascending lexicographic order.
func forEachCombination(n, k int, visit func(SegmentSet) error) error {
	if k > n {
		return nil
	}
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	for {
		combo := make(SegmentSet, k)
		for i, v := range indices {
			combo[i] = SegmentIndex(v)
		}
		if err := visit(combo); err != nil {
			return err
		}
		// advance
		i := k - 1
		for i >= 0 && indices[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

// resolveGroups converts the analyzer's group tables into candidate patches.
// With absorbFallback set, unmapped glyphs become a catch-all candidate
// triggered by every segment not referenced by any other group.
func resolveGroups(attr *attribution, segmentCount int, absorbFallback bool) []*candidate {
	var candidates []*candidate
	referenced := SegmentSet{}

	orKeys := sortedGroupKeys(attr.orGroups)
	for _, key := range orKeys {
		grp := attr.orGroups[key]
		class := classOr
		if len(grp.segments) == 1 {
			class = classExclusive
		}
		candidates = append(candidates, &candidate{
			class:   class,
			clauses: []SegmentSet{grp.segments},
			glyphs:  grp.glyphs,
		})
		referenced = referenced.Union(grp.segments)
	}
	andKeys := sortedGroupKeys(attr.andGroups)
	for _, key := range andKeys {
		grp := attr.andGroups[key]
		clauses := make([]SegmentSet, 0, len(grp.segments))
		for _, i := range grp.segments {
			clauses = append(clauses, NewSegmentSet(i))
		}
		candidates = append(candidates, &candidate{
			class:   classAnd,
			clauses: clauses,
			glyphs:  grp.glyphs,
		})
		referenced = referenced.Union(grp.segments)
	}

	if absorbFallback && attr.unmapped.Len() > 0 {
		fallbackSegments := SegmentSet{}
		for i := 0; i < segmentCount; i++ {
			if !referenced.Has(SegmentIndex(i)) {
				fallbackSegments = fallbackSegments.With(SegmentIndex(i))
			}
		}
		if len(fallbackSegments) == 0 {
			for i := 0; i < segmentCount; i++ {
				fallbackSegments = fallbackSegments.With(SegmentIndex(i))
			}
		}
		candidates = append(candidates, &candidate{
			class:   classFallback,
			clauses: []SegmentSet{fallbackSegments},
			glyphs:  attr.unmapped.Clone(),
		})
	}
	return candidates
}

func sortedGroupKeys(groups map[string]*glyphGroup) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return groups[keys[i]].segments.Compare(groups[keys[j]].segments) < 0
	})
	return keys
}

// buildSegmentation allocates patch ids and emits one activation condition
// per candidate. Ids are dense, starting at 1 (id 0 is the initial font), in
// priority order: exclusive segments first (in segment-index order), then
// conjunctions in lexicographic order, then multi-segment disjunctions,
// finally the fallback patch.
func buildSegmentation(candidates []*candidate, segments []iftmap.CodepointSet) *GlyphSegmentation {
	ordered := make([]*candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.class != b.class {
			return a.class < b.class
		}
		if c := compareClauseLists(a.clauses, b.clauses); c != 0 {
			return c < 0
		}
		return a.seq < b.seq
	})

	gs := &GlyphSegmentation{
		segments: segments,
		patches:  make(map[PatchID]GlyphSet, len(ordered)),
	}
	nextID := PatchID(1)
	for _, cand := range ordered {
		if cand.glyphs.Len() == 0 {
			continue
		}
		id := nextID
		nextID++
		gs.patches[id] = cand.glyphs
		gs.conditions = append(gs.conditions, conditionForCandidate(cand, id))
	}
	sort.SliceStable(gs.conditions, func(i, j int) bool {
		return gs.conditions[i].Compare(gs.conditions[j]) < 0
	})
	return gs
}

func conditionForCandidate(cand *candidate, id PatchID) ActivationCondition {
	switch {
	case cand.class == classFallback:
		return OrSegments(cand.clauses[0], id, true)
	case len(cand.clauses) == 1 && len(cand.clauses[0]) == 1:
		return ExclusiveSegment(cand.clauses[0][0], id)
	case len(cand.clauses) == 1:
		return OrSegments(cand.clauses[0], id, false)
	default:
		allSingle := true
		for _, c := range cand.clauses {
			if len(c) != 1 {
				allSingle = false
				break
			}
		}
		if allSingle {
			set := SegmentSet{}
			for _, c := range cand.clauses {
				set = set.With(c[0])
			}
			return AndSegments(set, id)
		}
		return CompositeCondition(cand.clauses, id)
	}
}

func compareClauseLists(a, b []SegmentSet) int {
	for k := 0; k < len(a) && k < len(b); k++ {
		if c := a[k].Compare(b[k]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// noteSink collects planning notes and forwards them to an optional
// diagnostics callback.
type noteSink struct {
	notes []Note
	emit  func(Note)
}

func (ns *noteSink) add(n Note) {
	ns.notes = append(ns.notes, n)
	if ns.emit != nil {
		ns.emit(n)
	}
	tracer().Infof("planner note: %s", n)
}

func glyphList(s GlyphSet) string {
	gids := s.Sorted()
	if len(gids) > 8 {
		gids = gids[:8]
	}
	out := "glyphs"
	for _, g := range gids {
		out += " " + strconv.FormatUint(uint64(g), 10)
	}
	if s.Len() > 8 {
		out += " ..."
	}
	return out
}
