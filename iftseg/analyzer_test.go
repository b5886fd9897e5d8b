package iftseg

import (
	"testing"

	"github.com/npillmayer/ift/iftmap"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// fakeFace is a closure oracle for tests: a cmap plus ligature-style rules
// which fire when all component glyphs are present.
type fakeFace struct {
	cmap  map[uint32]GlyphID
	rules []fakeRule
	sizes map[GlyphID]uint32
}

type fakeRule struct {
	components []GlyphID
	result     GlyphID
}

func (f *fakeFace) GlyphClosure(codepoints iftmap.CodepointSet) (GlyphSet, error) {
	glyphs := NewGlyphSet()
	for cp := range codepoints {
		if g, ok := f.cmap[cp]; ok {
			glyphs.Add(g)
		}
	}
	for changed := true; changed; {
		changed = false
		for _, rule := range f.rules {
			if glyphs.Has(rule.result) {
				continue
			}
			complete := true
			for _, c := range rule.components {
				if !glyphs.Has(c) {
					complete = false
					break
				}
			}
			if complete {
				glyphs.Add(rule.result)
				changed = true
			}
		}
	}
	return glyphs, nil
}

func (f *fakeFace) GlyphBytes(g GlyphID) uint32 {
	if s, ok := f.sizes[g]; ok {
		return s
	}
	return 10
}

func segs(lists ...[]uint32) []iftmap.CodepointSet {
	out := make([]iftmap.CodepointSet, len(lists))
	for i, l := range lists {
		out[i] = iftmap.NewCodepointSet(l...)
	}
	return out
}

func TestTwoDisjointSegments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.ift.segment")
	defer teardown()
	//
	face := &fakeFace{cmap: map[uint32]GlyphID{0x41: 1, 0x42: 2}}
	gs, err := ComputeSegmentation(face, nil, segs([]uint32{0x41}, []uint32{0x42}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(gs.Patches()) != 2 {
		t.Fatalf("expected 2 patches, got %d\n%s", len(gs.Patches()), gs)
	}
	if !gs.Patches()[1].Has(1) || !gs.Patches()[2].Has(2) {
		t.Errorf("patch contents wrong:\n%s", gs)
	}
	if len(gs.Conditions()) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(gs.Conditions()))
	}
	for _, c := range gs.Conditions() {
		if !c.IsExclusive() {
			t.Errorf("condition %s should be exclusive", c)
		}
	}
	if gs.UnmappedGlyphs().Len() != 0 || gs.InitialFontGlyphs().Len() != 0 {
		t.Errorf("no unmapped or initial glyphs expected:\n%s", gs)
	}
}

func TestSharedLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.ift.segment")
	defer teardown()
	//
	// closure({f,i}) = {f, i, fi} but each letter alone maps only to itself
	face := &fakeFace{
		cmap:  map[uint32]GlyphID{0x66: 1, 0x69: 2},
		rules: []fakeRule{{components: []GlyphID{1, 2}, result: 3}},
	}
	gs, err := ComputeSegmentation(face, nil, segs([]uint32{0x66}, []uint32{0x69}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(gs.Patches()) != 3 {
		t.Fatalf("expected 3 patches, got %d\n%s", len(gs.Patches()), gs)
	}
	// exclusive patches come first, the AND product last
	if !gs.Patches()[1].Has(1) || !gs.Patches()[2].Has(2) || !gs.Patches()[3].Has(3) {
		t.Errorf("patch contents wrong:\n%s", gs)
	}
	var andCond *ActivationCondition
	exclusives := 0
	for i, c := range gs.Conditions() {
		if c.IsExclusive() {
			exclusives++
			continue
		}
		andCond = &gs.Conditions()[i]
	}
	if exclusives != 2 || andCond == nil {
		t.Fatalf("expected 2 exclusive + 1 AND condition:\n%s", gs)
	}
	if andCond.Activated() != 3 || len(andCond.Clauses()) != 2 {
		t.Errorf("AND condition wrong: %s", andCond)
	}
	if !andCond.Fires(NewSegmentSet(0, 1)) || andCond.Fires(NewSegmentSet(0)) {
		t.Errorf("AND condition semantics wrong: %s", andCond)
	}
}

func TestProbingBudgetExceeded(t *testing.T) {
	// glyph 4 requires a three-way segment intersection, budget is 2
	face := &fakeFace{
		cmap:  map[uint32]GlyphID{0x41: 1, 0x42: 2, 0x43: 3},
		rules: []fakeRule{{components: []GlyphID{1, 2, 3}, result: 4}},
	}
	opts := DefaultOptions()
	opts.ProbingBudget = 2
	gs, err := ComputeSegmentation(face, nil,
		segs([]uint32{0x41}, []uint32{0x42}, []uint32{0x43}), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !gs.UnmappedGlyphs().Has(4) {
		t.Errorf("glyph 4 should be unmapped:\n%s", gs)
	}
	for _, glyphs := range gs.Patches() {
		if glyphs.Has(4) {
			t.Error("unmapped glyph must not appear in a patch")
		}
	}
	found := false
	for _, n := range gs.Notes() {
		if n.Code == NoteUnmapped {
			found = true
		}
	}
	if !found {
		t.Error("expected an UNMAPPED note")
	}

	// with a budget of 3 the glyph is attributed to and(0,1,2)
	gs, err = ComputeSegmentation(face, nil,
		segs([]uint32{0x41}, []uint32{0x42}, []uint32{0x43}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if gs.UnmappedGlyphs().Len() != 0 {
		t.Errorf("budget 3 should attribute the three-way glyph:\n%s", gs)
	}
}

func TestFallbackAbsorbsUnmapped(t *testing.T) {
	face := &fakeFace{
		cmap:  map[uint32]GlyphID{0x41: 1, 0x42: 2, 0x43: 3},
		rules: []fakeRule{{components: []GlyphID{1, 2, 3}, result: 4}},
	}
	opts := DefaultOptions()
	opts.ProbingBudget = 2
	opts.FallbackAbsorbsUnmapped = true
	gs, err := ComputeSegmentation(face, nil,
		segs([]uint32{0x41}, []uint32{0x42}, []uint32{0x43}), opts)
	if err != nil {
		t.Fatal(err)
	}
	if gs.UnmappedGlyphs().Len() != 0 {
		t.Errorf("fallback should absorb unmapped glyphs:\n%s", gs)
	}
	var fallback *ActivationCondition
	for i, c := range gs.Conditions() {
		if c.IsFallback() {
			fallback = &gs.Conditions()[i]
		}
	}
	if fallback == nil {
		t.Fatalf("expected a fallback condition:\n%s", gs)
	}
	if !gs.Patches()[fallback.Activated()].Has(4) {
		t.Error("fallback patch should contain the residual glyph")
	}
	// fallback patch ids come last
	for id := range gs.Patches() {
		if id > fallback.Activated() {
			t.Error("fallback patch id should be the largest")
		}
	}
}

func TestSharedGlyphBecomesOrGroup(t *testing.T) {
	// glyph 3 is reachable through either segment individually
	face := &fakeFace{
		cmap: map[uint32]GlyphID{0x41: 1, 0x42: 2, 0xE1: 3},
	}
	face.cmap[0xC1] = 3 // second spelling of the same glyph
	segments := segs([]uint32{0x41, 0xE1}, []uint32{0x42, 0xC1})
	gs, err := ComputeSegmentation(face, nil, segments, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	var orCond *ActivationCondition
	for i, c := range gs.Conditions() {
		if !c.IsExclusive() && !c.IsFallback() {
			orCond = &gs.Conditions()[i]
		}
	}
	if orCond == nil {
		t.Fatalf("expected an OR condition for the shared glyph:\n%s", gs)
	}
	if len(orCond.Clauses()) != 1 || !orCond.Clauses()[0].Equal(NewSegmentSet(0, 1)) {
		t.Errorf("OR condition should cover both segments: %s", orCond)
	}
	if !gs.Patches()[orCond.Activated()].Has(3) {
		t.Error("shared glyph should live in the OR patch")
	}
}

func TestInitialFontGlyphsExcluded(t *testing.T) {
	face := &fakeFace{cmap: map[uint32]GlyphID{0x20: 9, 0x41: 1}}
	gs, err := ComputeSegmentation(face, iftmap.NewCodepointSet(0x20),
		segs([]uint32{0x41}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !gs.InitialFontGlyphs().Has(9) {
		t.Error("initial closure should be reported")
	}
	for _, glyphs := range gs.Patches() {
		if glyphs.Has(9) {
			t.Error("initial font glyphs must not appear in patches")
		}
	}
}

// TestClosureRequirement checks the central guarantee on an interacting
// face: for every client subset, the activated patches plus the initial
// font cover the subset's glyph closure.
func TestClosureRequirement(t *testing.T) {
	face := &fakeFace{
		cmap: map[uint32]GlyphID{
			0x66: 1, 0x69: 2, 0x6C: 3, 0x41: 4, 0x42: 5,
		},
		rules: []fakeRule{
			{components: []GlyphID{1, 2}, result: 6},    // f+i
			{components: []GlyphID{1, 3}, result: 7},    // f+l
			{components: []GlyphID{1, 2, 3}, result: 8}, // f+i+l
		},
	}
	segments := segs([]uint32{0x66}, []uint32{0x69}, []uint32{0x6C}, []uint32{0x41, 0x42})
	gs, err := ComputeSegmentation(face, nil, segments, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	for mask := 1; mask < 1<<len(segments); mask++ {
		subset := iftmap.NewCodepointSet()
		active := SegmentSet{}
		for i := range segments {
			if mask&(1<<i) != 0 {
				subset = subset.Union(segments[i])
				active = active.With(SegmentIndex(i))
			}
		}
		closure, err := face.GlyphClosure(subset)
		if err != nil {
			t.Fatal(err)
		}
		delivered := gs.InitialFontGlyphs().Clone()
		for _, cond := range gs.Conditions() {
			if cond.Fires(active) {
				delivered = delivered.Union(gs.Patches()[cond.Activated()])
			}
		}
		for g := range closure.Minus(gs.UnmappedGlyphs()) {
			if !delivered.Has(g) {
				t.Errorf("subset %s: glyph %d in closure but not delivered\n%s",
					active, g, gs)
			}
		}
	}
}

// TestPatchesDisjoint checks the structural invariants of a segmentation.
func TestPatchesDisjoint(t *testing.T) {
	face := &fakeFace{
		cmap: map[uint32]GlyphID{0x66: 1, 0x69: 2, 0x20: 9},
		rules: []fakeRule{
			{components: []GlyphID{1, 2}, result: 3},
		},
	}
	gs, err := ComputeSegmentation(face, iftmap.NewCodepointSet(0x20),
		segs([]uint32{0x66}, []uint32{0x69}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	seen := NewGlyphSet()
	for _, glyphs := range gs.Patches() {
		for g := range glyphs {
			if seen.Has(g) {
				t.Errorf("glyph %d appears in two patches", g)
			}
			seen.Add(g)
			if gs.InitialFontGlyphs().Has(g) || gs.UnmappedGlyphs().Has(g) {
				t.Errorf("glyph %d is not disjoint from init/unmapped", g)
			}
		}
	}
	// every condition activates exactly one patch, and every patch has
	// exactly one condition
	activated := map[PatchID]int{}
	for _, c := range gs.Conditions() {
		activated[c.Activated()]++
	}
	for id := range gs.Patches() {
		if activated[id] != 1 {
			t.Errorf("patch %d has %d conditions", id, activated[id])
		}
	}
}

func TestDeterminism(t *testing.T) {
	face := &fakeFace{
		cmap: map[uint32]GlyphID{0x61: 1, 0x62: 2, 0x63: 3, 0x64: 4},
		rules: []fakeRule{
			{components: []GlyphID{1, 2}, result: 5},
			{components: []GlyphID{3, 4}, result: 6},
		},
	}
	segments := segs([]uint32{0x61}, []uint32{0x62}, []uint32{0x63}, []uint32{0x64})
	first, err := ComputeSegmentation(face, nil, segments, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := ComputeSegmentation(face, nil, segments, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if first.String() != again.String() {
			t.Fatalf("segmentation is not deterministic:\n%s\nvs\n%s", first, again)
		}
	}
}
