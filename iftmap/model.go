package iftmap

import (
	"sort"
)

// PatchEncoding identifies the payload format of a patch file.
type PatchEncoding uint8

const (
	EncodingIFTB                 PatchEncoding = 0 // IFTB chunk format
	EncodingSharedBrotli         PatchEncoding = 1 // shared brotli patch
	EncodingPerTableSharedBrotli PatchEncoding = 2 // per-table shared brotli patch
)

// String returns a human-readable name for a patch encoding.
func (enc PatchEncoding) String() string {
	switch enc {
	case EncodingIFTB:
		return "IFTB"
	case EncodingSharedBrotli:
		return "SharedBrotli"
	case EncodingPerTableSharedBrotli:
		return "PerTableSharedBrotli"
	default:
		return "Invalid"
	}
}

// encodingFromInt maps a wire value to a PatchEncoding. Unknown values are
// rejected.
func encodingFromInt(value uint8) (PatchEncoding, error) {
	switch value {
	case 0, 1, 2:
		return PatchEncoding(value), nil
	default:
		return 0, Errorf(KindInvalidFormat, "patchEncoding", "unrecognized encoding value %d", value)
	}
}

// encodingToInt maps a PatchEncoding to its wire value.
func encodingToInt(enc PatchEncoding) (uint8, error) {
	if enc > EncodingPerTableSharedBrotli {
		return 0, Errorf(KindInvalidFormat, "patchEncoding", "unknown patch encoding %d", enc)
	}
	return uint8(enc), nil
}

// --- Codepoint sets --------------------------------------------------------

// CodepointSet is a set of Unicode codepoints.
type CodepointSet map[uint32]struct{}

// NewCodepointSet creates a set containing the given codepoints.
func NewCodepointSet(cps ...uint32) CodepointSet {
	s := make(CodepointSet, len(cps))
	for _, cp := range cps {
		s[cp] = struct{}{}
	}
	return s
}

// Add inserts a codepoint.
func (s CodepointSet) Add(cp uint32) {
	s[cp] = struct{}{}
}

// Has reports membership of a codepoint.
func (s CodepointSet) Has(cp uint32) bool {
	_, ok := s[cp]
	return ok
}

// Len returns the number of codepoints in the set.
func (s CodepointSet) Len() int {
	return len(s)
}

// Sorted returns the codepoints in ascending order.
func (s CodepointSet) Sorted() []uint32 {
	cps := make([]uint32, 0, len(s))
	for cp := range s {
		cps = append(cps, cp)
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i] < cps[j] })
	return cps
}

// Min returns the smallest codepoint and true, or 0 and false for an empty set.
func (s CodepointSet) Min() (uint32, bool) {
	var min uint32
	found := false
	for cp := range s {
		if !found || cp < min {
			min = cp
			found = true
		}
	}
	return min, found
}

// Union returns a new set containing all members of s and t.
func (s CodepointSet) Union(t CodepointSet) CodepointSet {
	u := make(CodepointSet, len(s)+len(t))
	for cp := range s {
		u[cp] = struct{}{}
	}
	for cp := range t {
		u[cp] = struct{}{}
	}
	return u
}

// Clone returns a copy of the set.
func (s CodepointSet) Clone() CodepointSet {
	c := make(CodepointSet, len(s))
	for cp := range s {
		c[cp] = struct{}{}
	}
	return c
}

// --- Coverage --------------------------------------------------------------

// AxisRange is a design-space segment of one variation axis. Min and Max are
// 16.16 fixed-point axis values.
type AxisRange struct {
	Axis Tag
	Min  int32
	Max  int32
}

// Coverage is the per-entry filter of a patch mapping: the codepoints, the
// optional layout-feature tags and the optional design-space region the
// entry's patch applies to.
type Coverage struct {
	Codepoints  CodepointSet
	Features    []Tag // layout-feature tags, unordered
	DesignSpace []AxisRange
}

// sortedFeatures returns the feature tags sorted and deduplicated.
func (cov Coverage) sortedFeatures() []Tag {
	if len(cov.Features) == 0 {
		return nil
	}
	tags := make([]Tag, len(cov.Features))
	copy(tags, cov.Features)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	out := tags[:1]
	for _, t := range tags[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

// --- Patch map -------------------------------------------------------------

// Entry is one record of a patch map: it maps a coverage to the index of the
// patch that should be loaded whenever a subset definition intersects the
// coverage.
type Entry struct {
	Coverage   Coverage
	PatchIndex uint32
	Encoding   PatchEncoding
	Extension  bool // entry belongs to the extension segment of the map
}

// PatchMap is an ordered collection of patch mappings, the in-memory
// counterpart of the `IFT ` table.
type PatchMap struct {
	ID      uint32 // font-id word, echoed in the table header
	entries []Entry
}

// AddEntry appends a mapping from coverage to a patch.
func (pm *PatchMap) AddEntry(cov Coverage, patchIndex uint32, encoding PatchEncoding) {
	pm.entries = append(pm.entries, Entry{
		Coverage:   cov,
		PatchIndex: patchIndex,
		Encoding:   encoding,
	})
}

// Entries returns the mappings in insertion order. The returned slice is
// owned by the map and must not be modified.
func (pm *PatchMap) Entries() []Entry {
	return pm.entries
}

// Len returns the number of entries in the map.
func (pm *PatchMap) Len() int {
	return len(pm.entries)
}

// RemoveEntries deletes all entries for which remove returns true and
// reports how many were deleted. Order of the remaining entries is preserved.
func (pm *PatchMap) RemoveEntries(remove func(Entry) bool) int {
	kept := pm.entries[:0]
	removed := 0
	for _, e := range pm.entries {
		if remove(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	pm.entries = kept
	return removed
}

// PatchSelector is the value of the codepoint index: the patch to load for a
// codepoint, and how it is encoded.
type PatchSelector struct {
	PatchIndex uint32
	Encoding   PatchEncoding
}

// CodepointIndex builds a codepoint → patch lookup over all entries. A
// codepoint covered by entries naming two distinct patches makes the map
// unusable as a simple index and is rejected with KindInconsistent.
func (pm *PatchMap) CodepointIndex() (map[uint32]PatchSelector, error) {
	index := make(map[uint32]PatchSelector)
	for _, e := range pm.entries {
		for cp := range e.Coverage.Codepoints {
			if prev, ok := index[cp]; ok && prev.PatchIndex != e.PatchIndex {
				return nil, Errorf(KindInconsistent, "codepointIndex",
					"codepoint U+%04X maps to patches %d and %d", cp, prev.PatchIndex, e.PatchIndex)
			}
			index[cp] = PatchSelector{PatchIndex: e.PatchIndex, Encoding: e.Encoding}
		}
	}
	return index, nil
}

// pickDefaultEncoding elects the encoding carried by the most entries, so
// that as few entries as possible need an explicit encoding field. Ties go
// to the smaller wire value.
func pickDefaultEncoding(entries []Entry) PatchEncoding {
	var counts [3]int
	for _, e := range entries {
		if e.Encoding <= EncodingPerTableSharedBrotli {
			counts[e.Encoding]++
		}
	}
	best := EncodingIFTB
	for enc := EncodingSharedBrotli; enc <= EncodingPerTableSharedBrotli; enc++ {
		if counts[enc] > counts[best] {
			best = enc
		}
	}
	return best
}
