package iftseg

import (
	"sort"
	"strconv"
	"strings"
)

// GlyphID identifies a glyph in the source face.
type GlyphID uint32

// SegmentIndex is the position of a codepoint segment in the caller's input.
type SegmentIndex uint32

// PatchID identifies a patch within a segmentation. Id 0 is reserved for the
// initial font.
type PatchID uint32

// --- Glyph sets ------------------------------------------------------------

// GlyphSet is a set of glyph ids.
type GlyphSet map[GlyphID]struct{}

// NewGlyphSet creates a set containing the given glyphs.
func NewGlyphSet(gids ...GlyphID) GlyphSet {
	s := make(GlyphSet, len(gids))
	for _, g := range gids {
		s[g] = struct{}{}
	}
	return s
}

// Add inserts a glyph id.
func (s GlyphSet) Add(g GlyphID) {
	s[g] = struct{}{}
}

// Has reports membership of a glyph id.
func (s GlyphSet) Has(g GlyphID) bool {
	_, ok := s[g]
	return ok
}

// Len returns the number of glyphs in the set.
func (s GlyphSet) Len() int {
	return len(s)
}

// Sorted returns the glyph ids in ascending order.
func (s GlyphSet) Sorted() []GlyphID {
	gids := make([]GlyphID, 0, len(s))
	for g := range s {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	return gids
}

// Union returns a new set containing all members of s and t.
func (s GlyphSet) Union(t GlyphSet) GlyphSet {
	u := make(GlyphSet, len(s)+len(t))
	for g := range s {
		u[g] = struct{}{}
	}
	for g := range t {
		u[g] = struct{}{}
	}
	return u
}

// Minus returns a new set containing the members of s that are not in t.
func (s GlyphSet) Minus(t GlyphSet) GlyphSet {
	d := make(GlyphSet)
	for g := range s {
		if _, ok := t[g]; !ok {
			d[g] = struct{}{}
		}
	}
	return d
}

// Intersects reports whether s and t share a member.
func (s GlyphSet) Intersects(t GlyphSet) bool {
	small, large := s, t
	if len(t) < len(s) {
		small, large = t, s
	}
	for g := range small {
		if _, ok := large[g]; ok {
			return true
		}
	}
	return false
}

// Clone returns a copy of the set.
func (s GlyphSet) Clone() GlyphSet {
	c := make(GlyphSet, len(s))
	for g := range s {
		c[g] = struct{}{}
	}
	return c
}

// --- Segment sets ----------------------------------------------------------

// SegmentSet is a sorted, duplicate-free list of segment indices. The zero
// value is the empty set.
type SegmentSet []SegmentIndex

// NewSegmentSet creates a segment set from the given indices.
func NewSegmentSet(indices ...SegmentIndex) SegmentSet {
	s := SegmentSet{}
	for _, i := range indices {
		s = s.With(i)
	}
	return s
}

// With returns a set additionally containing index i.
func (s SegmentSet) With(i SegmentIndex) SegmentSet {
	pos := sort.Search(len(s), func(k int) bool { return s[k] >= i })
	if pos < len(s) && s[pos] == i {
		return s
	}
	out := make(SegmentSet, 0, len(s)+1)
	out = append(out, s[:pos]...)
	out = append(out, i)
	return append(out, s[pos:]...)
}

// Has reports membership of index i.
func (s SegmentSet) Has(i SegmentIndex) bool {
	pos := sort.Search(len(s), func(k int) bool { return s[k] >= i })
	return pos < len(s) && s[pos] == i
}

// Union returns the union of s and t.
func (s SegmentSet) Union(t SegmentSet) SegmentSet {
	out := s
	for _, i := range t {
		out = out.With(i)
	}
	return out
}

// Equal reports whether s and t contain the same indices.
func (s SegmentSet) Equal(t SegmentSet) bool {
	if len(s) != len(t) {
		return false
	}
	for k := range s {
		if s[k] != t[k] {
			return false
		}
	}
	return true
}

// ContainsAll reports whether every member of t is in s.
func (s SegmentSet) ContainsAll(t SegmentSet) bool {
	for _, i := range t {
		if !s.Has(i) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and t share an index.
func (s SegmentSet) Intersects(t SegmentSet) bool {
	for _, i := range t {
		if s.Has(i) {
			return true
		}
	}
	return false
}

// Compare orders segment sets lexicographically.
func (s SegmentSet) Compare(t SegmentSet) int {
	for k := 0; k < len(s) && k < len(t); k++ {
		if s[k] != t[k] {
			if s[k] < t[k] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(s) < len(t):
		return -1
	case len(s) > len(t):
		return 1
	}
	return 0
}

// key returns a canonical string form usable as a map key.
func (s SegmentSet) key() string {
	sb := strings.Builder{}
	for k, i := range s {
		if k > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(i), 10))
	}
	return sb.String()
}

// String returns a human-readable form like "{0, 2, 5}".
func (s SegmentSet) String() string {
	sb := strings.Builder{}
	sb.WriteByte('{')
	for k, i := range s {
		if k > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(uint64(i), 10))
	}
	sb.WriteByte('}')
	return sb.String()
}
