package iftseg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/ift/iftmap"
)

// NoteCode classifies non-fatal diagnostics emitted during planning.
type NoteCode int

const (
	// NoteUnmapped marks glyphs whose attribution exceeded the probing
	// budget; they are reported in UnmappedGlyphs, or placed in the fallback
	// patch when FallbackAbsorbsUnmapped is set.
	NoteUnmapped NoteCode = iota
	// NoteSizeCeilingExceeded marks a patch that cannot be split below the
	// configured byte ceiling.
	NoteSizeCeilingExceeded
)

// String returns the canonical name of a note code.
func (nc NoteCode) String() string {
	switch nc {
	case NoteUnmapped:
		return "UNMAPPED"
	case NoteSizeCeilingExceeded:
		return "SIZE_CEILING_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// Note is a non-fatal planning diagnostic.
type Note struct {
	Code    NoteCode
	Message string
}

func (n Note) String() string {
	return fmt.Sprintf("[%s] %s", n.Code, n.Message)
}

// GlyphSegmentation describes how the glyphs of a font should be segmented
// into glyph-keyed patches.
//
// A segmentation lists the glyphs belonging to each patch as well as the
// conditions under which those patches should be loaded. The produced
// patches and conditions satisfy the glyph closure requirement: the glyphs
// contained in the patches loaded for a font subset definition are a
// superset of the glyph closure of that subset definition.
type GlyphSegmentation struct {
	segments       []iftmap.CodepointSet
	patches        map[PatchID]GlyphSet
	conditions     []ActivationCondition
	initFontGlyphs GlyphSet
	unmappedGlyphs GlyphSet
	notes          []Note
}

// Segments returns the codepoint segmentations utilized by Conditions().
// Segment indices in conditions refer to positions in this list.
func (gs *GlyphSegmentation) Segments() []iftmap.CodepointSet {
	return gs.segments
}

// Patches returns the glyphs in each patch, keyed by the patch id used to
// identify the patch within the activation conditions.
func (gs *GlyphSegmentation) Patches() map[PatchID]GlyphSet {
	return gs.patches
}

// Conditions returns all conditions of how the patches in this segmentation
// are activated, in canonical order.
func (gs *GlyphSegmentation) Conditions() []ActivationCondition {
	return gs.conditions
}

// InitialFontGlyphs returns the glyphs that ship in the initial font.
func (gs *GlyphSegmentation) InitialFontGlyphs() GlyphSet {
	return gs.initFontGlyphs
}

// UnmappedGlyphs returns the glyphs that could not be grouped into patches
// due to complex interactions. They are reported, not silently dropped.
func (gs *GlyphSegmentation) UnmappedGlyphs() GlyphSet {
	return gs.unmappedGlyphs
}

// Notes returns the non-fatal diagnostics of the planning run.
func (gs *GlyphSegmentation) Notes() []Note {
	return gs.notes
}

// String returns a human-readable representation of this segmentation and
// its activation conditions.
func (gs *GlyphSegmentation) String() string {
	sb := strings.Builder{}
	if gs.initFontGlyphs.Len() > 0 {
		fmt.Fprintf(&sb, "initial font: %d glyphs\n", gs.initFontGlyphs.Len())
	}
	ids := make([]PatchID, 0, len(gs.patches))
	for id := range gs.patches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		gids := gs.patches[id].Sorted()
		fmt.Fprintf(&sb, "p%d: gid%v\n", id, gids)
	}
	for _, c := range gs.conditions {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	if gs.unmappedGlyphs.Len() > 0 {
		fmt.Fprintf(&sb, "unmapped: gid%v\n", gs.unmappedGlyphs.Sorted())
	}
	return sb.String()
}
