package iftshape

import (
	"bytes"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/npillmayer/ift/iftmap"
	"github.com/npillmayer/ift/iftseg"
	"golang.org/x/text/unicode/norm"
)

// FaceClosure computes glyph closures over a parsed font face. It implements
// the planner's Face interface (see iftseg.Face).
//
// A FaceClosure is not safe for concurrent use; planners running in parallel
// need one FaceClosure each.
type FaceClosure struct {
	face *font.Face
}

// NewFaceClosure wraps a parsed face.
func NewFaceClosure(face *font.Face) *FaceClosure {
	return &FaceClosure{face: face}
}

// ParseFace parses raw OpenType bytes (TTF or OTF) into a FaceClosure.
func ParseFace(data []byte) (*FaceClosure, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, iftmap.WrapError(err, iftmap.KindInvalidFormat, "face")
	}
	return NewFaceClosure(face), nil
}

// GlyphClosure returns the set of glyph ids that shaping the given
// codepoints may require.
func (fc *FaceClosure) GlyphClosure(codepoints iftmap.CodepointSet) (iftseg.GlyphSet, error) {
	glyphs := iftseg.NewGlyphSet()
	for cp := range expandNormalized(codepoints) {
		if gid, ok := fc.face.NominalGlyph(rune(cp)); ok {
			glyphs.Add(iftseg.GlyphID(gid))
		}
	}

	// Apply substitution lookups until no new glyphs appear.
	for changed := true; changed; {
		changed = false
		for _, lookup := range fc.face.GSUB.Lookups {
			for _, subtable := range lookup.Subtables {
				if closeOverSubtable(subtable, glyphs) {
					changed = true
				}
			}
		}
	}
	return glyphs, nil
}

// GlyphBytes estimates the byte size of one glyph's records in the font.
func (fc *FaceClosure) GlyphBytes(g iftseg.GlyphID) uint32 {
	const recordOverhead = 10
	switch data := fc.face.GlyphData(font.GID(g)).(type) {
	case font.GlyphOutline:
		return recordOverhead + 9*uint32(len(data.Segments))
	case font.GlyphBitmap:
		return recordOverhead + uint32(len(data.Data))
	case font.GlyphSVG:
		return recordOverhead + uint32(len(data.Source))
	default:
		return recordOverhead
	}
}

// expandNormalized returns the codepoints plus the runes of their NFD and
// NFC forms, so that closure input covers canonically equivalent spellings.
func expandNormalized(codepoints iftmap.CodepointSet) iftmap.CodepointSet {
	out := codepoints.Clone()
	for cp := range codepoints {
		s := string(rune(cp))
		for _, r := range norm.NFD.String(s) {
			out.Add(uint32(r))
		}
		for _, r := range norm.NFC.String(s) {
			out.Add(uint32(r))
		}
	}
	return out
}

// closeOverSubtable adds every glyph that the subtable can produce from the
// current glyph set. It reports whether the set grew.
func closeOverSubtable(subtable tables.GSUBLookup, glyphs iftseg.GlyphSet) bool {
	grew := false
	add := func(g tables.GlyphID) {
		if !glyphs.Has(iftseg.GlyphID(g)) {
			glyphs.Add(iftseg.GlyphID(g))
			grew = true
		}
	}

	switch sub := subtable.(type) {
	case tables.SingleSubs:
		switch data := sub.Data.(type) {
		case tables.SingleSubstData1:
			for _, g := range coverageGlyphs(data.Coverage) {
				if glyphs.Has(iftseg.GlyphID(g)) {
					add(tables.GlyphID(uint16(int(g) + int(data.DeltaGlyphID))))
				}
			}
		case tables.SingleSubstData2:
			for i, g := range coverageGlyphs(data.Coverage) {
				if glyphs.Has(iftseg.GlyphID(g)) && i < len(data.SubstituteGlyphIDs) {
					add(data.SubstituteGlyphIDs[i])
				}
			}
		}
	case tables.MultipleSubs:
		for i, g := range coverageGlyphs(sub.Coverage) {
			if glyphs.Has(iftseg.GlyphID(g)) && i < len(sub.Sequences) {
				for _, s := range sub.Sequences[i].SubstituteGlyphIDs {
					add(s)
				}
			}
		}
	case tables.AlternateSubs:
		for i, g := range coverageGlyphs(sub.Coverage) {
			if glyphs.Has(iftseg.GlyphID(g)) && i < len(sub.AlternateSets) {
				for _, a := range sub.AlternateSets[i].AlternateGlyphIDs {
					add(a)
				}
			}
		}
	case tables.LigatureSubs:
		for i, g := range coverageGlyphs(sub.Coverage) {
			if !glyphs.Has(iftseg.GlyphID(g)) || i >= len(sub.LigatureSets) {
				continue
			}
			for _, lig := range sub.LigatureSets[i].Ligatures {
				complete := true
				for _, comp := range lig.ComponentGlyphIDs {
					if !glyphs.Has(iftseg.GlyphID(comp)) {
						complete = false
						break
					}
				}
				if complete {
					add(lig.LigatureGlyph)
				}
			}
		}
	default:
		// Contextual and chained-contextual lookups are not traversed.
		tracer().Debugf("skipping GSUB subtable type %T in closure", subtable)
	}
	return grew
}

// coverageGlyphs returns the covered glyphs in coverage-index order.
func coverageGlyphs(cov tables.Coverage) []tables.GlyphID {
	switch c := cov.(type) {
	case tables.Coverage1:
		return c.Glyphs
	case tables.Coverage2:
		var out []tables.GlyphID
		for _, r := range c.Ranges {
			for g := r.StartGlyphID; ; g++ {
				out = append(out, g)
				if g == r.EndGlyphID {
					break
				}
			}
		}
		return out
	default:
		tracer().Debugf("unknown coverage format %T", cov)
		return nil
	}
}

var _ iftseg.Face = &FaceClosure{}
