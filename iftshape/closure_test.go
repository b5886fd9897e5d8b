package iftshape

import (
	"testing"

	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/npillmayer/ift/iftmap"
	"github.com/npillmayer/ift/iftseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseOverSingleSubstitution(t *testing.T) {
	sub := tables.SingleSubs{Data: tables.SingleSubstData2{
		Coverage:           tables.Coverage1{Glyphs: []tables.GlyphID{10, 11}},
		SubstituteGlyphIDs: []tables.GlyphID{42, 43},
	}}
	glyphs := iftseg.NewGlyphSet(10)
	require.True(t, closeOverSubtable(sub, glyphs))
	assert.True(t, glyphs.Has(42))
	assert.False(t, glyphs.Has(43), "uncovered glyph must not pull in its substitute")
	// fixpoint: applying again must not report growth
	assert.False(t, closeOverSubtable(sub, glyphs))
}

func TestCloseOverLigature(t *testing.T) {
	var lig tables.LigatureSubs
	lig.Coverage = tables.Coverage1{Glyphs: []tables.GlyphID{1}}
	lig.LigatureSets = []tables.LigatureSet{{
		Ligatures: []tables.Ligature{
			{LigatureGlyph: 7, ComponentGlyphIDs: []tables.GlyphID{2}},
			{LigatureGlyph: 8, ComponentGlyphIDs: []tables.GlyphID{3}},
		},
	}}

	// only f+i present: the f+i ligature forms, the f+l one does not
	glyphs := iftseg.NewGlyphSet(1, 2)
	require.True(t, closeOverSubtable(lig, glyphs))
	assert.True(t, glyphs.Has(7))
	assert.False(t, glyphs.Has(8))

	// adding the missing component completes the second ligature
	glyphs.Add(3)
	require.True(t, closeOverSubtable(lig, glyphs))
	assert.True(t, glyphs.Has(8))
}

func TestCloseOverMultipleAndAlternate(t *testing.T) {
	multiple := tables.MultipleSubs{
		Coverage:  tables.Coverage1{Glyphs: []tables.GlyphID{5}},
		Sequences: []tables.Sequence{{SubstituteGlyphIDs: []tables.GlyphID{6, 7}}},
	}
	glyphs := iftseg.NewGlyphSet(5)
	require.True(t, closeOverSubtable(multiple, glyphs))
	assert.True(t, glyphs.Has(6))
	assert.True(t, glyphs.Has(7))

	alternate := tables.AlternateSubs{
		Coverage:      tables.Coverage1{Glyphs: []tables.GlyphID{6}},
		AlternateSets: []tables.AlternateSet{{AlternateGlyphIDs: []tables.GlyphID{9}}},
	}
	require.True(t, closeOverSubtable(alternate, glyphs))
	assert.True(t, glyphs.Has(9))
}

func TestExpandNormalized(t *testing.T) {
	// U+00E9 (é) decomposes into U+0065 + U+0301
	expanded := expandNormalized(iftmap.NewCodepointSet(0xE9))
	assert.True(t, expanded.Has(0xE9))
	assert.True(t, expanded.Has(0x65))
	assert.True(t, expanded.Has(0x301))
	// plain ASCII input passes through unchanged
	expanded = expandNormalized(iftmap.NewCodepointSet(0x41))
	assert.Equal(t, 1, expanded.Len())
}
