/*
Package iftseg plans the segmentation of a font's glyphs into incrementally
loadable patches.

Given a font face (as a glyph-closure oracle) and a list of disjoint
codepoint segments, the planner decomposes the glyph closure of the union of
all segments into per-patch glyph groups, together with activation conditions
over segment indices. The resulting segmentation satisfies the glyph closure
requirement: for any subset definition, the glyphs of all activated patches,
together with the initial font's glyphs, are a superset of the subset's glyph
closure.

Planning proceeds in stages: a segment analyzer attributes each glyph to the
minimal combination of segments forcing its inclusion, a group resolver turns
attributions into candidate patches, a size governor merges and splits
patches against a byte budget, and a condition builder emits one canonical
activation condition per patch.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package iftseg

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.ift.segment'
func tracer() tracing.Trace {
	return tracing.Select("font.ift.segment")
}
