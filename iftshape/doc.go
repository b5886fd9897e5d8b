/*
Package iftshape adapts a parsed OpenType font into the glyph-closure oracle
consumed by the segmentation planner.

The closure walks the font's cmap and GSUB tables: starting from the nominal
glyphs of the requested codepoints (expanded by their canonical normalization
variants), substitution lookups are applied to a fixpoint, so that ligatures,
alternates and one-to-many substitutions reachable from the codepoint set
are all included. Contextual lookup types are not traversed yet; fonts
relying on them for reachability should treat the closure as a lower bound.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package iftshape

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.ift.shape'
func tracer() tracing.Trace {
	return tracing.Select("font.ift.shape")
}
