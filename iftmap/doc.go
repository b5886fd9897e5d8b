/*
Package iftmap implements the patch-map table of Incremental Font Transfer
(IFT) fonts.

An IFT font carries an `IFT ` table which maps subset definitions (sets of
Unicode codepoints, optionally layout-feature tags) to patches: independently
deliverable files which extend the font's glyph repertoire. This package
provides the in-memory model of such a map — entries with a coverage, a patch
index and a patch encoding — together with the binary codec for the format 2
wire representation of the table.

Clients wanting to compute which patches a font should be split into will use
the sister package iftseg; this package is only concerned with representing
and (de)serializing the mapping.

# Status

Format 2 entries may carry design-space segments and copy indices. Both are
accepted (and skipped) by the decoder, but the encoder does not produce them
yet.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package iftmap

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.ift'
func tracer() tracing.Trace {
	return tracing.Select("font.ift")
}
