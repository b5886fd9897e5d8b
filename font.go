/*
Package ift handles Incremental Font Transfer (IFT) font files.

An IFT font is an OpenType font carrying an `IFT ` patch-map table. This
package loads source fonts and rebuilds font binaries with a patch-map table
inserted. The patch-map model and wire codec live in package iftmap, the
glyph segmentation planner in package iftseg.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ift

import (
	"os"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'font.ift'
func tracer() tracing.Trace {
	return tracing.Select("font.ift")
}

// SourceFont is an in-memory representation of an outline-font of type
// TTF or OTF which patches are to be derived from.
type SourceFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// LoadFont loads an OpenType font (TTF or OTF) from a file.
func LoadFont(fontfile string) (*SourceFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseFont loads an OpenType font (TTF or OTF) from memory.
func ParseFont(fbytes []byte) (f *SourceFont, err error) {
	f = &SourceFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	if f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull); err == nil {
		tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	}
	return f, nil
}

// NumGlyphs returns the number of glyphs in the font.
func (f *SourceFont) NumGlyphs() int {
	if f == nil || f.SFNT == nil {
		return 0
	}
	return f.SFNT.NumGlyphs()
}
