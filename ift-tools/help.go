package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func help() {
	text := `
Commands:
  load <fontfile>              load an OpenType font (TTF or OTF)
  font                         show the loaded font's table directory
  segment <cp,..> <cp,..> ...  compute a glyph segmentation; every argument
                               is one codepoint segment of comma-separated
                               hex codepoints, e.g.:  segment 66,69 6c
  map [uri-template]           translate the segmentation into a format 2
                               patch map and print the encoded table
  dump <tablefile>             decode and print an IFT table file
  help                         this text

Quit with <ctrl>D.
`
	pterm.Println(strings.TrimSpace(text))
}
