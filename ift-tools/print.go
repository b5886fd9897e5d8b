package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/ift/iftmap"
	"github.com/npillmayer/ift/iftseg"
	"github.com/pterm/pterm"
	"golang.org/x/text/unicode/runenames"
)

func (intp *Intp) printFontInfo() error {
	if intp.font == nil {
		return fmt.Errorf("no font loaded; use load <fontfile>")
	}
	records, err := intp.font.Tables()
	if err != nil {
		return err
	}
	pterm.Printf("font %s (%d glyphs)\n", intp.font.Fontname, intp.font.NumGlyphs())
	rows := pterm.TableData{{"Tag", "Offset", "Length"}}
	for _, r := range records {
		rows = append(rows, []string{
			r.Tag.String(),
			fmt.Sprintf("%d", r.Offset),
			fmt.Sprintf("%d", r.Length),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printSegmentation(gs *iftseg.GlyphSegmentation) {
	pterm.Printf("%d segments, %d patches, %d conditions\n",
		len(gs.Segments()), len(gs.Patches()), len(gs.Conditions()))
	for i, seg := range gs.Segments() {
		pterm.Printf("  s%d: %s\n", i, codepointList(seg))
	}
	pterm.Print(gs.String())
	for _, note := range gs.Notes() {
		pterm.Info.Println(note.String())
	}
}

func printPatchMap(pm *iftmap.PatchMap, uriTemplate string) {
	pterm.Printf("patch map with %d entries, uri template %q\n", pm.Len(), uriTemplate)
	rows := pterm.TableData{{"Patch", "Encoding", "Codepoints"}}
	for _, e := range pm.Entries() {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.PatchIndex),
			e.Encoding.String(),
			codepointList(e.Coverage.Codepoints),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		tracer().Errorf(err.Error())
	}
}

// codepointList renders a codepoint set with rune names, e.g.
// "U+0066 'LATIN SMALL LETTER F', ...". Long sets are truncated.
func codepointList(set iftmap.CodepointSet) string {
	sb := strings.Builder{}
	for i, cp := range set.Sorted() {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i >= 4 {
			fmt.Fprintf(&sb, "... (%d total)", set.Len())
			break
		}
		fmt.Fprintf(&sb, "U+%04X '%s'", cp, runenames.Name(rune(cp)))
	}
	return sb.String()
}

func hexdump(data []byte) string {
	sb := strings.Builder{}
	for i, b := range data {
		if i > 0 {
			if i%16 == 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
