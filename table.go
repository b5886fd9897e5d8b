package ift

import (
	"github.com/npillmayer/ift/iftmap"
)

// Rebuilding of font binaries: the `IFT ` table is inserted into (or
// replaced in) a copy of the source font, preserving all other tables.

// TagIFT identifies the incremental font transfer patch-map table.
var TagIFT = iftmap.T("IFT ")

// TagIFTB identifies the legacy IFTB chunk-index table.
var TagIFTB = iftmap.T("IFTB")

// TableRecord describes one entry of an sfnt table directory.
type TableRecord struct {
	Tag      iftmap.Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putU16(b []byte, v uint16) {
	b[0], b[1] = byte(v>>8), byte(v)
}

func putU32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

// Tables returns the table directory of the font, ordered by table offset
// (i.e., physical order within the file).
func (f *SourceFont) Tables() ([]TableRecord, error) {
	const dirHeaderSize = 12
	const recordSize = 16
	b := f.Binary
	if len(b) < dirHeaderSize {
		return nil, iftmap.Errorf(iftmap.KindInvalidFormat, "tableDirectory", "font binary too short")
	}
	n := int(u16(b[4:]))
	if len(b) < dirHeaderSize+n*recordSize {
		return nil, iftmap.Errorf(iftmap.KindInvalidFormat, "tableDirectory",
			"directory of %d tables exceeds font size", n)
	}
	records := make([]TableRecord, n)
	for i := 0; i < n; i++ {
		r := b[dirHeaderSize+i*recordSize:]
		records[i] = TableRecord{
			Tag:      iftmap.Tag(u32(r)),
			Checksum: u32(r[4:]),
			Offset:   u32(r[8:]),
			Length:   u32(r[12:]),
		}
		if int(records[i].Offset)+int(records[i].Length) > len(b) {
			return nil, iftmap.Errorf(iftmap.KindInvalidFormat, "tableDirectory",
				"table %s extends past end of font", records[i].Tag)
		}
	}
	// physical order, with a stable fallback on the directory order
	for i := 1; i < n; i++ {
		for j := i; j > 0 && records[j].Offset < records[j-1].Offset; j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
	return records, nil
}

// TableBytes returns the raw bytes of the table with the given tag, or
// KindNotFound.
func (f *SourceFont) TableBytes(tag iftmap.Tag) ([]byte, error) {
	records, err := f.Tables()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Tag == tag {
			return f.Binary[r.Offset : r.Offset+r.Length], nil
		}
	}
	return nil, iftmap.Errorf(iftmap.KindNotFound, "tableDirectory", "no %s table in font", tag)
}

// AddToFont copies all tables of the source font into a new font binary and
// inserts (or replaces) the `IFT ` table with the given bytes. With
// iftbConversion set, the legacy IFTB table is dropped and the table order
// required for IFTB clients is enforced: gvar before glyf, glyf before loca,
// loca last, CFF/CFF2 last. Otherwise the physical table order of the source
// font is preserved.
func AddToFont(f *SourceFont, iftData []byte, iftbConversion bool) ([]byte, error) {
	records, err := f.Tables()
	if err != nil {
		return nil, err
	}

	tags := make([]iftmap.Tag, 0, len(records)+1)
	data := make(map[iftmap.Tag][]byte, len(records)+1)
	for _, r := range records {
		if iftbConversion && r.Tag == TagIFTB {
			tracer().Debugf("dropping IFTB table during conversion")
			continue
		}
		tags = append(tags, r.Tag)
		data[r.Tag] = f.Binary[r.Offset : r.Offset+r.Length]
	}

	if _, ok := data[TagIFT]; !ok {
		tags = append(tags, TagIFT)
	}
	data[TagIFT] = iftData

	if iftbConversion {
		moveTagToBack(&tags, iftmap.T("gvar"))
		moveTagToBack(&tags, iftmap.T("glyf"))
		moveTagToBack(&tags, iftmap.T("loca"))
		moveTagToBack(&tags, iftmap.T("CFF "))
		moveTagToBack(&tags, iftmap.T("CFF2"))
	}

	return assembleFont(f, tags, data)
}

// moveTagToBack moves tag to the end of tags if present, keeping the
// relative order of all other tags.
func moveTagToBack(tags *[]iftmap.Tag, tag iftmap.Tag) {
	ts := *tags
	for i, t := range ts {
		if t == tag {
			ts = append(append(ts[:i:i], ts[i+1:]...), tag)
			*tags = ts
			return
		}
	}
}

// assembleFont builds a font binary with the tables laid out in the order
// given by tags. The table directory is sorted by tag as the sfnt spec
// requires; data placement follows tags. Table checksums and the head
// table's checkSumAdjustment are recomputed.
func assembleFont(f *SourceFont, tags []iftmap.Tag, data map[iftmap.Tag][]byte) ([]byte, error) {
	const dirHeaderSize = 12
	const recordSize = 16
	n := len(tags)
	total := dirHeaderSize + n*recordSize
	for _, tag := range tags {
		total += (len(data[tag]) + 3) &^ 3 // tables are 4-byte aligned
	}
	out := make([]byte, total)

	sfntVersion := uint32(0x00010000)
	if len(f.Binary) >= 4 {
		sfntVersion = u32(f.Binary)
	}
	putU32(out, sfntVersion)
	putU16(out[4:], uint16(n))
	pow := 1
	exp := 0
	for pow*2 <= n {
		pow *= 2
		exp++
	}
	putU16(out[6:], uint16(pow*16))      // searchRange
	putU16(out[8:], uint16(exp))         // entrySelector
	putU16(out[10:], uint16(n*16-pow*16)) // rangeShift

	// place table data in the requested order
	offsets := make(map[iftmap.Tag]uint32, n)
	pos := uint32(dirHeaderSize + n*recordSize)
	headTag := iftmap.T("head")
	for _, tag := range tags {
		b := data[tag]
		copy(out[pos:], b)
		if tag == headTag && len(b) >= 12 {
			// zero checkSumAdjustment before checksumming
			putU32(out[pos+8:], 0)
		}
		offsets[tag] = pos
		pos += uint32((len(b) + 3) &^ 3)
	}

	// directory records sorted by tag
	sorted := make([]iftmap.Tag, n)
	copy(sorted, tags)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	for i, tag := range sorted {
		r := out[dirHeaderSize+i*recordSize:]
		length := uint32(len(data[tag]))
		putU32(r, uint32(tag))
		putU32(r[4:], checksum(out[offsets[tag]:offsets[tag]+((length+3)&^3)]))
		putU32(r[8:], offsets[tag])
		putU32(r[12:], length)
	}

	// whole-font checksum goes into head.checkSumAdjustment
	if headOffset, ok := offsets[headTag]; ok && len(data[headTag]) >= 12 {
		putU32(out[headOffset+8:], 0xB1B0AFBA-checksum(out))
	}
	tracer().Debugf("assembled font with %d tables, %d bytes", n, len(out))
	return out, nil
}

// checksum sums a byte range as big-endian uint32 words, zero-padded at the
// end, per the sfnt spec.
func checksum(b []byte) uint32 {
	var sum uint32
	for len(b) >= 4 {
		sum += u32(b)
		b = b[4:]
	}
	if len(b) > 0 {
		var tail [4]byte
		copy(tail[:], b)
		sum += u32(tail[:])
	}
	return sum
}
