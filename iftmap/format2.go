package iftmap

import (
	"github.com/npillmayer/ift/internal/sparsebits"
)

// Format 2 wire representation of the patch map table.
//
// Header layout (all integers big-endian):
//
//	| Offset | Size | Field                |
//	|--------|------|----------------------|
//	| 0      | 1    | format = 0x02        |
//	| 1      | 4    | reserved = 0         |
//	| 5      | 4    | id                   |
//	| 9      | 1    | defaultPatchEncoding |
//	| 10     | 2    | mappingCount         |
//	| 12     | 4    | mappingsOffset       |
//	| 16     | 4    | idStringsOffset      |
//	| 20     | 2    | uriTemplateLength    |
//	| 22     | L    | uriTemplate (ASCII)  |
//
// Entry records start at mappingsOffset and begin with a flags byte which
// announces the presence of the subsequent fields.

const headerMinLength = 22

const (
	featuresBitMask    = 1 << 0
	designSpaceBitMask = 1 << 1
	copyIndicesBitMask = 1 << 2
	indexDeltaBitMask  = 1 << 3
	encodingBitMask    = 1 << 4
	codepointBitMask   = 1 << 5
	ignoreBitMask      = 1 << 6
	reservedBitMask    = 1 << 7
)

// Encode serializes a patch map into format 2 table bytes. Only entries of
// the requested segment (extension or regular) are written. On error no
// bytes are returned.
func Encode(pm *PatchMap, isExt bool, uriTemplate string) ([]byte, error) {
	for i := 0; i < len(uriTemplate); i++ {
		if uriTemplate[i] > 0x7F {
			return nil, Errorf(KindInvalidFormat, "uriTemplate", "template is not ASCII")
		}
	}
	if err := checkU16(len(uriTemplate), "uriTemplateLength"); err != nil {
		return nil, err
	}

	var emit []Entry
	for _, e := range pm.Entries() {
		if e.Extension == isExt {
			emit = append(emit, e)
		}
	}
	if err := checkU16(len(emit), "mappingCount"); err != nil {
		return nil, err
	}
	defaultEncoding := pickDefaultEncoding(emit)
	defaultValue, err := encodingToInt(defaultEncoding)
	if err != nil {
		return nil, err
	}

	w := &writer{}
	w.u8(0x02)                                          // format
	w.u32(0)                                            // reserved
	w.u32(pm.ID)                                        // id
	w.u8(defaultValue)                                  // defaultPatchEncoding
	w.u16(uint16(len(emit)))                            // mappingCount
	w.u32(uint32(headerMinLength + len(uriTemplate)))   // mappingsOffset
	w.u32(0)                                            // idStringsOffset
	w.u16(uint16(len(uriTemplate)))                     // uriTemplateLength
	w.bytes([]byte(uriTemplate))                        // uriTemplate

	lastIndex := int64(0)
	currentEncoding := defaultEncoding
	for _, e := range emit {
		if err := encodeEntry(w, e, lastIndex, currentEncoding); err != nil {
			return nil, err
		}
		lastIndex = int64(e.PatchIndex)
		currentEncoding = e.Encoding
	}
	tracer().Debugf("encoded patch map with %d entries, %d bytes", len(emit), len(w.buf))
	return w.buf, nil
}

func encodeEntry(w *writer, entry Entry, lastIndex int64, currentEncoding PatchEncoding) error {
	coverage := entry.Coverage
	features := coverage.sortedFeatures()
	hasCodepoints := coverage.Codepoints.Len() > 0
	hasFeatures := len(features) > 0
	delta := int64(entry.PatchIndex) - lastIndex - 1
	hasDelta := delta != 0
	hasEncoding := entry.Encoding != currentEncoding

	if len(coverage.DesignSpace) > 0 {
		return Errorf(KindUnsupported, "entry", "design-space coverage cannot be emitted yet")
	}

	var flags uint8
	if hasFeatures {
		flags |= featuresBitMask
	}
	if hasDelta {
		flags |= indexDeltaBitMask
	}
	if hasEncoding {
		flags |= encodingBitMask
	}
	if hasCodepoints {
		flags |= codepointBitMask
	}
	w.u8(flags)

	if hasFeatures {
		if err := checkU8(len(features), "featureCount"); err != nil {
			return err
		}
		w.u8(uint8(len(features)))
		for _, tag := range features {
			w.u32(uint32(tag))
		}
	}

	if hasDelta {
		if err := checkI16(delta, "indexDelta"); err != nil {
			return err
		}
		w.i16(int16(delta))
	}

	if hasEncoding {
		value, err := encodingToInt(entry.Encoding)
		if err != nil {
			return err
		}
		w.u8(value)
	}

	if hasCodepoints {
		bias, _ := coverage.Codepoints.Min()
		if bias > 0xFFFFFF {
			return Errorf(KindOverflow, "codepointBias", "bias %d exceeds u24 field", bias)
		}
		biased := make([]uint32, 0, coverage.Codepoints.Len())
		for _, cp := range coverage.Codepoints.Sorted() {
			biased = append(biased, cp-bias)
		}
		w.u24(bias)
		w.bytes(sparsebits.Encode(biased))
	}
	return nil
}

// Parse decodes format 2 table bytes into a patch map and the URI template.
// Decoded entries are rejected with KindInconsistent if any codepoint would
// map to two distinct patches.
func Parse(data []byte) (*PatchMap, string, error) {
	c := newCursor(data, "header")
	format := c.u8()
	if c.err != nil {
		return nil, "", c.err
	}
	if format != 2 {
		return nil, "", Errorf(KindInvalidFormat, "header", "invalid format number %d (!= 2)", format)
	}
	c.u32() // reserved
	id := c.u32()
	defaultValue := c.u8()
	mappingCount := c.u16()
	mappingsOffset := c.u32()
	c.u32() // idStringsOffset, no id strings supported yet
	uriTemplateLength := c.u16()
	uriTemplate := c.read(int(uriTemplateLength))
	if c.err != nil {
		return nil, "", c.err
	}
	defaultEncoding, err := encodingFromInt(defaultValue)
	if err != nil {
		return nil, "", err
	}

	pm := &PatchMap{ID: id}
	c.section = "entries"
	c.seek(mappingsOffset)
	state := decodeState{currentEncoding: defaultEncoding}
	for i := 0; i < int(mappingCount); i++ {
		if err := decodeEntry(c, &state, pm); err != nil {
			return nil, "", err
		}
	}
	if c.err != nil {
		return nil, "", c.err
	}
	if _, err := pm.CodepointIndex(); err != nil {
		return nil, "", err
	}
	tracer().Debugf("parsed patch map with %d entries", pm.Len())
	return pm, string(uriTemplate), nil
}

// decodeState is the running state of the entry state machines: the entry
// index advances by one per record plus an optional signed delta, and the
// current encoding is sticky once overridden.
type decodeState struct {
	entryIndex      int64
	currentEncoding PatchEncoding
}

func decodeEntry(c *cursor, state *decodeState, pm *PatchMap) error {
	flags := c.u8()
	if c.err != nil {
		return c.err
	}
	if flags&reservedBitMask != 0 {
		return Errorf(KindInvalidFormat, "entry", "reserved flag bit 7 is set")
	}

	coverage := Coverage{Codepoints: NewCodepointSet()}

	if flags&featuresBitMask != 0 {
		featureCount := c.u8()
		for i := 0; i < int(featureCount); i++ {
			coverage.Features = append(coverage.Features, Tag(c.u32()))
		}
	}

	if flags&designSpaceBitMask != 0 {
		// Design-space segments are not interpreted yet, skip over them.
		segmentCount := c.u16()
		c.skip(int(segmentCount) * 12)
	}

	if flags&copyIndicesBitMask != 0 {
		// Copy indices are not interpreted yet, skip over them.
		copyCount := c.u16()
		c.skip(int(copyCount) * 2)
	}

	state.entryIndex++
	if flags&indexDeltaBitMask != 0 {
		state.entryIndex += int64(c.i16())
	}
	if state.entryIndex < 0 || state.entryIndex > 0xFFFFFFFF {
		return Errorf(KindOverflow, "entry", "entry index %d out of range", state.entryIndex)
	}

	if flags&encodingBitMask != 0 {
		encoding, err := encodingFromInt(c.u8())
		if err != nil && c.err == nil {
			return err
		}
		state.currentEncoding = encoding
	}

	if flags&codepointBitMask != 0 {
		bias := c.u24()
		if c.err != nil {
			return c.err
		}
		values, consumed, err := sparsebits.Decode(c.rest())
		if err != nil {
			return WrapError(err, KindInvalidFormat, "codepointSet")
		}
		c.skip(consumed)
		for _, v := range values {
			cp := uint64(v) + uint64(bias)
			if cp > 0xFFFFFFFF {
				return Errorf(KindOverflow, "codepointSet", "biased codepoint %d out of range", cp)
			}
			coverage.Codepoints.Add(uint32(cp))
		}
	}

	if c.err != nil {
		return c.err
	}
	if flags&ignoreBitMask == 0 {
		pm.AddEntry(coverage, uint32(state.entryIndex), state.currentEncoding)
	}
	return nil
}
