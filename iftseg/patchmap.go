package iftseg

import (
	"github.com/npillmayer/ift/iftmap"
)

// PatchMapFromSegmentation translates a segmentation into a patch map ready
// for format 2 encoding. Every entry maps the codepoints of one exclusive
// condition's segment to that condition's patch, all with the given
// encoding.
//
// Only segmentations whose conditions are all exclusive can be represented:
// format 2 entries carry plain codepoint coverages, so a conjunction or
// disjunction over several segments has no faithful wire form yet (that
// needs copy-index entries, which the encoder does not emit). A
// non-exclusive condition is rejected with KindUnsupported.
func PatchMapFromSegmentation(gs *GlyphSegmentation, encoding iftmap.PatchEncoding) (*iftmap.PatchMap, error) {
	pm := &iftmap.PatchMap{}
	for _, cond := range gs.Conditions() {
		if !cond.IsExclusive() {
			return nil, iftmap.Errorf(iftmap.KindUnsupported, "patchMap",
				"condition %s is not exclusive; complex conditions have no wire form yet", cond)
		}
		index := cond.Clauses()[0][0]
		if int(index) >= len(gs.Segments()) {
			return nil, iftmap.Errorf(iftmap.KindInternal, "patchMap",
				"condition references segment %d outside of segment list", index)
		}
		pm.AddEntry(iftmap.Coverage{
			Codepoints: gs.Segments()[index].Clone(),
		}, uint32(cond.Activated()), encoding)
	}
	return pm, nil
}
