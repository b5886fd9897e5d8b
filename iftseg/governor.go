package iftseg

import (
	"fmt"
	"hash/fnv"
	"math"
)

// The patch-size governor reshapes candidate patches so that per-patch byte
// estimates stay within the configured bounds. It never moves a glyph
// between condition classes; it only merges or splits patches inside a
// class. Merged patches get a condition that fires whenever either of the
// original conditions fired; split patches inherit the parent's condition.

func governPatchSizes(face Face, candidates []*candidate, opts SegmentationOptions,
	notes *noteSink) []*candidate {
	//
	if opts.PatchSizeMinBytes > 0 {
		candidates = mergeSmallPatches(face, candidates, uint64(opts.PatchSizeMinBytes))
	}
	if opts.PatchSizeMaxBytes < math.MaxUint32 {
		candidates = splitLargePatches(face, candidates, uint64(opts.PatchSizeMaxBytes), notes)
	}
	return candidates
}

// mergeClass separates conjunctive from disjunctive candidates: merges only
// happen AND-with-AND and OR-with-OR (exclusive conditions count as
// single-segment disjunctions).
func mergeClass(cand *candidate) int {
	if cand.class == classFallback {
		return 2 // never merged
	}
	if len(cand.clauses) > 1 {
		return 1 // conjunctive
	}
	return 0 // disjunctive
}

// mergeSmallPatches repeatedly merges adjacent candidates of the same class
// whose combined byte estimate stays below min, until a fixpoint is reached.
func mergeSmallPatches(face Face, candidates []*candidate, min uint64) []*candidate {
	for {
		merged := false
		for i := 0; i+1 < len(candidates); i++ {
			a := candidates[i]
			// find the next candidate of a's class
			j := i + 1
			for j < len(candidates) && mergeClass(candidates[j]) != mergeClass(a) {
				j++
			}
			if j >= len(candidates) || mergeClass(a) == 2 {
				continue
			}
			b := candidates[j]
			if a.bytes(face)+b.bytes(face) >= min {
				continue
			}
			tracer().Debugf("merging undersized patches %v and %v", a.clauses, b.clauses)
			a.glyphs = a.glyphs.Union(b.glyphs)
			a.clauses = disjoinConditions(a.clauses, b.clauses)
			if len(a.clauses) > 1 {
				a.class = classAnd
			} else if len(a.clauses[0]) > 1 {
				a.class = classOr
			}
			candidates = append(candidates[:j], candidates[j+1:]...)
			merged = true
			break
		}
		if !merged {
			return candidates
		}
	}
}

// splitLargePatches partitions any candidate whose byte estimate exceeds max
// into the minimum number of sub-patches meeting the ceiling, using a stable
// hash of the glyph id. Sub-patches inherit the parent's condition. A glyph
// that alone exceeds the ceiling keeps its own patch; the ceiling is relaxed
// for it and a SIZE_CEILING_EXCEEDED note is emitted.
func splitLargePatches(face Face, candidates []*candidate, max uint64,
	notes *noteSink) []*candidate {
	//
	var out []*candidate
	for _, cand := range candidates {
		size := cand.bytes(face)
		if size <= max {
			out = append(out, cand)
			continue
		}
		out = append(out, splitCandidate(face, cand, size, max, notes)...)
	}
	return out
}

func splitCandidate(face Face, cand *candidate, size, max uint64,
	notes *noteSink) []*candidate {
	//
	n := 2
	if max > 0 {
		n = int((size + max - 1) / max)
	}
	for ; n <= cand.glyphs.Len(); n++ {
		buckets := partitionByHash(cand, n)
		if bucketsWithin(face, buckets, max) {
			tracer().Debugf("split patch of %d bytes into %d sub-patches", size, len(buckets))
			return buckets
		}
	}
	// Even singletons violate the ceiling for at least one glyph: relax it.
	buckets := make([]*candidate, 0, cand.glyphs.Len())
	for seq, g := range cand.glyphs.Sorted() {
		sub := &candidate{
			class:   cand.class,
			clauses: cand.clauses,
			glyphs:  NewGlyphSet(g),
			seq:     seq,
		}
		if uint64(face.GlyphBytes(g)) > max {
			notes.add(Note{
				Code:    NoteSizeCeilingExceeded,
				Message: fmt.Sprintf("glyph %d alone exceeds patch size ceiling %d", g, max),
			})
		}
		buckets = append(buckets, sub)
	}
	return buckets
}

func partitionByHash(cand *candidate, n int) []*candidate {
	buckets := make([]*candidate, n)
	for i := range buckets {
		buckets[i] = &candidate{
			class:   cand.class,
			clauses: cand.clauses,
			glyphs:  NewGlyphSet(),
			seq:     i,
		}
	}
	for g := range cand.glyphs {
		buckets[glyphBucket(g, n)].glyphs.Add(g)
	}
	nonEmpty := buckets[:0]
	for _, b := range buckets {
		if b.glyphs.Len() > 0 {
			nonEmpty = append(nonEmpty, b)
		}
	}
	return nonEmpty
}

func bucketsWithin(face Face, buckets []*candidate, max uint64) bool {
	for _, b := range buckets {
		if b.bytes(face) > max {
			return false
		}
	}
	return true
}

// glyphBucket is a stable hash of a glyph id onto n buckets.
func glyphBucket(g GlyphID, n int) int {
	h := fnv.New32a()
	h.Write([]byte{byte(g >> 24), byte(g >> 16), byte(g >> 8), byte(g)})
	return int(h.Sum32() % uint32(n))
}
