package iftseg

import (
	"fmt"
	"strings"
)

// ActivationCondition describes when a patch must be loaded: a conjunction
// of disjunctions (CNF) over segment indices. The condition is satisfied by
// a subset definition iff every clause contains at least one segment that
// the subset definition intersects.
//
// Conditions are stored in canonical form: each clause is a sorted set of
// distinct segment indices, clauses are sorted lexicographically, and
// duplicate clauses as well as clauses strictly subsumed by another clause
// are dropped.
type ActivationCondition struct {
	clauses   []SegmentSet
	activated PatchID
	exclusive bool
	fallback  bool
}

// ExclusiveSegment constructs a condition that activates when the input
// intersects the single segment with the given index. Exclusive conditions
// map one-to-one between a segment and its patch.
func ExclusiveSegment(index SegmentIndex, activated PatchID) ActivationCondition {
	return ActivationCondition{
		clauses:   []SegmentSet{NewSegmentSet(index)},
		activated: activated,
		exclusive: true,
	}
}

// AndSegments constructs a condition that activates when the input
// intersects segment s_1 AND ... AND segment s_n.
func AndSegments(segments SegmentSet, activated PatchID) ActivationCondition {
	clauses := make([]SegmentSet, 0, len(segments))
	for _, i := range segments {
		clauses = append(clauses, NewSegmentSet(i))
	}
	return ActivationCondition{
		clauses:   canonicalClauses(clauses),
		activated: activated,
	}
}

// OrSegments constructs a condition that activates when the input intersects
// segment s_1 OR ... OR segment s_n. With isFallback set, the condition
// marks the catch-all patch absorbing residual glyphs.
func OrSegments(segments SegmentSet, activated PatchID, isFallback bool) ActivationCondition {
	return ActivationCondition{
		clauses:   []SegmentSet{append(SegmentSet{}, segments...)},
		activated: activated,
		fallback:  isFallback,
	}
}

// CompositeCondition constructs a condition from an arbitrary CNF: the input
// must intersect (s_11 OR s_12 ...) AND (s_21 OR ...) AND ...
func CompositeCondition(groups []SegmentSet, activated PatchID) ActivationCondition {
	clauses := make([]SegmentSet, 0, len(groups))
	for _, g := range groups {
		clauses = append(clauses, append(SegmentSet{}, g...))
	}
	return ActivationCondition{
		clauses:   canonicalClauses(clauses),
		activated: activated,
	}
}

// canonicalClauses sorts clauses lexicographically and drops duplicates and
// clauses strictly subsumed by (i.e., supersets of) another clause.
func canonicalClauses(clauses []SegmentSet) []SegmentSet {
	kept := make([]SegmentSet, 0, len(clauses))
	for _, c := range clauses {
		subsumed := false
		for _, other := range clauses {
			if len(other) < len(c) && c.ContainsAll(other) {
				subsumed = true
				break
			}
		}
		if subsumed {
			continue
		}
		dup := false
		for _, k := range kept {
			if k.Equal(c) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && kept[j].Compare(kept[j-1]) < 0; j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}
	return kept
}

// Clauses returns the CNF clause list of the condition. The condition is
// activated if every clause intersects the input subset definition.
func (ac ActivationCondition) Clauses() []SegmentSet {
	return ac.clauses
}

// Activated returns the patch to load when the condition is satisfied.
func (ac ActivationCondition) Activated() PatchID {
	return ac.activated
}

// IsExclusive reports whether the condition is a single segment mapping
// one-to-one to its patch.
func (ac ActivationCondition) IsExclusive() bool {
	return ac.exclusive
}

// IsFallback reports whether the condition marks the catch-all patch.
func (ac ActivationCondition) IsFallback() bool {
	return ac.fallback
}

// IsUnitary reports whether the condition consists of a single clause over a
// single segment.
func (ac ActivationCondition) IsUnitary() bool {
	return len(ac.clauses) == 1 && len(ac.clauses[0]) == 1
}

// TriggeringSegments returns the set of all segment indices that are part of
// this condition.
func (ac ActivationCondition) TriggeringSegments() SegmentSet {
	out := SegmentSet{}
	for _, c := range ac.clauses {
		out = out.Union(c)
	}
	return out
}

// Fires reports whether the condition is satisfied by a subset definition
// which intersects exactly the given segments.
func (ac ActivationCondition) Fires(active SegmentSet) bool {
	for _, c := range ac.clauses {
		if !c.Intersects(active) {
			return false
		}
	}
	return true
}

// Compare provides the total order on conditions: lexicographic over the
// clause list, then by activated patch id.
func (ac ActivationCondition) Compare(other ActivationCondition) int {
	for k := 0; k < len(ac.clauses) && k < len(other.clauses); k++ {
		if c := ac.clauses[k].Compare(other.clauses[k]); c != 0 {
			return c
		}
	}
	switch {
	case len(ac.clauses) < len(other.clauses):
		return -1
	case len(ac.clauses) > len(other.clauses):
		return 1
	case ac.activated < other.activated:
		return -1
	case ac.activated > other.activated:
		return 1
	}
	return 0
}

// String returns a human-readable representation of this condition, e.g.
// "({0} AND {1, 2}) -> p3".
func (ac ActivationCondition) String() string {
	sb := strings.Builder{}
	sb.WriteByte('(')
	for k, c := range ac.clauses {
		if k > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(c.String())
	}
	fmt.Fprintf(&sb, ") -> p%d", ac.activated)
	if ac.fallback {
		sb.WriteString(" [fallback]")
	}
	return sb.String()
}

// disjoinConditions merges two conditions into one that fires whenever
// either of the inputs fires. In CNF the disjunction of two clause lists is
// the cross product of their clauses.
func disjoinConditions(a, b []SegmentSet) []SegmentSet {
	if len(a) == 0 {
		return canonicalClauses(b)
	}
	if len(b) == 0 {
		return canonicalClauses(a)
	}
	product := make([]SegmentSet, 0, len(a)*len(b))
	for _, ca := range a {
		for _, cb := range b {
			product = append(product, ca.Union(cb))
		}
	}
	return canonicalClauses(product)
}
