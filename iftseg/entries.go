package iftseg

import (
	"sort"

	"github.com/npillmayer/ift/iftmap"
)

// ConditionEntry is the flat, encoder-oriented form of an activation
// condition. Simple entries carry a codepoint set; complex entries reference
// earlier entries by index and combine them disjunctively or conjunctively.
// Entries without an activated patch exist only as building blocks of later
// entries.
type ConditionEntry struct {
	Codepoints   iftmap.CodepointSet
	ChildIndices []int
	Conjunctive  bool
	Activated    Option[PatchID]
}

// ActivationConditionsToConditionEntries converts a list of activation
// conditions into condition entries. The conditions must be given in their
// canonical order; segments maps each referenced segment index to its
// codepoints.
//
// The entry list is built in three passes: entries for exclusive conditions
// first (in condition order), then ignored entries for every further
// referenced segment (in segment order), then per-clause disjunction entries
// and condition entries for all non-exclusive conditions. Clauses shared by
// several conditions are deduplicated.
func ActivationConditionsToConditionEntries(conditions []ActivationCondition,
	segments map[SegmentIndex]iftmap.CodepointSet) ([]ConditionEntry, error) {
	//
	var entries []ConditionEntry
	segmentEntry := make(map[SegmentIndex]int) // segment index -> entry ordinal
	clauseEntry := make(map[string]int)        // clause key -> entry ordinal

	segmentCodepoints := func(i SegmentIndex) (iftmap.CodepointSet, error) {
		cps, ok := segments[i]
		if !ok || cps.Len() == 0 {
			return nil, iftmap.Errorf(iftmap.KindInvalidFormat, "conditionEntries",
				"condition references unknown segment %d", i)
		}
		return cps, nil
	}

	// Pass 1: exclusive conditions map a segment directly to a patch.
	for _, cond := range conditions {
		if !cond.IsExclusive() {
			continue
		}
		index := cond.Clauses()[0][0]
		cps, err := segmentCodepoints(index)
		if err != nil {
			return nil, err
		}
		segmentEntry[index] = len(entries)
		clauseEntry[cond.Clauses()[0].key()] = len(entries)
		entries = append(entries, ConditionEntry{
			Codepoints: cps,
			Activated:  Some(cond.Activated()),
		})
	}

	// Pass 2: ignored base entries for all further referenced segments.
	referenced := SegmentSet{}
	for _, cond := range conditions {
		if cond.IsExclusive() {
			continue
		}
		referenced = referenced.Union(cond.TriggeringSegments())
	}
	pending := referenced[:0:0]
	for _, i := range referenced {
		if _, ok := segmentEntry[i]; !ok {
			pending = append(pending, i)
		}
	}
	sort.Slice(pending, func(a, b int) bool { return pending[a] < pending[b] })
	for _, i := range pending {
		cps, err := segmentCodepoints(i)
		if err != nil {
			return nil, err
		}
		segmentEntry[i] = len(entries)
		clauseEntry[NewSegmentSet(i).key()] = len(entries)
		entries = append(entries, ConditionEntry{
			Codepoints: cps,
			Activated:  None[PatchID](),
		})
	}

	// Pass 3: disjunction entries per clause, then one entry per condition.
	for _, cond := range conditions {
		if cond.IsExclusive() {
			continue
		}
		clauses := cond.Clauses()
		clauseOrdinals := make([]int, 0, len(clauses))
		for _, clause := range clauses {
			last := len(clauses) == 1
			ordinal, ok := clauseEntry[clause.key()]
			if !ok {
				children := make([]int, 0, len(clause))
				for _, i := range clause {
					children = append(children, segmentEntry[i])
				}
				sort.Ints(children)
				activated := None[PatchID]()
				if last {
					activated = Some(cond.Activated())
				}
				ordinal = len(entries)
				clauseEntry[clause.key()] = ordinal
				entries = append(entries, ConditionEntry{
					ChildIndices: children,
					Activated:    activated,
				})
			} else if last {
				// The single clause already exists as an ignored entry:
				// wrap it so the condition can activate its patch.
				ordinal = len(entries)
				entries = append(entries, ConditionEntry{
					ChildIndices: []int{clauseEntry[clause.key()]},
					Activated:    Some(cond.Activated()),
				})
			}
			clauseOrdinals = append(clauseOrdinals, ordinal)
		}
		if len(clauses) > 1 {
			entries = append(entries, ConditionEntry{
				ChildIndices: clauseOrdinals,
				Conjunctive:  true,
				Activated:    Some(cond.Activated()),
			})
		}
	}
	return entries, nil
}
