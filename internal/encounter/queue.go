package encounter

import "sort"

// Assemble merges the anonymous waiting queue with a nurse's own encounters
// into serving order. Duplicate IDs keep their first occurrence, so entries
// from the waiting set win over owned duplicates. Ordering is severity
// descending (higher score is higher acuity here), then creation time
// ascending. The sort is stable: equal keys retain input order.
//
// Assemble performs no I/O and never mutates its inputs.
func Assemble(waiting, owned []*Encounter) []*Encounter {
	merged := make([]*Encounter, 0, len(waiting)+len(owned))
	seen := make(map[string]struct{}, len(waiting)+len(owned))

	for _, set := range [][]*Encounter{waiting, owned} {
		for _, e := range set {
			if e == nil || e.ID == "" {
				continue
			}
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		si, sj := severityOf(merged[i]), severityOf(merged[j])
		if si != sj {
			return si > sj
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	return merged
}

// severityOf reads the denormalized severity, falling back to the severity
// recorded inside the triage map, then to the lowest acuity.
func severityOf(e *Encounter) int {
	if e.Severity > 0 {
		return e.Severity
	}
	if e.Triage != nil {
		if v, ok := asInt(e.Triage["severity"]); ok && v > 0 {
			return v
		}
	}
	return 1
}

// asInt coerces the numeric types json decoding can produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
