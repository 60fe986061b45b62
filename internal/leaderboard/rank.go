package leaderboard

import "sort"

// pctTolerance is the paint-percentage difference treated as a tie.
const pctTolerance = 0.0001

func hasTime(e Entry) bool { return e.TimeMs != nil && *e.TimeMs > 0 }

func pct(e Entry) float64 {
	if e.PaintedPct == nil {
		return 0
	}
	return *e.PaintedPct
}

// Less reports whether a ranks above b on a ct leaderboard.
func Less(ct ChallengeType, a, b Entry) bool {
	if ct == PaintTown {
		if a.PaintedBuildings != b.PaintedBuildings {
			return a.PaintedBuildings > b.PaintedBuildings
		}
		if d := pct(a) - pct(b); d > pctTolerance || d < -pctTolerance {
			return d > 0
		}
		return a.FoundAt > b.FoundAt
	}

	switch at, bt := hasTime(a), hasTime(b); {
	case at && bt:
		if *a.TimeMs != *b.TimeMs {
			return *a.TimeMs < *b.TimeMs
		}
		return a.FoundAt < b.FoundAt
	case at != bt:
		return at
	}
	return false
}

// Sort sorts a copy of entries and keeps the top Capacity.
func Sort(ct ChallengeType, entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return Less(ct, out[i], out[j]) })
	if len(out) > Capacity {
		out = out[:Capacity]
	}
	return out
}

// Insert adds e to list and re-ranks.
func Insert(ct ChallengeType, list []Entry, e Entry) []Entry {
	merged := make([]Entry, 0, len(list)+1)
	merged = append(merged, list...)
	merged = append(merged, e)
	return Sort(ct, merged)
}
