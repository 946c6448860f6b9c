package run

// ══════════════════════════════════════════════════════════════════════════════
// SCORING
// ══════════════════════════════════════════════════════════════════════════════

// The placement-to-points curve. First place is rewarded with a 3-point gap
// over second; from third place down the curve decreases by one point per
// place and bottoms out at zero.
const (
	firstPlacePoints  = 100
	secondPlacePoints = 97
	curveBase         = 98
)

// Points returns the points awarded for a placement.
//
//	place 1 → 100
//	place 2 → 97
//	place p ≥ 3 → max(0, 98−p)
//
// Non-positive placements score zero; they never occur in validated records.
func Points(place int) int {
	switch {
	case place < 1:
		return 0
	case place == 1:
		return firstPlacePoints
	case place == 2:
		return secondPlacePoints
	default:
		if pts := curveBase - place; pts > 0 {
			return pts
		}
		return 0
	}
}

// ScoreTable maps player name to total score.
type ScoreTable map[string]int

// ComputeScores aggregates a snapshot into per-player totals. A player earns
// points independently for every board they appear on, so one player can
// collect up to twelve placements (six tracks, two categories).
func ComputeScores(s *Snapshot) ScoreTable {
	scores := make(ScoreTable)
	for _, r := range s.records {
		scores[r.Player] += Points(r.Place)
	}
	return scores
}

// Equal reports whether two score tables hold identical totals.
func (t ScoreTable) Equal(other ScoreTable) bool {
	if len(t) != len(other) {
		return false
	}
	for name, score := range t {
		if otherScore, ok := other[name]; !ok || otherScore != score {
			return false
		}
	}
	return true
}
