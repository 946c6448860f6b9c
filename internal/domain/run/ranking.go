package run

import (
	"fmt"
	"sort"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ORDINALS
// ══════════════════════════════════════════════════════════════════════════════

// Ordinal formats a positive integer as an English ordinal: 1st, 2nd, 3rd,
// 4th... The 11th to 13th of any hundred always take "th" (11th, 112th, 213th).
func Ordinal(n int) string {
	suffix := "th"
	if rem := n % 100; rem < 11 || rem > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// RankingEntry is one row of the point rankings.
type RankingEntry struct {
	// Position is the displayed ordinal ("1st", "3rd", ...). Tied players
	// share the position of the first player in the tie group.
	Position string

	// Score is the player's total points.
	Score int

	// Player is the player's display name.
	Player string
}

// BuildRanking orders a score table into display rows. Players are sorted by
// score descending with player name ascending as the tie-break, so the output
// is deterministic for a given table. Consecutive equal scores share the
// displayed position of the first player in the group; the next distinct
// score resumes at its true position (competition ranking: 1st, 1st, 3rd).
func BuildRanking(scores ScoreTable) []RankingEntry {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})

	entries := make([]RankingEntry, 0, len(names))
	prevScore := 0
	prevPos := 0
	for i, name := range names {
		pos := i + 1
		if i > 0 && scores[name] == prevScore {
			pos = prevPos
		} else {
			prevPos = pos
			prevScore = scores[name]
		}
		entries = append(entries, RankingEntry{
			Position: Ordinal(pos),
			Score:    scores[name],
			Player:   name,
		})
	}
	return entries
}

// ══════════════════════════════════════════════════════════════════════════════
// TABLE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// Column headers of the rendered rankings table.
const (
	colPos   = "Pos"
	colScore = "Score"
	colName  = "Name"
)

// RenderTable renders ranking entries as a monospace box table:
//
//	+-----+-------+-------+
//	| Pos | Score | Name  |
//	+-----+-------+-------+
//	| 1st |   100 | Alice |
//	+-----+-------+-------+
//
// Pos and Score are right-aligned, Name is left-aligned. The rendered text is
// persisted verbatim and compared between cycles to decide whether rankings
// changed, so rendering must stay deterministic.
func RenderTable(entries []RankingEntry) string {
	posW := len(colPos)
	scoreW := len(colScore)
	nameW := len(colName)
	for _, e := range entries {
		if w := len(e.Position); w > posW {
			posW = w
		}
		if w := len(fmt.Sprintf("%d", e.Score)); w > scoreW {
			scoreW = w
		}
		if w := len(e.Player); w > nameW {
			nameW = w
		}
	}

	var sb strings.Builder
	border := fmt.Sprintf("+-%s-+-%s-+-%s-+",
		strings.Repeat("-", posW),
		strings.Repeat("-", scoreW),
		strings.Repeat("-", nameW),
	)

	sb.WriteString(border)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("| %*s | %*s | %-*s |\n", posW, colPos, scoreW, colScore, nameW, colName))
	sb.WriteString(border)
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %*s | %*d | %-*s |\n", posW, e.Position, scoreW, e.Score, nameW, e.Player))
	}
	sb.WriteString(border)

	return sb.String()
}
