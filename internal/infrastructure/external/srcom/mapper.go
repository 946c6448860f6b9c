// Package srcom implements the speedrun.com REST API client.
package srcom

import (
	"log/slog"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain conversion
// ══════════════════════════════════════════════════════════════════════════════

// Mapper normalizes leaderboard DTOs into domain run records. Row-level
// problems (missing place, missing time, unresolvable player) skip the row
// and are counted; they never fail the board.
type Mapper struct {
	logger *slog.Logger
}

// NewMapper creates a new Mapper.
func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// AppendLeaderboard normalizes one board's entries into the snapshot.
// Returns the number of records added.
func (m *Mapper) AppendLeaderboard(snapshot *run.Snapshot, board *LeaderboardDTO, track run.Track, category run.Category) int {
	players := indexPlayers(board.Players)

	added := 0
	skipped := 0

	for _, entry := range board.Runs {
		record, ok := m.mapEntry(&entry, players, track, category)
		if !ok {
			skipped++
			continue
		}

		if err := snapshot.Add(record); err != nil {
			skipped++
			m.logger.Warn("dropping invalid leaderboard entry",
				"track", string(track), "category", string(category),
				"run_id", entry.Run.ID, "error", err)
			continue
		}
		added++
	}

	if skipped > 0 {
		m.logger.Warn("skipped malformed leaderboard entries",
			"track", string(track), "category", string(category), "skipped", skipped)
	}

	return added
}

// mapEntry converts one placed run to a domain record.
func (m *Mapper) mapEntry(entry *PlacedRunDTO, players map[string]string, track run.Track, category run.Category) (*run.Record, bool) {
	// Place 0 marks obsolete/unranked runs
	if entry.Place < 1 {
		return nil, false
	}

	seconds := entry.Run.Times.BestTime()
	if seconds <= 0 {
		return nil, false
	}

	name := m.resolvePlayer(entry.Run.Players, players)
	if name == "" {
		return nil, false
	}

	formatted, err := run.FormatSeconds(seconds)
	if err != nil {
		return nil, false
	}

	record, err := run.NewRecord(
		category,
		track,
		name,
		formatted,
		entry.Place,
		entry.Run.Date,
	)
	if err != nil {
		return nil, false
	}

	return record, true
}

// resolvePlayer returns the display name of the first player on a run:
// multi-player runs are credited to the first listed runner. Guests carry
// their name inline; registered users resolve through the embedded players.
func (m *Mapper) resolvePlayer(runPlayers []RunPlayerDTO, players map[string]string) string {
	if len(runPlayers) == 0 {
		return ""
	}

	first := runPlayers[0]
	if first.Name != "" {
		return first.Name
	}
	return players[first.ID]
}

// indexPlayers builds an id -> display name index from the embedded players.
func indexPlayers(embed PlayersEmbed) map[string]string {
	index := make(map[string]string, len(embed.Data))
	for i := range embed.Data {
		p := &embed.Data[i]
		if p.ID == "" {
			continue
		}
		if name := p.DisplayName(); name != "" {
			index[p.ID] = name
		}
	}
	return index
}
