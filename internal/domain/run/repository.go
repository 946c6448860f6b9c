package run

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTED STATE
// ══════════════════════════════════════════════════════════════════════════════

// PersistedState is the durable output of one successful poll cycle: the full
// snapshot (not bare keys, since the on-demand queries need the records), the
// score table derived from it, and the rendered rankings table. Either the
// whole state replaces the previous one or nothing changes.
type PersistedState struct {
	Snapshot     *Snapshot
	Scores       ScoreTable
	RankingTable string
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Repository is the persistence gateway for poll-cycle state. Reads always
// observe the last committed state; ReplaceState is transactional and never
// leaves a partial write behind.
type Repository interface {
	// PreviousKeys returns the identity keys of the last committed snapshot.
	// An empty set means no snapshot has been committed yet.
	PreviousKeys(ctx context.Context) (map[Key]struct{}, error)

	// Scores returns the last committed score table.
	Scores(ctx context.Context) (ScoreTable, error)

	// RankingTable returns the last committed rendered rankings table, or
	// the empty string if none has been committed.
	RankingTable(ctx context.Context) (string, error)

	// ReplaceState atomically replaces the committed runs, scores, and
	// rendered table with the given state.
	ReplaceState(ctx context.Context, state PersistedState) error

	// FindRun returns a player's run for the given track+category board.
	// The player name matches case-insensitively. Returns
	// shared.ErrRunNotFound when the player has no run on that board.
	FindRun(ctx context.Context, category Category, track Track, player string) (*Record, error)

	// WorldRecords returns all committed place-1 runs.
	WorldRecords(ctx context.Context) ([]*Record, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Fetcher produces a fresh snapshot from the external leaderboard source.
type Fetcher interface {
	// FetchSnapshot fetches and normalizes every per-level board. Row-level
	// problems are skipped inside the fetcher; an error here means the whole
	// cycle should be skipped.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// Notifier delivers poll-cycle announcements to the chat channel. The
// orchestrator only decides WHAT to announce; transport, formatting for the
// chat platform, and channel fan-out live behind this interface.
type Notifier interface {
	// AnnounceNewRuns announces newly observed runs.
	AnnounceNewRuns(ctx context.Context, runs []*Record) error

	// AnnounceRankings announces an updated rankings table.
	AnnounceRankings(ctx context.Context, table string) error

	// AnnounceRankingsUnchanged tells the channel new runs arrived but the
	// rankings did not move.
	AnnounceRankingsUnchanged(ctx context.Context) error
}
