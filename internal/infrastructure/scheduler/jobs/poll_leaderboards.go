// Package jobs contains implementations of scheduled jobs for Groovy Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// POLL LEADERBOARDS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PollLeaderboardsJob runs one full poll cycle against the speedrun.com
// leaderboards: fetch a fresh snapshot, score it, diff it against the
// previously committed snapshot, announce what changed, and commit the
// new state in a single transaction.
//
// The cycle follows a fixed decision table:
//
//	new runs | ranking changed | action
//	---------+-----------------+------------------------------------------
//	yes      | yes             | announce runs, announce new table, commit
//	yes      | no              | announce runs, announce "unchanged", commit
//	no       | yes             | announce new table, commit
//	no       | no              | nothing
type PollLeaderboardsJob struct {
	// Dependencies
	fetcher   run.Fetcher
	repo      run.Repository
	notifier  run.Notifier
	standings *redis.StandingsCache
	logger    *slog.Logger

	// Configuration
	config PollLeaderboardsConfig

	// State
	inFlight       atomic.Bool
	lastCycleStats atomic.Value // *CycleStats
}

// PollLeaderboardsConfig contains configuration for the poll job.
type PollLeaderboardsConfig struct {
	// Timeout is the maximum duration for one poll cycle.
	Timeout time.Duration

	// AnnounceOnBootstrap controls whether the very first cycle against an
	// empty store announces every run it finds. When false the first cycle
	// commits silently and announcements start from the second cycle.
	AnnounceOnBootstrap bool
}

// DefaultPollLeaderboardsConfig returns sensible defaults.
func DefaultPollLeaderboardsConfig() PollLeaderboardsConfig {
	return PollLeaderboardsConfig{
		Timeout:             5 * time.Minute,
		AnnounceOnBootstrap: false,
	}
}

// CycleStats contains statistics from one poll cycle.
type CycleStats struct {
	CycleID        string
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	RunsFetched    int
	NewRuns        int
	RankingChanged bool
	Committed      bool
	Bootstrap      bool
	Errors         []error
}

// NewPollLeaderboardsJob creates a new poll leaderboards job.
// The standings cache may be nil when Redis is not configured.
func NewPollLeaderboardsJob(
	fetcher run.Fetcher,
	repo run.Repository,
	notifier run.Notifier,
	standings *redis.StandingsCache,
	logger *slog.Logger,
	config PollLeaderboardsConfig,
) *PollLeaderboardsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &PollLeaderboardsJob{
		fetcher:   fetcher,
		repo:      repo,
		notifier:  notifier,
		standings: standings,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *PollLeaderboardsJob) Name() string {
	return "poll_leaderboards"
}

// Description returns a human-readable description.
func (j *PollLeaderboardsJob) Description() string {
	return "Polls speedrun.com IL leaderboards, announces new runs and ranking changes"
}

// Run executes one poll cycle.
// At most one cycle is ever in flight; a second call while a cycle is
// running fails fast without touching any state.
func (j *PollLeaderboardsJob) Run(ctx context.Context) error {
	if !j.inFlight.CompareAndSwap(false, true) {
		return shared.ErrCycleInFlight
	}
	defer j.inFlight.Store(false)

	startedAt := time.Now()
	stats := &CycleStats{
		CycleID:   run.NewSnapshotID(),
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}
	defer func() {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(startedAt)
		j.lastCycleStats.Store(stats)
	}()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	j.logger.Info("poll cycle started", "cycle_id", stats.CycleID)

	// Fetch
	snapshot, err := j.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetching leaderboard snapshot: %w", err)
	}
	stats.RunsFetched = snapshot.Count()

	// An empty snapshot means every board came back bare, which only
	// happens when the API is misbehaving. Never wipe committed state
	// over it.
	if snapshot.IsEmpty() {
		j.logger.Warn("empty snapshot fetched, skipping cycle", "cycle_id", stats.CycleID)
		return nil
	}

	// Score and render
	scores := run.ComputeScores(snapshot)
	table := run.RenderTable(run.BuildRanking(scores))

	// Load previous state
	prevKeys, err := j.repo.PreviousKeys(ctx)
	if err != nil {
		return fmt.Errorf("loading previous snapshot keys: %w", err)
	}
	prevTable, err := j.repo.RankingTable(ctx)
	if err != nil {
		return fmt.Errorf("loading previous ranking table: %w", err)
	}

	// Diff and decide
	newRuns := snapshot.Diff(prevKeys)
	stats.NewRuns = len(newRuns)
	stats.RankingChanged = table != prevTable
	stats.Bootstrap = len(prevKeys) == 0 && prevTable == ""

	j.logger.Info("poll cycle diffed",
		"cycle_id", stats.CycleID,
		"runs_fetched", stats.RunsFetched,
		"new_runs", stats.NewRuns,
		"ranking_changed", stats.RankingChanged,
		"bootstrap", stats.Bootstrap,
	)

	if stats.NewRuns == 0 && !stats.RankingChanged {
		return nil
	}

	// Announce
	if stats.Bootstrap && !j.config.AnnounceOnBootstrap {
		j.logger.Info("bootstrap cycle, committing without announcements",
			"cycle_id", stats.CycleID,
		)
	} else {
		j.announce(ctx, newRuns, table, stats)
	}

	// Commit
	state := run.PersistedState{
		Snapshot:     snapshot,
		Scores:       scores,
		RankingTable: table,
	}
	if err := j.repo.ReplaceState(ctx, state); err != nil {
		return fmt.Errorf("committing cycle state: %w", err)
	}
	stats.Committed = true

	j.refreshCache(ctx, table, scores)

	j.logger.Info("poll cycle completed",
		"cycle_id", stats.CycleID,
		"new_runs", stats.NewRuns,
		"ranking_changed", stats.RankingChanged,
		"duration", time.Since(startedAt).String(),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("cycle committed with %d notification errors", len(stats.Errors))
	}

	return nil
}

// announce sends the notifications the decision table calls for.
// Notification failures are recorded but never abort the commit.
func (j *PollLeaderboardsJob) announce(ctx context.Context, newRuns []*run.Record, table string, stats *CycleStats) {
	if j.notifier == nil {
		return
	}

	if len(newRuns) > 0 {
		if err := j.notifier.AnnounceNewRuns(ctx, newRuns); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to announce new runs",
				"cycle_id", stats.CycleID,
				"count", len(newRuns),
				"error", err,
			)
		}
	}

	switch {
	case stats.RankingChanged:
		if err := j.notifier.AnnounceRankings(ctx, table); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to announce ranking update",
				"cycle_id", stats.CycleID,
				"error", err,
			)
		}
	case len(newRuns) > 0:
		if err := j.notifier.AnnounceRankingsUnchanged(ctx); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to announce unchanged rankings",
				"cycle_id", stats.CycleID,
				"error", err,
			)
		}
	}
}

// refreshCache updates the standings cache after a successful commit.
// Cache failures downgrade reads to the store, so they only warn.
func (j *PollLeaderboardsJob) refreshCache(ctx context.Context, table string, scores run.ScoreTable) {
	if j.standings == nil {
		return
	}

	if err := j.standings.Invalidate(ctx); err != nil {
		j.logger.Warn("failed to invalidate standings cache", "error", err)
	}
	if err := j.standings.SetStandings(ctx, table, scores); err != nil {
		j.logger.Warn("failed to refresh standings cache", "error", err)
	}
}

// LastCycleStats returns statistics from the last completed cycle.
func (j *PollLeaderboardsJob) LastCycleStats() *CycleStats {
	stats := j.lastCycleStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*CycleStats)
}
