package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeFetcher struct {
	snapshot *run.Snapshot
	err      error
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context) (*run.Snapshot, error) {
	return f.snapshot, f.err
}

type fakeRepo struct {
	prevKeys  map[run.Key]struct{}
	prevTable string

	replaced   []run.PersistedState
	replaceErr error
}

func (r *fakeRepo) PreviousKeys(ctx context.Context) (map[run.Key]struct{}, error) {
	if r.prevKeys == nil {
		return map[run.Key]struct{}{}, nil
	}
	return r.prevKeys, nil
}

func (r *fakeRepo) Scores(ctx context.Context) (run.ScoreTable, error) {
	return run.ScoreTable{}, nil
}

func (r *fakeRepo) RankingTable(ctx context.Context) (string, error) {
	return r.prevTable, nil
}

func (r *fakeRepo) ReplaceState(ctx context.Context, state run.PersistedState) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replaced = append(r.replaced, state)
	return nil
}

func (r *fakeRepo) FindRun(ctx context.Context, category run.Category, track run.Track, player string) (*run.Record, error) {
	return nil, shared.ErrRunNotFound
}

func (r *fakeRepo) WorldRecords(ctx context.Context) ([]*run.Record, error) {
	return nil, nil
}

type fakeNotifier struct {
	newRunCalls    [][]*run.Record
	rankingCalls   []string
	unchangedCalls int

	newRunsErr error
}

func (n *fakeNotifier) AnnounceNewRuns(ctx context.Context, runs []*run.Record) error {
	if n.newRunsErr != nil {
		return n.newRunsErr
	}
	n.newRunCalls = append(n.newRunCalls, runs)
	return nil
}

func (n *fakeNotifier) AnnounceRankings(ctx context.Context, table string) error {
	n.rankingCalls = append(n.rankingCalls, table)
	return nil
}

func (n *fakeNotifier) AnnounceRankingsUnchanged(ctx context.Context) error {
	n.unchangedCalls++
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func mustRecord(t *testing.T, track run.Track, player, time string, place int) *run.Record {
	t.Helper()
	r, err := run.NewRecord(run.CategoryTimeAttack, track, player, time, place, "2024-03-15")
	require.NoError(t, err)
	return r
}

func snapshotOf(t *testing.T, records ...*run.Record) *run.Snapshot {
	t.Helper()
	s := run.NewSnapshot(run.NewSnapshotID())
	for _, r := range records {
		require.NoError(t, s.Add(r))
	}
	return s
}

func tableFor(s *run.Snapshot) string {
	return run.RenderTable(run.BuildRanking(run.ComputeScores(s)))
}

func newTestJob(fetcher *fakeFetcher, repo *fakeRepo, notifier *fakeNotifier, config PollLeaderboardsConfig) *PollLeaderboardsJob {
	return NewPollLeaderboardsJob(fetcher, repo, notifier, nil, nil, config)
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestRunBootstrapCommitsSilently(t *testing.T) {
	snapshot := snapshotOf(t,
		mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1),
		mustRecord(t, run.TrackCoventryCove, "Bob", "1:16.00", 2),
	)
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}
	job := newTestJob(&fakeFetcher{snapshot: snapshot}, repo, notifier, DefaultPollLeaderboardsConfig())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, repo.replaced, 1)
	assert.Equal(t, tableFor(snapshot), repo.replaced[0].RankingTable)
	assert.Empty(t, notifier.newRunCalls)
	assert.Empty(t, notifier.rankingCalls)
	assert.Zero(t, notifier.unchangedCalls)

	stats := job.LastCycleStats()
	require.NotNil(t, stats)
	assert.True(t, stats.Bootstrap)
	assert.True(t, stats.Committed)
	assert.Equal(t, 2, stats.NewRuns)
}

func TestRunBootstrapAnnouncesWhenConfigured(t *testing.T) {
	snapshot := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))
	notifier := &fakeNotifier{}
	config := DefaultPollLeaderboardsConfig()
	config.AnnounceOnBootstrap = true
	job := newTestJob(&fakeFetcher{snapshot: snapshot}, &fakeRepo{}, notifier, config)

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, notifier.newRunCalls, 1)
	assert.Len(t, notifier.rankingCalls, 1)
}

func TestRunNewRunsAndRankingChanged(t *testing.T) {
	previous := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))
	current := snapshotOf(t,
		mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 2),
		mustRecord(t, run.TrackCoventryCove, "Carol", "1:14.00", 1),
	)
	repo := &fakeRepo{prevKeys: previous.Keys(), prevTable: tableFor(previous)}
	notifier := &fakeNotifier{}
	job := newTestJob(&fakeFetcher{snapshot: current}, repo, notifier, DefaultPollLeaderboardsConfig())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, notifier.newRunCalls, 1)
	require.Len(t, notifier.newRunCalls[0], 1)
	assert.Equal(t, "Carol", notifier.newRunCalls[0][0].Player)

	require.Len(t, notifier.rankingCalls, 1)
	assert.Equal(t, tableFor(current), notifier.rankingCalls[0])
	assert.Zero(t, notifier.unchangedCalls)

	require.Len(t, repo.replaced, 1)
}

func TestRunNewRunsButRankingUnchanged(t *testing.T) {
	current := snapshotOf(t,
		mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1),
		mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.80", 2),
	)
	previous := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))

	// The committed table already matches what this cycle renders, so only
	// the run diff changes.
	repo := &fakeRepo{prevKeys: previous.Keys(), prevTable: tableFor(current)}
	notifier := &fakeNotifier{}
	job := newTestJob(&fakeFetcher{snapshot: current}, repo, notifier, DefaultPollLeaderboardsConfig())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, notifier.newRunCalls, 1)
	assert.Empty(t, notifier.rankingCalls)
	assert.Equal(t, 1, notifier.unchangedCalls)
	require.Len(t, repo.replaced, 1)
}

func TestRunRankingChangedWithoutNewRuns(t *testing.T) {
	current := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))
	repo := &fakeRepo{prevKeys: current.Keys(), prevTable: "stale table"}
	notifier := &fakeNotifier{}
	job := newTestJob(&fakeFetcher{snapshot: current}, repo, notifier, DefaultPollLeaderboardsConfig())

	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, notifier.newRunCalls)
	require.Len(t, notifier.rankingCalls, 1)
	assert.Zero(t, notifier.unchangedCalls)
	require.Len(t, repo.replaced, 1)
}

func TestRunNoChangeDoesNothing(t *testing.T) {
	current := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))
	repo := &fakeRepo{prevKeys: current.Keys(), prevTable: tableFor(current)}
	notifier := &fakeNotifier{}
	job := newTestJob(&fakeFetcher{snapshot: current}, repo, notifier, DefaultPollLeaderboardsConfig())

	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, repo.replaced)
	assert.Empty(t, notifier.newRunCalls)
	assert.Empty(t, notifier.rankingCalls)
	assert.Zero(t, notifier.unchangedCalls)
}

func TestRunFetchErrorSkipsCycle(t *testing.T) {
	repo := &fakeRepo{}
	job := newTestJob(&fakeFetcher{err: errors.New("api down")}, repo, &fakeNotifier{}, DefaultPollLeaderboardsConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, repo.replaced)
}

func TestRunEmptySnapshotNeverWipesState(t *testing.T) {
	repo := &fakeRepo{prevKeys: map[run.Key]struct{}{"some|key": {}}, prevTable: "committed table"}
	job := newTestJob(&fakeFetcher{snapshot: run.NewSnapshot(run.NewSnapshotID())}, repo, &fakeNotifier{}, DefaultPollLeaderboardsConfig())

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, repo.replaced)
}

func TestRunNotificationFailureStillCommits(t *testing.T) {
	previous := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))
	current := snapshotOf(t,
		mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 2),
		mustRecord(t, run.TrackCoventryCove, "Carol", "1:14.00", 1),
	)
	repo := &fakeRepo{prevKeys: previous.Keys(), prevTable: tableFor(previous)}
	notifier := &fakeNotifier{newRunsErr: errors.New("discord down")}
	job := newTestJob(&fakeFetcher{snapshot: current}, repo, notifier, DefaultPollLeaderboardsConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notification errors")

	require.Len(t, repo.replaced, 1)
	stats := job.LastCycleStats()
	require.NotNil(t, stats)
	assert.True(t, stats.Committed)
	assert.Len(t, stats.Errors, 1)
}

func TestRunCommitFailure(t *testing.T) {
	snapshot := snapshotOf(t, mustRecord(t, run.TrackCoventryCove, "Alice", "1:15.50", 1))
	repo := &fakeRepo{replaceErr: errors.New("db down")}
	job := newTestJob(&fakeFetcher{snapshot: snapshot}, repo, &fakeNotifier{}, DefaultPollLeaderboardsConfig())

	err := job.Run(context.Background())
	require.Error(t, err)

	stats := job.LastCycleStats()
	require.NotNil(t, stats)
	assert.False(t, stats.Committed)
}

func TestRunRejectsOverlappingCycle(t *testing.T) {
	job := newTestJob(&fakeFetcher{snapshot: run.NewSnapshot("s")}, &fakeRepo{}, &fakeNotifier{}, DefaultPollLeaderboardsConfig())

	job.inFlight.Store(true)
	err := job.Run(context.Background())
	assert.ErrorIs(t, err, shared.ErrCycleInFlight)
}
