package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

// fakeRepo is an in-memory run.Repository for handler tests.
type fakeRepo struct {
	runs         []*run.Record
	worldRecords []*run.Record
	rankingTable string

	findErr  error
	tableErr error
}

func (r *fakeRepo) PreviousKeys(ctx context.Context) (map[run.Key]struct{}, error) {
	return map[run.Key]struct{}{}, nil
}

func (r *fakeRepo) Scores(ctx context.Context) (run.ScoreTable, error) {
	return run.ScoreTable{}, nil
}

func (r *fakeRepo) RankingTable(ctx context.Context) (string, error) {
	return r.rankingTable, r.tableErr
}

func (r *fakeRepo) ReplaceState(ctx context.Context, state run.PersistedState) error {
	return nil
}

func (r *fakeRepo) FindRun(ctx context.Context, category run.Category, track run.Track, player string) (*run.Record, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, rec := range r.runs {
		if rec.Category == category && rec.Track == track && strings.EqualFold(rec.Player, player) {
			return rec, nil
		}
	}
	return nil, shared.ErrRunNotFound
}

func (r *fakeRepo) WorldRecords(ctx context.Context) ([]*run.Record, error) {
	return r.worldRecords, nil
}

func record(t *testing.T, category run.Category, track run.Track, player, time string, place int, date string) *run.Record {
	t.Helper()
	rec, err := run.NewRecord(category, track, player, time, place, date)
	require.NoError(t, err)
	return rec
}

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAYER RUN
// ══════════════════════════════════════════════════════════════════════════════

func TestGetPlayerRunFound(t *testing.T) {
	repo := &fakeRepo{runs: []*run.Record{
		record(t, run.CategoryTimeAttack, run.TrackCoventryCove, "Alice", "1:15.50", 3, "2024-03-15"),
	}}
	handler := NewGetPlayerRunHandler(repo, nil)

	result, err := handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "cc", Player: "alice"})
	require.NoError(t, err)

	assert.True(t, result.Found)
	require.NotNil(t, result.Run)
	assert.Equal(t, "Coventry Cove", result.Run.Track)
	assert.Equal(t, "Time Attack", result.Run.Category)
	assert.Equal(t, 3, result.Run.Place)
	assert.Equal(t, "Coventry Cove - Time Attack in 1:15.50 by Alice, 3rd place", result.Message)
}

func TestGetPlayerRunHundredSuffix(t *testing.T) {
	repo := &fakeRepo{runs: []*run.Record{
		record(t, run.CategoryHundred, run.TrackWickedWoods, "Bob", "2:01.00", 1, "2024-01-01"),
	}}
	handler := NewGetPlayerRunHandler(repo, nil)

	result, err := handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "ww100", Player: "Bob"})
	require.NoError(t, err)

	assert.True(t, result.Found)
	assert.Equal(t, "100 Points", result.Run.Category)
}

func TestGetPlayerRunUnknownShortform(t *testing.T) {
	handler := NewGetPlayerRunHandler(&fakeRepo{}, nil)

	result, err := handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "xx", Player: "Alice"})
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.Nil(t, result.Run)
	assert.Equal(t, ShortformUsage, result.Message)
}

func TestGetPlayerRunNotFound(t *testing.T) {
	handler := NewGetPlayerRunHandler(&fakeRepo{}, nil)

	result, err := handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "cc", Player: "Nobody"})
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.Equal(t, NoRunMessage, result.Message)
}

func TestGetPlayerRunValidation(t *testing.T) {
	handler := NewGetPlayerRunHandler(&fakeRepo{}, nil)

	_, err := handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "", Player: "Alice"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "cc", Player: "  "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetPlayerRunRepoFailure(t *testing.T) {
	handler := NewGetPlayerRunHandler(&fakeRepo{findErr: errors.New("db down")}, nil)

	_, err := handler.Handle(context.Background(), GetPlayerRunQuery{Shortform: "cc", Player: "Alice"})
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LONGEST STANDING
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLongestStandingOrdersOldestFirst(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{worldRecords: []*run.Record{
		record(t, run.CategoryTimeAttack, run.TrackCoventryCove, "Alice", "1:15.50", 1, "2024-03-01"),
		record(t, run.CategoryTimeAttack, run.TrackWickedWoods, "Bob", "1:40.00", 1, "2023-06-01"),
		record(t, run.CategoryHundred, run.TrackMountMayhem, "Carol", "2:10.00", 1, "2024-03-14"),
	}}
	handler := NewGetLongestStandingHandler(repo)

	result, err := handler.Handle(context.Background(), GetLongestStandingQuery{Now: now})
	require.NoError(t, err)

	require.Len(t, result.Records, 3)
	assert.Equal(t, "Bob", result.Records[0].Player)
	assert.Equal(t, "Alice", result.Records[1].Player)
	assert.Equal(t, "Carol", result.Records[2].Player)
	assert.Equal(t, 1, result.Records[2].AgeDays)

	lines := strings.Split(result.Message, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Mount Mayhem - 100 Points in 2:10.00 by Carol, 1 day old", lines[2])
}

func TestGetLongestStandingSkipsUndatedRecords(t *testing.T) {
	undated, err := run.NewRecord(run.CategoryTimeAttack, run.TrackInfernoIsle, "Dave", "1:30.00", 1, "")
	require.NoError(t, err)

	repo := &fakeRepo{worldRecords: []*run.Record{
		undated,
		record(t, run.CategoryTimeAttack, run.TrackCoventryCove, "Alice", "1:15.50", 1, "2024-03-01"),
	}}
	handler := NewGetLongestStandingHandler(repo)

	result, err := handler.Handle(context.Background(), GetLongestStandingQuery{Now: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Alice", result.Records[0].Player)
}

func TestGetLongestStandingLimit(t *testing.T) {
	repo := &fakeRepo{worldRecords: []*run.Record{
		record(t, run.CategoryTimeAttack, run.TrackCoventryCove, "Alice", "1:15.50", 1, "2024-03-01"),
		record(t, run.CategoryTimeAttack, run.TrackWickedWoods, "Bob", "1:40.00", 1, "2023-06-01"),
	}}
	handler := NewGetLongestStandingHandler(repo)

	result, err := handler.Handle(context.Background(), GetLongestStandingQuery{
		Limit: 1,
		Now:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Bob", result.Records[0].Player)
}

func TestGetLongestStandingEmpty(t *testing.T) {
	handler := NewGetLongestStandingHandler(&fakeRepo{})

	result, err := handler.Handle(context.Background(), GetLongestStandingQuery{})
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Equal(t, NoWorldRecordsMessage, result.Message)
}

func TestGetLongestStandingValidation(t *testing.T) {
	handler := NewGetLongestStandingHandler(&fakeRepo{})

	_, err := handler.Handle(context.Background(), GetLongestStandingQuery{Limit: -1})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET POINT RANKINGS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetPointRankings(t *testing.T) {
	handler := NewGetPointRankingsHandler(&fakeRepo{rankingTable: "the table"}, nil)

	result, err := handler.Handle(context.Background(), GetPointRankingsQuery{})
	require.NoError(t, err)

	assert.Equal(t, "the table", result.Table)
	assert.Equal(t, "the table", result.Message)
	assert.False(t, result.FromCache)
}

func TestGetPointRankingsEmpty(t *testing.T) {
	handler := NewGetPointRankingsHandler(&fakeRepo{}, nil)

	result, err := handler.Handle(context.Background(), GetPointRankingsQuery{})
	require.NoError(t, err)

	assert.Empty(t, result.Table)
	assert.Equal(t, NoRankingsMessage, result.Message)
}

func TestGetPointRankingsRepoFailure(t *testing.T) {
	handler := NewGetPointRankingsHandler(&fakeRepo{tableErr: errors.New("db down")}, nil)

	_, err := handler.Handle(context.Background(), GetPointRankingsQuery{})
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}
