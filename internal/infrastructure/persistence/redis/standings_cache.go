// Package redis implements Redis caching for Groovy Hub.
package redis

import (
	"context"
	"errors"
	"strings"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
)

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS CACHE
// ══════════════════════════════════════════════════════════════════════════════

// StandingsCache keeps the last committed rendered rankings table and score
// table hot for the point-rankings command. The poll job refreshes it on
// every commit; readers fall back to PostgreSQL on a miss.
type StandingsCache struct {
	cache *Cache
}

// NewStandingsCache creates a new StandingsCache.
func NewStandingsCache(cache *Cache) *StandingsCache {
	return &StandingsCache{cache: cache}
}

// SetStandings caches the rendered table and score table together.
func (s *StandingsCache) SetStandings(ctx context.Context, table string, scores run.ScoreTable) error {
	if err := s.cache.SetString(ctx, StandingsTableKey(), table, TTLStandings); err != nil {
		return err
	}
	return s.cache.Set(ctx, StandingsScoresKey(), scores, TTLStandings)
}

// RankingTable returns the cached rendered rankings table.
// Returns ErrCacheMiss when the cache is cold.
func (s *StandingsCache) RankingTable(ctx context.Context) (string, error) {
	return s.cache.GetString(ctx, StandingsTableKey())
}

// Scores returns the cached score table.
// Returns ErrCacheMiss when the cache is cold.
func (s *StandingsCache) Scores(ctx context.Context) (run.ScoreTable, error) {
	var scores run.ScoreTable
	if err := s.cache.Get(ctx, StandingsScoresKey(), &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// Invalidate drops the cached standings and any cached run lookups.
// Called when a poll cycle commits new state.
func (s *StandingsCache) Invalidate(ctx context.Context) error {
	if err := s.cache.Delete(ctx, StandingsTableKey(), StandingsScoresKey()); err != nil {
		return err
	}
	return s.cache.DeleteByPattern(ctx, PrefixRun+"*")
}

// IsMiss reports whether an error from this cache means "not cached" rather
// than a real failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// CachedRun caches a single-run lookup result.
func (s *StandingsCache) CachedRun(ctx context.Context, category run.Category, track run.Track, player string) (*run.Record, error) {
	var record run.Record
	key := RunLookupKey(string(category), string(track), strings.ToLower(player))
	if err := s.cache.Get(ctx, key, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// StoreRun caches a single-run lookup result.
func (s *StandingsCache) StoreRun(ctx context.Context, record *run.Record) error {
	key := RunLookupKey(string(record.Category), string(record.Track), strings.ToLower(record.Player))
	return s.cache.Set(ctx, key, record, TTLRunLookup)
}
