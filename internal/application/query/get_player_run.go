// Package query contains read operations (CQRS - Queries).
//
// Queries only read last-committed state. They never observe a poll
// cycle that is still in flight.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAYER RUN QUERY
// Looks up one player's best known run on a single board. This backs the
// /ilranking command: "where does this player stand on this track?"
// ══════════════════════════════════════════════════════════════════════════════

// ShortformUsage is the reply for a shortform no track matches.
const ShortformUsage = "Unknown track shortform. Use cc, mmm, ii, ss, mms or ww, with a 100 suffix for 100 Points (e.g. cc100)."

// NoRunMessage is the reply when the player has no run on the board.
const NoRunMessage = "no run matching that username"

// GetPlayerRunQuery contains parameters for a single-run lookup.
type GetPlayerRunQuery struct {
	// Shortform identifies the board, e.g. "cc" or "mmm100".
	Shortform string

	// Player is the player name to look up. Matched case-insensitively.
	Player string
}

// Validate checks the query parameters.
func (q *GetPlayerRunQuery) Validate() error {
	if strings.TrimSpace(q.Shortform) == "" {
		return errors.New("shortform must be provided")
	}
	if strings.TrimSpace(q.Player) == "" {
		return errors.New("player must be provided")
	}
	return nil
}

// PlayerRunDTO describes one found run.
type PlayerRunDTO struct {
	// Track is the race course name.
	Track string `json:"track"`

	// Category is the scoring mode, "Time Attack" or "100 Points".
	Category string `json:"category"`

	// Player is the runner's display name as the board records it.
	Player string `json:"player"`

	// Time is the formatted in-game time, "M:SS.HH".
	Time string `json:"time"`

	// Place is the run's rank on the board.
	Place int `json:"place"`

	// Date is the run's ISO date, empty when the board has none.
	Date string `json:"date,omitempty"`
}

// GetPlayerRunResult contains the lookup outcome.
type GetPlayerRunResult struct {
	// Found reports whether a run matched.
	Found bool `json:"found"`

	// Run is the matched run, nil when not found.
	Run *PlayerRunDTO `json:"run,omitempty"`

	// Message is the ready-to-send reply text.
	Message string `json:"message"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetPlayerRunHandler handles single-run lookups.
type GetPlayerRunHandler struct {
	repo      run.Repository
	standings *redis.StandingsCache
}

// NewGetPlayerRunHandler creates a new handler.
// The standings cache may be nil when Redis is not configured.
func NewGetPlayerRunHandler(repo run.Repository, standings *redis.StandingsCache) *GetPlayerRunHandler {
	return &GetPlayerRunHandler{
		repo:      repo,
		standings: standings,
	}
}

// Handle executes the lookup.
func (h *GetPlayerRunHandler) Handle(ctx context.Context, query GetPlayerRunQuery) (*GetPlayerRunResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetPlayerRun", shared.ErrValidation, err.Error(), err)
	}

	track, category, err := run.ParseShortform(query.Shortform)
	if err != nil {
		// An unrecognized shortform is a user mistake, not a failure.
		return &GetPlayerRunResult{
			Found:       false,
			Message:     ShortformUsage,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	record, err := h.findRun(ctx, category, track, query.Player)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &GetPlayerRunResult{
				Found:       false,
				Message:     NoRunMessage,
				GeneratedAt: time.Now().UTC(),
			}, nil
		}
		return nil, shared.WrapError("query", "GetPlayerRun", shared.ErrServiceUnavailable, "looking up run", err)
	}

	return &GetPlayerRunResult{
		Found: true,
		Run: &PlayerRunDTO{
			Track:    record.Track.String(),
			Category: record.Category.String(),
			Player:   record.Player,
			Time:     record.Time,
			Place:    record.Place,
			Date:     record.Date,
		},
		Message:     FormatRunLine(record),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// findRun reads through the cache when one is configured.
func (h *GetPlayerRunHandler) findRun(ctx context.Context, category run.Category, track run.Track, player string) (*run.Record, error) {
	if h.standings != nil {
		if record, err := h.standings.CachedRun(ctx, category, track, player); err == nil {
			return record, nil
		}
	}

	record, err := h.repo.FindRun(ctx, category, track, player)
	if err != nil {
		return nil, err
	}

	if h.standings != nil {
		_ = h.standings.StoreRun(ctx, record)
	}

	return record, nil
}

// FormatRunLine renders one run as a reply line.
func FormatRunLine(r *run.Record) string {
	return fmt.Sprintf("%s - %s in %s by %s, %s place",
		r.Track, r.Category, r.Time, r.Player, run.Ordinal(r.Place))
}
