package query

import (
	"context"
	"time"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET POINT RANKINGS QUERY
// Returns the last-committed rendered point rankings table. This backs
// the /pointrankings command.
// ══════════════════════════════════════════════════════════════════════════════

// NoRankingsMessage is the reply before the first cycle has committed.
const NoRankingsMessage = "No point rankings on file yet."

// GetPointRankingsQuery contains parameters for the rankings read.
// There are none; the table is a single persisted blob.
type GetPointRankingsQuery struct{}

// GetPointRankingsResult contains the rendered table.
type GetPointRankingsResult struct {
	// Table is the rendered rankings table, empty when none committed.
	Table string `json:"table"`

	// Message is the ready-to-send reply text.
	Message string `json:"message"`

	// FromCache reports whether the cache served the read.
	FromCache bool `json:"from_cache"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetPointRankingsHandler handles rankings-table reads.
type GetPointRankingsHandler struct {
	repo      run.Repository
	standings *redis.StandingsCache
}

// NewGetPointRankingsHandler creates a new handler.
// The standings cache may be nil when Redis is not configured.
func NewGetPointRankingsHandler(repo run.Repository, standings *redis.StandingsCache) *GetPointRankingsHandler {
	return &GetPointRankingsHandler{
		repo:      repo,
		standings: standings,
	}
}

// Handle executes the read, preferring the cache when it is warm.
func (h *GetPointRankingsHandler) Handle(ctx context.Context, _ GetPointRankingsQuery) (*GetPointRankingsResult, error) {
	if h.standings != nil {
		if table, err := h.standings.RankingTable(ctx); err == nil && table != "" {
			return &GetPointRankingsResult{
				Table:       table,
				Message:     table,
				FromCache:   true,
				GeneratedAt: time.Now().UTC(),
			}, nil
		}
	}

	table, err := h.repo.RankingTable(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetPointRankings", shared.ErrServiceUnavailable, "loading ranking table", err)
	}

	if table == "" {
		return &GetPointRankingsResult{
			Message:     NoRankingsMessage,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	return &GetPointRankingsResult{
		Table:       table,
		Message:     table,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
