package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
	"github.com/groovy-hub/groovy-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LONGEST STANDING QUERY
// Lists the current world records ordered by how long they have stood.
// This backs the /longeststanding command.
// ══════════════════════════════════════════════════════════════════════════════

// NoWorldRecordsMessage is the reply when no world records are committed yet.
const NoWorldRecordsMessage = "No world records on file yet."

// GetLongestStandingQuery contains parameters for the world-record listing.
type GetLongestStandingQuery struct {
	// Limit caps how many records to return. Zero means all.
	Limit int

	// Now overrides the reference time for age calculation. Zero means
	// the current UTC time. Non-zero values are used by tests.
	Now time.Time
}

// Validate checks the query parameters.
func (q *GetLongestStandingQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	return nil
}

// WorldRecordDTO describes one standing world record.
type WorldRecordDTO struct {
	// Track is the race course name.
	Track string `json:"track"`

	// Category is the scoring mode.
	Category string `json:"category"`

	// Player is the record holder's display name.
	Player string `json:"player"`

	// Time is the formatted in-game time.
	Time string `json:"time"`

	// Date is the record's ISO date.
	Date string `json:"date"`

	// AgeDays is how many whole days the record has stood.
	AgeDays int `json:"age_days"`
}

// GetLongestStandingResult contains the ordered world-record listing.
type GetLongestStandingResult struct {
	// Records are the world records, oldest first.
	Records []WorldRecordDTO `json:"records"`

	// Message is the ready-to-send reply text, one line per record.
	Message string `json:"message"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLongestStandingHandler handles world-record listings.
type GetLongestStandingHandler struct {
	repo run.Repository
}

// NewGetLongestStandingHandler creates a new handler.
func NewGetLongestStandingHandler(repo run.Repository) *GetLongestStandingHandler {
	return &GetLongestStandingHandler{repo: repo}
}

// Handle executes the listing.
func (h *GetLongestStandingHandler) Handle(ctx context.Context, query GetLongestStandingQuery) (*GetLongestStandingResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLongestStanding", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	records, err := h.repo.WorldRecords(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLongestStanding", shared.ErrServiceUnavailable, "loading world records", err)
	}

	dtos := make([]WorldRecordDTO, 0, len(records))
	for _, r := range records {
		// Records without a date cannot be aged; the boards rarely
		// produce them for first place, but skip them when they do.
		runDate, err := timeutil.ParseISODate(r.Date)
		if err != nil {
			continue
		}

		dtos = append(dtos, WorldRecordDTO{
			Track:    r.Track.String(),
			Category: r.Category.String(),
			Player:   r.Player,
			Time:     r.Time,
			Date:     r.Date,
			AgeDays:  timeutil.DaysSinceAt(runDate, now),
		})
	}

	// Oldest first. Ties break on track then category so the order is
	// stable between polls.
	sort.SliceStable(dtos, func(i, j int) bool {
		if dtos[i].AgeDays != dtos[j].AgeDays {
			return dtos[i].AgeDays > dtos[j].AgeDays
		}
		if dtos[i].Track != dtos[j].Track {
			return dtos[i].Track < dtos[j].Track
		}
		return dtos[i].Category < dtos[j].Category
	})

	if query.Limit > 0 && len(dtos) > query.Limit {
		dtos = dtos[:query.Limit]
	}

	return &GetLongestStandingResult{
		Records:     dtos,
		Message:     formatLongestStanding(dtos),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// formatLongestStanding renders the listing, one record per line.
func formatLongestStanding(dtos []WorldRecordDTO) string {
	if len(dtos) == 0 {
		return NoWorldRecordsMessage
	}

	lines := make([]string, len(dtos))
	for i, d := range dtos {
		lines[i] = fmt.Sprintf("%s - %s in %s by %s, %s old",
			d.Track, d.Category, d.Time, d.Player, timeutil.AgeLabel(d.AgeDays))
	}
	return strings.Join(lines, "\n")
}
