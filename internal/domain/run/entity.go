// Package run contains the domain model for individual-level (IL) speedruns:
// run records, snapshots, the placement scoring curve, and point rankings.
// Snapshots are rebuilt from the external leaderboard on every poll cycle and
// diffed against the previously committed snapshot to detect new runs.
package run

import (
	"fmt"
	"strings"

	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Track is one of the six fixed race courses.
type Track string

// The six tracks, in game order.
const (
	TrackCoventryCove Track = "Coventry Cove"
	TrackMountMayhem  Track = "Mount Mayhem"
	TrackInfernoIsle  Track = "Inferno Isle"
	TrackSunsetSands  Track = "Sunset Sands"
	TrackMetroMadness Track = "Metro Madness"
	TrackWickedWoods  Track = "Wicked Woods"
)

// AllTracks returns the six tracks in game order.
func AllTracks() []Track {
	return []Track{
		TrackCoventryCove,
		TrackMountMayhem,
		TrackInfernoIsle,
		TrackSunsetSands,
		TrackMetroMadness,
		TrackWickedWoods,
	}
}

// String returns the track name.
func (t Track) String() string {
	return string(t)
}

// ParseTrack resolves a leaderboard level name to a known track.
// Matching is case-insensitive on the full name.
func ParseTrack(name string) (Track, error) {
	for _, t := range AllTracks() {
		if strings.EqualFold(name, string(t)) {
			return t, nil
		}
	}
	return "", shared.ErrUnknownTrack
}

// Category is a per-level scoring mode.
type Category string

// The two per-level categories.
const (
	CategoryTimeAttack Category = "Time Attack"
	CategoryHundred    Category = "100 Points"
)

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// ParseShortform resolves a chat shortform like "cc" or "MMm100" into a
// track+category pair. The track is identified by the leading initials and
// the category by a trailing "100" suffix (100 Points) or its absence
// (Time Attack). Matching is case-insensitive.
func ParseShortform(shortform string) (Track, Category, error) {
	s := strings.ToLower(strings.TrimSpace(shortform))
	if s == "" {
		return "", "", shared.ErrUnknownTrack
	}

	category := CategoryTimeAttack
	if strings.HasSuffix(s, "100") {
		category = CategoryHundred
	}

	var track Track
	switch {
	case strings.HasPrefix(s, "cc"):
		track = TrackCoventryCove
	case strings.HasPrefix(s, "mmm"):
		track = TrackMountMayhem
	case strings.HasPrefix(s, "ii"):
		track = TrackInfernoIsle
	case strings.HasPrefix(s, "ss"):
		track = TrackSunsetSands
	case strings.HasPrefix(s, "mms"):
		track = TrackMetroMadness
	case strings.HasPrefix(s, "ww"):
		track = TrackWickedWoods
	default:
		return "", "", shared.ErrUnknownTrack
	}

	return track, category, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RUN RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Key uniquely identifies a run across poll cycles. It is a composite of
// category, track, player, formatted time, and date. The placement is
// excluded because a placement can change without a new run existing
// (another player's run re-sorts the board).
type Key string

// Record is one observed placement on one track+category leaderboard.
// Records are created fresh on every poll cycle and never mutated.
type Record struct {
	// Category is the per-level scoring mode.
	Category Category

	// Track is the race course.
	Track Track

	// Player is the display name of the (first) runner.
	Player string

	// Time is the formatted in-game time, "M:SS.HH".
	Time string

	// Place is the run's rank on its board, 1 = best.
	Place int

	// Date is the run's ISO calendar date ("2006-01-02"). May be empty:
	// some leaderboard entries carry no date.
	Date string
}

// NewRecord creates a validated run record.
func NewRecord(category Category, track Track, player, time string, place int, date string) (*Record, error) {
	r := &Record{
		Category: category,
		Track:    track,
		Player:   player,
		Time:     time,
		Place:    place,
		Date:     date,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the record's invariants.
func (r *Record) Validate() error {
	if r.Player == "" {
		return shared.ErrEmptyPlayerName
	}
	if r.Place < 1 {
		return shared.ErrInvalidPlacement
	}
	if r.Time == "" {
		return shared.ErrMalformedEntry
	}
	return nil
}

// Key returns the record's identity key. The date participates when present
// so that re-runs with identical times on different days are distinct.
func (r *Record) Key() Key {
	return Key(strings.Join([]string{
		string(r.Category),
		string(r.Track),
		r.Player,
		r.Time,
		r.Date,
	}, "|"))
}

// IsWorldRecord reports whether the run holds first place on its board.
func (r *Record) IsWorldRecord() bool {
	return r.Place == 1
}

// String returns a compact representation for logging.
func (r *Record) String() string {
	return fmt.Sprintf("%s - %s in %s by %s (place %d)", r.Track, r.Category, r.Time, r.Player, r.Place)
}
