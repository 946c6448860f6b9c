// Package srcom implements the speedrun.com REST API client.
// This package handles all communication with speedrun.com, including game
// lookup, per-level category and level discovery, and leaderboard fetching.
package srcom

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the speedrun.com envelope: every endpoint wraps its payload
// in a "data" field.
type APIResponse[T any] struct {
	Data T `json:"data"`
}

// PaginationDTO is speedrun.com's pagination block on list endpoints.
type PaginationDTO struct {
	Offset int `json:"offset"`
	Max    int `json:"max"`
	Size   int `json:"size"`
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME DTOs
// ══════════════════════════════════════════════════════════════════════════════

// NamesDTO holds the name variants speedrun.com keeps for games and users.
type NamesDTO struct {
	International string `json:"international"`
	Japanese      string `json:"japanese,omitempty"`
}

// GameDTO represents a game as returned by the /games endpoint.
type GameDTO struct {
	// ID is the opaque game identifier used in leaderboard paths
	ID string `json:"id"`

	// Names holds the game's display names
	Names NamesDTO `json:"names"`

	// Abbreviation is the short URL slug (e.g. "bar")
	Abbreviation string `json:"abbreviation"`

	// Weblink is the game's page on speedrun.com
	Weblink string `json:"weblink,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY AND LEVEL DTOs
// ══════════════════════════════════════════════════════════════════════════════

// Category types on speedrun.com. Only per-level categories produce the
// track boards this bot watches.
const (
	CategoryTypePerLevel = "per-level"
	CategoryTypePerGame  = "per-game"
)

// CategoryDTO represents a run category.
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Type is "per-level" or "per-game"
	Type string `json:"type"`
}

// IsPerLevel reports whether this category applies to individual levels.
func (c *CategoryDTO) IsPerLevel() bool {
	return c.Type == CategoryTypePerLevel
}

// LevelDTO represents an individual level (a track, for racing games).
type LevelDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD DTOs
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardDTO represents one level+category leaderboard with embedded
// player data (requested via ?embed=players).
type LeaderboardDTO struct {
	Game     string         `json:"game"`
	Level    string         `json:"level"`
	Category string         `json:"category"`
	Runs     []PlacedRunDTO `json:"runs"`
	Players  PlayersEmbed   `json:"players"`
}

// PlacedRunDTO is a run together with its rank on the board.
type PlacedRunDTO struct {
	// Place is the run's rank, 1 = best. 0 means unranked (obsolete run).
	Place int    `json:"place"`
	Run   RunDTO `json:"run"`
}

// RunDTO is the run payload inside a leaderboard entry.
type RunDTO struct {
	ID      string         `json:"id"`
	Weblink string         `json:"weblink,omitempty"`
	Players []RunPlayerDTO `json:"players"`
	Date    string         `json:"date"`
	Times   TimesDTO       `json:"times"`
}

// RunPlayerDTO is a player reference on a run: registered users carry an ID
// to resolve against the embedded players, guests carry their name inline.
type RunPlayerDTO struct {
	Rel  string `json:"rel"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// TimesDTO holds a run's times in seconds. The IL boards rank by in-game
// time; PrimaryT is the board's primary timing method as a fallback.
type TimesDTO struct {
	Primary   string  `json:"primary,omitempty"`
	PrimaryT  float64 `json:"primary_t"`
	IngameT   float64 `json:"ingame_t"`
	RealtimeT float64 `json:"realtime_t,omitempty"`
}

// BestTime returns the in-game time if present, otherwise the primary time.
func (t *TimesDTO) BestTime() float64 {
	if t.IngameT > 0 {
		return t.IngameT
	}
	return t.PrimaryT
}

// PlayersEmbed is the embedded player list on a leaderboard response.
type PlayersEmbed struct {
	Data []PlayerDTO `json:"data"`
}

// PlayerDTO is an embedded player: a registered user (Names set) or a guest
// (Name set).
type PlayerDTO struct {
	Rel   string    `json:"rel"`
	ID    string    `json:"id,omitempty"`
	Names *NamesDTO `json:"names,omitempty"`
	Name  string    `json:"name,omitempty"`
}

// DisplayName returns the player's display name regardless of kind.
func (p *PlayerDTO) DisplayName() string {
	if p.Names != nil && p.Names.International != "" {
		return p.Names.International
	}
	return p.Name
}

// ══════════════════════════════════════════════════════════════════════════════
// API ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO is the error body speedrun.com returns on failures.
type APIErrorDTO struct {
	Status  int    `json:"status"`
	Message string `json:"message"`

	// RetryAfter is populated from the Retry-After header on 420/429 responses.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("speedrun.com api error (status %d): %s", e.Status, e.Message)
}

// IsRetryable reports whether the request can be retried.
func (e *APIErrorDTO) IsRetryable() bool {
	return e.Status == 420 || e.Status == 429 || e.Status >= 500
}
