// Package srcom implements the speedrun.com REST API client.
// This package handles all communication with speedrun.com, including game
// lookup, per-level category and level discovery, and leaderboard fetching.
package srcom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
	"github.com/groovy-hub/groovy-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the speedrun.com API client.
type ClientConfig struct {
	// BaseURL is the API base URL (https://www.speedrun.com/api/v1)
	BaseURL string

	// GameName is the game to resolve on first fetch (e.g. "Beetle Adventure Racing")
	GameName string

	// UserAgent identifies the bot per speedrun.com API guidelines
	UserAgent string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// RetryConfig for retry behavior
	RetryConfig RetryConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(gameName string) ClientConfig {
	return ClientConfig{
		BaseURL:           "https://www.speedrun.com/api/v1",
		GameName:          gameName,
		UserAgent:         "groovy-hub/1.0",
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
		RetryConfig:       DefaultRetryConfig(),
	}
}

// RetryConfig contains configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// InitialBackoff is the initial wait time between retries
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait time between retries
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor by which backoff increases
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// CalculateBackoff calculates the backoff duration for a given attempt.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialBackoff
	}

	backoff := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	return time.Duration(backoff)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// board is one resolved level+category pair to poll.
type board struct {
	track      run.Track
	category   run.Category
	levelID    string
	categoryID string
}

// Client is the speedrun.com API client. It implements run.Fetcher.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	mapper         *Mapper

	// Board discovery (game -> categories -> levels) runs once and is cached
	// for the life of the process.
	discoverMu sync.Mutex
	gameID     string
	boards     []board
}

// NewClient creates a new speedrun.com API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		mapper:      NewMapper(config.Logger),
	}
	c.circuitBreaker = circuitbreaker.SpeedrunAPIBreaker(func(name string, from, to circuitbreaker.State) {
		config.Logger.Warn("circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	})
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME DISCOVERY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SearchGame finds a game by name and returns the best match.
func (c *Client) SearchGame(ctx context.Context, name string) (*GameDTO, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("max", "1")

	var response APIResponse[[]GameDTO]
	if err := c.doRequest(ctx, "/games?"+params.Encode(), &response); err != nil {
		return nil, fmt.Errorf("search game %q: %w", name, err)
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("search game %q: %w", name, shared.ErrNotFound)
	}

	return &response.Data[0], nil
}

// GetCategories fetches all run categories for a game.
func (c *Client) GetCategories(ctx context.Context, gameID string) ([]CategoryDTO, error) {
	path := fmt.Sprintf("/games/%s/categories", url.PathEscape(gameID))

	var response APIResponse[[]CategoryDTO]
	if err := c.doRequest(ctx, path, &response); err != nil {
		return nil, fmt.Errorf("get categories for %s: %w", gameID, err)
	}

	return response.Data, nil
}

// GetLevels fetches all individual levels for a game.
func (c *Client) GetLevels(ctx context.Context, gameID string) ([]LevelDTO, error) {
	path := fmt.Sprintf("/games/%s/levels", url.PathEscape(gameID))

	var response APIResponse[[]LevelDTO]
	if err := c.doRequest(ctx, path, &response); err != nil {
		return nil, fmt.Errorf("get levels for %s: %w", gameID, err)
	}

	return response.Data, nil
}

// GetLeaderboard fetches one level+category leaderboard with embedded players.
func (c *Client) GetLeaderboard(ctx context.Context, gameID, levelID, categoryID string) (*LeaderboardDTO, error) {
	path := fmt.Sprintf("/leaderboards/%s/level/%s/%s?embed=players",
		url.PathEscape(gameID), url.PathEscape(levelID), url.PathEscape(categoryID))

	var response APIResponse[LeaderboardDTO]
	if err := c.doRequest(ctx, path, &response); err != nil {
		return nil, fmt.Errorf("get leaderboard %s/%s: %w", levelID, categoryID, err)
	}

	return &response.Data, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT FETCHING (run.Fetcher)
// ══════════════════════════════════════════════════════════════════════════════

// FetchSnapshot fetches every per-level board and normalizes the result into
// one snapshot. Discovery (game, categories, levels) happens on the first
// call and is cached. Malformed rows are skipped inside the mapper; an error
// here means the whole poll cycle should be skipped.
func (c *Client) FetchSnapshot(ctx context.Context) (*run.Snapshot, error) {
	boards, err := c.discoverBoards(ctx)
	if err != nil {
		return nil, shared.WrapError("srcom", "FetchSnapshot", shared.ErrFetchFailed, "board discovery failed", err)
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())

	for _, b := range boards {
		leaderboard, err := c.GetLeaderboard(ctx, c.gameID, b.levelID, b.categoryID)
		if err != nil {
			return nil, shared.WrapError("srcom", "FetchSnapshot", shared.ErrFetchFailed,
				fmt.Sprintf("fetching %s - %s", b.track, b.category), err)
		}

		c.mapper.AppendLeaderboard(snapshot, leaderboard, b.track, b.category)
	}

	c.logger.Debug("snapshot fetched",
		"boards", len(boards), "records", snapshot.Count())

	return snapshot, nil
}

// discoverBoards resolves the game, its per-level categories, and its levels
// into the cross product of boards to poll.
func (c *Client) discoverBoards(ctx context.Context) ([]board, error) {
	c.discoverMu.Lock()
	defer c.discoverMu.Unlock()

	if c.boards != nil {
		return c.boards, nil
	}

	game, err := c.SearchGame(ctx, c.config.GameName)
	if err != nil {
		return nil, err
	}

	categories, err := c.GetCategories(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	levels, err := c.GetLevels(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	var boards []board
	for _, cat := range categories {
		if !cat.IsPerLevel() {
			continue
		}
		for _, level := range levels {
			track, err := run.ParseTrack(level.Name)
			if err != nil {
				c.logger.Warn("skipping unknown level", "level", level.Name)
				continue
			}
			boards = append(boards, board{
				track:      track,
				category:   run.Category(cat.Name),
				levelID:    level.ID,
				categoryID: cat.ID,
			})
		}
	}

	if len(boards) == 0 {
		return nil, fmt.Errorf("game %q has no per-level boards: %w", c.config.GameName, shared.ErrMalformedResponse)
	}

	c.gameID = game.ID
	c.boards = boards

	c.logger.Info("leaderboard discovery complete",
		"game", game.Names.International, "game_id", game.ID, "boards", len(boards))

	return boards, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a GET with rate limiting, circuit breaking, and retries.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var lastErr error
		for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
			if attempt > 0 {
				backoff := c.config.RetryConfig.CalculateBackoff(attempt)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
			}

			if err := c.rateLimiter.Allow(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			err := c.doSingleRequest(ctx, path, result)
			if err == nil {
				return nil
			}

			lastErr = err

			if !c.isRetryable(err) {
				return err
			}

			var rateLimitErr *RateLimitError
			if errors.As(err, &rateLimitErr) {
				c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
			}
		}

		return fmt.Errorf("request failed after %d retries: %w", c.config.RetryConfig.MaxRetries, lastErr)
	})
}

// doSingleRequest performs a single HTTP GET request.
func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	if c.config.Debug {
		c.logger.Debug("speedrun api request", "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// speedrun.com answers bursts with 420, standard clients with 429
	if resp.StatusCode == 420 || resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		// The API serves HTML error pages under load, so the body may not
		// be JSON at all
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			apiErr.Status = resp.StatusCode
			return &apiErr
		}
		return &APIErrorDTO{
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	// A malformed body on a 200 means the API is degraded, not that the
	// request was wrong
	if errors.Is(err, shared.ErrMalformedResponse) {
		return true
	}

	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the speedrun.com API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var response APIResponse[[]GameDTO]
	err := c.doSingleRequest(ctx, "/games?max=1", &response)
	return err == nil
}

// ClientStatus contains the current status of the client.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker circuitbreaker.Counts
	IsHealthy      bool
}

// Status returns the current status of the client.
func (c *Client) Status(ctx context.Context) ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.circuitBreaker.Counts(),
		IsHealthy:      c.IsHealthy(ctx),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
}
