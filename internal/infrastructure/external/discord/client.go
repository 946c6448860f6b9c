// Package discord implements a Discord REST API wrapper.
// This package provides a clean interface for sending channel messages and
// looking up bot identity for the Groovy Hub bot. Interactive commands arrive
// over the interactions webhook, so no gateway connection is needed here.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Discord client.
type ClientConfig struct {
	// BotToken is the Discord bot token
	BotToken string

	// BaseURL is the Discord API base URL (default: https://discord.com/api/v10)
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RetryAttempts is the number of retry attempts for failed requests
	RetryAttempts int

	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(botToken string) ClientConfig {
	return ClientConfig{
		BotToken:      botToken,
		BaseURL:       "https://discord.com/api/v10",
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DISCORD API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// MaxMessageLength is Discord's hard limit on message content.
const MaxMessageLength = 2000

// Message represents a Discord message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    *User  `json:"author,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// User represents a Discord user.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	GlobalName    string `json:"global_name,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

// DisplayName returns the user's display name.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Channel represents a Discord channel.
type Channel struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	Name    string `json:"name,omitempty"`
	GuildID string `json:"guild_id,omitempty"`
}

// APIErrorBody is the error payload Discord returns on failures.
type APIErrorBody struct {
	Code    int     `json:"code"`
	Message string  `json:"message"`
	Global  bool    `json:"global,omitempty"`
	// RetryAfter is set on 429 responses, in seconds.
	RetryAfter float64 `json:"retry_after,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Discord REST API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Discord client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://discord.com/api/v10"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDING MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// CreateMessageParams contains parameters for sending a channel message.
type CreateMessageParams struct {
	Content string `json:"content"`
}

// SendMessage sends a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))

	var message Message
	if err := c.callAPI(ctx, http.MethodPost, path, CreateMessageParams{Content: content}, &message); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	return &message, nil
}

// SendCodeBlock sends text wrapped in a monospace code block, splitting it
// into multiple messages when it exceeds Discord's length limit.
func (c *Client) SendCodeBlock(ctx context.Context, channelID, text string) error {
	for _, chunk := range SplitForCodeBlocks(text) {
		if _, err := c.SendMessage(ctx, channelID, "```\n"+chunk+"\n```"); err != nil {
			return err
		}
	}
	return nil
}

// SplitForCodeBlocks splits text into chunks that fit in one code-block
// message each, breaking on line boundaries.
func SplitForCodeBlocks(text string) []string {
	// Room for the opening and closing fences plus newlines
	const budget = MaxMessageLength - 8

	if len(text) <= budget {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > budget {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT INFO
// ══════════════════════════════════════════════════════════════════════════════

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.callAPI(ctx, http.MethodGet, "/users/@me", nil, &user); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}

	return &user, nil
}

// GetChannel returns information about a channel.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*Channel, error) {
	path := fmt.Sprintf("/channels/%s", url.PathEscape(channelID))

	var channel Channel
	if err := c.callAPI(ctx, http.MethodGet, path, nil, &channel); err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}

	return &channel, nil
}

// IsHealthy checks if the Discord API is reachable with our token.
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.GetMe(ctx)
	return err == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// API CALL HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// callAPI makes a call to the Discord API with retries.
func (c *Client) callAPI(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.doAPICall(ctx, method, path, body, result)
		if err == nil {
			return nil
		}

		lastErr = err

		if !c.isRetryableError(err) {
			return err
		}

		// Honor the server's retry-after on rate limits
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(apiErr.RetryAfter):
			}
		}
	}

	return fmt.Errorf("api call failed after %d retries: %w", c.config.RetryAttempts, lastErr)
}

// doAPICall performs a single API call.
func (c *Client) doAPICall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+c.config.BotToken)
	req.Header.Set("Content-Type", "application/json")

	if c.config.Debug {
		c.logger.Debug("discord api call", "method", method, "path", path)
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

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
		}
		var errBody APIErrorBody
		if err := json.Unmarshal(respBody, &errBody); err == nil {
			apiErr.Code = errBody.Code
			apiErr.Description = errBody.Message
			if errBody.RetryAfter > 0 {
				apiErr.RetryAfter = time.Duration(errBody.RetryAfter * float64(time.Second))
			}
		}
		if apiErr.Description == "" {
			apiErr.Description = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIError represents a Discord API error.
type APIError struct {
	StatusCode  int
	Code        int
	Description string
	RetryAfter  time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("discord api error %d (code %d): %s", e.StatusCode, e.Code, e.Description)
}

// IsMissingAccess reports whether the bot lacks access to the channel.
func (e *APIError) IsMissingAccess() bool {
	return e.StatusCode == http.StatusForbidden
}

// isRetryableError checks if an error is retryable.
func (c *Client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if apiErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Network errors are retryable
	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
