package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/application/query"
	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

type fakeRepo struct {
	runs         []*run.Record
	worldRecords []*run.Record
	rankingTable string
}

func (r *fakeRepo) PreviousKeys(ctx context.Context) (map[run.Key]struct{}, error) {
	return map[run.Key]struct{}{}, nil
}

func (r *fakeRepo) Scores(ctx context.Context) (run.ScoreTable, error) {
	return run.ScoreTable{}, nil
}

func (r *fakeRepo) RankingTable(ctx context.Context) (string, error) {
	return r.rankingTable, nil
}

func (r *fakeRepo) ReplaceState(ctx context.Context, state run.PersistedState) error {
	return nil
}

func (r *fakeRepo) FindRun(ctx context.Context, category run.Category, track run.Track, player string) (*run.Record, error) {
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

type fakeHealthChecker struct {
	checks map[string]string
}

func (h *fakeHealthChecker) CheckHealth(ctx context.Context) map[string]string {
	return h.checks
}

func mustRun(t *testing.T, track run.Track, player, time string, place int) *run.Record {
	t.Helper()
	r, err := run.NewRecord(run.CategoryTimeAttack, track, player, time, place, "2024-03-15")
	require.NoError(t, err)
	return r
}

func testDeps(repo *fakeRepo) Dependencies {
	return Dependencies{
		GetPlayerRunHandler:       query.NewGetPlayerRunHandler(repo, nil),
		GetLongestStandingHandler: query.NewGetLongestStandingHandler(repo),
		GetPointRankingsHandler:   query.NewGetPointRankingsHandler(repo, nil),
	}
}

// newTestServer builds a server and returns it with its full handler chain
// and the private key matching the configured interactions public key.
func newTestServer(t *testing.T, repo *fakeRepo) (*Server, http.Handler, ed25519.PrivateKey) {
	t.Helper()

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.InteractionsPublicKey = hex.EncodeToString(publicKey)

	server, err := NewServer(config, testDeps(repo))
	require.NoError(t, err)

	return server, server.httpServer.Handler, privateKey
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONSTRUCTION
// ══════════════════════════════════════════════════════════════════════════════

func TestNewServerRejectsBadPublicKey(t *testing.T) {
	config := DefaultConfig()
	config.InteractionsPublicKey = "not hex"

	_, err := NewServer(config, testDeps(&fakeRepo{}))
	assert.Error(t, err)

	config.InteractionsPublicKey = "abcd" // valid hex, wrong length
	_, err = NewServer(config, testDeps(&fakeRepo{}))
	assert.Error(t, err)
}

func TestNewServerWithoutPublicKeyOmitsWebhook(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	server, err := NewServer(config, testDeps(&fakeRepo{}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/discord", strings.NewReader("{}"))
	server.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleHealthDegraded(t *testing.T) {
	repo := &fakeRepo{}
	server, err := NewServer(Config{Host: "127.0.0.1", Port: 0}, Dependencies{
		GetPointRankingsHandler: query.NewGetPointRankingsHandler(repo, nil),
		HealthChecker:           &fakeHealthChecker{checks: map[string]string{"postgres": "unhealthy"}},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleRoot(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "groovy-hub", data["service"])
}

// ══════════════════════════════════════════════════════════════════════════════
// API v1
// ══════════════════════════════════════════════════════════════════════════════

func TestHandleGetRankings(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{rankingTable: "the table"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rankings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "the table", data["table"])
}

func TestHandleGetWorldRecords(t *testing.T) {
	repo := &fakeRepo{worldRecords: []*run.Record{
		mustRun(t, run.TrackCoventryCove, "Alice", "1:15.50", 1),
		mustRun(t, run.TrackWickedWoods, "Bob", "1:40.00", 1),
	}}
	_, handler, _ := newTestServer(t, repo)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/world-records?limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	records, ok := data["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestHandleGetRun(t *testing.T) {
	repo := &fakeRepo{runs: []*run.Record{
		mustRun(t, run.TrackCoventryCove, "Alice", "1:15.50", 2),
	}}
	_, handler, _ := newTestServer(t, repo)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?board=cc&player=alice", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["found"])
}

func TestHandleGetRunMissingParams(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?board=cc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetRunNotFound(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?board=cc&player=Nobody", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// DISCORD INTERACTIONS WEBHOOK
// ══════════════════════════════════════════════════════════════════════════════

// signedInteraction builds a POST with a valid signature for the payload.
func signedInteraction(t *testing.T, privateKey ed25519.PrivateKey, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	timestamp := "1700000000"
	message := append([]byte(timestamp), body...)
	signature := ed25519.Sign(privateKey, message)

	req := httptest.NewRequest(http.MethodPost, "/webhook/discord", bytes.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(signature))
	req.Header.Set("X-Signature-Timestamp", timestamp)
	return req
}

func decodeInteraction(t *testing.T, rec *httptest.ResponseRecorder) interactionResponse {
	t.Helper()
	var resp interactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestInteractionsPingPong(t *testing.T) {
	_, handler, privateKey := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, privateKey, map[string]any{"type": 1}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, responsePong, decodeInteraction(t, rec).Type)
}

func TestInteractionsRejectsBadSignature(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{})

	// Signed by a different key than the one the server verifies against.
	_, otherKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, otherKey, map[string]any{"type": 1}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInteractionsRejectsMissingSignature(t *testing.T) {
	_, handler, _ := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/discord", strings.NewReader(`{"type":1}`))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInteractionsRejectsTamperedBody(t *testing.T) {
	_, handler, privateKey := newTestServer(t, &fakeRepo{})

	req := signedInteraction(t, privateKey, map[string]any{"type": 1})
	req.Body = io.NopCloser(strings.NewReader(`{"type":2}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInteractionsILRankingCommand(t *testing.T) {
	repo := &fakeRepo{runs: []*run.Record{
		mustRun(t, run.TrackCoventryCove, "Alice", "1:15.50", 3),
	}}
	_, handler, privateKey := newTestServer(t, repo)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, privateKey, map[string]any{
		"type": 2,
		"data": map[string]any{
			"name": "ilranking",
			"options": []map[string]any{
				{"name": "board", "value": "cc"},
				{"name": "player", "value": "Alice"},
			},
		},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeInteraction(t, rec)
	assert.Equal(t, responseChannelMessageWithSource, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Coventry Cove - Time Attack in 1:15.50 by Alice, 3rd place", resp.Data.Content)
}

func TestInteractionsILRankingMissingOptions(t *testing.T) {
	_, handler, privateKey := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, privateKey, map[string]any{
		"type": 2,
		"data": map[string]any{"name": "ilranking"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeInteraction(t, rec)
	require.NotNil(t, resp.Data)
	assert.Contains(t, resp.Data.Content, "Usage: /ilranking")
}

func TestInteractionsPointRankingsCommand(t *testing.T) {
	_, handler, privateKey := newTestServer(t, &fakeRepo{rankingTable: "the table"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, privateKey, map[string]any{
		"type": 2,
		"data": map[string]any{"name": "pointrankings"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeInteraction(t, rec)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "```\nthe table\n```", resp.Data.Content)
}

func TestInteractionsLongestStandingCommand(t *testing.T) {
	_, handler, privateKey := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, privateKey, map[string]any{
		"type": 2,
		"data": map[string]any{"name": "longeststanding"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeInteraction(t, rec)
	require.NotNil(t, resp.Data)
	assert.Contains(t, resp.Data.Content, "No world records on file yet.")
}

func TestInteractionsUnknownCommand(t *testing.T) {
	_, handler, privateKey := newTestServer(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInteraction(t, privateKey, map[string]any{
		"type": 2,
		"data": map[string]any{"name": "bogus"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeInteraction(t, rec).Data.Content, "Unknown command")
}
