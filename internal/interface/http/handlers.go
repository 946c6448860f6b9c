package http

import (
	"net/http"
	"time"

	"github.com/groovy-hub/groovy-hub/internal/application/query"
	"github.com/groovy-hub/groovy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// handleHealth reports overall service health including backing services.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Uptime:    s.Uptime().String(),
		Timestamp: time.Now().UTC(),
	}

	if s.deps.HealthChecker != nil {
		resp.Checks = s.deps.HealthChecker.CheckHealth(r.Context())
		for _, status := range resp.Checks {
			if status != "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// handleLive is the liveness probe. It answers as long as the process
// serves requests, regardless of backing service health.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleRoot describes the service.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"service": "groovy-hub",
		"purpose": "Beetle Adventure Racing IL leaderboard tracker",
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// API v1 HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRankings returns the last-committed point rankings table.
func (s *Server) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPointRankingsHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Rankings are not available")
		return
	}

	result, err := s.deps.GetPointRankingsHandler.Handle(r.Context(), query.GetPointRankingsQuery{})
	if err != nil {
		s.logger.Error("rankings query failed", logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "query_failed", "Could not load rankings")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetWorldRecords returns world records ordered by age, oldest first.
func (s *Server) handleGetWorldRecords(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLongestStandingHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "World records are not available")
		return
	}

	q := query.GetLongestStandingQuery{
		Limit: getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetLongestStandingHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("world records query failed", logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "query_failed", "Could not load world records")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetRun looks up a single player's run on one board.
// Query parameters: board (shortform, e.g. "cc100") and player.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPlayerRunHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Run lookup is not available")
		return
	}

	q := query.GetPlayerRunQuery{
		Shortform: getQueryParam(r, "board", ""),
		Player:    getQueryParam(r, "player", ""),
	}
	if q.Shortform == "" || q.Player == "" {
		writeJSONError(w, http.StatusBadRequest, "missing_parameter", "Both board and player are required")
		return
	}

	result, err := s.deps.GetPlayerRunHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("run lookup failed",
			logger.Err(err),
			logger.Player(q.Player),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "query_failed", "Could not look up run")
		return
	}

	if !result.Found {
		writeJSON(w, http.StatusNotFound, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
