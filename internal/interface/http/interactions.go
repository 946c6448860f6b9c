package http

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/groovy-hub/groovy-hub/internal/application/query"
	"github.com/groovy-hub/groovy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISCORD INTERACTIONS WEBHOOK
// Discord delivers slash commands as signed HTTP POSTs. Every request
// must be verified against the application's ed25519 public key or
// Discord rejects the endpoint during setup.
// ══════════════════════════════════════════════════════════════════════════════

// Interaction types and response types from the Discord API.
const (
	interactionPing               = 1
	interactionApplicationCommand = 2

	responsePong                     = 1
	responseChannelMessageWithSource = 4
)

// Slash command names served by the webhook.
const (
	commandILRanking       = "ilranking"
	commandLongestStanding = "longeststanding"
	commandPointRankings   = "pointrankings"
)

const maxInteractionBody = 1 << 20 // 1 MB

// interactionRequest is the subset of the interaction payload we read.
type interactionRequest struct {
	Type int             `json:"type"`
	Data interactionData `json:"data"`
}

type interactionData struct {
	Name    string              `json:"name"`
	Options []interactionOption `json:"options"`
}

type interactionOption struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// stringValue decodes the option value as a string.
func (o interactionOption) stringValue() string {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return ""
	}
	return s
}

// interactionResponse is the reply envelope Discord expects.
type interactionResponse struct {
	Type int                      `json:"type"`
	Data *interactionResponseData `json:"data,omitempty"`
}

type interactionResponseData struct {
	Content string `json:"content"`
}

// interactionsHandler verifies and dispatches interaction requests.
type interactionsHandler struct {
	publicKey ed25519.PublicKey
	deps      Dependencies
	logger    *logger.Logger
}

func newInteractionsHandler(publicKeyHex string, deps Dependencies, log *logger.Logger) (*interactionsHandler, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding interactions public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("interactions public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}

	return &interactionsHandler{
		publicKey: ed25519.PublicKey(raw),
		deps:      deps,
		logger:    log,
	}, nil
}

// handle serves one interaction request.
func (h *interactionsHandler) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Could not read request body")
		return
	}

	if !h.verifySignature(r, body) {
		h.logger.Warn("interaction with invalid signature",
			logger.String("ip", getClientIP(r)),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusUnauthorized, "invalid_signature", "Signature verification failed")
		return
	}

	var req interactionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Malformed interaction payload")
		return
	}

	switch req.Type {
	case interactionPing:
		h.respond(w, interactionResponse{Type: responsePong})
	case interactionApplicationCommand:
		content := h.dispatch(r, req.Data)
		h.respond(w, interactionResponse{
			Type: responseChannelMessageWithSource,
			Data: &interactionResponseData{Content: content},
		})
	default:
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Unsupported interaction type")
	}
}

// verifySignature checks the ed25519 signature over timestamp+body.
func (h *interactionsHandler) verifySignature(r *http.Request, body []byte) bool {
	signatureHex := r.Header.Get("X-Signature-Ed25519")
	timestamp := r.Header.Get("X-Signature-Timestamp")
	if signatureHex == "" || timestamp == "" {
		return false
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)

	return ed25519.Verify(h.publicKey, message, signature)
}

// dispatch routes a slash command to its query handler and returns the
// reply text. Handler failures become a generic apology, never a 500:
// Discord shows webhook errors to nobody.
func (h *interactionsHandler) dispatch(r *http.Request, data interactionData) string {
	switch data.Name {
	case commandILRanking:
		return h.handleILRanking(r, data)
	case commandLongestStanding:
		return h.handleLongestStanding(r)
	case commandPointRankings:
		return h.handlePointRankings(r)
	default:
		return fmt.Sprintf("Unknown command: %s", data.Name)
	}
}

func (h *interactionsHandler) handleILRanking(r *http.Request, data interactionData) string {
	q := query.GetPlayerRunQuery{}
	for _, opt := range data.Options {
		switch opt.Name {
		case "board":
			q.Shortform = opt.stringValue()
		case "player":
			q.Player = opt.stringValue()
		}
	}

	if strings.TrimSpace(q.Shortform) == "" || strings.TrimSpace(q.Player) == "" {
		return "Usage: /ilranking board:<shortform> player:<name>"
	}

	result, err := h.deps.GetPlayerRunHandler.Handle(r.Context(), q)
	if err != nil {
		h.logger.Error("ilranking command failed", logger.Err(err), logger.Player(q.Player))
		return "Something went wrong looking up that run."
	}

	return result.Message
}

func (h *interactionsHandler) handleLongestStanding(r *http.Request) string {
	result, err := h.deps.GetLongestStandingHandler.Handle(r.Context(), query.GetLongestStandingQuery{})
	if err != nil {
		h.logger.Error("longeststanding command failed", logger.Err(err))
		return "Something went wrong loading the world records."
	}

	return codeBlock(result.Message)
}

func (h *interactionsHandler) handlePointRankings(r *http.Request) string {
	result, err := h.deps.GetPointRankingsHandler.Handle(r.Context(), query.GetPointRankingsQuery{})
	if err != nil {
		h.logger.Error("pointrankings command failed", logger.Err(err))
		return "Something went wrong loading the rankings."
	}

	if result.Table == "" {
		return result.Message
	}
	return codeBlock(result.Table)
}

func (h *interactionsHandler) respond(w http.ResponseWriter, resp interactionResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func codeBlock(text string) string {
	return "```\n" + text + "\n```"
}
