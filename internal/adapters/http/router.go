package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/routers"

	"github.com/kirillkom/dialogue-qa/internal/config"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
	"github.com/kirillkom/dialogue-qa/internal/observability/metrics"
)

const (
	maxJSONBodyBytes = 1 << 20
	defaultSessionID = "default"
)

type Router struct {
	cfg      config.Config
	dialogue ports.DialogueService
	ingest   ports.DocumentIngestor
	docs     ports.DocumentReader
	metrics  *metrics.HTTPServerMetrics
	routes   routers.Router
}

// NewRouter wires the API. ingest and metrics may be nil; the documents
// upload route and /metrics then answer 404.
func NewRouter(
	cfg config.Config,
	dialogue ports.DialogueService,
	ingest ports.DocumentIngestor,
	docs ports.DocumentReader,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	routes, err := loadRequestRouter()
	if err != nil {
		// The description is embedded at build time; failing here is a
		// programming error.
		panic(err)
	}
	return &Router{
		cfg:      cfg,
		dialogue: dialogue,
		ingest:   ingest,
		docs:     docs,
		metrics:  httpMetrics,
		routes:   routes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/webhook", rt.webhook)
	mux.HandleFunc("/v1/dialogue/turns", rt.createTurn)
	mux.HandleFunc("/v1/sessions/", rt.listTurns)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)

	var handler http.Handler = recoverMiddleware(validationMiddleware(rt.routes, mux))
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = authMiddleware(handler, rt.cfg.APIKey)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type webhookRequest struct {
	Session     string `json:"session"`
	QueryResult struct {
		QueryText string `json:"queryText"`
	} `json:"queryResult"`
}

type webhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

// webhook is the fulfillment endpoint for conversational front ends.
func (rt *Router) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req webhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.QueryResult.QueryText) == "" {
		writeError(w, http.StatusBadRequest, "queryResult.queryText is required")
		return
	}
	sessionID := strings.TrimSpace(req.Session)
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	result, err := rt.dialogue.Respond(r.Context(), sessionID, req.QueryResult.QueryText)
	if err != nil {
		writeDomainError(w, r, "webhook", err)
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{FulfillmentText: result.Turn.Answer})
}

func (rt *Router) createTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Query     string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := rt.dialogue.Respond(r.Context(), req.SessionID, req.Query)
	if err != nil {
		writeDomainError(w, r, "dialogue_turn", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) listTurns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	sessionID, ok := strings.CutSuffix(rest, "/turns")
	if !ok || sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	turns, err := rt.dialogue.History(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, r, "session_history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.ingest == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeDomainError(w, r, "upload_document", err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if rt.docs == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "get_document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(out); err != nil {
		slog.Debug("decode_request_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
