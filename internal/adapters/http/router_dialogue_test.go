package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/config"
	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

type dialogueFake struct {
	answer     string
	err        error
	historyErr error
	history    []domain.Turn

	gotSession string
	gotQuery   string
}

func (f *dialogueFake) Respond(_ context.Context, sessionID, query string) (*domain.TurnResult, error) {
	f.gotSession = sessionID
	f.gotQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TurnResult{
		SessionID: sessionID,
		Turn:      domain.Turn{ID: "t1", Query: query, Answer: f.answer, Route: domain.RouteQA},
		Intent:    domain.IntentRetrieval,
	}, nil
}

func (f *dialogueFake) History(_ context.Context, sessionID string) ([]domain.Turn, error) {
	f.gotSession = sessionID
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func newDialogueRouter(dialogue *dialogueFake) http.Handler {
	return NewRouter(config.Config{}, dialogue, nil, docsErrFake{}, nil).Handler()
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestWebhookReturnsFulfillmentText(t *testing.T) {
	dialogue := &dialogueFake{answer: "Paris"}
	res := postJSON(newDialogueRouter(dialogue), "/v1/webhook",
		`{"queryResult":{"queryText":"what is the capital of france"},"session":"projects/x/sessions/abc"}`)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["fulfillmentText"] != "Paris" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if dialogue.gotSession != "projects/x/sessions/abc" || dialogue.gotQuery != "what is the capital of france" {
		t.Fatalf("unexpected dialogue call session=%q query=%q", dialogue.gotSession, dialogue.gotQuery)
	}
}

func TestWebhookDefaultsSession(t *testing.T) {
	dialogue := &dialogueFake{answer: "I don't know"}
	res := postJSON(newDialogueRouter(dialogue), "/v1/webhook", `{"queryResult":{"queryText":"hi"}}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if dialogue.gotSession != defaultSessionID {
		t.Fatalf("expected default session, got %q", dialogue.gotSession)
	}
}

func TestWebhookRejectsMissingQueryText(t *testing.T) {
	dialogue := &dialogueFake{}
	handler := newDialogueRouter(dialogue)

	for _, body := range []string{`{"session":"s"}`, `{"queryResult":{}}`, `{"queryResult":{"queryText":""}}`} {
		res := postJSON(handler, "/v1/webhook", body)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, res.Code)
		}
	}
	if dialogue.gotQuery != "" {
		t.Fatalf("dialogue must not be called for invalid requests")
	}
}

func TestWebhookMapsTemporaryFailureTo503(t *testing.T) {
	dialogue := &dialogueFake{err: domain.WrapError(domain.ErrTemporary, "append turn", errors.New("redis down"))}
	res := postJSON(newDialogueRouter(dialogue), "/v1/webhook", `{"queryResult":{"queryText":"hi"},"session":"s"}`)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestWebhookMalformedCoreferenceIs500(t *testing.T) {
	dialogue := &dialogueFake{err: domain.WrapError(domain.ErrMalformedCoreference, "resolve", errors.New("no sentences"))}
	res := postJSON(newDialogueRouter(dialogue), "/v1/webhook", `{"queryResult":{"queryText":"and her?"},"session":"s"}`)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestCreateTurnReturnsTurnResult(t *testing.T) {
	dialogue := &dialogueFake{answer: "Blue"}
	res := postJSON(newDialogueRouter(dialogue), "/v1/dialogue/turns", `{"session_id":"s1","query":"what is her favorite color"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var result domain.TurnResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.SessionID != "s1" || result.Turn.Answer != "Blue" || result.Turn.Route != domain.RouteQA {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCreateTurnValidatesBody(t *testing.T) {
	res := postJSON(newDialogueRouter(&dialogueFake{}), "/v1/dialogue/turns", `{"session_id":"s1"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "invalid request") {
		t.Fatalf("expected validation message, got %s", res.Body.String())
	}
}

func TestListTurns(t *testing.T) {
	dialogue := &dialogueFake{history: []domain.Turn{{ID: "t1", Query: "Who is Alice?", Answer: "A painter"}}}
	handler := newDialogueRouter(dialogue)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/turns", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		SessionID string        `json:"session_id"`
		Turns     []domain.Turn `json:"turns"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "s1" || len(resp.Turns) != 1 || resp.Turns[0].Answer != "A painter" {
		t.Fatalf("unexpected response %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/other", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sub-resource, got %d", res.Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	newDialogueRouter(&dialogueFake{}).ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestAuthMiddlewareRequiresBearerOnAPIRoutes(t *testing.T) {
	handler := NewRouter(config.Config{APIKey: "secret"}, &dialogueFake{answer: "ok"}, nil, docsErrFake{}, nil).Handler()

	res := postJSON(handler, "/v1/webhook", `{"queryResult":{"queryText":"hi"}}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", bytes.NewBufferString(`{"queryResult":{"queryText":"hi"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	ok := httptest.NewRecorder()
	handler.ServeHTTP(ok, req)
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", ok.Code)
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("healthz must stay public, got %d", health.Code)
	}
}
