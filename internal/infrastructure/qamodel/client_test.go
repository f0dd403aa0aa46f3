package qamodel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
)

func TestExtractAnswer(t *testing.T) {
	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		score := 0.9
		if captured["question"] == "weak?" {
			score = 0.01
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"answer": " Paris ", "score": score})
	}))
	defer server.Close()

	client := New(httpjson.New("qa", server.URL, httpjson.Options{}), 0.1)

	answer, err := client.ExtractAnswer(context.Background(), "capital?", "Paris is the capital.")
	if err != nil {
		t.Fatalf("ExtractAnswer() error = %v", err)
	}
	if answer != "Paris" || captured["context"] != "Paris is the capital." {
		t.Fatalf("unexpected answer %q request %+v", answer, captured)
	}

	answer, err = client.ExtractAnswer(context.Background(), "weak?", "Paris is the capital.")
	if err != nil || answer != "" {
		t.Fatalf("expected low-score answer to be dropped, got %q %v", answer, err)
	}
}

func TestExtractAnswerSkipsEmptyPassage(t *testing.T) {
	client := New(httpjson.New("qa", "http://127.0.0.1:1", httpjson.Options{}), 0)
	answer, err := client.ExtractAnswer(context.Background(), "q", " ")
	if err != nil || answer != "" {
		t.Fatalf("expected empty answer without a call, got %q %v", answer, err)
	}
}

func TestExtractAnswerPropagatesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(httpjson.New("qa", server.URL, httpjson.Options{}), 0)
	if _, err := client.ExtractAnswer(context.Background(), "q", "p"); err == nil {
		t.Fatalf("expected error")
	}
}
