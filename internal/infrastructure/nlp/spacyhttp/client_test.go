package spacyhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
)

func newNLPServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text   string   `json:"text"`
			Tokens []string `json:"tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		switch r.URL.Path {
		case "/coref":
			_ = json.NewEncoder(w).Encode(map[string]string{"text": strings.ReplaceAll(payload.Text, "her", "Alice's")})
		case "/sentences":
			_ = json.NewEncoder(w).Encode(map[string][]string{"sentences": strings.Split(payload.Text, ". ")})
		case "/tag":
			tokens := make([]map[string]string, 0, len(payload.Tokens))
			for _, tok := range payload.Tokens {
				tokens = append(tokens, map[string]string{"text": tok, "pos": "propn", "ent_iob": "b"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"tokens": tokens})
		case "/lemmatize":
			_ = json.NewEncoder(w).Encode(map[string][]string{"lemmas": strings.Fields(strings.ToLower(payload.Text))})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClientEndpoints(t *testing.T) {
	server := newNLPServer(t)
	defer server.Close()
	client := New(httpjson.New("nlp", server.URL, httpjson.Options{}))
	ctx := context.Background()

	resolved, err := client.ResolveCoreference(ctx, "Alice paints. What is her color?")
	if err != nil || resolved != "Alice paints. What is Alice's color?" {
		t.Fatalf("ResolveCoreference() = %q, %v", resolved, err)
	}

	sentences, err := client.Sentences(ctx, "One. Two. ")
	if err != nil {
		t.Fatalf("Sentences() error = %v", err)
	}
	if len(sentences) != 2 || sentences[1] != "Two" {
		t.Fatalf("unexpected sentences %q", sentences)
	}

	tagged, err := client.Tag(ctx, []string{"paris", "1990"})
	if err != nil {
		t.Fatalf("Tag() error = %v", err)
	}
	if len(tagged) != 2 || tagged[0].POS != "PROPN" || !tagged[1].IsEntity() {
		t.Fatalf("unexpected tags %+v", tagged)
	}

	lemmas, err := client.Lemmatize(ctx, "Red Apples")
	if err != nil || len(lemmas) != 2 || lemmas[0] != "red" {
		t.Fatalf("Lemmatize() = %q, %v", lemmas, err)
	}
}

func TestSentencesSkipsEmptyInput(t *testing.T) {
	client := New(httpjson.New("nlp", "http://127.0.0.1:1", httpjson.Options{}))
	sentences, err := client.Sentences(context.Background(), "  ")
	if err != nil || sentences != nil {
		t.Fatalf("expected no call for empty text, got %q %v", sentences, err)
	}
}

func TestTagRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tokens":[{"text":"a","pos":"X","ent_iob":"O"}]}`))
	}))
	defer server.Close()

	client := New(httpjson.New("nlp", server.URL, httpjson.Options{}))
	if _, err := client.Tag(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
