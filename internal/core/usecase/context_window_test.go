package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

type sessionStoreFake struct {
	turns     map[string][]domain.Turn
	appendErr error
	readErr   error
	lastLimit int
	honorCtx  bool
}

func newSessionStoreFake() *sessionStoreFake {
	return &sessionStoreFake{turns: map[string][]domain.Turn{}}
}

func (f *sessionStoreFake) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns[sessionID] = append(f.turns[sessionID], turn)
	return nil
}

func (f *sessionStoreFake) RecentTurns(_ context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	f.lastLimit = limit
	if f.readErr != nil {
		return nil, f.readErr
	}
	turns := f.turns[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]domain.Turn(nil), turns...), nil
}

func qaTurn(q string) domain.Turn {
	return domain.Turn{Query: q, ResolvedQuery: q, Answer: "a " + q, Route: domain.RouteQA}
}

func chatTurn(q string) domain.Turn {
	return domain.Turn{Query: q, ResolvedQuery: q, Answer: "hi", Route: domain.RouteChat}
}

func TestHasPronoun(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{query: "What is her favorite color?", want: true},
		{query: "Where did THEY go", want: true},
		{query: "Who wrote Hamlet?", want: false},
		{query: "Tell me about the hemisphere", want: false},
		{query: "Is it raining", want: true},
	}
	for _, tc := range cases {
		if got := HasPronoun(tc.query); got != tc.want {
			t.Fatalf("HasPronoun(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestContextWindowNoPronounReturnsNothing(t *testing.T) {
	store := newSessionStoreFake()
	store.turns["s1"] = []domain.Turn{qaTurn("q1")}
	w := NewContextWindow(store, 3)

	turns, err := w.Build(context.Background(), "s1", "Who wrote Hamlet?")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected no context, got %d turns", len(turns))
	}
}

func TestContextWindowStopsAtChatTurn(t *testing.T) {
	store := newSessionStoreFake()
	store.turns["s1"] = []domain.Turn{
		qaTurn("m1"), qaTurn("m2"), qaTurn("m3"),
		chatTurn("hello"),
		qaTurn("k1"), qaTurn("k2"),
	}
	w := NewContextWindow(store, 5)

	turns, err := w.Build(context.Background(), "s1", "what did she say")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Query != "k1" || turns[1].Query != "k2" {
		t.Fatalf("expected chronological k1,k2, got %s,%s", turns[0].Query, turns[1].Query)
	}
}

func TestContextWindowTruncatesToDepth(t *testing.T) {
	store := newSessionStoreFake()
	store.turns["s1"] = []domain.Turn{qaTurn("k1"), qaTurn("k2"), qaTurn("k3"), qaTurn("k4")}
	w := NewContextWindow(store, 2)

	turns, err := w.Build(context.Background(), "s1", "where is it")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(turns) != 2 || turns[0].Query != "k3" || turns[1].Query != "k4" {
		t.Fatalf("unexpected window: %+v", turns)
	}
	for _, turn := range turns {
		if turn.Route != domain.RouteQA {
			t.Fatalf("expected only QA turns, got %s", turn.Route)
		}
	}
}

func TestContextWindowLatestTurnChat(t *testing.T) {
	store := newSessionStoreFake()
	store.turns["s1"] = []domain.Turn{qaTurn("k1"), chatTurn("bye")}
	w := NewContextWindow(store, 3)

	turns, err := w.Build(context.Background(), "s1", "is it true")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty window, got %d", len(turns))
	}
}

func TestContextWindowUnknownSession(t *testing.T) {
	w := NewContextWindow(newSessionStoreFake(), 3)
	turns, err := w.Build(context.Background(), "missing", "what is it")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected no turns, got %d", len(turns))
	}
}

func TestContextWindowSessionNotFoundIsNotAnError(t *testing.T) {
	store := newSessionStoreFake()
	store.readErr = domain.WrapError(domain.ErrSessionNotFound, "recent turns", errors.New("no rows"))
	w := NewContextWindow(store, 3)

	if _, err := w.Build(context.Background(), "s1", "what is it"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestContextWindowStoreErrorPropagates(t *testing.T) {
	store := newSessionStoreFake()
	store.readErr = errors.New("db down")
	w := NewContextWindow(store, 3)

	if _, err := w.Build(context.Background(), "s1", "what is it"); err == nil {
		t.Fatalf("expected error")
	}
}
