package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

// FallbackAnswer replaces an empty final answer.
const FallbackAnswer = "I don't know"

// turnWriteTimeout bounds the session append, which runs outside the turn
// deadline.
const turnWriteTimeout = 5 * time.Second

// DialogueObserver receives per-turn pipeline measurements.
type DialogueObserver interface {
	ObserveTurn(route domain.Route, coreferenceResolved bool, stats QAStats, votes int, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveTurn(domain.Route, bool, QAStats, int, time.Duration) {}

// DialogueUseCase answers one conversational turn and records it in the
// session log.
type DialogueUseCase struct {
	sessions   ports.SessionStore
	window     *ContextWindow
	coref      *CoreferenceResolver
	qa         *QAPipeline
	classifier ports.IntentClassifier
	chat       ports.ChatResponder
	observer   DialogueObserver
	logger     *slog.Logger
	timeout    time.Duration

	locks *keyedMutex
}

type DialogueDeps struct {
	Sessions   ports.SessionStore
	Window     *ContextWindow
	Coref      *CoreferenceResolver
	QA         *QAPipeline
	Classifier ports.IntentClassifier
	Chat       ports.ChatResponder
	Observer   DialogueObserver
	Logger     *slog.Logger
	Timeout    time.Duration
}

func NewDialogueUseCase(deps DialogueDeps) *DialogueUseCase {
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &DialogueUseCase{
		sessions:   deps.Sessions,
		window:     deps.Window,
		coref:      deps.Coref,
		qa:         deps.QA,
		classifier: deps.Classifier,
		chat:       deps.Chat,
		observer:   deps.Observer,
		logger:     deps.Logger,
		timeout:    deps.Timeout,
		locks:      newKeyedMutex(),
	}
}

func (uc *DialogueUseCase) Respond(ctx context.Context, sessionID, query string) (*domain.TurnResult, error) {
	query = capitalizeQuery(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "respond", errors.New("query is required"))
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "respond", errors.New("session id is required"))
	}

	unlock := uc.locks.Lock(sessionID)
	defer unlock()

	parent := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	start := time.Now()

	contextTurns, err := uc.window.Build(ctx, sessionID, query)
	if err != nil {
		return nil, fmt.Errorf("build context window: %w", err)
	}
	resolution, err := uc.coref.Resolve(ctx, contextTurns, query)
	if err != nil {
		return nil, err
	}

	var (
		selection domain.AnswerSelection
		stats     QAStats
		chatReply string
		intent    = domain.IntentRetrieval
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		selection, stats = uc.qa.Answer(gctx, resolution.Query)
		return nil
	})
	g.Go(func() error {
		reply, err := uc.chat.GenerateChatReply(gctx, query)
		if err != nil {
			uc.logger.Warn("chat_reply_failed", "session_id", sessionID, "error", err)
			return nil
		}
		chatReply = reply
		return nil
	})
	g.Go(func() error {
		label, err := uc.classifier.ClassifyIntent(gctx, query)
		if err != nil {
			uc.logger.Warn("intent_classification_failed", "session_id", sessionID, "error", err)
			return nil
		}
		intent = label
		return nil
	})
	_ = g.Wait()

	turn := domain.Turn{
		ID:            uuid.NewString(),
		Query:         query,
		ResolvedQuery: resolution.Query,
		CreatedAt:     time.Now().UTC(),
	}
	if intent == domain.IntentChat {
		turn.Route = domain.RouteChat
		turn.Answer = chatReply
	} else {
		turn.Route = domain.RouteQA
		turn.Answer = selection.Answer
		turn.SourceTitle = selection.SourceTitle
	}
	turn.Answer = NormalizeAnswer(turn.Answer)
	if turn.Answer == "" {
		turn.Answer = FallbackAnswer
	}

	// The turn deadline may already be spent by a degraded QA run; the
	// answer must still be recorded.
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(parent), turnWriteTimeout)
	defer cancelWrite()
	if err := uc.sessions.AppendTurn(writeCtx, sessionID, turn); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}

	duration := time.Since(start)
	uc.observer.ObserveTurn(turn.Route, resolution.Resolved, stats, selection.Votes, duration)
	uc.logger.Info("turn_completed",
		"session_id", sessionID,
		"route", string(turn.Route),
		"intent", string(intent),
		"coreference_resolved", resolution.Resolved,
		"passages", stats.Passages,
		"degraded", stats.Degraded,
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)

	return &domain.TurnResult{
		SessionID:    sessionID,
		Turn:         turn,
		Conversation: resolution.Conversation,
		Intent:       intent,
		QA:           selection,
		ChatAnswer:   chatReply,
	}, nil
}

func (uc *DialogueUseCase) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "history", errors.New("session id is required"))
	}
	turns, err := uc.sessions.RecentTurns(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("load session turns: %w", err)
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

// keyedMutex serializes work per key and drops idle entries.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
