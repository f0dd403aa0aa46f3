package usecase

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

var pronounPattern = regexp.MustCompile(`(?i)\b(he|him|his|himself|she|her|hers|herself|it|its|itself|they|them|their|theirs|themselves)\b`)

// HasPronoun reports whether query mentions a pronoun that may need
// resolving against earlier turns.
func HasPronoun(query string) bool {
	return pronounPattern.MatchString(query)
}

// ContextWindow selects the prior QA turns used as coreference context.
type ContextWindow struct {
	sessions ports.SessionStore
	depth    int
}

func NewContextWindow(sessions ports.SessionStore, depth int) *ContextWindow {
	if depth <= 0 {
		depth = domain.DefaultPipelineSettings().ContextDepth
	}
	return &ContextWindow{sessions: sessions, depth: depth}
}

// Build returns at most depth of the most recent consecutive QA turns, in
// chronological order. Queries without a pronoun get no context.
func (w *ContextWindow) Build(ctx context.Context, sessionID, query string) ([]domain.Turn, error) {
	if !HasPronoun(query) || sessionID == "" {
		return nil, nil
	}

	turns, err := w.sessions.RecentTurns(ctx, sessionID, 0)
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session turns: %w", err)
	}

	return trailingQATurns(turns, w.depth), nil
}

func trailingQATurns(turns []domain.Turn, depth int) []domain.Turn {
	start := len(turns)
	for start > 0 && turns[start-1].Route == domain.RouteQA && len(turns)-start < depth {
		start--
	}
	if start == len(turns) {
		return nil
	}
	out := make([]domain.Turn, len(turns)-start)
	copy(out, turns[start:])
	return out
}
