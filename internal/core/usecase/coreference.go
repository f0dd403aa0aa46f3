package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

const sentenceTerminators = ".?! \t\n"

// CoreferenceResolver rewrites the current query with pronouns replaced by
// referents found in the context turns.
type CoreferenceResolver struct {
	resolver  ports.CoreferenceResolver
	segmenter ports.SentenceSegmenter
}

func NewCoreferenceResolver(resolver ports.CoreferenceResolver, segmenter ports.SentenceSegmenter) *CoreferenceResolver {
	return &CoreferenceResolver{resolver: resolver, segmenter: segmenter}
}

// Resolve returns the resolved query and the conversation text it was
// resolved against. Queries without a pronoun are returned unchanged.
func (r *CoreferenceResolver) Resolve(ctx context.Context, contextTurns []domain.Turn, query string) (domain.Resolution, error) {
	if !HasPronoun(query) {
		return domain.Resolution{Query: query}, nil
	}

	conversation := BuildConversation(contextTurns, query)
	resolvedText, err := r.resolver.ResolveCoreference(ctx, conversation)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve coreference: %w", err)
	}

	sentences, err := r.segmenter.Sentences(ctx, resolvedText)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("segment resolved conversation: %w", err)
	}

	resolved := lastSentence(sentences)
	if resolved == "" {
		return domain.Resolution{}, domain.WrapError(
			domain.ErrMalformedCoreference,
			"resolve coreference",
			errors.New("resolved conversation has no sentences"),
		)
	}

	return domain.Resolution{
		Query:        resolved,
		Conversation: conversation,
		Resolved:     true,
	}, nil
}

// BuildConversation joins each context turn's resolved query and answer
// with the current query into one sentence-separated text.
func BuildConversation(contextTurns []domain.Turn, query string) string {
	parts := make([]string, 0, len(contextTurns)*2+1)
	for _, turn := range contextTurns {
		for _, piece := range []string{turn.ResolvedQuery, turn.Answer} {
			piece = strings.TrimRight(strings.TrimSpace(piece), sentenceTerminators)
			if piece != "" {
				parts = append(parts, piece)
			}
		}
	}
	parts = append(parts, strings.TrimSpace(query))
	return strings.Join(parts, ". ")
}

func lastSentence(sentences []string) string {
	for i := len(sentences) - 1; i >= 0; i-- {
		s := strings.TrimRight(strings.TrimSpace(sentences[i]), sentenceTerminators)
		if s != "" {
			return s
		}
	}
	return ""
}
