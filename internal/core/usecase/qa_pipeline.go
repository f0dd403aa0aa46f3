package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

// QAStats describes one run of the extractive pipeline.
type QAStats struct {
	Query    domain.WeightedQuery
	Passages int
	Degraded bool
	Duration time.Duration
}

// QAPipeline runs reformulation, passage scoring and answer consensus.
// Failures never escape: they yield the zero selection so callers can fall
// back to the chat branch.
type QAPipeline struct {
	reformulator *QueryReformulator
	scorer       *PassageScorer
	consensus    *AnswerConsensus
	logger       *slog.Logger
}

func NewQAPipeline(
	reformulator *QueryReformulator,
	scorer *PassageScorer,
	consensus *AnswerConsensus,
	logger *slog.Logger,
) *QAPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &QAPipeline{
		reformulator: reformulator,
		scorer:       scorer,
		consensus:    consensus,
		logger:       logger,
	}
}

func (p *QAPipeline) Answer(ctx context.Context, question string) (domain.AnswerSelection, QAStats) {
	start := time.Now()
	stats := QAStats{}

	query, err := p.reformulator.Reformulate(ctx, question)
	if err != nil {
		p.logger.Warn("query_reformulation_failed", "error", err)
		stats.Degraded = true
		stats.Duration = time.Since(start)
		return domain.AnswerSelection{}, stats
	}
	stats.Query = query
	p.logger.Debug("query_reformulated", "query", query.String(), "max_score", query.MaxScore)

	passages, err := p.scorer.Score(ctx, strings.ToLower(question), query)
	if err != nil {
		p.logger.Warn("passage_scoring_failed", "error", err)
		stats.Degraded = true
		stats.Duration = time.Since(start)
		return domain.AnswerSelection{}, stats
	}
	stats.Passages = len(passages)
	p.logger.Debug("passages_scored", "passages", len(passages))

	selection, degraded := p.consensus.Select(ctx, question, passages)
	stats.Degraded = degraded
	stats.Duration = time.Since(start)
	p.logger.Debug("answer_consensus",
		"answer_found", !selection.Empty(),
		"votes", selection.Votes,
		"source_title", selection.SourceTitle,
	)
	return selection, stats
}
