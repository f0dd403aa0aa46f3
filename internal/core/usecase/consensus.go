package usecase

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

// AnswerConsensus extracts one answer per passage and votes on the
// lemma-normalized candidates.
type AnswerConsensus struct {
	extractor  ports.AnswerExtractor
	lemmatizer ports.Lemmatizer
	settings   domain.PipelineSettings
	logger     *slog.Logger
}

func NewAnswerConsensus(
	extractor ports.AnswerExtractor,
	lemmatizer ports.Lemmatizer,
	settings domain.PipelineSettings,
	logger *slog.Logger,
) *AnswerConsensus {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerConsensus{
		extractor:  extractor,
		lemmatizer: lemmatizer,
		settings:   settings.WithDefaults(),
		logger:     logger,
	}
}

// Select returns the best supported answer, or the zero selection when no
// passage yields one. Extraction failures degrade to the zero selection and
// report degraded=true.
func (c *AnswerConsensus) Select(ctx context.Context, question string, passages []domain.Passage) (selection domain.AnswerSelection, degraded bool) {
	candidates, err := c.extract(ctx, question, passages)
	if err != nil {
		c.logger.Warn("answer_extraction_failed", "error", err, "passages", len(passages))
		return domain.AnswerSelection{}, true
	}
	if len(candidates) == 0 {
		return domain.AnswerSelection{}, false
	}

	clusters := c.cluster(ctx, candidates)
	best := clusters[0]
	for _, cl := range clusters[1:] {
		if cl.votes() > best.votes() {
			best = cl
		}
	}
	if best.votes() < c.settings.MinVotes {
		return domain.AnswerSelection{}, false
	}

	winner := best.members[0]
	return domain.AnswerSelection{
		Answer:      winner.Answer,
		SourceTitle: winner.Passage.SourceTitle,
		PassageText: winner.Passage.Text(),
		Votes:       best.votes(),
	}, false
}

// Candidates are returned in passage rank order.
func (c *AnswerConsensus) extract(ctx context.Context, question string, passages []domain.Passage) ([]domain.Candidate, error) {
	if len(passages) > c.settings.MaxCandidates {
		passages = passages[:c.settings.MaxCandidates]
	}

	answers := make([]string, len(passages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.ExtractionWorkers)
	for i, passage := range passages {
		g.Go(func() error {
			answer, err := c.extractor.ExtractAnswer(gctx, question, passage.Text())
			if err != nil {
				return err
			}
			answers[i] = strings.TrimSpace(answer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(passages))
	for i, answer := range answers {
		if answer == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{Answer: answer, Passage: passages[i], Rank: i})
	}
	return candidates, nil
}

type answerCluster struct {
	key     string
	members []domain.Candidate
}

func (cl *answerCluster) votes() int {
	return len(cl.members) - 1
}

// cluster groups candidates by normalized text, keeping first-seen order so
// ties resolve to the best ranked passage.
func (c *AnswerConsensus) cluster(ctx context.Context, candidates []domain.Candidate) []*answerCluster {
	byKey := make(map[string]*answerCluster, len(candidates))
	var ordered []*answerCluster
	for _, cand := range candidates {
		key := c.normalizedKey(ctx, cand.Answer)
		cl, ok := byKey[key]
		if !ok {
			cl = &answerCluster{key: key}
			byKey[key] = cl
			ordered = append(ordered, cl)
		}
		cl.members = append(cl.members, cand)
	}
	return ordered
}

func (c *AnswerConsensus) normalizedKey(ctx context.Context, answer string) string {
	lemmas, err := c.lemmatizer.Lemmatize(ctx, answer)
	if err != nil || len(lemmas) == 0 {
		if err != nil {
			c.logger.Warn("answer_lemmatize_failed", "error", err)
		}
		return strings.ToLower(strings.Join(strings.Fields(answer), " "))
	}
	return strings.Join(lemmas, " ")
}
