package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

type searcherFake struct {
	docs   []domain.SearchDocument
	err    error
	calls  int
	boosts domain.FieldBoosts
	topK   int
}

func (f *searcherFake) Search(_ context.Context, _ domain.WeightedQuery, boosts domain.FieldBoosts, topK int) ([]domain.SearchDocument, error) {
	f.calls++
	f.boosts = boosts
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type segmenterFake struct {
	err error
}

func (f segmenterFake) Sentences(_ context.Context, text string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return splitSentencesForTest(text), nil
}

func capitalQuery() domain.WeightedQuery {
	return domain.WeightedQuery{
		Terms: []domain.WeightedTerm{
			{Token: "capital", Weight: 2},
			{Token: "france", Weight: 3},
			{Token: "paris", Weight: 3},
		},
		Weights:  map[string]float64{"capital": 2, "france": 3, "paris": 3},
		MaxScore: 8,
	}
}

func passageSettings() domain.PipelineSettings {
	s := domain.DefaultPipelineSettings()
	s.PassageLength = 2
	s.PassageScoreMin = 0.25
	s.MaxPassages = 10
	s.MaxDocuments = 7
	return s
}

func TestSentenceScoreConsumesQuestionWordsOnce(t *testing.T) {
	words := distinctWords("the cat sat on the mat")
	weights := map[string]float64{"the": 1, "cat": 2, "sat": 1, "on": 1, "mat": 2}

	if got := SentenceScore("the the the", words, weights); got != 1 {
		t.Fatalf("SentenceScore() = %v, want 1", got)
	}
	if got := SentenceScore("The cat, the mat!", words, weights); got != 5 {
		t.Fatalf("SentenceScore() = %v, want 5", got)
	}
}

func TestSentenceScoreIsMonotonicInOverlap(t *testing.T) {
	words := distinctWords("capital of france paris")
	weights := capitalQuery().Weights

	fewer := SentenceScore("Paris is nice", words, weights)
	more := SentenceScore("Paris is the capital", words, weights)
	if more < fewer {
		t.Fatalf("expected more overlap to score higher: %v < %v", more, fewer)
	}
	if unknown := SentenceScore("of of", words, weights); unknown != 0 {
		t.Fatalf("words without weight must score 0, got %v", unknown)
	}
}

func TestScoreBuildsThresholdedWindows(t *testing.T) {
	searcher := &searcherFake{docs: []domain.SearchDocument{
		{Title: "Paris", Body: "Paris is the capital of France. It is large. Paris hosts museums. Nothing here."},
		{Title: "France", Body: "France is in Europe. Its capital is Paris."},
		{Title: "Short", Body: "Paris."},
		{Title: "Empty", Body: ""},
	}}
	scorer := NewPassageScorer(searcher, segmenterFake{}, passageSettings())

	passages, err := scorer.Score(context.Background(), "what is the capital of france? paris", capitalQuery())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d: %+v", len(passages), passages)
	}
	if passages[0].SourceTitle != "Paris" || passages[0].Start != 0 || passages[0].Score != 8 {
		t.Fatalf("unexpected first passage %+v", passages[0])
	}
	if passages[1].SourceTitle != "France" || passages[1].Score != 8 {
		t.Fatalf("unexpected second passage %+v", passages[1])
	}
	if len(passages[0].Sentences) != 2 {
		t.Fatalf("expected 2 sentence window, got %d", len(passages[0].Sentences))
	}
	if searcher.topK != 7 || searcher.boosts != passageSettings().WithDefaults().Boosts {
		t.Fatalf("unexpected search args topK=%d boosts=%+v", searcher.topK, searcher.boosts)
	}
}

func TestScoreSortsAndTruncates(t *testing.T) {
	settings := passageSettings()
	settings.PassageScoreMin = 0
	settings.MaxPassages = 2
	searcher := &searcherFake{docs: []domain.SearchDocument{
		{Title: "low", Body: "Nothing. Paris. Nothing."},
		{Title: "high", Body: "Paris capital. France capital."},
	}}
	scorer := NewPassageScorer(searcher, segmenterFake{}, settings)

	passages, err := scorer.Score(context.Background(), "capital france paris", capitalQuery())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(passages))
	}
	if passages[0].SourceTitle != "high" || passages[0].Score != 10 {
		t.Fatalf("expected best window first, got %+v", passages[0])
	}
	if passages[1].Score > passages[0].Score {
		t.Fatalf("passages not sorted: %+v", passages)
	}
}

func TestScoreSkipsEmptyQuery(t *testing.T) {
	searcher := &searcherFake{}
	scorer := NewPassageScorer(searcher, segmenterFake{}, passageSettings())

	passages, err := scorer.Score(context.Background(), "who", domain.WeightedQuery{})
	if err != nil || passages != nil {
		t.Fatalf("expected no passages, got %v %v", passages, err)
	}
	if searcher.calls != 0 {
		t.Fatalf("expected no search for an empty query")
	}
}

func TestScorePropagatesFailures(t *testing.T) {
	scorer := NewPassageScorer(&searcherFake{err: errors.New("es down")}, segmenterFake{}, passageSettings())
	if _, err := scorer.Score(context.Background(), "paris", capitalQuery()); err == nil {
		t.Fatalf("expected search error")
	}

	scorer = NewPassageScorer(
		&searcherFake{docs: []domain.SearchDocument{{Title: "x", Body: "Paris. France."}}},
		segmenterFake{err: errors.New("nlp down")},
		passageSettings(),
	)
	if _, err := scorer.Score(context.Background(), "paris", capitalQuery()); err == nil {
		t.Fatalf("expected segmentation error")
	}
}
