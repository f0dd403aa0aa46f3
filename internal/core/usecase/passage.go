package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

// PassageScorer retrieves documents and ranks sentence windows by
// weighted term overlap with the question.
type PassageScorer struct {
	searcher  ports.DocumentSearcher
	segmenter ports.SentenceSegmenter
	settings  domain.PipelineSettings
}

func NewPassageScorer(searcher ports.DocumentSearcher, segmenter ports.SentenceSegmenter, settings domain.PipelineSettings) *PassageScorer {
	return &PassageScorer{searcher: searcher, segmenter: segmenter, settings: settings.WithDefaults()}
}

// Score returns accepted passages ordered by descending window score,
// capped at MaxPassages.
func (s *PassageScorer) Score(ctx context.Context, question string, query domain.WeightedQuery) ([]domain.Passage, error) {
	if query.Empty() || query.MaxScore <= 0 {
		return nil, nil
	}

	docs, err := s.searcher.Search(ctx, query, s.settings.Boosts, s.settings.MaxDocuments)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	questionWords := distinctWords(question)
	var passages []domain.Passage
	for _, doc := range docs {
		if doc.Body == "" {
			continue
		}
		sentences, err := s.segmenter.Sentences(ctx, doc.Body)
		if err != nil {
			return nil, fmt.Errorf("segment document %q: %w", doc.Title, err)
		}
		passages = append(passages, s.windows(doc.Title, sentences, questionWords, query)...)
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > s.settings.MaxPassages {
		passages = passages[:s.settings.MaxPassages]
	}
	return passages, nil
}

func (s *PassageScorer) windows(title string, sentences, questionWords []string, query domain.WeightedQuery) []domain.Passage {
	width := s.settings.PassageLength
	if len(sentences) < width {
		return nil
	}

	scores := make([]float64, len(sentences))
	for i, sentence := range sentences {
		scores[i] = SentenceScore(sentence, questionWords, query.Weights)
	}

	var out []domain.Passage
	for start := 0; start+width <= len(sentences); start++ {
		var sum float64
		for _, score := range scores[start : start+width] {
			sum += score
		}
		if sum/(query.MaxScore*float64(width)) < s.settings.PassageScoreMin {
			continue
		}
		window := make([]string, width)
		copy(window, sentences[start:start+width])
		out = append(out, domain.Passage{
			SourceTitle: title,
			Sentences:   window,
			Start:       start,
			Score:       sum,
		})
	}
	return out
}

// SentenceScore sums the weights of question words found in sentence. Each
// question word is consumed by its first match, so repeats in the sentence
// score once.
func SentenceScore(sentence string, questionWords []string, weights map[string]float64) float64 {
	remaining := make(map[string]int, len(questionWords))
	for _, w := range questionWords {
		remaining[w]++
	}

	var score float64
	for _, token := range Tokenize(sentence) {
		word := normalizeWord(token)
		if remaining[word] == 0 {
			continue
		}
		remaining[word]--
		score += weights[word]
	}
	return score
}

func distinctWords(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, token := range Tokenize(text) {
		word := normalizeWord(token)
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}
