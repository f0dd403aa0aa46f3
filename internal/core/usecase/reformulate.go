package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

// QueryReformulator turns a question into a weighted search query.
type QueryReformulator struct {
	tagger   ports.TokenTagger
	settings domain.PipelineSettings
}

func NewQueryReformulator(tagger ports.TokenTagger, settings domain.PipelineSettings) *QueryReformulator {
	return &QueryReformulator{tagger: tagger, settings: settings.WithDefaults()}
}

// Reformulate filters, tags and weights the question tokens. Each distinct
// token contributes its weight to MaxScore once.
func (r *QueryReformulator) Reformulate(ctx context.Context, question string) (domain.WeightedQuery, error) {
	tokens := r.tokens(question)
	if len(tokens) == 0 {
		return domain.WeightedQuery{Weights: map[string]float64{}}, nil
	}

	tagged, err := r.tagger.Tag(ctx, tokens)
	if err != nil {
		return domain.WeightedQuery{}, fmt.Errorf("tag query tokens: %w", err)
	}
	if len(tagged) != len(tokens) {
		return domain.WeightedQuery{}, domain.WrapError(
			domain.ErrInvalidInput,
			"tag query tokens",
			fmt.Errorf("tagger returned %d tags for %d tokens", len(tagged), len(tokens)),
		)
	}

	query := domain.WeightedQuery{Weights: make(map[string]float64, len(tagged))}
	for i, tok := range tagged {
		token := tokens[i]
		key := normalizeWord(token)
		if key == "" || isPossessive(token) {
			continue
		}
		if _, seen := query.Weights[key]; seen {
			continue
		}
		weight := r.weightFor(tok)
		query.Weights[key] = weight
		query.Terms = append(query.Terms, domain.WeightedTerm{Token: token, Weight: weight})
		query.MaxScore += weight
	}
	return query, nil
}

// tokens applies the enabled filters. Punctuation is stripped per token so
// possessive clitics drop out instead of fusing with their word.
func (r *QueryReformulator) tokens(question string) []string {
	text := question
	if r.settings.StripStopWords {
		text = dropWords(text, stopWords)
	}
	if r.settings.StripFiveW {
		text = dropWords(text, fiveW)
	}
	tokens := Tokenize(strings.ToLower(text))
	if !r.settings.StripPunctuation {
		return tokens
	}
	kept := tokens[:0]
	for _, tok := range tokens {
		if isPossessive(tok) {
			continue
		}
		if tok = stripPunctuation(tok); tok != "" {
			kept = append(kept, tok)
		}
	}
	return kept
}

func (r *QueryReformulator) weightFor(tok domain.TaggedToken) float64 {
	switch {
	case tok.IsEntity(), tok.POS == "PROPN", tok.POS == "ADJ", tok.POS == "ADV":
		return r.settings.HighWeight
	case tok.POS == "NOUN", tok.POS == "PRON":
		return r.settings.MediumWeight
	default:
		return r.settings.LowWeight
	}
}

func dropWords(text string, set map[string]struct{}) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, ok := set[strings.ToLower(w)]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// stripPunctuation removes ASCII punctuation and typographic single quotes,
// except hyphens joining two alphanumeric characters.
func stripPunctuation(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range runes {
		if !isStrippable(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' && i > 0 && i < len(runes)-1 && isAlnum(runes[i-1]) && isAlnum(runes[i+1]) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isStrippable(r rune) bool {
	if r == '\u2018' || r == '\u2019' {
		return true
	}
	return r <= unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r))
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
