package domain

import (
	"strconv"
	"strings"
)

// TaggedToken is one token annotated by the text-understanding service.
// EntityIOB is "O" for tokens outside any named entity.
type TaggedToken struct {
	Text      string `json:"text"`
	POS       string `json:"pos"`
	EntityIOB string `json:"ent_iob"`
}

func (t TaggedToken) IsEntity() bool {
	return t.EntityIOB != "" && t.EntityIOB != "O"
}

type WeightedTerm struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// WeightedQuery is a reformulated question. Weights maps every emitted
// token to its weight so scoring never has to parse the rendered string.
type WeightedQuery struct {
	Terms    []WeightedTerm     `json:"terms"`
	Weights  map[string]float64 `json:"-"`
	MaxScore float64            `json:"max_score"`
}

// String renders the query as space separated token^weight pairs.
func (q WeightedQuery) String() string {
	parts := make([]string, 0, len(q.Terms))
	for _, term := range q.Terms {
		parts = append(parts, term.Token+"^"+strconv.FormatFloat(term.Weight, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func (q WeightedQuery) Empty() bool {
	return len(q.Terms) == 0
}

type FieldBoosts struct {
	Title       float64
	OpeningText float64
	Body        float64
}

// SearchDocument is one ranked hit from the document index.
type SearchDocument struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Score float64 `json:"score"`
}

// Passage is a window of consecutive sentences from one document.
type Passage struct {
	SourceTitle string   `json:"source_title"`
	Sentences   []string `json:"sentences"`
	Start       int      `json:"start"`
	Score       float64  `json:"score"`
}

// Candidate is a non-empty extracted answer and the passage it came from.
type Candidate struct {
	Answer  string  `json:"answer"`
	Passage Passage `json:"passage"`
	Rank    int     `json:"rank"`
}

// AnswerSelection is the consensus result. The zero value is the
// "no answer" sentinel.
type AnswerSelection struct {
	Answer      string `json:"answer"`
	SourceTitle string `json:"source_title"`
	PassageText string `json:"passage_text"`
	Votes       int    `json:"votes"`
}

func (a AnswerSelection) Empty() bool {
	return a.Answer == ""
}

func (p Passage) Text() string {
	return strings.Join(p.Sentences, " ")
}
