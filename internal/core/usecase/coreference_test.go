package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

// corefFake replaces pronouns with a fixed referent and splits on ". ".
type corefFake struct {
	replacements map[string]string
	input        string
	calls        int
	err          error
	sentences    []string
	sentenceErr  error
}

func (f *corefFake) ResolveCoreference(_ context.Context, text string) (string, error) {
	f.calls++
	f.input = text
	if f.err != nil {
		return "", f.err
	}
	words := strings.Fields(text)
	for i, w := range words {
		if repl, ok := f.replacements[strings.ToLower(w)]; ok {
			words[i] = repl
		}
	}
	return strings.Join(words, " "), nil
}

func (f *corefFake) Sentences(_ context.Context, text string) ([]string, error) {
	if f.sentenceErr != nil {
		return nil, f.sentenceErr
	}
	if f.sentences != nil {
		return f.sentences, nil
	}
	return splitSentencesForTest(text), nil
}

func splitSentencesForTest(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ". ") {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func TestCoreferenceResolvesFromContext(t *testing.T) {
	fake := &corefFake{replacements: map[string]string{"her": "Alice"}}
	r := NewCoreferenceResolver(fake, fake)

	turns := []domain.Turn{{ResolvedQuery: "Alice", Answer: "Alice loves painting", Route: domain.RouteQA}}
	res, err := r.Resolve(context.Background(), turns, "What is her favorite color?")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Query != "What is Alice favorite color" {
		t.Fatalf("unexpected resolved query %q", res.Query)
	}
	if !strings.HasSuffix(res.Query, "favorite color") || strings.Contains(res.Query, "her") {
		t.Fatalf("pronoun not replaced: %q", res.Query)
	}
	if res.Conversation != "Alice. Alice loves painting. What is her favorite color?" {
		t.Fatalf("unexpected conversation %q", res.Conversation)
	}
	if !res.Resolved {
		t.Fatalf("expected resolved flag")
	}
}

func TestCoreferenceSkipsWithoutPronoun(t *testing.T) {
	fake := &corefFake{}
	r := NewCoreferenceResolver(fake, fake)

	res, err := r.Resolve(context.Background(), nil, "Who wrote Hamlet?")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Query != "Who wrote Hamlet?" || res.Conversation != "" || res.Resolved {
		t.Fatalf("expected passthrough, got %+v", res)
	}
	if fake.calls != 0 {
		t.Fatalf("expected no service calls, got %d", fake.calls)
	}
}

func TestCoreferenceWithoutContextUsesQueryAlone(t *testing.T) {
	fake := &corefFake{}
	r := NewCoreferenceResolver(fake, fake)

	res, err := r.Resolve(context.Background(), nil, "Is it cold?")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if fake.input != "Is it cold?" {
		t.Fatalf("expected query as conversation, got %q", fake.input)
	}
	if res.Query != "Is it cold" {
		t.Fatalf("expected terminator stripped, got %q", res.Query)
	}
}

func TestCoreferenceEmptySegmentationIsFatal(t *testing.T) {
	fake := &corefFake{sentences: []string{" ", "?"}}
	r := NewCoreferenceResolver(fake, fake)

	_, err := r.Resolve(context.Background(), nil, "Is it cold?")
	if !domain.IsKind(err, domain.ErrMalformedCoreference) {
		t.Fatalf("expected ErrMalformedCoreference, got %v", err)
	}
}

func TestCoreferenceServiceErrorPropagates(t *testing.T) {
	fake := &corefFake{err: errors.New("nlp down")}
	r := NewCoreferenceResolver(fake, fake)

	if _, err := r.Resolve(context.Background(), nil, "Is it cold?"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuildConversationTrimsTerminators(t *testing.T) {
	turns := []domain.Turn{
		{ResolvedQuery: "Where is Paris?", Answer: "In France."},
		{ResolvedQuery: "", Answer: "Europe"},
	}
	got := BuildConversation(turns, "Is it big?")
	want := "Where is Paris. In France. Europe. Is it big?"
	if got != want {
		t.Fatalf("BuildConversation() = %q, want %q", got, want)
	}
}
