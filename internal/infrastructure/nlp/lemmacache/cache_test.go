package lemmacache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type lemmatizerFake struct {
	calls int
	err   error
}

func (f *lemmatizerFake) Lemmatize(_ context.Context, text string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return strings.Fields(strings.ToLower(text)), nil
}

func TestLemmatizeCachesResults(t *testing.T) {
	next := &lemmatizerFake{}
	l := New(next, time.Minute)

	first, err := l.Lemmatize(context.Background(), "Red Apples")
	if err != nil {
		t.Fatalf("Lemmatize() error = %v", err)
	}
	first[0] = "mutated"

	second, err := l.Lemmatize(context.Background(), "Red Apples")
	if err != nil {
		t.Fatalf("Lemmatize() error = %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	if second[0] != "red" {
		t.Fatalf("cached value must not be shared with callers, got %q", second)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", l.Len())
	}
}

func TestLemmatizeDoesNotCacheErrors(t *testing.T) {
	next := &lemmatizerFake{err: errors.New("nlp down")}
	l := New(next, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := l.Lemmatize(context.Background(), "x"); err == nil {
			t.Fatalf("expected error")
		}
	}
	if next.calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", next.calls)
	}
}
