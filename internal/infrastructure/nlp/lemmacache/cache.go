// Package lemmacache memoizes lemmatization of short answer strings. The
// consensus vote lemmatizes every candidate answer, and the same answers
// recur across turns.
package lemmacache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

type Lemmatizer struct {
	next  ports.Lemmatizer
	cache *cache.Cache
}

func New(next ports.Lemmatizer, ttl time.Duration) *Lemmatizer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Lemmatizer{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (l *Lemmatizer) Lemmatize(ctx context.Context, text string) ([]string, error) {
	if x, found := l.cache.Get(text); found {
		return append([]string(nil), x.([]string)...), nil
	}
	lemmas, err := l.next.Lemmatize(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Set(text, append([]string(nil), lemmas...), cache.DefaultExpiration)
	return lemmas, nil
}

func (l *Lemmatizer) Len() int {
	return l.cache.ItemCount()
}
