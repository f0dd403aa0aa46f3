// Package redisstore keeps each session's turn log in a Redis list of JSON
// encoded turns, so several API replicas can share dialogue state.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Options struct {
	Prefix string
	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration
}

func New(client goredis.UniversalClient, options Options) *Store {
	prefix := options.Prefix
	if prefix == "" {
		prefix = "dialogue:session:"
	}
	return &Store{client: client, prefix: prefix, ttl: options.TTL}
}

// NewClient builds a client from a redis:// URL, falling back to treating
// the value as a plain host:port address.
func NewClient(rawURL string) *goredis.Client {
	opt, err := goredis.ParseURL(rawURL)
	if err != nil {
		opt = &goredis.Options{Addr: rawURL}
	}
	return goredis.NewClient(opt)
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID + ":turns"
}

func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis append turn", err)
	}
	return nil
}

func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	values, err := s.client.LRange(ctx, s.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "redis read turns", err)
	}

	turns := make([]domain.Turn, 0, len(values))
	for _, raw := range values {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
