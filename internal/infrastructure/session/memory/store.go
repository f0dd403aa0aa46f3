// Package memory keeps session turn logs in process memory. Logs live for
// the lifetime of the process.
package memory

import (
	"context"
	"sync"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
}

func New() *Store {
	return &Store{sessions: make(map[string][]domain.Turn)}
}

func (s *Store) AppendTurn(_ context.Context, sessionID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

// RecentTurns returns a copy of the last limit turns in chronological
// order; limit <= 0 returns the whole log.
func (s *Store) RecentTurns(_ context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
