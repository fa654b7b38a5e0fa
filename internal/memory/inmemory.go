package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	turns  map[string][]Turn
	states map[string]DayState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		turns:  make(map[string][]Turn),
		states: make(map[string]DayState),
	}
}

func (s *InMemoryStore) AppendTurn(_ context.Context, userID string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = append(s.turns[userID], Turn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) RecentTurns(_ context.Context, userID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[userID]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Turn, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) Trim(_ context.Context, userID string, capacity int) error {
	if capacity < 0 {
		capacity = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	arr := s.turns[userID]
	if len(arr) <= capacity {
		return nil
	}
	kept := make([]Turn, capacity)
	copy(kept, arr[len(arr)-capacity:])
	s.turns[userID] = kept
	return nil
}

func (s *InMemoryStore) DayStateFor(_ context.Context, userID, day string) (*DayState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[userID+"|"+day]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *InMemoryStore) PutDayState(_ context.Context, state DayState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID+"|"+state.Day] = state
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
