package server

import (
	"context"
	"sync"
	"time"

	"babymonitor/internal/shared"
)

// Store holds the one current Reading. Set replaces it whole; a Get never
// observes a half-applied Set.
type Store interface {
	Get(ctx context.Context) (shared.Reading, error)
	Set(ctx context.Context, r shared.Reading) error
}

type MemoryStore struct {
	mu      sync.RWMutex
	current shared.Reading
}

func NewMemoryStore(now time.Time) *MemoryStore {
	return &MemoryStore{current: shared.DefaultReading(now)}
}

func (s *MemoryStore) Get(_ context.Context) (shared.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *MemoryStore) Set(_ context.Context, r shared.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
	return nil
}
