package memory

import (
	"context"
	"sync"

	"github.com/induohouse/induoweb/internal/kvstore"
)

// Store keeps values in a map. It is the default for tests and for the CLI
// when no persistence is wanted.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
	hub  kvstore.Hub
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	s.hub.Publish(key, value)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, key string) (<-chan []byte, error) {
	return s.hub.Subscribe(ctx, key), nil
}
