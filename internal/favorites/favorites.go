// Package favorites keeps the visitor's set of favorited listing ids in a
// key/value store. Storage problems never surface to callers: reads degrade
// to an empty set and failed writes are logged and dropped.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/induohouse/induoweb/internal/kvstore"
)

// StorageKey is the base key the set is stored under.
const StorageKey = "induo_favorites"

const payloadVersion = 1

type payload struct {
	Version int     `json:"version"`
	IDs     []int64 `json:"ids"`
}

type Store struct {
	kv     kvstore.Store
	key    string
	logger *slog.Logger
	// mu serializes read-modify-write within this process only. Two processes
	// writing the same key race and the last write wins.
	mu       sync.Mutex
	onChange func(id int64, added bool)
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithChangeHook registers fn to run after every membership change.
func WithChangeHook(fn func(id int64, added bool)) Option {
	return func(s *Store) { s.onChange = fn }
}

// New returns a store persisting under key. An empty key means StorageKey.
func New(kv kvstore.Store, key string, opts ...Option) *Store {
	if key == "" {
		key = StorageKey
	}
	s := &Store{kv: kv, key: key, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyFor scopes the favorites key to one visitor.
func KeyFor(visitorID string) string {
	if visitorID == "" {
		return StorageKey
	}
	return StorageKey + ":" + visitorID
}

func (s *Store) IsFavorite(ctx context.Context, id int64) bool {
	return slices.Contains(s.read(ctx), id)
}

// List returns the favorited ids in insertion order.
func (s *Store) List(ctx context.Context) []int64 {
	return s.read(ctx)
}

// Toggle flips membership of id and returns whether it is now a favorite.
func (s *Store) Toggle(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.read(ctx)
	added := true
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
		added = false
	} else {
		ids = append(ids, id)
	}
	s.write(ctx, ids)
	s.changed(id, added)
	return added
}

// Add is idempotent.
func (s *Store) Add(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.read(ctx)
	if slices.Contains(ids, id) {
		return
	}
	s.write(ctx, append(ids, id))
	s.changed(id, true)
}

func (s *Store) Remove(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.read(ctx)
	i := slices.Index(ids, id)
	if i < 0 {
		return
	}
	s.write(ctx, slices.Delete(ids, i, i+1))
	s.changed(id, false)
}

func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(ctx, nil)
}

// Watch streams the full id list after every write to the key. The channel
// closes when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan []int64, error) {
	raw, err := s.kv.Subscribe(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch favorites: %w", err)
	}

	out := make(chan []int64)
	go func() {
		defer close(out)
		for v := range raw {
			ids, _, err := Decode(v)
			if err != nil {
				s.logger.Warn("ignoring corrupt favorites update", "key", s.key, "error", err)
				ids = []int64{}
			}
			select {
			case out <- ids:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Decode parses a stored payload. A bare JSON array is the legacy format
// and is reported as version 0.
func Decode(raw []byte) ([]int64, int, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err == nil {
		if p.Version < 1 {
			return nil, 0, fmt.Errorf("unsupported favorites version %d", p.Version)
		}
		return dedupe(p.IDs), p.Version, nil
	}

	var legacy []int64
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, 0, fmt.Errorf("failed to decode favorites: %w", err)
	}
	return dedupe(legacy), 0, nil
}

func Encode(ids []int64) ([]byte, error) {
	if ids == nil {
		ids = []int64{}
	}
	return json.Marshal(payload{Version: payloadVersion, IDs: ids})
}

func (s *Store) read(ctx context.Context) []int64 {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("favorites storage unavailable", "key", s.key, "error", err)
		}
		return []int64{}
	}
	ids, _, err := Decode(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt favorites", "key", s.key, "error", err)
		return []int64{}
	}
	return ids
}

func (s *Store) write(ctx context.Context, ids []int64) {
	data, err := Encode(ids)
	if err != nil {
		s.logger.Error("failed to encode favorites", "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Warn("failed to persist favorites", "key", s.key, "error", err)
	}
}

func (s *Store) changed(id int64, added bool) {
	if s.onChange != nil {
		s.onChange(id, added)
	}
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
