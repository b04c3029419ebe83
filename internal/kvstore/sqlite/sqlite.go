package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/induohouse/induoweb/internal/kvstore"
)

// KVStore persists values in the kv_entries table.
type KVStore struct {
	db  *sql.DB
	hub kvstore.Hub
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv_entries WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}

	s.hub.Publish(key, value)
	return nil
}

func (s *KVStore) Subscribe(ctx context.Context, key string) (<-chan []byte, error) {
	return s.hub.Subscribe(ctx, key), nil
}
