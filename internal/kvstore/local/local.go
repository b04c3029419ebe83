package local

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/induohouse/induoweb/internal/kvstore"
)

// FileStore keeps one file per key under basePath. Writes go through a temp
// file and a rename so readers never see a partial value.
type FileStore struct {
	basePath string
	hub      kvstore.Hub
}

func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kvstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(value); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after rename error", "error", rerr)
		}
		return fmt.Errorf("failed to replace file: %w", err)
	}

	s.hub.Publish(key, value)
	return nil
}

func (s *FileStore) Subscribe(ctx context.Context, key string) (<-chan []byte, error) {
	if _, err := s.safeJoin(key); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, key), nil
}

// safeJoin maps key to a file under basePath and rejects directory traversal.
func (s *FileStore) safeJoin(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, url.PathEscape(key)+".json"))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
