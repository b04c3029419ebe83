package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/induohouse/induoweb/internal/kvstore"
)

const channelPrefix = "induo:kv:"

// Store keeps values in Redis and announces writes on a pub/sub channel per
// key, so every BFF instance sharing the server sees changes.
type Store struct {
	client *goredis.Client
}

func NewStore(addr string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	if err := s.client.Publish(ctx, channelPrefix+key, value).Err(); err != nil {
		slog.Warn("failed to publish change", "key", key, "error", err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, key string) (<-chan []byte, error) {
	ps := s.client.Subscribe(ctx, channelPrefix+key)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := ps.Close(); err != nil {
				slog.Warn("failed to close subscription", "key", key, "error", err)
			}
		}()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				v := []byte(msg.Payload)
				select {
				case out <- v:
				default:
					select {
					case <-out:
					default:
					}
					out <- v
				}
			}
		}
	}()
	return out, nil
}
