// Package kvstore defines the small key/value contract used for client-side
// persisted state, plus an in-process change hub shared by the backends.
package kvstore

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Subscribe delivers every value written to key after the call. Slow
	// readers only see the most recent value. The channel is closed when ctx
	// is done.
	Subscribe(ctx context.Context, key string) (<-chan []byte, error)
}

// Hub fans written values out to in-process subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func (h *Hub) Subscribe(ctx context.Context, key string) <-chan []byte {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[string]map[chan []byte]struct{})
	}
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan []byte]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[key], ch)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *Hub) Publish(key string, value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		v := append([]byte(nil), value...)
		select {
		case ch <- v:
		default:
			// Replace the stale pending value with the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
