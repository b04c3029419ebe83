package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/induohouse/induoweb/internal/favorites"
	"github.com/induohouse/induoweb/internal/search"
	"github.com/induohouse/induoweb/internal/session"
)

// Visitor is the per-browser state the BFF keeps between requests.
type Visitor struct {
	ID        string
	Session   *session.Client
	Listings  ListingClient
	Favorites *favorites.Store
	Tracker   search.Tracker

	mu    sync.Mutex
	flash string
}

// SetFlash stores a message for the next rendered page.
func (v *Visitor) SetFlash(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flash = msg
}

// TakeFlash returns the pending message and clears it.
func (v *Visitor) TakeFlash() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	msg := v.flash
	v.flash = ""
	return msg
}

// Visitors is a bounded registry of visitors that forgets idle ones after a
// TTL.
type Visitors struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *Visitor]
	build   func(id string) *Visitor
	onCount func(n int)
	// live is kept apart from cache.Len: the eviction callback runs under
	// the cache lock.
	live atomic.Int64
}

// NewVisitors creates a registry. build constructs a visitor on first sight;
// onEvict, if set, runs when one is dropped.
func NewVisitors(size int, ttl time.Duration, build func(id string) *Visitor, onEvict func(id string)) *Visitors {
	vs := &Visitors{build: build}
	vs.cache = expirable.NewLRU[string, *Visitor](size, func(id string, _ *Visitor) {
		vs.live.Add(-1)
		if onEvict != nil {
			onEvict(id)
		}
	}, ttl)
	return vs
}

// OnCount registers fn to receive the visitor count after each change.
func (vs *Visitors) OnCount(fn func(n int)) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.onCount = fn
}

// Get returns the visitor for id, creating it if needed. Each access
// refreshes the visitor's TTL.
func (vs *Visitors) Get(id string) *Visitor {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if v, ok := vs.cache.Get(id); ok {
		// Re-adding restarts the expiry clock.
		vs.cache.Add(id, v)
		return v
	}
	v := vs.build(id)
	vs.live.Add(1)
	vs.cache.Add(id, v)
	if vs.onCount != nil {
		vs.onCount(int(vs.live.Load()))
	}
	return v
}

// Peek returns the visitor without creating or refreshing it.
func (vs *Visitors) Peek(id string) (*Visitor, bool) {
	return vs.cache.Peek(id)
}

func (vs *Visitors) Len() int {
	return vs.cache.Len()
}
