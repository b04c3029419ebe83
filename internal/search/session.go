// Package search drives an interactive listing search: debounced filter
// edits, page navigation and latest-response-wins result handling.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/induohouse/induoweb/internal/debounce"
	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/pagination"
	"github.com/induohouse/induoweb/internal/urlsync"
)

type Searcher interface {
	Search(ctx context.Context, f domain.Filter) (*domain.PageResult, error)
}

// Result is one applied search outcome.
type Result struct {
	Token  uint64
	Filter domain.Filter
	Page   *domain.PageResult
	Err    error
	// Message is the user-facing text for Err.
	Message string
}

// fieldDelays lists the free-text fields that are debounced. Select-style
// fields apply immediately.
var fieldDelays = map[domain.FilterField]time.Duration{
	domain.FieldCity:     debounce.TextDelay,
	domain.FieldMinPrice: debounce.RangeDelay,
	domain.FieldMaxPrice: debounce.RangeDelay,
	domain.FieldMinArea:  debounce.RangeDelay,
	domain.FieldMaxArea:  debounce.RangeDelay,
}

type Session struct {
	ctx      context.Context
	searcher Searcher
	path     string
	tracker  Tracker
	pager    *pagination.Controller

	onResult func(Result)
	onURL    func(string)
	onScroll func(page int)
	onStale  func()
	onError  func(field domain.FilterField, err error)

	mu         sync.Mutex
	filter     domain.Filter
	debouncers map[domain.FilterField]*debounce.Value[string]
}

type Option func(*Session)

// OnResult receives every applied (non-stale) result.
func OnResult(fn func(Result)) Option { return func(s *Session) { s.onResult = fn } }

// OnURL receives the replacement URL after every state change.
func OnURL(fn func(string)) Option { return func(s *Session) { s.onURL = fn } }

// OnScroll fires on every explicit page move.
func OnScroll(fn func(page int)) Option { return func(s *Session) { s.onScroll = fn } }

// OnStale fires when a superseded response is discarded.
func OnStale(fn func()) Option { return func(s *Session) { s.onStale = fn } }

// OnInvalid receives filter input that could not be parsed.
func OnInvalid(fn func(domain.FilterField, error)) Option {
	return func(s *Session) { s.onError = fn }
}

// WithPath sets the path URL updates are built on. Default "/properties".
func WithPath(p string) Option { return func(s *Session) { s.path = p } }

// WithDelays overrides the debounce delay for every debounced field.
func WithDelays(d time.Duration) Option {
	return func(s *Session) {
		for field := range s.debouncers {
			s.debouncers[field] = s.newDebouncer(field, d)
		}
	}
}

// NewSession starts from seed, typically urlsync.Seed of the page URL.
// Debounced searches run with ctx.
func NewSession(ctx context.Context, searcher Searcher, seed domain.Filter, opts ...Option) *Session {
	s := &Session{
		ctx:        ctx,
		searcher:   searcher,
		path:       "/properties",
		filter:     seed.Normalized(),
		debouncers: make(map[domain.FilterField]*debounce.Value[string]),
	}
	s.pager = pagination.New(func(page int) {
		if s.onScroll != nil {
			s.onScroll(page)
		}
	})
	for field, d := range fieldDelays {
		s.debouncers[field] = s.newDebouncer(field, d)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) newDebouncer(field domain.FilterField, d time.Duration) *debounce.Value[string] {
	return debounce.New(d, s.filter.Get(field), func(raw string) {
		s.apply(s.ctx, field, raw)
	})
}

// Filter returns a snapshot of the current filter.
func (s *Session) Filter() domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) Pagination() pagination.State {
	return s.pager.State()
}

// URL is the current navigable URL.
func (s *Session) URL() string {
	return urlsync.Replace(s.path, s.Filter())
}

// Input records a keystroke-level edit. Debounced fields search once the
// input settles; the others search immediately.
func (s *Session) Input(ctx context.Context, field domain.FilterField, raw string) {
	s.mu.Lock()
	d, ok := s.debouncers[field]
	s.mu.Unlock()
	if ok {
		d.Set(raw)
		return
	}
	s.apply(ctx, field, raw)
}

// Flush applies every pending debounced edit now.
func (s *Session) Flush() {
	s.mu.Lock()
	ds := make([]*debounce.Value[string], 0, len(s.debouncers))
	for _, d := range s.debouncers {
		ds = append(ds, d)
	}
	s.mu.Unlock()
	for _, d := range ds {
		d.Flush()
	}
}

// Stop cancels pending debounced edits.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.debouncers {
		d.Stop()
	}
}

// apply sets one field. A change in criteria resets to the first page.
func (s *Session) apply(ctx context.Context, field domain.FilterField, raw string) {
	s.mu.Lock()
	next := s.filter
	if err := next.Set(field, raw); err != nil {
		s.mu.Unlock()
		if s.onError != nil {
			s.onError(field, err)
		}
		return
	}
	if next.SameCriteria(s.filter) {
		s.mu.Unlock()
		return
	}
	next.Page = 0
	s.filter = next
	s.pager.Reset()
	s.mu.Unlock()

	s.Fetch(ctx)
}

// GoTo moves to page n and searches. Out-of-range pages are rejected.
func (s *Session) GoTo(ctx context.Context, n int) error {
	if err := s.pager.GoTo(n); err != nil {
		return err
	}
	s.mu.Lock()
	s.filter.Page = n
	s.mu.Unlock()
	s.Fetch(ctx)
	return nil
}

func (s *Session) Next(ctx context.Context) error { return s.GoTo(ctx, s.pager.Current()+1) }
func (s *Session) Prev(ctx context.Context) error { return s.GoTo(ctx, s.pager.Current()-1) }

// Retry re-issues the identical query.
func (s *Session) Retry(ctx context.Context) Result {
	return s.Fetch(ctx)
}

// Fetch searches with the current filter. The returned result is applied
// only if no newer request was issued meanwhile; otherwise it is returned
// with a zero Token.
func (s *Session) Fetch(ctx context.Context) Result {
	s.mu.Lock()
	f := s.filter
	token := s.tracker.Issue()
	s.mu.Unlock()

	if s.onURL != nil {
		s.onURL(urlsync.Replace(s.path, f))
	}

	page, err := s.searcher.Search(ctx, f)
	res := Result{Token: token, Filter: f, Page: page, Err: err}
	if err != nil {
		res.Message = listings.UserMessage(err, listings.MsgLoadFailed)
	}

	s.mu.Lock()
	if !s.tracker.IsLatest(token) {
		s.mu.Unlock()
		if s.onStale != nil {
			s.onStale()
		}
		return Result{Filter: f, Page: page, Err: err}
	}
	if page != nil {
		s.pager.Update(page.CurrentPage, page.TotalPages)
		s.filter.Page = page.CurrentPage
		res.Filter = s.filter
	}
	s.mu.Unlock()

	if s.onResult != nil {
		s.onResult(res)
	}
	return res
}
