package search

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher records every query and answers with a fixed page count.
type fakeSearcher struct {
	mu         sync.Mutex
	calls      []domain.Filter
	totalPages int
	err        error
	// block, when set, is consulted per call; a non-nil channel delays the
	// response until closed.
	block func(call int) chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, filter domain.Filter) (*domain.PageResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filter)
	n := len(f.calls)
	err := f.err
	f.mu.Unlock()

	if f.block != nil {
		if ch := f.block(n); ch != nil {
			<-ch
		}
	}
	if err != nil {
		return nil, err
	}
	return &domain.PageResult{
		Content:     []domain.Listing{{ID: int64(n), City: filter.City}},
		CurrentPage: filter.Page,
		PageSize:    filter.Size,
		TotalPages:  f.totalPages,
	}, nil
}

func (f *fakeSearcher) recorded() []domain.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Filter(nil), f.calls...)
}

func TestTrackerLatestWins(t *testing.T) {
	var tr Tracker
	a := tr.Issue()
	b := tr.Issue()
	assert.False(t, tr.IsLatest(a))
	assert.True(t, tr.IsLatest(b))
	assert.Equal(t, b, tr.Latest())
}

func TestFilterChangeResetsPage(t *testing.T) {
	fs := &fakeSearcher{totalPages: 5}
	ctx := context.Background()
	s := NewSession(ctx, fs, domain.Filter{})

	s.Fetch(ctx)
	require.NoError(t, s.GoTo(ctx, 3))
	assert.Equal(t, 3, s.Filter().Page)

	s.Input(ctx, domain.FieldPropertyType, "HOUSE")

	calls := fs.recorded()
	require.Len(t, calls, 3)
	assert.Equal(t, 3, calls[1].Page)
	assert.Equal(t, 0, calls[2].Page)
	assert.Equal(t, domain.PropertyHouse, calls[2].PropertyType)
	assert.Equal(t, 0, s.Pagination().Current)
}

func TestUnchangedInputDoesNotSearch(t *testing.T) {
	fs := &fakeSearcher{totalPages: 1}
	ctx := context.Background()
	s := NewSession(ctx, fs, domain.Filter{PropertyType: domain.PropertyLand})

	s.Input(ctx, domain.FieldPropertyType, "land")
	assert.Empty(t, fs.recorded())
}

func TestInvalidInputIsReported(t *testing.T) {
	fs := &fakeSearcher{}
	ctx := context.Background()
	var bad []domain.FilterField
	s := NewSession(ctx, fs, domain.Filter{}, OnInvalid(func(f domain.FilterField, _ error) {
		bad = append(bad, f)
	}))

	s.Input(ctx, domain.FieldBedrooms, "many")
	assert.Equal(t, []domain.FilterField{domain.FieldBedrooms}, bad)
	assert.Empty(t, fs.recorded())
}

func TestDebouncedCitySearchesOnce(t *testing.T) {
	fs := &fakeSearcher{totalPages: 1}
	done := make(chan Result, 4)
	ctx := context.Background()
	s := NewSession(ctx, fs, domain.Filter{}, WithDelays(30*time.Millisecond), OnResult(func(r Result) {
		done <- r
	}))

	for _, v := range []string{"W", "Wa", "War", "Warszawa"} {
		s.Input(ctx, domain.FieldCity, v)
	}

	select {
	case r := <-done:
		assert.Equal(t, "Warszawa", r.Filter.City)
	case <-time.After(2 * time.Second):
		t.Fatal("no search issued")
	}
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, fs.recorded(), 1)
}

func TestFlushAppliesPendingEdits(t *testing.T) {
	fs := &fakeSearcher{totalPages: 1}
	ctx := context.Background()
	s := NewSession(ctx, fs, domain.Filter{})

	s.Input(ctx, domain.FieldMinPrice, "300000")
	assert.Empty(t, fs.recorded())

	s.Flush()
	calls := fs.recorded()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].MinPrice)
	assert.Equal(t, 300000.0, *calls[0].MinPrice)
	s.Stop()
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	fs := &fakeSearcher{
		totalPages: 2,
		block: func(call int) chan struct{} {
			if call == 1 {
				return release
			}
			return nil
		},
	}
	ctx := context.Background()

	var mu sync.Mutex
	var applied []string
	stale := 0
	s := NewSession(ctx, fs, domain.Filter{},
		OnResult(func(r Result) {
			mu.Lock()
			applied = append(applied, r.Filter.City)
			mu.Unlock()
		}),
		OnStale(func() {
			mu.Lock()
			stale++
			mu.Unlock()
		}),
	)

	slow := make(chan Result)
	go func() {
		s.Input(ctx, domain.FieldSort, "price,asc")
		slow <- Result{}
	}()

	require.Eventually(t, func() bool { return len(fs.recorded()) == 1 }, time.Second, 5*time.Millisecond)

	s.Input(ctx, domain.FieldCity, "Gdynia")
	s.Flush()
	close(release)
	<-slow

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Gdynia"}, applied)
	assert.Equal(t, 1, stale)
}

func TestFailureMessageAndRetry(t *testing.T) {
	fs := &fakeSearcher{err: &listings.FetchFailure{Op: "search", Status: http.StatusInternalServerError}}
	ctx := context.Background()
	s := NewSession(ctx, fs, domain.Filter{City: "Opole"})

	res := s.Fetch(ctx)
	require.Error(t, res.Err)
	assert.Equal(t, listings.MsgLoadFailed, res.Message)

	fs.mu.Lock()
	fs.err = nil
	fs.mu.Unlock()

	res = s.Retry(ctx)
	require.NoError(t, res.Err)

	calls := fs.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0], calls[1])
}

func TestURLFollowsState(t *testing.T) {
	fs := &fakeSearcher{totalPages: 4}
	ctx := context.Background()
	var urls []string
	s := NewSession(ctx, fs, domain.Filter{}, OnURL(func(u string) { urls = append(urls, u) }))

	s.Input(ctx, domain.FieldPropertyType, "HOUSE")
	require.NoError(t, s.GoTo(ctx, 2))

	assert.Equal(t, []string{
		"/properties?propertyType=HOUSE",
		"/properties?page=2&propertyType=HOUSE",
	}, urls)
	assert.Equal(t, "/properties?page=2&propertyType=HOUSE", s.URL())
}

func TestGoToSignalsScroll(t *testing.T) {
	fs := &fakeSearcher{totalPages: 3}
	ctx := context.Background()
	var scrolled []int
	s := NewSession(ctx, fs, domain.Filter{}, OnScroll(func(p int) { scrolled = append(scrolled, p) }))

	s.Fetch(ctx)
	require.NoError(t, s.Next(ctx))
	require.NoError(t, s.Prev(ctx))
	assert.Error(t, s.Prev(ctx))
	assert.Equal(t, []int{1, 0}, scrolled)
}
