package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/induohouse/induoweb/internal/backend"
	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/favorites"
	"github.com/induohouse/induoweb/internal/kvstore/memory"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubListings is an in-memory ListingClient for tests.
type stubListings struct {
	mu          sync.Mutex
	listings    map[int64]*domain.ListingDetail
	nextID      int64
	searches    int
	searchErr   error
	uploads     []listings.ImageUpload
	uploadErrAt map[int]bool
	// gate, when set, blocks the first search until closed.
	gate chan struct{}
}

func newStubListings() *stubListings {
	return &stubListings{listings: make(map[int64]*domain.ListingDetail), nextID: 1}
}

func (s *stubListings) put(d *domain.ListingDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[d.ID] = d
}

func (s *stubListings) Search(_ context.Context, f domain.Filter) (*domain.PageResult, error) {
	s.mu.Lock()
	s.searches++
	n := s.searches
	gate := s.gate
	err := s.searchErr
	var content []domain.Listing
	for _, d := range s.listings {
		if f.City == "" || strings.EqualFold(d.City, f.City) {
			content = append(content, d.Summary())
		}
	}
	s.mu.Unlock()

	if gate != nil && n == 1 {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &domain.PageResult{Content: content, CurrentPage: f.Page, PageSize: f.Size, TotalElements: int64(len(content)), TotalPages: 1}, nil
}

func (s *stubListings) Get(_ context.Context, id int64) (*domain.ListingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.listings[id]
	if !ok {
		return nil, &listings.FetchFailure{Op: "get", Status: 404}
	}
	return d, nil
}

func (s *stubListings) Mine(_ context.Context) ([]domain.Listing, error) {
	return nil, nil
}

func (s *stubListings) Similar(_ context.Context, d *domain.ListingDetail, n int) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Listing
	for _, other := range s.listings {
		if other.ID != d.ID && other.City == d.City && len(out) < n {
			out = append(out, other.Summary())
		}
	}
	return out, nil
}

func (s *stubListings) Create(_ context.Context, draft domain.ListingDraft) (*domain.ListingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &domain.ListingDetail{ID: s.nextID, Title: draft.Title, City: draft.City}
	s.nextID++
	s.listings[d.ID] = d
	return d, nil
}

func (s *stubListings) Update(_ context.Context, id int64, draft domain.ListingDraft) (*domain.ListingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.listings[id]
	if !ok {
		return nil, &listings.FetchFailure{Op: "update", Status: 404}
	}
	d.Title = draft.Title
	return d, nil
}

func (s *stubListings) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return &listings.FetchFailure{Op: "delete", Status: 403}
	}
	delete(s.listings, id)
	return nil
}

func (s *stubListings) UploadImage(_ context.Context, id int64, img listings.ImageUpload) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.uploads)
	s.uploads = append(s.uploads, img)
	if s.uploadErrAt[i] {
		return nil, errors.New("upload failed")
	}
	return &domain.Image{ID: int64(i + 1), IsPrimary: img.IsPrimary}, nil
}

func (s *stubListings) DeleteImage(_ context.Context, _, _ int64) error {
	return nil
}

type countingRecorder struct {
	mu      sync.Mutex
	stale   int
	changes int
}

func (r *countingRecorder) StaleSearch() {
	r.mu.Lock()
	r.stale++
	r.mu.Unlock()
}

func (r *countingRecorder) FavoriteChanged(int64, bool) {
	r.mu.Lock()
	r.changes++
	r.mu.Unlock()
}

func newTestService(t *testing.T) (*CatalogService, *Visitor, *stubListings, *countingRecorder) {
	t.Helper()
	kv := memory.New()
	rec := &countingRecorder{}
	svc := NewCatalogService(backend.New("http://backend.invalid/api"), kv, rec, logging.Discard())
	stub := newStubListings()
	v := &Visitor{
		ID:        "visitor-1",
		Listings:  stub,
		Favorites: svc.favoritesFor("visitor-1"),
	}
	return svc, v, stub, rec
}

func TestSearchCachesSuccessfulPages(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.put(&domain.ListingDetail{ID: 1, City: "Kraków"})
	ctx := context.Background()

	first := svc.Search(ctx, v, domain.Filter{City: "Kraków"})
	require.NoError(t, first.Err)
	require.Len(t, first.Page.Content, 1)

	second := svc.Search(ctx, v, domain.Filter{City: "Kraków"})
	require.NoError(t, second.Err)
	assert.Equal(t, 1, stub.searches)

	svc.Forget(v.ID)
	svc.Search(ctx, v, domain.Filter{City: "Kraków"})
	assert.Equal(t, 2, stub.searches)
}

func TestSearchFailureIsNotCached(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.searchErr = &listings.FetchFailure{Op: "search", Status: 500}
	ctx := context.Background()

	res := svc.Search(ctx, v, domain.Filter{})
	require.Error(t, res.Err)
	assert.Equal(t, listings.MsgLoadFailed, res.Message)

	stub.mu.Lock()
	stub.searchErr = nil
	stub.mu.Unlock()

	res = svc.Search(ctx, v, domain.Filter{})
	require.NoError(t, res.Err)
	assert.Equal(t, 2, stub.searches)
}

func TestSearchMarksSupersededResultStale(t *testing.T) {
	svc, v, stub, rec := newTestService(t)
	stub.gate = make(chan struct{})
	ctx := context.Background()

	slow := make(chan SearchResult)
	go func() { slow <- svc.Search(ctx, v, domain.Filter{City: "Gdańsk"}) }()

	require.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return stub.searches == 1
	}, time.Second, 5*time.Millisecond)

	fresh := svc.Search(ctx, v, domain.Filter{City: "Sopot"})
	assert.False(t, fresh.Stale)

	close(stub.gate)
	old := <-slow
	assert.True(t, old.Stale)
	assert.Nil(t, old.Page)
	assert.Equal(t, 1, rec.stale)
}

func TestSearchReportsFavorites(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.put(&domain.ListingDetail{ID: 42, City: "Poznań"})
	ctx := context.Background()

	assert.True(t, svc.ToggleFavorite(ctx, v, 42))
	res := svc.Search(ctx, v, domain.Filter{})
	assert.True(t, res.Favorites[42])
}

func TestGetListingNotFound(t *testing.T) {
	svc, v, _, _ := newTestService(t)

	_, err := svc.GetListing(context.Background(), v, 404)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetListingWithSimilar(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.put(&domain.ListingDetail{ID: 1, City: "Lublin"})
	stub.put(&domain.ListingDetail{ID: 2, City: "Lublin"})
	stub.put(&domain.ListingDetail{ID: 3, City: "Radom"})
	ctx := context.Background()
	v.Favorites.Add(ctx, 1)

	view, err := svc.GetListing(ctx, v, 1)
	require.NoError(t, err)
	assert.True(t, view.Favorite)
	require.Len(t, view.Similar, 1)
	assert.Equal(t, int64(2), view.Similar[0].ID)
}

func TestFavoriteListingsKeepsOrderAndDropsMissing(t *testing.T) {
	svc, v, stub, rec := newTestService(t)
	ctx := context.Background()
	for i := int64(1); i <= 6; i++ {
		stub.put(&domain.ListingDetail{ID: i, Title: fmt.Sprintf("L%d", i)})
	}
	for _, id := range []int64{5, 99, 2, 6} {
		svc.ToggleFavorite(ctx, v, id)
	}

	got := svc.FavoriteListings(ctx, v)
	var ids []int64
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{5, 2, 6}, ids)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 4, rec.changes)
}

func TestCreateListingUploadsImagesWithPrimary(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.uploadErrAt = map[int]bool{1: true}
	ctx := context.Background()

	images := []listings.ImageUpload{
		{Filename: "a.jpg", Data: strings.NewReader("a")},
		{Filename: "b.jpg", Data: strings.NewReader("b")},
		{Filename: "c.jpg", Data: strings.NewReader("c")},
	}
	d, failed, err := svc.CreateListing(ctx, v, domain.ListingDraft{Title: "Nowy", City: "Tarnów"}, images, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.ID)
	assert.Equal(t, 1, failed)

	require.Len(t, stub.uploads, 3)
	assert.False(t, stub.uploads[0].IsPrimary)
	assert.False(t, stub.uploads[1].IsPrimary)
	assert.True(t, stub.uploads[2].IsPrimary)
}

func TestCreateListingOutOfRangePrimaryFallsBackToFirst(t *testing.T) {
	svc, v, stub, _ := newTestService(t)

	_, _, err := svc.CreateListing(context.Background(), v, domain.ListingDraft{Title: "X"},
		[]listings.ImageUpload{{Filename: "a.jpg", Data: strings.NewReader("a")}}, 7)
	require.NoError(t, err)
	assert.True(t, stub.uploads[0].IsPrimary)
}

func TestDeleteListingRemovesFavorite(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.put(&domain.ListingDetail{ID: 8})
	ctx := context.Background()
	v.Favorites.Add(ctx, 8)

	require.NoError(t, svc.DeleteListing(ctx, v, 8))
	assert.False(t, v.Favorites.IsFavorite(ctx, 8))

	err := svc.DeleteListing(ctx, v, 8)
	assert.ErrorIs(t, err, listings.ErrForbidden)
}

func TestUpdateListing(t *testing.T) {
	svc, v, stub, _ := newTestService(t)
	stub.put(&domain.ListingDetail{ID: 3, Title: "Stary"})

	d, err := svc.UpdateListing(context.Background(), v, 3, domain.ListingDraft{Title: "Nowy"})
	require.NoError(t, err)
	assert.Equal(t, "Nowy", d.Title)
}

func TestNewVisitorIsWired(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	v := svc.NewVisitor("abc")

	require.NotNil(t, v.Session)
	require.NotNil(t, v.Listings)
	v.Favorites.Toggle(context.Background(), 1)

	raw, err := svc.kv.Get(context.Background(), favorites.KeyFor("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"ids":[1]}`, string(raw))
}
