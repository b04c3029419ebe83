package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/induohouse/induoweb/internal/backend"
	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/favorites"
	"github.com/induohouse/induoweb/internal/kvstore"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/session"
)

// ListingClient is the subset of listings.Client that CatalogService requires.
type ListingClient interface {
	Search(ctx context.Context, f domain.Filter) (*domain.PageResult, error)
	Get(ctx context.Context, id int64) (*domain.ListingDetail, error)
	Mine(ctx context.Context) ([]domain.Listing, error)
	Similar(ctx context.Context, d *domain.ListingDetail, n int) ([]domain.Listing, error)
	Create(ctx context.Context, draft domain.ListingDraft) (*domain.ListingDetail, error)
	Update(ctx context.Context, id int64, draft domain.ListingDraft) (*domain.ListingDetail, error)
	Delete(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, id int64, img listings.ImageUpload) (*domain.Image, error)
	DeleteImage(ctx context.Context, id, imageID int64) error
}

// Recorder receives service-level events for metrics.
type Recorder interface {
	StaleSearch()
	FavoriteChanged(id int64, added bool)
}

const (
	searchCacheSize = 2048
	searchCacheTTL  = 30 * time.Second
	similarCount    = 3
	favoriteFetches = 4
)

type CatalogService struct {
	api      *backend.Client
	kv       kvstore.Store
	recorder Recorder
	logger   *slog.Logger
	results  *expirable.LRU[string, *domain.PageResult]
}

func NewCatalogService(api *backend.Client, kv kvstore.Store, recorder Recorder, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		api:      api,
		kv:       kv,
		recorder: recorder,
		logger:   logger,
		results:  expirable.NewLRU[string, *domain.PageResult](searchCacheSize, nil, searchCacheTTL),
	}
}

// NewVisitor builds the state for a first-time visitor: a signed-out
// session with its own cookie jar and a favorites set keyed by id.
func (s *CatalogService) NewVisitor(id string) *Visitor {
	sess := session.New(s.api, session.WithLogger(s.logger))
	v := &Visitor{
		ID:        id,
		Session:   sess,
		Listings:  listings.NewClient(sess.Backend()),
		Favorites: s.favoritesFor(id),
	}
	sess.OnLogout(func() { s.Forget(id) })
	return v
}

// favoritesFor opens the visitor's favorites, reporting changes to the
// recorder.
func (s *CatalogService) favoritesFor(id string) *favorites.Store {
	opts := []favorites.Option{favorites.WithLogger(s.logger)}
	if s.recorder != nil {
		opts = append(opts, favorites.WithChangeHook(s.recorder.FavoriteChanged))
	}
	return favorites.New(s.kv, favorites.KeyFor(id), opts...)
}

// Origin is where relative image URLs are resolved.
func (s *CatalogService) Origin() string {
	return s.api.Origin()
}

// SearchResult is the outcome of one search request.
type SearchResult struct {
	Filter domain.Filter
	Page   *domain.PageResult
	// Stale is set when a newer search from the same visitor was issued
	// while this one was in flight; the result must not be shown.
	Stale bool
	Err   error
	// Message is the user-facing text for Err.
	Message   string
	Favorites map[int64]bool
}

// Search fetches one page for the visitor. Successful pages are cached
// briefly per visitor; failures are not, so a retry reaches the backend.
func (s *CatalogService) Search(ctx context.Context, v *Visitor, f domain.Filter) SearchResult {
	f = f.Normalized()
	token := v.Tracker.Issue()
	key := cacheKey(v.ID, f)

	page, cached := s.results.Get(key)
	var err error
	if !cached {
		page, err = v.Listings.Search(ctx, f)
	}

	if !v.Tracker.IsLatest(token) {
		if s.recorder != nil {
			s.recorder.StaleSearch()
		}
		s.logger.Debug("discarding stale search", "visitor", v.ID, "token", token)
		return SearchResult{Filter: f, Stale: true}
	}

	if err != nil {
		s.logger.Warn("search failed", "visitor", v.ID, "error", err)
		return SearchResult{Filter: f, Err: err, Message: listings.UserMessage(err, listings.MsgLoadFailed)}
	}
	if !cached {
		s.results.Add(key, page)
	}

	f.Page = page.CurrentPage
	return SearchResult{Filter: f, Page: page, Favorites: s.favoriteSet(ctx, v)}
}

// ListingView bundles a listing with what the detail page shows around it.
type ListingView struct {
	Detail   *domain.ListingDetail
	Similar  []domain.Listing
	Favorite bool
}

func (s *CatalogService) GetListing(ctx context.Context, v *Visitor, id int64) (*ListingView, error) {
	detail, err := v.Listings.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}

	similar, err := v.Listings.Similar(ctx, detail, similarCount)
	if err != nil {
		s.logger.Warn("similar listings unavailable", "listing_id", id, "error", err)
		similar = nil
	}

	return &ListingView{
		Detail:   detail,
		Similar:  similar,
		Favorite: v.Favorites.IsFavorite(ctx, id),
	}, nil
}

// FavoriteListings loads the visitor's favorites in the order they were
// added. Listings that can no longer be loaded are left out.
func (s *CatalogService) FavoriteListings(ctx context.Context, v *Visitor) []domain.Listing {
	ids := v.Favorites.List(ctx)
	found := make([]*domain.Listing, len(ids))

	var g errgroup.Group
	g.SetLimit(favoriteFetches)
	for i, id := range ids {
		g.Go(func() error {
			d, err := v.Listings.Get(ctx, id)
			if err != nil {
				s.logger.Info("skipping unavailable favorite", "listing_id", id, "error", err)
				return nil
			}
			l := d.Summary()
			found[i] = &l
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Listing, 0, len(ids))
	for _, l := range found {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out
}

func (s *CatalogService) ToggleFavorite(ctx context.Context, v *Visitor, id int64) bool {
	return v.Favorites.Toggle(ctx, id)
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, v *Visitor, id int64) {
	v.Favorites.Remove(ctx, id)
}

func (s *CatalogService) ClearFavorites(ctx context.Context, v *Visitor) {
	v.Favorites.ClearAll(ctx)
}

func (s *CatalogService) MyListings(ctx context.Context, v *Visitor) ([]domain.Listing, error) {
	return v.Listings.Mine(ctx)
}

// CreateListing creates the listing and then uploads images in order,
// flagging the one at primary. Image failures do not undo the listing; the
// number of failed uploads is returned.
func (s *CatalogService) CreateListing(ctx context.Context, v *Visitor, draft domain.ListingDraft, images []listings.ImageUpload, primary int) (*domain.ListingDetail, int, error) {
	s.logger.Info("create listing started", "visitor", v.ID, "images", len(images))

	detail, err := v.Listings.Create(ctx, draft)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create listing: %w", err)
	}
	s.Forget(v.ID)

	if primary < 0 || primary >= len(images) {
		primary = 0
	}
	failed := 0
	for i, img := range images {
		img.IsPrimary = i == primary
		if _, err := v.Listings.UploadImage(ctx, detail.ID, img); err != nil {
			s.logger.Error("failed to upload image", "listing_id", detail.ID, "filename", img.Filename, "error", err)
			failed++
		}
	}

	s.logger.Info("create listing complete", "listing_id", detail.ID, "images_failed", failed)
	return detail, failed, nil
}

func (s *CatalogService) UpdateListing(ctx context.Context, v *Visitor, id int64, draft domain.ListingDraft) (*domain.ListingDetail, error) {
	detail, err := v.Listings.Update(ctx, id, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing %d: %w", id, err)
	}
	s.Forget(v.ID)
	return detail, nil
}

// DeleteListing deletes the listing and drops it from the visitor's
// favorites.
func (s *CatalogService) DeleteListing(ctx context.Context, v *Visitor, id int64) error {
	if err := v.Listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", id, err)
	}
	s.Forget(v.ID)
	v.Favorites.Remove(ctx, id)
	return nil
}

func (s *CatalogService) AddImage(ctx context.Context, v *Visitor, id int64, img listings.ImageUpload) (*domain.Image, error) {
	out, err := v.Listings.UploadImage(ctx, id, img)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	s.Forget(v.ID)
	return out, nil
}

func (s *CatalogService) RemoveImage(ctx context.Context, v *Visitor, id, imageID int64) error {
	if err := v.Listings.DeleteImage(ctx, id, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	s.Forget(v.ID)
	return nil
}

// Forget drops every cached search result of the visitor.
func (s *CatalogService) Forget(visitorID string) {
	prefix := visitorID + "?"
	for _, k := range s.results.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.results.Remove(k)
		}
	}
}

// IsNotFound reports whether err means the listing does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, listings.ErrNotFound)
}

func (s *CatalogService) favoriteSet(ctx context.Context, v *Visitor) map[int64]bool {
	set := make(map[int64]bool)
	for _, id := range v.Favorites.List(ctx) {
		set[id] = true
	}
	return set
}

func cacheKey(visitorID string, f domain.Filter) string {
	return visitorID + "?" + listings.QueryValues(f).Encode()
}
