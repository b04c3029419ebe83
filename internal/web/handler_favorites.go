package web

import (
	"net/http"

	"github.com/induohouse/induoweb/internal/domain"
)

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	found := s.catalog.FavoriteListings(r.Context(), v)

	cards := make([]cardView, len(found))
	for i, l := range found {
		cards[i] = cardView{Listing: l, Favorite: true}
	}

	data := s.pageData(r, "favorites")
	data["Cards"] = cards
	if err := s.renderPage(w, data,
		"base.html", "pages/favorites.html", "partials/listing_card.html", "partials/favorite_button.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleToggleFavorite flips the listing's favorite state and returns the
// updated button.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}

	added := s.catalog.ToggleFavorite(r.Context(), visitorFrom(r), id)
	card := cardView{Listing: domain.Listing{ID: id}, Favorite: added}
	if err := s.renderPartial(w, card, "partials/favorite_button.html"); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

// handleRemoveFavorite drops the listing; the favorites page swaps the card
// out with the empty response.
func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}

	v := visitorFrom(r)
	s.catalog.RemoveFavorite(r.Context(), v, id)
	if len(v.Favorites.List(r.Context())) == 0 {
		// Reload so the empty state is shown.
		w.Header().Set("HX-Refresh", "true")
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleClearFavorites(w http.ResponseWriter, r *http.Request) {
	s.catalog.ClearFavorites(r.Context(), visitorFrom(r))
	w.Header().Set("HX-Redirect", "/favorites")
	w.WriteHeader(http.StatusOK)
}
