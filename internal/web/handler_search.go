package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/pagination"
	"github.com/induohouse/induoweb/internal/service"
	"github.com/induohouse/induoweb/internal/urlsync"
)

const searchPath = "/properties"

// resultsView is what the results fragment renders.
type resultsView struct {
	Filter    domain.Filter
	Page      *domain.PageResult
	Pager     pagination.State
	Favorites map[int64]bool
	Message   string
	RetryURL  string
	NoResults string
}

// cardView is one listing card with its favorite state.
type cardView struct {
	domain.Listing
	Favorite bool
}

func newResultsView(res service.SearchResult) resultsView {
	view := resultsView{
		Filter:    res.Filter,
		Page:      res.Page,
		Favorites: res.Favorites,
		Message:   res.Message,
		RetryURL:  urlsync.Replace(searchPath, res.Filter),
		NoResults: listings.MsgNoResults,
	}
	if res.Page != nil {
		view.Pager = pagination.StateFor(res.Page.CurrentPage, res.Page.TotalPages)
	}
	return view
}

// Cards pairs every listing on the page with its favorite flag.
func (v resultsView) Cards() []cardView {
	if v.Page == nil {
		return nil
	}
	cards := make([]cardView, len(v.Page.Content))
	for i, l := range v.Page.Content {
		cards[i] = cardView{Listing: l, Favorite: v.Favorites[l.ID]}
	}
	return cards
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := urlsync.Seed(q)
	if q.Get("size") == "" {
		f.Size = s.pageSize
	}

	v := visitorFrom(r)
	res := s.catalog.Search(r.Context(), v, f)

	if isHTMX(r) {
		if res.Stale {
			// A newer search is on its way; leave the page as it is.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("HX-Replace-Url", urlsync.Replace(searchPath, res.Filter))
		if q.Get("scroll") == "1" {
			w.Header().Set("HX-Trigger", "scrollResults")
		}
		if err := s.renderPartial(w, newResultsView(res),
			"partials/results.html", "partials/listing_card.html", "partials/favorite_button.html",
		); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if res.Stale {
		res = s.catalog.Search(r.Context(), v, f)
	}
	data := s.pageData(r, "properties")
	data["Results"] = newResultsView(res)
	filter := res.Filter
	data["Filter"] = &filter
	if err := s.renderPage(w, data,
		"base.html", "pages/properties.html", "partials/results.html",
		"partials/listing_card.html", "partials/favorite_button.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// rangeFilter is one numeric filter input.
type rangeFilter struct {
	Name  domain.FilterField
	Label string
}

var rangeFilters = []rangeFilter{
	{domain.FieldMinPrice, "Cena od"},
	{domain.FieldMaxPrice, "Cena do"},
	{domain.FieldMinArea, "Pow. od (m²)"},
	{domain.FieldMaxArea, "Pow. do (m²)"},
}

// pageLink is the HTMX target for a pagination button. It keeps the filter,
// moves to page and asks for the scroll signal.
func pageLink(f domain.Filter, page int) string {
	q := urlsync.Encode(f)
	q.Del("page")
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	q.Set("scroll", "1")
	return searchPath + "?" + q.Encode()
}

// searchLink builds a link to the results with one field preset, used by
// the detail page to browse a city.
func searchLink(field domain.FilterField, value string) string {
	return searchPath + "?" + url.Values{string(field): {value}}.Encode()
}
