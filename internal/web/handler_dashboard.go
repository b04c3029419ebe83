package web

import (
	"net/http"

	"github.com/induohouse/induoweb/internal/listings"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	data := s.pageData(r, "dashboard")
	data["IsAgent"] = user.IsAgent()

	if user.IsAgent() {
		mine, err := s.catalog.MyListings(r.Context(), visitorFrom(r))
		switch {
		case err == nil:
			data["Listings"] = mine
		case s.signedOut(w, r, err):
			return
		default:
			s.logger.Warn("my listings unavailable", "error", err)
			data["Message"] = listings.UserMessage(err, listings.MsgLoadFailed)
		}
	}

	if err := s.renderPage(w, data, "base.html", "pages/dashboard.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}
