package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/service"
)

const (
	visitorCookie    = "induo_visitor"
	visitorCookieAge = 365 * 24 * time.Hour
)

type ctxKey int

const (
	visitorKey ctxKey = iota
	userKey
)

// withVisitor attaches the visitor named by the cookie to the request,
// issuing a fresh id to browsers that have none or a malformed one.
func (s *Server) withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(visitorCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     visitorCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(visitorCookieAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}
		v := s.visitors.Get(id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey, v)))
	})
}

func visitorFrom(r *http.Request) *service.Visitor {
	v, _ := r.Context().Value(visitorKey).(*service.Visitor)
	return v
}

func userFrom(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userKey).(*domain.User)
	return u
}

// requireAuth sends signed-out visitors to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		user := v.Session.CurrentUser(r.Context())
		if user == nil {
			v.SetFlash(listings.MsgSignIn)
			redirect(w, r, "/login")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// signedOut handles a backend 401 on a protected call: the backend session
// is gone, so local state is dropped and the visitor is sent to log in.
func (s *Server) signedOut(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, listings.ErrUnauthorized) {
		return false
	}
	v := visitorFrom(r)
	v.Session.Clear()
	v.SetFlash(listings.MsgSignIn)
	redirect(w, r, "/login")
	return true
}

// pageData is the common data every full page receives.
func (s *Server) pageData(r *http.Request, nav string) map[string]any {
	v := visitorFrom(r)
	user := userFrom(r)
	if user == nil {
		user = v.Session.CurrentUser(r.Context())
	}
	return map[string]any{
		"User":      user,
		"Notice":    v.TakeFlash(),
		"ActiveNav": nav,
		"FavCount":  len(v.Favorites.List(r.Context())),
	}
}
