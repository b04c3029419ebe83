package web

import (
	"net/http"
	"strings"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/session"
)

// authForm is the login/register form state.
type authForm struct {
	Values  map[string]string
	Errors  session.FieldErrors
	Message string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if visitorFrom(r).Session.CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, session.RedirectAfterLogin, http.StatusSeeOther)
		return
	}
	s.renderAuth(w, r, http.StatusOK, "pages/login.html", authForm{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds := domain.LoginCredentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	v := visitorFrom(r)
	out := v.Session.Login(r.Context(), creds)
	if !out.OK() {
		form := authForm{
			Values:  map[string]string{"email": creds.Email},
			Errors:  out.Fields,
			Message: out.Message,
		}
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "pages/login.html", form)
		return
	}

	s.catalog.Forget(v.ID)
	v.SetFlash(out.Notice)
	redirect(w, r, out.Redirect)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.renderAuth(w, r, http.StatusOK, "pages/register.html", authForm{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds := domain.RegisterCredentials{
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		FirstName: strings.TrimSpace(r.FormValue("firstName")),
		LastName:  strings.TrimSpace(r.FormValue("lastName")),
		Phone:     strings.TrimSpace(r.FormValue("phoneNumber")),
	}

	v := visitorFrom(r)
	out := v.Session.Register(r.Context(), creds)
	if !out.OK() {
		form := authForm{
			Values: map[string]string{
				"email":       creds.Email,
				"firstName":   creds.FirstName,
				"lastName":    creds.LastName,
				"phoneNumber": creds.Phone,
			},
			Errors:  out.Fields,
			Message: out.Message,
		}
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "pages/register.html", form)
		return
	}

	v.SetFlash(out.Notice)
	redirect(w, r, out.Redirect)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	out := v.Session.Logout(r.Context())
	v.SetFlash(out.Notice)
	redirect(w, r, out.Redirect)
}

func (s *Server) renderAuth(w http.ResponseWriter, r *http.Request, status int, page string, form authForm) {
	if form.Values == nil {
		form.Values = map[string]string{}
	}
	data := s.pageData(r, "account")
	data["Form"] = form
	if err := s.renderPageStatus(w, status, data, "base.html", page); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}
