// Package session holds one visitor's authentication state against the
// backend. The backend session cookie lives in a private cookie jar.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/induohouse/induoweb/internal/backend"
	"github.com/induohouse/induoweb/internal/domain"
)

const (
	RedirectAfterLogin  = "/dashboard"
	RedirectAfterLogout = "/"

	// userTTL is how long a fetched user is trusted before asking again.
	userTTL = 5 * time.Minute
)

const (
	msgLoginFailed    = "Nieprawidłowy email lub hasło"
	msgRegisterFailed = "Błąd rejestracji. Spróbuj ponownie."
	msgRegistered     = "Rejestracja pomyślna! Witaj w InduoHouse"
	msgLoggedOut      = "Wylogowano pomyślnie"
)

// Outcome is what the view needs after an auth action. On failure User is
// nil and either Message or Fields explains why.
type Outcome struct {
	User     *domain.User
	Redirect string
	// Notice is a success message to flash on the next page.
	Notice  string
	Message string
	Fields  FieldErrors
}

func (o Outcome) OK() bool { return o.User != nil }

type Client struct {
	api    *backend.Client
	jar    *resettableJar
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	user      *domain.User
	fetchedAt time.Time
	hooks     []func()
}

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a signed-out client. api is copied onto an HTTP client with
// its own cookie jar.
func New(api *backend.Client, opts ...Option) *Client {
	jar := newJar()
	c := &Client{
		jar:    jar,
		api:    api.WithClient(&http.Client{Jar: jar}),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend is the transport carrying this session's cookie. Listing calls
// made on behalf of the user go through it.
func (c *Client) Backend() *backend.Client {
	return c.api
}

// OnLogout registers fn to run when the session is cleared, e.g. to drop
// cached search results.
func (c *Client) OnLogout(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// CurrentUser returns the signed-in user or nil. Any failure reads as
// signed out.
func (c *Client) CurrentUser(ctx context.Context) *domain.User {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < userTTL {
		u := c.user
		c.mu.Unlock()
		return u
	}
	c.mu.Unlock()

	resp, err := c.api.Do(ctx, backend.Request{Op: "me", Path: "/auth/me"})
	var user *domain.User
	switch {
	case err != nil:
		c.logger.Debug("current user unavailable", "error", err)
		// Do not cache a transport failure.
		return nil
	case resp.OK():
		var u domain.User
		if err := resp.Decode(&u); err != nil || u.Email == "" {
			c.logger.Debug("current user unreadable", "error", err)
		} else {
			user = &u
		}
	case resp.Status != http.StatusUnauthorized && resp.Status != http.StatusForbidden:
		// Only the backend saying "signed out" is remembered.
		c.logger.Debug("current user unavailable", "status", resp.Status)
		return nil
	}

	c.mu.Lock()
	c.user = user
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return user
}

// Authenticated reports whether a user is known without calling the backend.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

func (c *Client) Login(ctx context.Context, creds domain.LoginCredentials) Outcome {
	creds.Email = strings.TrimSpace(creds.Email)
	if fe := ValidateLogin(creds); !fe.Empty() {
		return Outcome{Fields: fe}
	}
	out := c.authenticate(ctx, "login", "/auth/login", creds, msgLoginFailed)
	if out.OK() {
		out.Notice = "Witaj " + out.User.Email + "!"
	}
	return out
}

func (c *Client) Register(ctx context.Context, creds domain.RegisterCredentials) Outcome {
	creds.Email = strings.TrimSpace(creds.Email)
	if fe := ValidateRegister(creds); !fe.Empty() {
		return Outcome{Fields: fe}
	}
	out := c.authenticate(ctx, "register", "/auth/register", creds, msgRegisterFailed)
	if out.OK() {
		out.Notice = msgRegistered
	}
	return out
}

func (c *Client) authenticate(ctx context.Context, op, path string, payload any, fallback string) Outcome {
	body, err := backend.JSONBody(payload)
	if err != nil {
		c.logger.Error("failed to encode credentials", "op", op, "error", err)
		return Outcome{Message: fallback}
	}

	resp, err := c.api.Do(ctx, backend.Request{
		Op:          op,
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		c.logger.Warn("auth request failed", "op", op, "error", err)
		return Outcome{Message: fallback}
	}
	if !resp.OK() {
		msg := backend.MessageFrom(resp.Body)
		if msg == "" {
			msg = fallback
		}
		c.logger.Info("auth rejected", "op", op, "status", resp.Status)
		return Outcome{Message: msg}
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		c.logger.Warn("auth response unreadable", "op", op, "error", err)
		return Outcome{Message: fallback}
	}

	c.mu.Lock()
	c.user = &user
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return Outcome{User: &user, Redirect: RedirectAfterLogin}
}

// Logout asks the backend to end the session and then clears local state
// whatever the backend said.
func (c *Client) Logout(ctx context.Context) Outcome {
	resp, err := c.api.Do(ctx, backend.Request{Op: "logout", Method: http.MethodPost, Path: "/auth/logout"})
	if err == nil && !resp.OK() {
		err = errors.New(http.StatusText(resp.Status))
	}
	if err != nil {
		c.logger.Warn("logout request failed", "error", err)
	}

	c.Clear()
	return Outcome{Redirect: RedirectAfterLogout, Notice: msgLoggedOut}
}

// Clear forgets the user and cookies and runs the logout hooks.
func (c *Client) Clear() {
	c.mu.Lock()
	c.user = nil
	c.fetchedAt = time.Time{}
	hooks := append([]func(){}, c.hooks...)
	c.mu.Unlock()

	c.jar.Reset()
	for _, fn := range hooks {
		fn()
	}
}
