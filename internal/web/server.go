package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/metrics"
	"github.com/induohouse/induoweb/internal/service"
)

type Server struct {
	catalog   *service.CatalogService
	visitors  *service.Visitors
	templates embed.FS
	metrics   *metrics.Manager
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
	pageSize  int
	now       func() time.Time
}

type Option func(*Server)

// WithPageSize sets the page size used when the URL does not carry one.
func WithPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMetrics exposes m at /metrics and records request counts into it.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) { s.metrics = m }
}

func NewServer(catalog *service.CatalogService, visitors *service.Visitors, tmpl embed.FS, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		catalog:   catalog,
		visitors:  visitors,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		pageSize:  domain.DefaultPageSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	origin := catalog.Origin()
	s.tmplFuncs = template.FuncMap{
		"price":            domain.FormatPrice,
		"pricePerM2":       domain.PricePerSquareMeter,
		"isNew":            func(t *domain.Timestamp) bool { return domain.IsNew(t, s.now()) },
		"imageURL":         func(raw string) string { return domain.ResolveImageURL(origin, raw) },
		"thumb":            func(raw *string) string { return thumbnail(origin, raw) },
		"propertyTypes":    func() []domain.PropertyType { return domain.PropertyTypes },
		"transactionTypes": func() []domain.TransactionType { return domain.TransactionTypes },
		"deref":            derefInt,
		"pageLink":         pageLink,
		"cityLink":         func(city string) string { return searchLink(domain.FieldCity, city) },
		"rangeFilters":     func() []rangeFilter { return rangeFilters },
		"seq":              seq,
		"inc":              func(i int) int { return i + 1 },
		"sub":              func(a, b int) int { return a - b },
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/properties", http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /properties", s.handleSearch)
	s.mux.HandleFunc("GET /properties/new", s.requireAuth(s.handleNewListing))
	s.mux.HandleFunc("POST /properties", s.requireAuth(s.handleCreateListing))
	s.mux.HandleFunc("GET /properties/{id}", s.handleListingDetail)
	s.mux.HandleFunc("GET /properties/{id}/edit", s.requireAuth(s.handleEditListing))
	s.mux.HandleFunc("POST /properties/{id}", s.requireAuth(s.handleUpdateListing))
	s.mux.HandleFunc("DELETE /properties/{id}", s.requireAuth(s.handleDeleteListing))
	s.mux.HandleFunc("POST /properties/{id}/images", s.requireAuth(s.handleUploadImage))
	s.mux.HandleFunc("DELETE /properties/{id}/images/{imageId}", s.requireAuth(s.handleDeleteImage))

	s.mux.HandleFunc("GET /favorites", s.handleListFavorites)
	s.mux.HandleFunc("POST /favorites/{id}", s.handleToggleFavorite)
	s.mux.HandleFunc("DELETE /favorites/{id}", s.handleRemoveFavorite)
	s.mux.HandleFunc("DELETE /favorites", s.handleClearFavorites)

	s.mux.HandleFunc("GET /login", s.handleLoginForm)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /register", s.handleRegisterForm)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /dashboard", s.requireAuth(s.handleDashboard))

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
// Listing images are served by the backend, so img-src allows any https or
// http origin.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' data: http: https:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

const requestIDHeader = "X-Request-ID"

// requestLogger logs every request with a request id and feeds the route
// counter. r.Pattern is filled in by the mux once it has matched.
func requestLogger(logger *slog.Logger, m *metrics.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if m != nil {
			m.ObserveHTTP(r.Pattern, rec.status)
		}
		logger.Info("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", rec.status,
			"htmx", isHTMX(r),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, securityHeaders(s.withVisitor(s.mux))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	return s.renderPageStatus(w, http.StatusOK, data, files...)
}

func (s *Server) renderPageStatus(w http.ResponseWriter, status int, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses and executes a single named partial template.
// The first file must contain exactly one {{define "name"}}...{{end}} block;
// further files supply templates it calls.
func (s *Server) renderPartial(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, partialName(files[0]), data)
}

// partialName maps "partials/results.html" to "results".
func partialName(file string) string {
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return strings.TrimSuffix(file, ".html")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect navigates the browser to target. HTMX requests get HX-Redirect
// so the whole page is replaced instead of a fragment.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func thumbnail(origin string, raw *string) string {
	if raw == nil {
		return ""
	}
	return domain.ResolveImageURL(origin, *raw)
}

// seq returns the integers from..to inclusive.
func seq(from, to int) []int {
	out := make([]int, 0, max(to-from+1, 0))
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func derefInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
