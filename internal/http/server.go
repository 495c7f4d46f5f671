// Package http is the web adapter: routing, sessions, form handling and the
// mapping from domain errors to status codes.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendlog/internal/cache"
	"spendlog/internal/charts"
	"spendlog/internal/core"
	"spendlog/internal/services"
	appweb "spendlog/web"
)

const sessionCookieName = "session"

type Server struct {
	http.Server
	templates *template.Template

	accounts *services.AccountService
	expenses *services.ExpenseService

	chartStore       *charts.Writer
	histogramBuckets int

	secureCookie bool
	rateLimiter  *rateLimiter

	// Per-user expense list cache backing the dashboard. Mutations through
	// this server invalidate the owner's entry immediately.
	expensesCache *cache.LRUCache[[]core.Expense]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

type Options struct {
	Addr             string
	Accounts         *services.AccountService
	Expenses         *services.ExpenseService
	ChartStore       *charts.Writer
	HistogramBuckets int
	SecureCookie     bool
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		accounts:         opts.Accounts,
		expenses:         opts.Expenses,
		chartStore:       opts.ChartStore,
		histogramBuckets: opts.HistogramBuckets,
		secureCookie:     opts.SecureCookie,
		rateLimiter:      newRateLimiter(),
		expensesCache:    cache.NewLRUCache[[]core.Expense](200, 1*time.Minute),
		cacheManager:     cache.NewManager(),
	}

	s.cacheManager.Register(s.expensesCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /register", s.withSecurityHeaders(s.handleRegisterForm))
	mux.HandleFunc("POST /register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("GET /login", s.withSecurityHeaders(s.handleLoginForm))
	mux.HandleFunc("POST /login", s.withSecurityHeaders(s.handleLogin))
	// GET keeps bookmarked logout links working alongside the nav form.
	mux.HandleFunc("GET /logout", s.withSecurityHeaders(s.requireUser(s.handleLogout)))
	mux.HandleFunc("POST /logout", s.withSecurityHeaders(s.requireUser(s.handleLogout)))

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("GET /add", s.withSecurityHeaders(s.requireUser(s.handleAddForm)))
	mux.HandleFunc("POST /add", s.withSecurityHeaders(s.requireUser(s.handleAdd)))
	mux.HandleFunc("GET /edit/{id}", s.withSecurityHeaders(s.requireUser(s.handleEditForm)))
	mux.HandleFunc("POST /edit/{id}", s.withSecurityHeaders(s.requireUser(s.handleEdit)))
	mux.HandleFunc("POST /delete/{id}", s.withSecurityHeaders(s.requireUser(s.handleDelete)))
	mux.HandleFunc("GET /report", s.withSecurityHeaders(s.requireUser(s.handleReport)))
	mux.HandleFunc("GET /charts/{name}", s.withSecurityHeaders(s.requireUser(s.handleChart)))

	return s
}

// Shutdown stops the background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; dashboard reads stay unthrottled.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// authedHandler is a handler that runs with a resolved session user.
type authedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireUser resolves the session cookie and redirects anonymous or expired
// sessions to the login page.
func (s *Server) requireUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := s.accounts.Resolve(r.Context(), c.Value)
		if err != nil {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next(w, r, user)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
