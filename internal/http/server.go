// Package http serves the JSON API over chi.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"fluxo/internal/auth"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/middleware/ratelimit"
	"fluxo/internal/middleware/security"
	"fluxo/internal/middleware/trace"
	"fluxo/internal/profile"
)

const (
	defaultRequestTimeout = 15 * time.Second
	readyTimeout          = 2 * time.Second
)

// TransactionService is the transaction use-case layer the handlers call.
type TransactionService interface {
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, in core.CreateTransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, id uuid.UUID, patch core.TransactionPatch) error
	DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
	SetAvatar(ctx context.Context, userID, rawURL string) (profile.Profile, error)
	ClearAvatar(ctx context.Context, userID string) (profile.Profile, error)
	Broker() *profile.Broker
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Transactions TransactionService
	Profiles     ProfileService
	Verifier     *auth.Verifier
	// Ready is checked by /readyz; nil means always ready.
	Ready              Pinger
	Logger             *log.Logger
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	// Heartbeat is the keep-alive period of event streams.
	Heartbeat time.Duration
}

type Server struct {
	http.Server
	deps         Deps
	logger       *log.Logger
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}
	if deps.Heartbeat <= 0 {
		deps.Heartbeat = 25 * time.Second
	}

	s := &Server{
		deps:     deps,
		logger:   deps.Logger.WithComponent(log.ComponentHTTP),
		detector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.realIP)
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit))
		r.Use(auth.Middleware(s.deps.Verifier, func(w http.ResponseWriter, r *http.Request, err error) {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				DebugContext(r.Context(), "Rejected request", log.FieldError, err)
			writeError(w, r, "authenticate", err)
		}))

		// Event streams live outside the request timeout.
		r.Get("/profile/avatar/events", s.handleAvatarEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.deps.RequestTimeout))

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Get("/{id}", s.handleGetTransaction)
				r.Patch("/{id}", s.handleUpdateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
			})
			r.Get("/categories", s.handleCategories)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/summary", s.handleSummary)
				r.Get("/balance", s.handleBalance)
				r.Get("/categories", s.handleCategoryReport)
			})

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile/avatar", s.handleSetAvatar)
			r.Delete("/profile/avatar", s.handleClearAvatar)
		})
	})

	return r
}

// realIP applies chi's RealIP only to requests relayed by a trusted proxy.
func (s *Server) realIP(next http.Handler) http.Handler {
	rewritten := middleware.RealIP(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.FromTrustedProxy(r) {
			rewritten.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
	)
	writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeMessage(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// userID reads the authenticated user; auth.Middleware guarantees it on /api.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, "authenticate", err)
		return "", false
	}
	return id, true
}
