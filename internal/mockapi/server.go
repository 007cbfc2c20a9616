// Package mockapi is an in-process implementation of the remote auth API.
// It backs local development and the end-to-end tests of the CLI.
package mockapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/me/authkit/internal/config"
	"github.com/me/authkit/internal/logging"
	"github.com/me/authkit/pkg/model"
	"golang.org/x/time/rate"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = 30 * time.Minute

var validate = validator.New(validator.WithRequiredStructEnabled())

// Server is the mock auth API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.MockAPIConfig
	startTime time.Time
	now       func() time.Time
	params    *argon2id.Params
	dir       *directory

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter

	resetMu    sync.Mutex
	lastResets map[string]string // email -> most recent reset token
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithClock replaces time.Now, used for token expiry and rate limiting.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithHashParams sets the Argon2id parameters used for stored passwords.
func WithHashParams(p *argon2id.Params) Option {
	return func(s *Server) {
		s.params = p
	}
}

// New creates a Server with all routes registered. When cfg names an admin
// account it is created up front.
func New(cfg config.MockAPIConfig, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logging.Component(logger, "mockapi"),
		config:     cfg,
		startTime:  time.Now(),
		now:        time.Now,
		params:     DefaultHashParams,
		limiters:   make(map[string]*rate.Limiter),
		lastResets: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dir = newDirectory(s.params)

	if cfg.AdminEmail != "" {
		if _, err := s.dir.create("Administrator", cfg.AdminEmail, cfg.AdminPassword, []string{string(model.RoleAdmin)}, s.now()); err != nil {
			return nil, fmt.Errorf("seed admin account: %w", err)
		}
		s.logger.Info("admin account ready", "email", normalizeEmail(cfg.AdminEmail))
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ResetToken returns the most recent reset token issued for email. A real
// deployment mails it; the mock only logs it.
func (s *Server) ResetToken(email string) (string, bool) {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()
	tok, ok := s.lastResets[normalizeEmail(email)]
	return tok, ok
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up-user", s.handleSignUp)
		r.Post("/login", s.handleLogin)
		r.Post("/forget-password", s.handleForgotPassword)
		r.Get("/reset/{token}", s.handleVerifyReset)
		r.Post("/reset/{token}", s.handleResetPassword)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.With(s.requireAdmin).Get("/customers", s.handleListCustomers)
	})
}

// allowLogin applies the per-email login rate limit.
func (s *Server) allowLogin(email string) bool {
	email = normalizeEmail(email)
	s.limMu.Lock()
	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(s.config.LoginRate), s.config.LoginBurst)
		s.limiters[email] = lim
	}
	s.limMu.Unlock()
	return lim.AllowN(s.now(), 1)
}
