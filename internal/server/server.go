// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main.go hands over a Config, and New wires
// the whole dependency graph in one place —
//
//	sqlite.DB → repositories → services → handlers
//	session store (memory or redis) → session.Manager → auth middleware
//
// Handlers never touch the database, services never touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/tenderboard/internal/auth"
	"github.com/sakif/tenderboard/internal/handler"
	"github.com/sakif/tenderboard/internal/mail"
	"github.com/sakif/tenderboard/internal/middleware"
	sqliteRepo "github.com/sakif/tenderboard/internal/repository/sqlite"
	"github.com/sakif/tenderboard/internal/service"
	"github.com/sakif/tenderboard/internal/session"
)

// Config holds everything the server needs, collected from the environment
// by main.go.
type Config struct {
	Port   int
	DBPath string

	// APIKey is the shared secret the scraping pipeline presents in the
	// x-api-key header on the ingestion webhook.
	APIKey string

	// BaseURL is the public origin used in verification links,
	// e.g. "https://tenders.example.com".
	BaseURL string

	// RedisURL selects the redis session store when non-empty; otherwise
	// sessions live in process memory.
	RedisURL   string
	SessionTTL time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	// SecureCookies marks session cookies HTTPS-only. Enable behind TLS.
	SecureCookies bool
}

// Server owns the router and the long-lived resources (database connection,
// session store) that must be released on shutdown.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions session.Store
}

// New creates a Server and assembles the full dependency chain.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newSessionStore(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: store,
	}

	s.setupRoutes()

	return s, nil
}

// newSessionStore picks the session backend: redis when configured (sessions
// survive restarts, shared across processes), in-memory otherwise.
func newSessionStore(cfg Config, logger *slog.Logger) (session.Store, error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil
	}

	store, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connecting session store: %w", err)
	}
	logger.Info("using redis session store")
	return store, nil
}

// newMailer picks the mail backend: SMTP when configured, otherwise a logger
// stand-in so local development doesn't need mail credentials.
func newMailer(cfg Config, logger *slog.Logger) mail.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP not configured — verification links will only be logged")
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
}

// setupRoutes configures middleware, builds the service/handler graph and
// registers every route.
//
// ROUTE STRUCTURE:
//
//	GET  /health                    → liveness probe (no auth)
//	GET  /auth/google               → redirect to Google        (if configured)
//	GET  /auth/google/callback      → OAuth callback            (if configured)
//	POST /auth/register             → create local account
//	GET  /auth/verify/{token}       → redeem verification token (plain text)
//	POST /auth/login                → local login
//	GET  /auth/logout               → destroy session, redirect home
//	GET  /api/me                    → session status (always 200)
//	GET  /api/tenders               → list tenders       [session]
//	POST /api/webhooks/tenders      → ingest one tender  [x-api-key]
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	sessions := session.NewManager(s.sessions, s.db, s.config.SessionTTL)
	sessions.Secure = s.config.SecureCookies

	mailer := newMailer(s.config, s.logger)
	passwords := auth.NewPasswordService()

	authSvc := service.NewAuthService(s.db, passwords, mailer, s.config.BaseURL, s.logger)
	tenderSvc := service.NewTenderService(s.db, s.logger)

	var google *auth.GoogleProvider
	if s.config.GoogleClientID != "" && s.config.GoogleClientSecret != "" {
		google = auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.GoogleCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(google, authSvc, sessions, s.logger)
	tenderHandler := handler.NewTenderHandler(tenderSvc, s.logger)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		if google != nil {
			r.Get("/google", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
		} else {
			s.logger.Warn("Google OAuth not configured — federated login disabled")
		}
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/verify/{token}", authHandler.HandleVerify)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/me", authHandler.HandleMe)

		r.With(sessions.RequireAuth).Get("/tenders", tenderHandler.HandleList)

		r.Route("/webhooks", func(r chi.Router) {
			r.Use(auth.RequireWebhookKey(s.config.APIKey))
			r.Post("/tenders", tenderHandler.HandleWebhook)
		})
	})
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","timestamp":%q}`, time.Now().UTC().Format(time.RFC3339))
}

// Router exposes the configured router, mainly for httptest in integration
// tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until shutdown.
//
// On SIGINT/SIGTERM: stop accepting connections, give in-flight requests 30
// seconds to drain, then close the session store and the database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.sessions.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
