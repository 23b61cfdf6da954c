package handler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tenderboard/internal/auth"
	"github.com/sakif/tenderboard/internal/repository/sqlite"
	"github.com/sakif/tenderboard/internal/service"
	"github.com/sakif/tenderboard/internal/session"
)

const testAPIKey = "test-pipeline-key"

// captureMailer records verification URLs so tests can follow them.
type captureMailer struct {
	urls []string
}

func (m *captureMailer) SendVerification(_ context.Context, _, _, verifyURL string) error {
	m.urls = append(m.urls, verifyURL)
	return nil
}

// testEnv is a full handler stack over an in-memory database: real router,
// real services, real session manager — only the mailer is captured and the
// OAuth provider absent.
type testEnv struct {
	router *chi.Mux
	db     *sqlite.DB
	mailer *captureMailer
}

// newTestEnv wires the same graph the server's composition root builds,
// against ":memory:" sqlite and an in-memory session store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := session.NewMemoryStore()
	sessions := session.NewManager(store, db, time.Hour)

	mailer := &captureMailer{}
	passwords := auth.NewPasswordServiceForTest(4)

	authSvc := service.NewAuthService(db, passwords, mailer, "http://localhost:8080", logger)
	tenderSvc := service.NewTenderService(db, logger)

	authHandler := NewAuthHandler(nil, authSvc, sessions, logger)
	tenderHandler := NewTenderHandler(tenderSvc, logger)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/verify/{token}", authHandler.HandleVerify)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", authHandler.HandleMe)
		r.With(sessions.RequireAuth).Get("/tenders", tenderHandler.HandleList)
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(auth.RequireWebhookKey(testAPIKey))
			r.Post("/tenders", tenderHandler.HandleWebhook)
		})
	})

	return &testEnv{router: r, db: db, mailer: mailer}
}
