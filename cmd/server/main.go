// Package main is the entry point for the tenderboard server.
//
// Its job is deliberately small: read configuration from the environment,
// build the logger, hand both to internal/server, and exit non-zero when
// something fails to start. All actual logic lives in the internal packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/tenderboard/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// DB_PATH overrides the default database location for deployments,
	// e.g. DB_PATH=/var/lib/tenderboard/prod.db
	dbPath := "data/tenderboard.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The webhook key has no safe default — without it the ingestion
	// endpoint would be either open or unusable, and both are wrong.
	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		logger.Error("API_KEY not set — the ingestion webhook requires a shared secret")
		os.Exit(1)
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", port)
	}

	sessionTTL := 7 * 24 * time.Hour
	if ttlStr := os.Getenv("SESSION_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			logger.Error("invalid SESSION_TTL value", slog.String("value", ttlStr))
			os.Exit(1)
		}
		sessionTTL = ttl
	}

	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")
	if googleCallbackURL == "" {
		googleCallbackURL = baseURL + "/auth/google/callback"
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		APIKey:             apiKey,
		BaseURL:            baseURL,
		RedisURL:           os.Getenv("REDIS_URL"),
		SessionTTL:         sessionTTL,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  googleCallbackURL,
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           smtpPort(),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		MailFrom:           os.Getenv("MAIL_FROM"),
		SecureCookies:      os.Getenv("SECURE_COOKIES") == "true",
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func smtpPort() string {
	if p := os.Getenv("SMTP_PORT"); p != "" {
		return p
	}
	return "587"
}
