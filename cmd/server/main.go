package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	specpkg "github.com/schoolarchive/archive/api"
	"github.com/schoolarchive/archive/internal/accesslog"
	"github.com/schoolarchive/archive/internal/api"
	"github.com/schoolarchive/archive/internal/archive"
	"github.com/schoolarchive/archive/internal/auth"
	"github.com/schoolarchive/archive/internal/authz"
	"github.com/schoolarchive/archive/internal/changelog"
	"github.com/schoolarchive/archive/internal/config"
	"github.com/schoolarchive/archive/internal/database"
	"github.com/schoolarchive/archive/internal/identity"
	"github.com/schoolarchive/archive/internal/logging"
	"github.com/schoolarchive/archive/internal/metrics"
	"github.com/schoolarchive/archive/internal/refdata"
	"github.com/schoolarchive/archive/internal/session"
	"github.com/schoolarchive/archive/internal/spreadsheet"
	"github.com/schoolarchive/archive/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	metrics.Register(cfg.Version)

	ctx := context.Background()

	googleOpts := []option.ClientOption{
		option.WithCredentialsJSON([]byte(cfg.GoogleServiceKey)),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveScope),
	}

	sheetsClient, err := spreadsheet.New(ctx, cfg.SpreadsheetID, googleOpts...)
	if err != nil {
		fatal("failed to create sheets client", err)
	}
	driveRemote, err := archive.NewDriveRemote(ctx, googleOpts...)
	if err != nil {
		fatal("failed to create drive client", err)
	}
	policy, err := authz.NewPolicy()
	if err != nil {
		fatal("failed to load document policy", err)
	}
	verifier, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		fatal("failed to create identity verifier", err)
	}
	issuer, err := session.NewIssuer(cfg.JWTSecret)
	if err != nil {
		fatal("failed to create session issuer", err)
	}

	deps := api.RouterDeps{
		Verifier:       verifier,
		Issuer:         issuer,
		Sessions:       issuer,
		AccessLog:      accesslog.New(sheetsClient),
		Documents:      archive.NewGateway(driveRemote, cfg.ArchiveFolderID, policy),
		References:     refdata.New(sheetsClient),
		Version:        cfg.Version,
		OpenAPISpec:    specpkg.OpenAPISpec,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	switch cfg.AuthDirectory {
	case config.DirectoryPostgres:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			fatal("failed to open database", err)
		}
		defer db.Close()
		deps.Directory = auth.NewPostgresDirectory(auth.NewPoolProvider(db, changelog.NewRecorder()))
		deps.DBPinger = db
	default:
		deps.Directory = auth.NewSheetDirectory(sheetsClient)
	}
	slog.Info("authorization directory configured", "backend", cfg.AuthDirectory)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting archive server", "port", cfg.Port, "version", cfg.Version, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openDatabase connects to Postgres and applies the embedded schema.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.New(ctx, cfg.DatabaseURL,
		database.WithMaxConns(cfg.DBMaxConns),
		database.WithMaxConnLifetime(cfg.DBMaxConnLifetime),
	)
	if err != nil {
		return nil, err
	}
	stmts, err := migrations.Up()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Migrate(ctx, stmts); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
