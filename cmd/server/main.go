// Package main provides the entry point for the evidence service server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labsignal/evidence-service/internal/cache"
	"github.com/labsignal/evidence-service/internal/config"
	"github.com/labsignal/evidence-service/internal/database"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/fulltext/elsevier"
	"github.com/labsignal/evidence-service/internal/fulltext/grobid"
	"github.com/labsignal/evidence-service/internal/fulltext/pmc"
	"github.com/labsignal/evidence-service/internal/fulltext/pubmed"
	"github.com/labsignal/evidence-service/internal/fulltext/ubn"
	"github.com/labsignal/evidence-service/internal/fulltext/unpaywall"
	"github.com/labsignal/evidence-service/internal/observability"
	"github.com/labsignal/evidence-service/internal/pdf"
	"github.com/labsignal/evidence-service/internal/pipeline"
	httpserver "github.com/labsignal/evidence-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("evidence-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("evidence")

	// Set up the DOI result cache: Postgres when configured, in-memory
	// otherwise.
	var (
		db    *database.DB
		store cache.Store
	)
	if cfg.Pipeline.CacheEnabled {
		if cfg.Database.Enabled {
			db, err = database.New(ctx, &cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			if cfg.Database.MigrationAutoRun {
				migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
				if err != nil {
					return fmt.Errorf("create migrator: %w", err)
				}
				defer func() {
					if closeErr := migrator.Close(); closeErr != nil {
						logger.Error().Err(closeErr).Msg("failed to close migrator")
					}
				}()

				if err := migrator.Up(); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			}

			store = cache.NewPGStore(db, logger)
		} else {
			logger.Info().Msg("postgres cache disabled, using in-memory cache")
			store = cache.NewMemoryStore()
		}
	}

	// One limiter across every upstream client enforces the global
	// requests-per-second ceiling.
	limiter := fulltext.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)

	newClient := func(source string) *fulltext.Client {
		return fulltext.NewClient(fulltext.ClientConfig{
			Source:      source,
			Timeout:     cfg.HTTP.Timeout,
			MaxAttempts: cfg.HTTP.MaxAttempts,
			BaseDelay:   cfg.HTTP.BaseDelay,
			UserAgent:   cfg.HTTP.UserAgent,
		}, limiter)
	}

	ncbiClient := newClient("ncbi")
	resolver := fulltext.NewResolver(ncbiClient, cfg.Sources.NCBI.Email, cfg.Sources.NCBI.APIKey, logger)

	elsevierClient := fulltext.NewClient(fulltext.ClientConfig{
		Source:       "elsevier",
		Timeout:      cfg.HTTP.Timeout,
		MaxAttempts:  cfg.HTTP.MaxAttempts,
		BaseDelay:    cfg.HTTP.BaseDelay,
		UserAgent:    cfg.HTTP.UserAgent,
		APIKey:       cfg.Sources.Elsevier.APIKey,
		APIKeyHeader: "X-ELS-APIKey",
	}, limiter)

	ubnClient := fulltext.NewClient(fulltext.ClientConfig{
		Source:        "ubn",
		Timeout:       cfg.HTTP.Timeout,
		MaxAttempts:   cfg.HTTP.MaxAttempts,
		BaseDelay:     cfg.HTTP.BaseDelay,
		UserAgent:     cfg.HTTP.UserAgent,
		EnableCookies: true,
	}, limiter)

	grobidClient := grobid.New(newClient("grobid"), cfg.Sources.Grobid.BaseURL, logger)
	downloader := pdf.NewDownloader(newClient("pdf"), cfg.Sources.UBN.MaxPDFSize)
	session := ubn.NewSession(ubnClient, cfg.Sources.UBN.BaseURL)

	tiers := []fulltext.Retriever{
		pmc.New(ncbiClient, resolver, cfg.Sources.NCBI.APIKey, logger),
		pubmed.New(ncbiClient, resolver, cfg.Sources.NCBI.APIKey, logger),
		elsevier.New(elsevierClient, cfg.Sources.Elsevier.APIKey, cfg.Sources.Elsevier.PublisherNames, logger),
		ubn.New(session, downloader, grobidClient, logger),
		unpaywall.New(newClient("unpaywall"), downloader, grobidClient, cfg.Sources.Unpaywall.Email, logger),
	}

	orchestrator := fulltext.NewOrchestrator(tiers, logger, metrics)
	pipe := pipeline.New(orchestrator, store, cfg.Pipeline.Domains, cfg.Pipeline.MaxWorkers, logger, metrics)

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}
	httpSrv := httpserver.NewServer(httpCfg, pipe, db, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Msg("evidence-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down evidence-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("evidence-service shutdown complete")
	return nil
}
