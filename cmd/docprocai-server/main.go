// Package main provides the docprocai HTTP server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MEITREX/docprocai-fileingestlib/internal/config"
	"github.com/MEITREX/docprocai-fileingestlib/internal/embedding"
	"github.com/MEITREX/docprocai-fileingestlib/internal/extract"
	"github.com/MEITREX/docprocai-fileingestlib/internal/mediaservice"
	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/scheduler"
	"github.com/MEITREX/docprocai-fileingestlib/internal/server"
	"github.com/MEITREX/docprocai-fileingestlib/internal/service"
	"github.com/MEITREX/docprocai-fileingestlib/internal/similarity"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store/memory"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store/pgvector"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store/surreal"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from the store on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting docprocai-server",
		"port", cfg.ServerPort,
		"store", cfg.Store,
		"embed_provider", cfg.EmbedProvider)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStore(ctx, cfg, *wipeDB, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	embedder, err := embedding.New(cfg)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	extractor := extract.NewHTTPClient(cfg.ExtractorURL)
	media := mediaservice.New(cfg.MediaServiceURL)

	worker := scheduler.New(logger)
	worker.Start()

	svc := service.New(
		st,
		media,
		extractor,
		extractor,
		embedder,
		similarity.Levenshtein{},
		worker,
		cfg.LinkThreshold,
		metrics.NewCollector(),
		logger,
	)

	srv := server.New(":"+cfg.ServerPort, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Let the current background task finish; queued tasks are abandoned.
	worker.Stop()
	logger.Info("stopped")
}

// openStore connects the configured store backend and prepares its schema.
func openStore(ctx context.Context, cfg config.Config, wipe bool, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		st, err := pgvector.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := st.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return nil, err
		}
		return st, nil

	case config.StoreMemory:
		return memory.New(), nil

	default:
		st, err := surreal.New(ctx, surreal.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := st.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return nil, err
		}
		if wipe || os.Getenv("DOCPROCAI_WIPE_DB") == "true" {
			if err := st.WipeData(ctx); err != nil {
				return nil, err
			}
		}
		return st, nil
	}
}
