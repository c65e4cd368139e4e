package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docquery/internal/api"
	"github.com/dgallion1/docquery/internal/config"
	"github.com/dgallion1/docquery/internal/runstore"
	"github.com/joho/godotenv"
)

const pruneInterval = time.Hour

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to read .env", "error", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize run history.
	store, err := runstore.Open(cfg.RunsDBPath)
	if err != nil {
		log.Error("open run store", "path", cfg.RunsDBPath, "error", err)
		os.Exit(1)
	}
	go pruneLoop(ctx, store, cfg.RunsMaxAge, log)

	// Initialize HTTP server.
	srv := api.NewServer(store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		store.Close()
	}()

	log.Info("starting docquery", "port", cfg.Port, "runs_db", store.Path())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// pruneLoop deletes runs older than maxAge until ctx is done.
func pruneLoop(ctx context.Context, store *runstore.Store, maxAge time.Duration, log *slog.Logger) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		n, err := store.Prune(ctx, maxAge)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error("prune runs", "error", err)
		case n > 0:
			log.Info("pruned runs", "deleted", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
