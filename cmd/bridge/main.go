// Command bridge starts the Figma bridge API server.
// Usage: go run ./cmd/bridge
// Configuration comes from the environment (LISTEN_ADDR, DB_PATH, CORS_ORIGINS)
// or a local .env file. Without DB_PATH the server runs proxy-only.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/figplay/bridge/internal/config"
	"github.com/figplay/bridge/internal/logging"
	"github.com/figplay/bridge/internal/server"
	"github.com/figplay/bridge/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.NewStdoutLogger("bridge")

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	var (
		saved   store.SavedRequestStore
		history store.HistoryStore
	)

	if cfg.PersistenceEnabled() {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		repo := store.NewRepository(db, logger)
		defer repo.Close()

		saved, history = repo, repo
		logger.Info("persistence enabled", logging.Field{Key: "db_path", Value: cfg.DBPath})
	} else {
		logger.Warn("DB_PATH not set, saved requests and history are disabled")
	}

	srv := server.NewServer(server.Config{
		ListenAddr:     cfg.ListenAddr,
		AllowedOrigins: cfg.CORSOrigins,
		FigmaBaseURL:   cfg.FigmaBaseURL,
		Saved:          saved,
		History:        history,
		Logger:         logger,
	})
	defer srv.Close()

	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case sig := <-sigCh:
		logger.Info("received shutdown signal", logging.Field{Key: "signal", Value: sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}
