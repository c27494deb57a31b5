package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/deanmalmgren/cprofilev/internal/config"
	"github.com/deanmalmgren/cprofilev/internal/launcher"
	"github.com/deanmalmgren/cprofilev/internal/server"
	"github.com/deanmalmgren/cprofilev/storage"
)

const version = "1.0.7"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, config.Usage)
		os.Exit(2)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}
	if cfg.PrintVersion {
		fmt.Println(version)
		return
	}

	// Logs go to stderr so the profiled command's stdout stays clean.
	logger := newLogger(cfg.LogLevel)

	// The launched target, if any, is deliberately not waited on: it is a
	// daemon worker and the viewer outlives it.
	title, store, _, err := openSession(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(2)
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.New(storage.NewSource(store), title, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("cprofilev output available", "url", fmt.Sprintf("http://%s", cfg.ListenAddr()))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM. The serving loop's lifecycle is
	// independent of the target: a finished target keeps its final
	// statistics viewable until the operator quits.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// openSession resolves what the viewer looks at: a saved snapshot database,
// or a freshly launched target command writing into one.
func openSession(cfg config.Config, logger *slog.Logger) (string, storage.Store, *launcher.Launcher, error) {
	if cfg.File != "" {
		if len(cfg.Target) > 0 {
			logger.Warn("viewing snapshot file, ignoring command", "file", cfg.File, "command", cfg.Target[0])
		}
		store, err := openStore(cfg, cfg.File, logger)
		return cfg.File, store, nil, err
	}

	if len(cfg.Target) == 0 {
		return "", nil, nil, fmt.Errorf("no snapshot file and no command to profile")
	}
	if cfg.Storage == config.StorageMemory {
		return "", nil, nil, fmt.Errorf("memory storage cannot be shared with a launched command, use sqlite")
	}

	snapshotPath := filepath.Base(cfg.Target[0]) + ".cprofilev.db"
	store, err := openStore(cfg, snapshotPath, logger)
	if err != nil {
		return "", nil, nil, err
	}

	launched, err := launcher.Start(cfg.Target, snapshotPath, logger)
	if err != nil {
		store.Close()
		return "", nil, nil, err
	}
	logger.Info("profiling target", "command", cfg.Target[0], "snapshot", snapshotPath)
	return cfg.Target[0], store, launched, nil
}

func openStore(cfg config.Config, path string, logger *slog.Logger) (storage.Store, error) {
	if cfg.Storage == config.StorageMemory {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewSQLiteStore(path, logger)
}

func newLogger(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "warn", "warning":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
