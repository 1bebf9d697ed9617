// Package main is the entry point for the snippets API server.
//
// MAIN PACKAGE IN GO:
// main stays minimal. Its job is to:
//  1. read configuration (defaults, environment, flags)
//  2. create dependencies (logger, stores)
//  3. start the server
//
// All actual logic lives in internal/. The admin commands live in
// cmd/snippetadm and share the same config and storage packages.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/snippets-api/internal/config"
	"github.com/sakif/snippets-api/internal/server"
	"github.com/sakif/snippets-api/internal/storage"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	// === 2. SET UP LOGGING ===
	// Validate already rejected unknown levels, so the error is ignored here.
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// === 3. OPEN STORAGE ===
	// Migrations run here, before the first request.
	stores, err := storage.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, stores, logger)
	if err != nil {
		stores.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM) and
	// closes the stores on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
