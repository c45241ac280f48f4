package main

import (
	"fmt"
	"os"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/api"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/config"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/log"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/snapshot"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage/factory"
)

func main() {
	if err := run(); err != nil {
		log.Error("API server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))

	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize run history (optional)
	store, err := factory.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	// Initialize handler
	handler := api.NewHandler(snapshot.NewReader(cfg.DataDir), store)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Info("Starting API server", "addr", addr, "data_dir", cfg.DataDir, "storage", cfg.StorageType)

	if err := router.Run(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
