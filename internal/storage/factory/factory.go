package factory

import (
	"fmt"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/config"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage/postgres"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage/sqlite"
)

// Open returns the run history store selected by STORAGE_TYPE.
// It returns nil when history is disabled.
func Open(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "", "none":
		return nil, nil
	case "sqlite":
		store, err := sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL storage: %w", err)
		}
		return store, nil
	default:
		return nil, &config.ConfigError{Field: "STORAGE_TYPE", Message: "unknown storage type: " + cfg.StorageType}
	}
}
