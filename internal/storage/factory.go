package storage

import (
	"context"
	"fmt"

	"risparmio/internal/config"
	"risparmio/internal/storage/postgres"
	"risparmio/internal/storage/sqlite"
)

// Open constructs the store selected by the configuration. The caller
// owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "sqlite":
		repo, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return repo, nil
	case "postgres":
		repo, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
