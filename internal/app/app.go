package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bunchhieng/uuidspace/internal/config"
	"github.com/bunchhieng/uuidspace/internal/log"
	"github.com/bunchhieng/uuidspace/internal/search"
	"github.com/bunchhieng/uuidspace/internal/storage"
)

// DefaultDBPath returns the default database path using the platform's config directory.
func DefaultDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "uuidspace", "favorites.db"), nil
}

// NewStorage creates a new storage instance, falling back to the default database path.
func NewStorage(ctx context.Context, dbPath string) (storage.Storage, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	logger := log.Ctx(ctx)
	logger.Debug().Str(log.FieldDBPath, dbPath).Msg("opening favorites")
	return storage.NewSQLiteStorage(dbPath)
}

// SearchOptions builds engine options from configuration, logging through the context's logger.
func SearchOptions(ctx context.Context, cfg *config.Config) search.Options {
	logger := log.Ctx(ctx)
	return search.Options{
		LookAhead: cfg.Search.LookAhead,
		LookBack:  cfg.Search.LookBack,
		Attempts:  cfg.Search.Attempts,
		Logger:    &logger,
	}
}
