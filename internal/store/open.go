// Package store opens the configured core.Store backend.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/sharkguard/internal/config"
	"github.com/JonMunkholm/sharkguard/internal/core"
	"github.com/JonMunkholm/sharkguard/internal/store/postgres"
	"github.com/JonMunkholm/sharkguard/internal/store/sqlite"
)

// Open connects to the backend named by cfg.Database.Driver and, when
// AutoMigrate is set, creates the schema.
func Open(ctx context.Context, cfg *config.Config) (core.Store, error) {
	var (
		s   core.Store
		err error
	)

	switch cfg.Database.Driver {
	case "postgres":
		s, err = postgres.Open(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		}, postgres.WithBatchSize(cfg.Import.BatchSize))
	case "sqlite":
		s, err = sqlite.Open(ctx, cfg.Database.URL, sqlite.WithBatchSize(cfg.Import.BatchSize))
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}
