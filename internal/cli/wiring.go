package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/catalog"
	"github.com/terra-clan/circular-readiness/internal/config"
	"github.com/terra-clan/circular-readiness/internal/storage"
)

// loadCatalog loads dir, or the embedded reference catalog when dir is empty
func loadCatalog(dir string) (*catalog.Loader, error) {
	loader := catalog.NewLoader()
	if dir == "" {
		if err := loader.LoadDefault(); err != nil {
			return nil, fmt.Errorf("failed to load built-in catalog: %w", err)
		}
		return loader, nil
	}
	if err := loader.LoadFromDir(dir); err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", dir, err)
	}
	return loader, nil
}

// openRepository opens the configured history backend
func openRepository(ctx context.Context, cfg config.StorageConfig) (storage.Repository, error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		if cfg.AutoMigrate {
			applied, err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir)
			if err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			slog.Info("database migrations applied", "count", len(applied))
		}
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: int32(cfg.MaxOpenConns),
			MaxIdleConns: int32(cfg.MaxIdleConns),
		})
		if err != nil {
			return nil, err
		}
		slog.Info("database connected successfully", "driver", cfg.Driver)
		return repo, nil

	case config.StorageSQLite:
		repo, err := storage.NewSQLiteRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("sqlite history opened", "path", cfg.SQLitePath)
		return repo, nil

	case config.StorageFile:
		repo, err := storage.NewFileRepository(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		slog.Info("file history opened", "path", cfg.FilePath)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
}

// openSessionStore opens the configured session store
func openSessionStore(ctx context.Context, cfg *config.Config) (assessment.SessionStore, error) {
	switch cfg.Sessions.Driver {
	case config.SessionsMemory:
		return assessment.NewMemoryStore(), nil
	case config.SessionsRedis:
		store, err := assessment.NewRedisStore(ctx, assessment.RedisConfig{
			Addr:      cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("redis session store connected", "addr", cfg.Redis.Address)
		return store, nil
	}
	return nil, fmt.Errorf("unknown session store: %q", cfg.Sessions.Driver)
}
