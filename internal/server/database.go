package server

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/repository"
)

// OpenStore connects to Postgres when a DSN is configured and falls back to SQLite otherwise.
// Migrations are applied before the store is returned.
func OpenStore(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
		return repository.OpenSQLite(ctx, cfg.SQLitePath, logger)
	}

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	store := repository.NewPostgresStore(pool, logger)
	if err := store.Migrate(ctx); err != nil {
		repository.Close(pool, logger)
		return nil, err
	}
	return store, nil
}
