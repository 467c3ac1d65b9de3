package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/config"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

// OpenTicketStore connects the configured backend and returns the ticket store
// together with a function releasing its connections.
func OpenTicketStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.TicketStore, func(), error) {
	key := cfg.Storage.DocumentKey
	logger = logger.With(zap.String("backend", cfg.Storage.Backend), zap.String("document_key", key))

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Warn("using in-memory ticket store; data is lost on restart")
		return repository.NewMemoryTicketStore(), func() {}, nil

	case config.StoragePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return repository.NewPostgresTicketStore(pg.Pool, key), pg.Close, nil

	case config.StorageRedis:
		rdb, err := NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisTicketStore(rdb.Client, key), rdb.Close, nil

	case config.StorageSQLite:
		lite, err := NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLiteTicketStore(lite.DB, key), lite.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
