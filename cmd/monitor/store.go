package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"factoryMonitor/internal/config"
	"factoryMonitor/internal/journal"
	"factoryMonitor/internal/storage"
	"factoryMonitor/internal/storage/memory"
	"factoryMonitor/internal/storage/postgres"
)

// openStore returns the configured store. pg is non-nil only for the postgres backend.
func openStore(ctx context.Context, kind, dsn string, migrate bool, logger *zap.Logger) (store storage.Store, pg *postgres.Store, err error) {
	switch kind {
	case config.StorePostgres:
		pg, err = postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		logger.Info("store opened", zap.String("store", kind), zap.Bool("migrated", migrate))
		return pg, pg, nil
	default:
		logger.Info("store opened", zap.String("store", config.StoreMemory))
		return memory.NewStore(), nil, nil
	}
}

func journalSink(path string) journal.Sink {
	if path == "" {
		return journal.Nop{}
	}
	return journal.NewJSONL(path)
}
