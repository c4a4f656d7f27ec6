package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-token-minter/internal/config"
	"solana-token-minter/internal/storage"
	chstore "solana-token-minter/internal/storage/clickhouse"
	"solana-token-minter/internal/storage/memory"
	"solana-token-minter/internal/storage/migrations"
	pgstore "solana-token-minter/internal/storage/postgres"
)

// stores holds the storage implementations used by the service.
type stores struct {
	sessions   storage.SessionStore
	records    storage.TokenRecordStore
	operations storage.OperationLogStore
}

// createStores returns memory stores unless both database DSNs are configured.
// Schemas are migrated on startup.
func createStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, func(), error) {
	if !cfg.PersistentStorage() {
		logger.Info("using in-memory storage")
		return &stores{
			sessions:   memory.NewSessionStore(),
			records:    memory.NewTokenRecordStore(),
			operations: memory.NewOperationLogStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	logger.Info("postgres migrated", zap.Strings("applied", applied))

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &stores{
		sessions:   pgstore.NewSessionStore(pool),
		records:    pgstore.NewTokenRecordStore(pool),
		operations: chstore.NewOperationLogStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}
