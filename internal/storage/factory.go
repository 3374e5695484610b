// Package storage selects the subscription store and quote cache backends from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/storage/badger"
	"github.com/darshan15062002/stock-analysis/internal/storage/postgres"
	"github.com/darshan15062002/stock-analysis/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSurrealDB = "surrealdb"
	BackendPostgres  = "postgres"
	BackendBadger    = "badger"
)

// NewSubscriptionStore opens the subscription store named by config.Backend.
// An empty backend defaults to surrealdb.
func NewSubscriptionStore(ctx context.Context, config common.StorageConfig, logger *common.Logger) (interfaces.SubscriptionStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendSurrealDB
	}

	switch backend {
	case BackendSurrealDB:
		db, err := surrealdb.Connect(ctx, config.SurrealDB, logger)
		if err != nil {
			return nil, err
		}
		store, err := surrealdb.NewSubscriptionStore(ctx, db, logger)
		if err != nil {
			db.Close(ctx)
			return nil, err
		}
		return store, nil

	case BackendPostgres:
		if config.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres backend selected but no dsn configured")
		}
		store, err := postgres.Open(ctx, config.Postgres.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	case BackendBadger:
		db, err := badger.NewStore(logger, config.Badger.Path)
		if err != nil {
			return nil, err
		}
		return badger.NewSubscriptionStore(db, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: surrealdb, postgres, badger)", backend)
	}
}

// NewQuoteCache opens the badger quote cache. It returns nil when caching is disabled.
func NewQuoteCache(config common.CacheConfig, logger *common.Logger) (interfaces.QuoteCache, error) {
	if !config.Enabled {
		return nil, nil
	}

	var (
		db  *badger.Store
		err error
	)
	if config.InMemory || config.Path == "" {
		db, err = badger.NewMemoryStore(logger)
	} else {
		db, err = badger.NewStore(logger, config.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open quote cache: %w", err)
	}
	return badger.NewQuoteCache(db, logger), nil
}
