package main

import (
	"context"
	"fmt"

	"padaria/internal/config"
	"padaria/internal/infrastructure/mongo"
	"padaria/internal/remote"
	"padaria/internal/remote/memstore"
	"padaria/internal/remote/mongostore"

	"go.uber.org/zap"
)

// openStore returns the configured remote store and the function that
// releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (remote.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		store := memstore.New()
		return store, store.Close, nil
	}

	storage, err := mongo.New(cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}

	if err := storage.CreateIndexes(ctx); err != nil {
		_ = storage.Close(context.Background())
		return nil, nil, fmt.Errorf("preparing mongodb: %w", err)
	}
	logger.Info("mongodb connected", zap.String("database", cfg.Mongo.Database))

	release := func() {
		if err := storage.Close(context.Background()); err != nil {
			logger.Warn("closing mongodb", zap.Error(err))
		}
	}
	return mongostore.New(storage.Database(), logger), release, nil
}
