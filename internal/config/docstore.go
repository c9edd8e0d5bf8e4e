package config

import (
	"context"
	"fmt"

	"investorconnect/internal/adapters/persistence/repositories"
	"investorconnect/internal/docstore"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentStore is an opened document driver with its health probe and
// teardown.
type DocumentStore struct {
	Store  docstore.Store
	Driver docstore.Driver
	Ping   func(ctx context.Context) error
	Close  func() error
}

// OpenDocumentStore builds the driver named by DOCSTORE_DRIVER. db is only
// used by the mysql driver.
func OpenDocumentStore(ctx context.Context, cfg *Config, db *gorm.DB, log *zap.Logger) (*DocumentStore, error) {
	indexes := cfg.DocStore.Indexes

	switch cfg.DocStore.Driver {
	case docstore.DriverMySQL:
		if db == nil {
			return nil, fmt.Errorf("docstore driver mysql needs a database connection")
		}
		log.Info("document store ready", zap.String("driver", "mysql"), zap.Int("indexed_collections", len(indexes)))
		return &DocumentStore{
			Store:  repositories.NewDocumentRepository(db, indexes),
			Driver: docstore.DriverMySQL,
			Ping:   func(context.Context) error { return DatabaseHealthCheck(db) },
			Close:  func() error { return nil },
		}, nil

	case docstore.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("document store ready", zap.String("driver", "redis"), zap.String("addr", cfg.Redis.Addr))
		return &DocumentStore{
			Store:  repositories.NewRedisDocumentRepository(client, indexes),
			Driver: docstore.DriverRedis,
			Ping:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close:  client.Close,
		}, nil

	case docstore.DriverMemory:
		log.Warn("document store is in memory; data is lost on restart")
		return &DocumentStore{
			Store:  docstore.NewMemory(indexes),
			Driver: docstore.DriverMemory,
			Ping:   func(context.Context) error { return nil },
			Close:  func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown docstore driver %q", cfg.DocStore.Driver)
	}
}
