package store

import (
	"context"
	"fmt"

	"github.com/PratikDhanave/presence-service/internal/config"
	"github.com/PratikDhanave/presence-service/internal/presence"
)

// Backend is a presence.Store that owns connections to release on shutdown.
type Backend interface {
	presence.Store
	Close() error
}

// Open connects the backend selected by cfg.Store. The postgres backend has
// its schema applied before it is returned.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := NewPostgresStore(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		// Ensure required tables exist before serving.
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		return db, nil
	case config.StoreRedis:
		return ConnectRedis(ctx, cfg.RedisURL)
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
