package store

import (
	"context"
	"fmt"

	"deepchat/internal/config"
	"deepchat/internal/redis"
	"deepchat/internal/storage"
)

// Open builds the backend named by cfg.BasicConfig.Store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BasicConfig.Store {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("create redis client: %w", err)
		}
		st, err := NewRedis(ctx, client, cfg.Redis.Prefix)
		if err != nil {
			client.Close()
			return nil, err
		}
		return st, nil
	case "sqlite", "sqlite3", "mysql":
		db, err := storage.Open(cfg.BasicConfig.Store, cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		st, err := NewSQL(db, cfg.BasicConfig.Store)
		if err != nil {
			db.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported store: %s", cfg.BasicConfig.Store)
	}
}
