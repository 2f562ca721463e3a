package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/workgroup/workgroup-client/internal/client/config"
	"github.com/workgroup/workgroup-client/internal/client/sessionstore"
	"github.com/workgroup/workgroup-client/internal/client/storage"
)

// openStore builds the session store selected by cfg.StoreBackend. The
// returned func releases whatever the store holds open.
func openStore(ctx context.Context, cfg *config.Config) (sessionstore.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		db, err := storage.InitDatabase(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return sessionstore.NewSQLiteStore(db), db.Close, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return sessionstore.NewRedisStore(rdb, cfg.RedisKey), rdb.Close, nil

	case config.StoreMemory:
		return sessionstore.NewMemoryStore(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
