package sessionstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/workgroup/workgroup-client/internal/client/models"
)

// RedisStore keeps the session under one Redis key, for clients that share
// their state with a local Redis instead of a file.
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

func NewRedisStore(rdb redis.Cmdable, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*models.Session, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError("load session", err)
	}
	return decode(raw)
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	raw, err := encode(session)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return persistenceError("save session", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return persistenceError("clear session", err)
	}
	return nil
}
