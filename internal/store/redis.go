package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
	logger    logger.Logger
}

// NewRedisStore stores records as redis strings. A zero ttl keeps records
// until they are deleted.
func NewRedisStore(client redis.Cmdable, keyPrefix string, ttl time.Duration, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl, logger: log}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStoreUnavailableError("get", key, err)
	}
	return decode(s.logger, key, raw, dest), nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, payload, s.ttl).Err(); err != nil {
		return errors.NewStoreUnavailableError("put", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return errors.NewStoreUnavailableError("delete", key, err)
	}
	return nil
}
