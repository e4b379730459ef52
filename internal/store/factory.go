package store

import (
	"database/sql"
	"fmt"

	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Backends carries the connected clients a store may be built on.
type Backends struct {
	Redis    redis.Cmdable
	Postgres *sql.DB
}

// New builds the store selected by cfg.Backend.
func New(cfg config.StoreConfig, b Backends, log logger.Logger) (RecordStore, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("store backend %q requires a redis client", cfg.Backend)
		}
		return NewRedisStore(b.Redis, cfg.KeyPrefix, cfg.TTLDuration(), log), nil
	case config.StoreBackendPostgres:
		if b.Postgres == nil {
			return nil, fmt.Errorf("store backend %q requires a postgres connection", cfg.Backend)
		}
		return NewPostgresStore(b.Postgres, cfg.Table, log), nil
	case config.StoreBackendMemory:
		return NewMemoryStore(log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
