package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/0xPuncker/jobcount-watcher/internal/config"
	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrPersistence is returned when a total could not be durably stored.
var ErrPersistence = errors.New("persistence error")

// Repository persists a validated total. Save returns only once the write is
// durable for the backend, or an error wrapping ErrPersistence.
type Repository interface {
	Save(ctx context.Context, total int64) error
}

// Reader exposes the most recently saved record. ok is false when nothing was saved yet.
type Reader interface {
	Latest(ctx context.Context) (record types.Record, ok bool, err error)
}

// HistoryReader lists saved records newest first, at most limit of them.
// A limit below 1 means no limit.
type HistoryReader interface {
	History(ctx context.Context, limit int64) ([]types.Record, error)
}

// Deps carries the already-opened backends a repository may need.
type Deps struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// New builds the repository selected by cfg.Type.
func New(cfg config.RepositoryConfig, deps Deps, logger logrus.FieldLogger) (Repository, error) {
	switch cfg.Type {
	case config.RepositoryLog:
		return NewLogRepository(logger), nil
	case config.RepositoryMemory:
		return NewMemoryRepository(logger), nil
	case config.RepositorySQLite:
		if deps.DB == nil {
			return nil, fmt.Errorf("sqlite repository requires an open database")
		}
		return NewSQLiteRepository(deps.DB, logger), nil
	case config.RepositoryRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis repository requires a redis client")
		}
		return NewRedisRepository(deps.Redis, cfg.RedisPrefix, cfg.HistorySize, logger), nil
	default:
		return nil, fmt.Errorf("unknown repository type %q", cfg.Type)
	}
}

func newRecord(total int64) types.Record {
	return types.Record{
		ID:      uuid.NewString(),
		Total:   total,
		SavedAt: time.Now().UTC(),
	}
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Chain saves to every repository in order and stops at the first failure.
type Chain []Repository

func (c Chain) Save(ctx context.Context, total int64) error {
	for _, r := range c {
		if err := r.Save(ctx, total); err != nil {
			return err
		}
	}
	return nil
}
