package repository

import (
	"context"
	"sync"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	latestKey  = "latest"
	historyKey = "history"

	memoryHistorySize = 100
)

// MemoryRepository keeps the latest record and a short history in process
// memory. It backs the status API when the primary repository cannot be read back.
type MemoryRepository struct {
	mu     sync.Mutex
	cache  *cache.Cache
	logger logrus.FieldLogger
}

func NewMemoryRepository(logger logrus.FieldLogger) *MemoryRepository {
	return &MemoryRepository{
		cache:  cache.New(cache.NoExpiration, 0),
		logger: logger,
	}
}

func (r *MemoryRepository) Save(_ context.Context, total int64) error {
	record := newRecord(total)

	r.mu.Lock()
	history := append([]types.Record{record}, r.history()...)
	if len(history) > memoryHistorySize {
		history = history[:memoryHistorySize]
	}
	r.cache.Set(historyKey, history, cache.NoExpiration)
	r.cache.Set(latestKey, record, cache.NoExpiration)
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"id":    record.ID,
		"total": total,
	}).Debug("Stored job count in memory")
	return nil
}

func (r *MemoryRepository) Latest(_ context.Context) (types.Record, bool, error) {
	cached, found := r.cache.Get(latestKey)
	if !found {
		return types.Record{}, false, nil
	}
	return cached.(types.Record), true, nil
}

func (r *MemoryRepository) History(_ context.Context, limit int64) ([]types.Record, error) {
	r.mu.Lock()
	history := r.history()
	r.mu.Unlock()

	if limit > 0 && int64(len(history)) > limit {
		history = history[:limit]
	}
	return append([]types.Record(nil), history...), nil
}

func (r *MemoryRepository) history() []types.Record {
	cached, found := r.cache.Get(historyKey)
	if !found {
		return nil
	}
	return cached.([]types.Record)
}
