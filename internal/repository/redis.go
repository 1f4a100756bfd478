package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRepository stores the latest record under <prefix>:latest and keeps a
// capped, newest-first list under <prefix>:history.
type RedisRepository struct {
	client      redis.UniversalClient
	prefix      string
	historySize int64
	logger      logrus.FieldLogger
}

func NewRedisRepository(client redis.UniversalClient, prefix string, historySize int64, logger logrus.FieldLogger) *RedisRepository {
	if prefix == "" {
		prefix = "jobcount"
	}
	if historySize < 1 {
		historySize = 1
	}
	return &RedisRepository{
		client:      client,
		prefix:      prefix,
		historySize: historySize,
		logger:      logger,
	}
}

func (r *RedisRepository) latestKey() string  { return r.prefix + ":latest" }
func (r *RedisRepository) historyKey() string { return r.prefix + ":history" }

func (r *RedisRepository) Save(ctx context.Context, total int64) error {
	record := newRecord(total)

	data, err := json.Marshal(record)
	if err != nil {
		return persistenceError("marshal record", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.latestKey(), data, 0)
	pipe.LPush(ctx, r.historyKey(), data)
	pipe.LTrim(ctx, r.historyKey(), 0, r.historySize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return persistenceError("redis transaction", err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":    record.ID,
		"total": total,
		"key":   r.latestKey(),
	}).Info("Saved job count to redis")
	return nil
}

func (r *RedisRepository) Latest(ctx context.Context) (types.Record, bool, error) {
	data, err := r.client.Get(ctx, r.latestKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.Record{}, false, nil
		}
		return types.Record{}, false, fmt.Errorf("redis get: %w", err)
	}

	var record types.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return types.Record{}, false, fmt.Errorf("failed to decode latest record: %w", err)
	}
	return record, true, nil
}

// History reads the capped history list, newest first.
func (r *RedisRepository) History(ctx context.Context, limit int64) ([]types.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	items, err := r.client.LRange(ctx, r.historyKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	records := make([]types.Record, 0, len(items))
	for _, item := range items {
		var record types.Record
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to decode history record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
