package repository

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogRepository is a placeholder that only records the intent to save.
type LogRepository struct {
	logger logrus.FieldLogger
}

func NewLogRepository(logger logrus.FieldLogger) *LogRepository {
	return &LogRepository{logger: logger}
}

func (r *LogRepository) Save(_ context.Context, total int64) error {
	r.logger.WithField("total", total).Infof("[JobRepository] Saving job count: %d", total)
	return nil
}
