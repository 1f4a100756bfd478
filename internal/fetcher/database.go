package fetcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/sirupsen/logrus"
)

// DatabaseFetcher reads counts from the job_counts table.
type DatabaseFetcher struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func NewDatabaseFetcher(db *sql.DB, logger logrus.FieldLogger) *DatabaseFetcher {
	return &DatabaseFetcher{db: db, logger: logger}
}

func (f *DatabaseFetcher) Fetch(ctx context.Context, env types.EnvironmentID) (types.JobCount, error) {
	logAttempt(f.logger, "DatabaseJobFetcher", env, "job_counts")

	var n int64
	err := f.db.QueryRowContext(ctx, `SELECT count FROM job_counts WHERE environment = ?`, string(env)).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return types.AbsentJobCount(), nil
	}
	if err != nil {
		return types.AbsentJobCount(), fmt.Errorf("failed to query job count for %s: %w", env, err)
	}

	return types.NewJobCount(n), nil
}
