package fetcher

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xPuncker/jobcount-watcher/internal/config"
	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/sirupsen/logrus"
)

// Fetcher returns the job count of one environment. An unknown environment
// yields an absent count, not an error.
type Fetcher interface {
	Fetch(ctx context.Context, env types.EnvironmentID) (types.JobCount, error)
}

// New builds the fetcher selected by cfg.Type. db is only used by the database fetcher.
func New(cfg config.FetcherConfig, db *sql.DB, logger logrus.FieldLogger) (Fetcher, error) {
	switch cfg.Type {
	case config.FetcherStatic:
		return NewStaticFetcher(cfg.Stub, logger), nil
	case config.FetcherFile:
		return NewFileFetcher(cfg.FilePath, logger), nil
	case config.FetcherDatabase:
		if db == nil {
			return nil, fmt.Errorf("database fetcher requires an open database")
		}
		return NewDatabaseFetcher(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown fetcher type %q", cfg.Type)
	}
}

func logAttempt(logger logrus.FieldLogger, name string, env types.EnvironmentID, source string) {
	logger.WithFields(logrus.Fields{
		"fetcher": name,
		"env":     env,
		"source":  source,
	}).Infof("[%s] Fetching job count for %s from %s", name, env, source)
}
