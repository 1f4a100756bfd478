package fetcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// FileFetcher reads counts from a KEY=VALUE text file, e.g.
//
//	SPA=20000
//	UPCTM=25000
//
// The file is re-read on every call so counts are never cached.
type FileFetcher struct {
	path   string
	logger logrus.FieldLogger
}

func NewFileFetcher(path string, logger logrus.FieldLogger) *FileFetcher {
	return &FileFetcher{path: path, logger: logger}
}

func (f *FileFetcher) Fetch(_ context.Context, env types.EnvironmentID) (types.JobCount, error) {
	logAttempt(f.logger, "FileJobFetcher", env, f.path)

	values, err := godotenv.Read(f.path)
	if err != nil {
		return types.AbsentJobCount(), fmt.Errorf("failed to read job counts from %s: %w", f.path, err)
	}

	raw, ok := values[string(env)]
	if !ok {
		return types.AbsentJobCount(), nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return types.AbsentJobCount(), fmt.Errorf("invalid job count %q for %s in %s: %w", raw, env, f.path, err)
	}
	if n < 0 {
		return types.AbsentJobCount(), fmt.Errorf("negative job count %d for %s in %s", n, env, f.path)
	}

	return types.NewJobCount(n), nil
}
