package fetcher

import (
	"context"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/sirupsen/logrus"
)

// defaultStub holds the placeholder counts served when nothing else is configured.
var defaultStub = map[string]int64{
	string(types.EnvSPA):   20000,
	string(types.EnvUPCTM): 25000,
}

type StaticFetcher struct {
	counts map[string]int64
	logger logrus.FieldLogger
}

func NewStaticFetcher(counts map[string]int64, logger logrus.FieldLogger) *StaticFetcher {
	if counts == nil {
		counts = defaultStub
	}
	table := make(map[string]int64, len(counts))
	for env, n := range counts {
		table[env] = n
	}
	return &StaticFetcher{counts: table, logger: logger}
}

func (f *StaticFetcher) Fetch(_ context.Context, env types.EnvironmentID) (types.JobCount, error) {
	logAttempt(f.logger, "StaticFetcher", env, "static table")

	n, ok := f.counts[string(env)]
	if !ok {
		return types.AbsentJobCount(), nil
	}
	return types.NewJobCount(n), nil
}
