package testutil

import (
	"context"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, env types.EnvironmentID) (types.JobCount, error) {
	args := m.Called(ctx, env)
	return args.Get(0).(types.JobCount), args.Error(1)
}

// Counts programs the fetcher with a fixed table; missing environments are absent.
func (m *MockFetcher) Counts(counts map[types.EnvironmentID]types.JobCount) *MockFetcher {
	for env, count := range counts {
		m.On("Fetch", mock.Anything, env).Return(count, nil)
	}
	m.On("Fetch", mock.Anything, mock.Anything).Return(types.AbsentJobCount(), nil)
	return m
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, total int64) error {
	args := m.Called(ctx, total)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLicenseExceeded(ctx context.Context, total, limit int64) error {
	args := m.Called(ctx, total, limit)
	return args.Error(0)
}
