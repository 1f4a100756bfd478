package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/0xPuncker/jobcount-watcher/internal/config"
	"github.com/0xPuncker/jobcount-watcher/internal/storage/sqlite"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRepository(t *testing.T) {
	logger, hook := test.NewNullLogger()
	repo := NewLogRepository(logger)

	require.NoError(t, repo.Save(context.Background(), 45000))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "[JobRepository] Saving job count: 45000", entry.Message)
	assert.Equal(t, int64(45000), entry.Data["total"])
}

func TestMemoryRepository(t *testing.T) {
	logger, _ := test.NewNullLogger()
	repo := NewMemoryRepository(logger)
	ctx := context.Background()

	_, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, 100))
	require.NoError(t, repo.Save(ctx, 200))

	record, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), record.Total)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.SavedAt.IsZero())
}

func TestMemoryRepositoryHistory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	repo := NewMemoryRepository(logger)
	ctx := context.Background()

	history, err := repo.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	for i := int64(1); i <= memoryHistorySize+5; i++ {
		require.NoError(t, repo.Save(ctx, i))
	}

	history, err = repo.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, memoryHistorySize)
	assert.Equal(t, int64(memoryHistorySize+5), history[0].Total)
	assert.Equal(t, int64(6), history[memoryHistorySize-1].Total)

	history, err = repo.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(memoryHistorySize+4), history[1].Total)
}

func TestHistoryReaders(t *testing.T) {
	var _ HistoryReader = (*MemoryRepository)(nil)
	var _ HistoryReader = (*SQLiteRepository)(nil)
	var _ HistoryReader = (*RedisRepository)(nil)
}

func TestSQLiteRepository(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "jobcount.db"))
	require.NoError(t, err)
	defer db.Close()

	logger, _ := test.NewNullLogger()
	repo := NewSQLiteRepository(db, logger)
	ctx := context.Background()

	_, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, 45000))
	require.NoError(t, repo.Save(ctx, 46000))

	history, err := repo.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(46000), history[0].Total)
	assert.Equal(t, int64(45000), history[1].Total)

	history, err = repo.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(46000), history[0].Total)

	record, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(46000), record.Total)
	assert.Len(t, record.ID, 36)
}

func TestSQLiteRepositoryPersistenceError(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "jobcount.db"))
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	repo := NewSQLiteRepository(db, logger)
	require.NoError(t, db.Close())

	err = repo.Save(context.Background(), 45000)
	assert.ErrorIs(t, err, ErrPersistence)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRepository(t *testing.T) {
	mr, client := newRedis(t)
	logger, _ := test.NewNullLogger()
	repo := NewRedisRepository(client, "test", 2, logger)
	ctx := context.Background()

	_, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, total := range []int64{10, 20, 30} {
		require.NoError(t, repo.Save(ctx, total))
	}

	record, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(30), record.Total)
	assert.True(t, mr.Exists("test:latest"))

	history, err := repo.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(30), history[0].Total)
	assert.Equal(t, int64(20), history[1].Total)

	history, err = repo.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(30), history[0].Total)
}

func TestRedisRepositoryPersistenceError(t *testing.T) {
	mr, client := newRedis(t)
	logger, _ := test.NewNullLogger()
	repo := NewRedisRepository(client, "", 10, logger)

	mr.Close()

	err := repo.Save(context.Background(), 45000)
	assert.ErrorIs(t, err, ErrPersistence)
}

type failingRepository struct{ calls int }

func (f *failingRepository) Save(context.Context, int64) error {
	f.calls++
	return persistenceError("write", errors.New("disk full"))
}

func TestChain(t *testing.T) {
	logger, _ := test.NewNullLogger()
	first := NewMemoryRepository(logger)
	failing := &failingRepository{}
	last := NewMemoryRepository(logger)
	ctx := context.Background()

	require.NoError(t, Chain{first, last}.Save(ctx, 7))
	record, ok, err := last.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), record.Total)

	err = Chain{first, failing, last}.Save(ctx, 8)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, failing.calls)

	record, _, _ = first.Latest(ctx)
	assert.Equal(t, int64(8), record.Total)
	record, _, _ = last.Latest(ctx)
	assert.Equal(t, int64(7), record.Total)
}

func TestNew(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, client := newRedis(t)

	tests := []struct {
		name        string
		repoType    string
		deps        Deps
		expected    interface{}
		expectError bool
	}{
		{"log", config.RepositoryLog, Deps{}, &LogRepository{}, false},
		{"memory", config.RepositoryMemory, Deps{}, &MemoryRepository{}, false},
		{"redis", config.RepositoryRedis, Deps{Redis: client}, &RedisRepository{}, false},
		{"redis without client", config.RepositoryRedis, Deps{}, nil, true},
		{"sqlite without db", config.RepositorySQLite, Deps{}, nil, true},
		{"unknown", "s3", Deps{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := New(config.RepositoryConfig{Type: tt.repoType}, tt.deps, logger)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expected, repo)
		})
	}
}
