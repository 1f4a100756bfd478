package cron

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const everySecond = "*/1 * * * * *"

func newScheduler(t *testing.T, maxConcurrent int) (*Scheduler, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewScheduler(logger, types.JobConfig{MaxConcurrent: maxConcurrent}), hook
}

func hasEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

func TestSchedulerRunsJobs(t *testing.T) {
	scheduler, _ := newScheduler(t, 10)
	var runs atomic.Int32

	scheduler.Handle("count", func() error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, scheduler.Schedule([]types.Job{
		{Name: "jobcount", Schedule: everySecond, TaskName: "count", Enabled: true, Description: "sum counts"},
	}))
	require.NoError(t, scheduler.Start())

	time.Sleep(2500 * time.Millisecond)
	scheduler.Stop()

	assert.Greater(t, runs.Load(), int32(0))

	jobs := scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "jobcount", jobs[0].Name)
	assert.Equal(t, everySecond, jobs[0].Schedule)
	assert.False(t, jobs[0].PrevRun.IsZero())

	info, ok := scheduler.Job("jobcount")
	assert.True(t, ok)
	assert.Equal(t, "sum counts", info.Description)

	_, ok = scheduler.Job("missing")
	assert.False(t, ok)
}

func TestScheduleErrors(t *testing.T) {
	scheduler, _ := newScheduler(t, 1)

	err := scheduler.Schedule([]types.Job{
		{Name: "orphan", Schedule: everySecond, TaskName: "unknown", Enabled: true},
	})
	assert.ErrorContains(t, err, "not registered")

	scheduler.Handle("task", func() error { return nil })
	err = scheduler.Schedule([]types.Job{
		{Name: "bad", Schedule: "not a schedule", TaskName: "task", Enabled: true},
	})
	assert.ErrorContains(t, err, "failed to schedule job bad")

	require.NoError(t, scheduler.Start())
	assert.Error(t, scheduler.Start())
	scheduler.Stop()
}

func TestScheduleReplacesJobs(t *testing.T) {
	scheduler, _ := newScheduler(t, 1)
	scheduler.Handle("task", func() error { return nil })

	require.NoError(t, scheduler.Schedule([]types.Job{
		{Name: "a", Schedule: everySecond, TaskName: "task", Enabled: true},
		{Name: "b", Schedule: everySecond, TaskName: "task", Enabled: true},
	}))
	require.Len(t, scheduler.Jobs(), 2)

	require.NoError(t, scheduler.Schedule([]types.Job{
		{Name: "c", Schedule: everySecond, TaskName: "task", Enabled: true},
	}))
	jobs := scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "c", jobs[0].Name)
}

func TestConcurrencyLimitSkipsOverlappingRuns(t *testing.T) {
	scheduler, hook := newScheduler(t, 1)
	var runs atomic.Int32
	release := make(chan struct{})

	scheduler.Handle("slow", func() error {
		runs.Add(1)
		<-release
		return nil
	})
	require.NoError(t, scheduler.Schedule([]types.Job{
		{Name: "slow-job", Schedule: everySecond, TaskName: "slow", Enabled: true},
	}))
	require.NoError(t, scheduler.Start())

	time.Sleep(3500 * time.Millisecond)
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()
	scheduler.Stop()

	assert.Equal(t, int32(1), runs.Load())
	assert.True(t, hasEntry(hook, logrus.WarnLevel, "Concurrency limit reached, skipping run"))
}

func TestJobErrorIsLogged(t *testing.T) {
	scheduler, hook := newScheduler(t, 1)
	var runs atomic.Int32

	scheduler.Handle("fail", func() error {
		runs.Add(1)
		return errors.New("fetch failed")
	})
	require.NoError(t, scheduler.Schedule([]types.Job{
		{Name: "error-job", Schedule: everySecond, TaskName: "fail", Enabled: true},
	}))
	require.NoError(t, scheduler.Start())

	time.Sleep(2500 * time.Millisecond)
	scheduler.Stop()

	assert.Greater(t, runs.Load(), int32(0))

	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "Job execution failed" {
			found = true
			assert.Equal(t, "fetch failed", e.Data["error"])
			assert.Equal(t, "error-job", e.Data["job_name"])
		}
	}
	assert.True(t, found)
}

func TestDisabledJobsAreSkipped(t *testing.T) {
	scheduler, hook := newScheduler(t, 1)
	var runs atomic.Int32

	scheduler.Handle("task", func() error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, scheduler.Schedule([]types.Job{
		{Name: "off", Schedule: everySecond, TaskName: "task", Enabled: false},
	}))
	require.NoError(t, scheduler.Start())

	time.Sleep(1500 * time.Millisecond)
	scheduler.Stop()

	assert.Equal(t, int32(0), runs.Load())
	assert.Empty(t, scheduler.Jobs())
	assert.True(t, hasEntry(hook, logrus.InfoLevel, "Skipping disabled job"))
}

func TestSchedulerState(t *testing.T) {
	scheduler, _ := newScheduler(t, 0)

	assert.False(t, scheduler.Running())
	require.NoError(t, scheduler.Start())
	assert.True(t, scheduler.Running())

	scheduler.Stop()
	assert.False(t, scheduler.Running())

	scheduler.Stop()
}

func TestCronLoggerRoutesToLogrus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	l := cronLogger{logger}

	l.Info("wake", "now", "2026-01-01")
	l.Error(errors.New("boom"), "panic", "job", "x")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, "cron: wake", entries[0].Message)
	assert.Equal(t, "2026-01-01", entries[0].Data["now"])
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
	assert.Equal(t, "x", entries[1].Data["job"])
}
