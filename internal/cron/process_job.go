package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPuncker/jobcount-watcher/internal/notifications"
	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/0xPuncker/jobcount-watcher/pkg/utils"
	"github.com/sirupsen/logrus"
)

const ProcessJobCountTask = "process-job-count"

// Processor is the part of the job count service the scheduled job needs.
type Processor interface {
	ProcessJobCount(ctx context.Context, envA, envB types.EnvironmentID) (int64, error)
}

// JobNotifier reports scheduled run outcomes, e.g. to Slack.
type JobNotifier interface {
	NotifyJobRun(ctx context.Context, run notifications.JobRun) error
}

type ProcessJobCountJob struct {
	processor Processor
	envA      types.EnvironmentID
	envB      types.EnvironmentID
	timeout   time.Duration
	logger    logrus.FieldLogger
	notifier  JobNotifier
}

func NewProcessJobCountJob(processor Processor, envA, envB types.EnvironmentID, logger logrus.FieldLogger, notifier JobNotifier) *ProcessJobCountJob {
	return &ProcessJobCountJob{
		processor: processor,
		envA:      envA,
		envB:      envB,
		timeout:   time.Minute,
		logger:    logger,
		notifier:  notifier,
	}
}

// Run processes one pair of counts. It matches the scheduler's task signature.
func (j *ProcessJobCountJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.notify(ctx, notifications.StatusStarted, 0, fmt.Sprintf("Checking %s and %s", j.envA, j.envB))

	start := time.Now()
	total, err := j.processor.ProcessJobCount(ctx, j.envA, j.envB)
	duration := time.Since(start)

	if err != nil {
		j.notify(ctx, notifications.StatusFailed, duration, err.Error())
		return fmt.Errorf("job count processing failed: %w", err)
	}

	j.logger.WithFields(logrus.Fields{
		"total":    total,
		"duration": utils.FormatDuration(duration),
	}).Info("Scheduled job count processing finished")
	j.notify(ctx, notifications.StatusSuccess, duration, fmt.Sprintf("Total jobs: %s", utils.FormatCount(total)))
	return nil
}

func (j *ProcessJobCountJob) notify(ctx context.Context, status notifications.JobStatus, duration time.Duration, details string) {
	if j.notifier == nil {
		return
	}
	run := notifications.JobRun{Job: ProcessJobCountTask, Status: status, Duration: duration, Details: details}
	if err := j.notifier.NotifyJobRun(ctx, run); err != nil {
		j.logger.WithError(err).Warn("Failed to send job notification")
	}
}
