package cron

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/0xPuncker/jobcount-watcher/pkg/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc is the work behind a scheduled job.
type TaskFunc func() error

// JobInfo is a scheduled job together with its cron timing.
type JobInfo struct {
	types.Job
	NextRun time.Time `json:"next_run"`
	PrevRun time.Time `json:"prev_run"`
}

type entry struct {
	id  cron.EntryID
	job types.Job
}

// Scheduler runs registered tasks on cron schedules. At most MaxConcurrent
// jobs execute at once; a tick that finds no free slot is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger logrus.FieldLogger
	slots  chan struct{}

	mu      sync.RWMutex
	tasks   map[string]TaskFunc
	entries map[string]entry
	running bool
}

func NewScheduler(logger logrus.FieldLogger, cfg types.JobConfig) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{logger})),
		logger:  logger,
		slots:   make(chan struct{}, max(cfg.MaxConcurrent, 1)),
		tasks:   make(map[string]TaskFunc),
		entries: make(map[string]entry),
	}
}

// Handle binds a task name to the function that implements it.
func (s *Scheduler) Handle(task string, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task] = fn
}

// Schedule replaces the current job set. Disabled jobs are skipped; a job
// naming an unknown task or carrying a bad schedule fails the whole call.
func (s *Scheduler) Schedule(jobs []types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		s.cron.Remove(e.id)
		delete(s.entries, name)
	}

	for _, job := range jobs {
		if !job.Enabled {
			s.logger.WithField("job_name", job.Name).Info("Skipping disabled job")
			continue
		}

		fn, ok := s.tasks[job.TaskName]
		if !ok {
			return fmt.Errorf("job %s: task %s not registered", job.Name, job.TaskName)
		}

		id, err := s.cron.AddFunc(job.Schedule, s.run(job, fn))
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entry{id: id, job: job}

		s.logger.WithFields(logrus.Fields{
			"job_name": job.Name,
			"schedule": job.Schedule,
			"task":     job.TaskName,
		}).Info("Job scheduled")
	}

	return nil
}

func (s *Scheduler) run(job types.Job, fn TaskFunc) func() {
	return func() {
		log := s.logger.WithField("job_name", job.Name)

		select {
		case s.slots <- struct{}{}:
		default:
			log.Warn("Concurrency limit reached, skipping run")
			return
		}
		defer func() { <-s.slots }()

		log.WithField("active_jobs", len(s.slots)).Info("Job started")
		start := time.Now()

		if err := fn(); err != nil {
			log.WithFields(logrus.Fields{
				"error":    err.Error(),
				"duration": utils.FormatDuration(time.Since(start)),
			}).Error("Job execution failed")
			return
		}

		log.WithField("duration", utils.FormatDuration(time.Since(start))).Info("Job finished")
	}
}

// Job reports a scheduled job by name.
func (s *Scheduler) Job(name string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return JobInfo{}, false
	}
	return s.info(e), true
}

// Jobs lists scheduled jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		jobs = append(jobs, s.info(e))
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

func (s *Scheduler) info(e entry) JobInfo {
	ce := s.cron.Entry(e.id)
	return JobInfo{Job: e.job, NextRun: ce.Next, PrevRun: ce.Prev}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already started")
	}

	s.cron.Start()
	s.running = true
	s.logger.WithField("jobs", len(s.entries)).Info("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// cronLogger routes robfig/cron's internal logging into logrus. Its info
// chatter (wake, run, schedule) goes to debug.
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Debugf("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).WithError(err).Errorf("cron: %s", msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
