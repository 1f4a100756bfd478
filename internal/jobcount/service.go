package jobcount

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/0xPuncker/jobcount-watcher/internal/fetcher"
	"github.com/0xPuncker/jobcount-watcher/internal/repository"
	"github.com/0xPuncker/jobcount-watcher/internal/validator"
	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier is told about license violations. Failures are logged and ignored.
type Notifier interface {
	NotifyLicenseExceeded(ctx context.Context, total, limit int64) error
}

type Service struct {
	fetcher    fetcher.Fetcher
	repository repository.Repository
	validator  validator.Validator
	logger     logrus.FieldLogger
	limit      int64
	notifier   Notifier
}

type Option func(*Service)

// WithNotifier registers a notifier for license violations.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(
	f fetcher.Fetcher,
	repo repository.Repository,
	v validator.Validator,
	logger logrus.FieldLogger,
	limit int64,
	opts ...Option,
) (*Service, error) {
	if f == nil || repo == nil || v == nil || logger == nil {
		return nil, errors.New("fetcher, repository, validator and logger are required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("license limit must be positive, got %d", limit)
	}

	s := &Service{
		fetcher:    f,
		repository: repo,
		validator:  v,
		logger:     logger,
		limit:      limit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Limit() int64 {
	return s.limit
}

// ProcessJobCount fetches both counts, checks them against the license limit
// and persists their sum. Nothing is persisted when any step before it fails.
func (s *Service) ProcessJobCount(ctx context.Context, envA, envB types.EnvironmentID) (int64, error) {
	log := s.logger.WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"env_a":  envA,
		"env_b":  envB,
	})
	log.Info("Processing job counts")

	a, err := s.fetch(ctx, log, envA)
	if err != nil {
		return 0, err
	}
	b, err := s.fetch(ctx, log, envB)
	if err != nil {
		return 0, err
	}

	for _, pair := range []struct {
		env   types.EnvironmentID
		count types.JobCount
	}{{envA, a}, {envB, b}} {
		if !pair.count.Present {
			err := fmt.Errorf("%w: no job count for %s", ErrMissingData, pair.env)
			log.WithField("env", pair.env).Error("Missing job count from one of the environments")
			return 0, err
		}
	}

	if err := s.validator.Validate(a, b); err != nil {
		log.WithError(err).Error("Job counts failed validation")
		return 0, err
	}

	total, within := s.sum(a.Count, b.Count)
	log = log.WithFields(logrus.Fields{
		"count_a": a.Count,
		"count_b": b.Count,
		"total":   total,
		"limit":   s.limit,
	})

	if !within {
		err := &LicenseExceededError{Total: total, Limit: s.limit}
		log.Error("Job count exceeds license limit")
		s.notify(ctx, log, total)
		return 0, err
	}

	log.Info("Job count within license limit")

	if err := s.repository.Save(ctx, total); err != nil {
		log.WithError(err).Error("Failed to persist job count")
		if !errors.Is(err, repository.ErrPersistence) {
			err = fmt.Errorf("%w: %w", repository.ErrPersistence, err)
		}
		return 0, err
	}

	return total, nil
}

// sum adds two validated, non-negative counts and reports whether the result
// stays within the limit. A sum past math.MaxInt64 saturates instead of wrapping.
func (s *Service) sum(a, b int64) (int64, bool) {
	if a > s.limit || b > s.limit || a > s.limit-b {
		if a > math.MaxInt64-b {
			return math.MaxInt64, false
		}
		return a + b, false
	}
	return a + b, true
}

func (s *Service) fetch(ctx context.Context, log logrus.FieldLogger, env types.EnvironmentID) (types.JobCount, error) {
	count, err := s.fetcher.Fetch(ctx, env)
	if err != nil {
		log.WithError(err).WithField("env", env).Error("Failed to fetch job count")
		return types.AbsentJobCount(), fmt.Errorf("failed to fetch job count for %s: %w", env, err)
	}
	log.WithFields(logrus.Fields{
		"env":   env,
		"count": count.String(),
	}).Debug("Fetched job count")
	return count, nil
}

func (s *Service) notify(ctx context.Context, log logrus.FieldLogger, total int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyLicenseExceeded(ctx, total, s.limit); err != nil {
		log.WithError(err).Warn("Failed to send license notification")
	}
}
