package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/0xPuncker/jobcount-watcher/internal/config"
	"github.com/0xPuncker/jobcount-watcher/internal/fetcher"
	"github.com/0xPuncker/jobcount-watcher/internal/jobcount"
	"github.com/0xPuncker/jobcount-watcher/internal/notifications"
	"github.com/0xPuncker/jobcount-watcher/internal/repository"
	"github.com/0xPuncker/jobcount-watcher/internal/storage/sqlite"
	"github.com/0xPuncker/jobcount-watcher/internal/validator"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// app holds the wired components and the backends that must be closed on exit.
type app struct {
	service       *jobcount.Service
	reader        repository.Reader
	notifications *notifications.Service
	db            *sql.DB
	redis         *redis.Client
}

func newApp(cfg *config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{}

	if cfg.UsesDatabase() {
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.db = db
		logger.Debugf("Opened database at %s", cfg.Database.Path)
	}

	if cfg.Repository.Type == config.RepositoryRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.redis = client
	}

	f, err := fetcher.New(cfg.Fetcher, a.db, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := repository.Deps{DB: a.db}
	if a.redis != nil {
		deps.Redis = a.redis
	}
	repo, err := repository.New(cfg.Repository, deps, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	// the status API needs to read the latest total back
	if reader, ok := repo.(repository.Reader); ok {
		a.reader = reader
	} else {
		memory := repository.NewMemoryRepository(logger)
		repo = repository.Chain{repo, memory}
		a.reader = memory
	}

	var opts []jobcount.Option
	if cfg.Slack.WebhookURL != "" {
		slack, err := notifications.NewSlackClient(cfg.Slack.WebhookURL, logger)
		if err != nil {
			logger.Warnf("Failed to initialize Slack client: %v", err)
		} else {
			envA, envB := cfg.EnvironmentPair()
			a.notifications = notifications.NewService(slack, envA, envB)
			opts = append(opts, jobcount.WithNotifier(a.notifications))
		}
	}

	service, err := jobcount.NewService(f, repo, validator.NewPresenceValidator(), logger, cfg.LicenseLimit, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
