package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	env "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix         = "JOBCOUNT_"
	DefaultConfigPath = "config/jobcount.yaml"
)

const (
	FetcherStatic   = "static"
	FetcherFile     = "file"
	FetcherDatabase = "database"

	RepositoryLog    = "log"
	RepositorySQLite = "sqlite"
	RepositoryRedis  = "redis"
	RepositoryMemory = "memory"
)

type Config struct {
	LicenseLimit int64    `yaml:"license_limit" env:"LICENSE_LIMIT"`
	Environments []string `yaml:"environments" env:"ENVIRONMENTS" envSeparator:","`
	LogLevel     string   `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat    string   `yaml:"log_format" env:"LOG_FORMAT"`
	// Schedule is a cron expression with a seconds field. Empty means run once and exit.
	Schedule string `yaml:"schedule" env:"SCHEDULE"`

	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Fetcher    FetcherConfig    `yaml:"fetcher" envPrefix:"FETCHER_"`
	Repository RepositoryConfig `yaml:"repository" envPrefix:"REPOSITORY_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
	Redis      RedisConfig      `yaml:"redis" envPrefix:"REDIS_"`
	Slack      SlackConfig      `yaml:"slack" envPrefix:"SLACK_"`
	Jobs       types.JobConfig  `yaml:"jobs" envPrefix:"JOBS_"`
}

type ServerConfig struct {
	Port         string `yaml:"port" env:"PORT"`
	ReadTimeout  string `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout string `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type FetcherConfig struct {
	Type     string           `yaml:"type" env:"TYPE"`
	FilePath string           `yaml:"file_path" env:"FILE_PATH"`
	Stub     map[string]int64 `yaml:"stub"`
}

type RepositoryConfig struct {
	Type        string `yaml:"type" env:"TYPE"`
	RedisPrefix string `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	HistorySize int64  `yaml:"history_size" env:"HISTORY_SIZE"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" env:"WEBHOOK_URL"`
}

func DefaultConfig() *Config {
	return &Config{
		LicenseLimit: types.DefaultLicenseLimit,
		Environments: []string{string(types.EnvSPA), string(types.EnvUPCTM)},
		LogLevel:     "info",
		LogFormat:    "text",
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  "10s",
			WriteTimeout: "10s",
		},
		Fetcher: FetcherConfig{
			Type:     FetcherStatic,
			FilePath: "job_counts.txt",
		},
		Repository: RepositoryConfig{
			Type:        RepositoryLog,
			RedisPrefix: "jobcount",
			HistorySize: 100,
		},
		Database: DatabaseConfig{
			Path: "data/jobcount.db",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Jobs: types.JobConfig{
			MaxConcurrent: 1,
		},
	}
}

// Load starts from DefaultConfig, applies the YAML file at configPath when it
// exists, then overlays JOBCOUNT_* environment variables.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.LicenseLimit <= 0 {
		return fmt.Errorf("license_limit must be positive, got %d", c.LicenseLimit)
	}

	if len(c.Environments) != 2 {
		return fmt.Errorf("exactly two environments are required, got %d", len(c.Environments))
	}
	if c.Environments[0] == "" || c.Environments[1] == "" {
		return fmt.Errorf("environment names cannot be empty")
	}
	if c.Environments[0] == c.Environments[1] {
		return fmt.Errorf("environments must differ, got %q twice", c.Environments[0])
	}

	switch c.Fetcher.Type {
	case FetcherStatic, FetcherFile, FetcherDatabase:
	default:
		return fmt.Errorf("unknown fetcher type %q", c.Fetcher.Type)
	}

	switch c.Repository.Type {
	case RepositoryLog, RepositorySQLite, RepositoryRedis, RepositoryMemory:
	default:
		return fmt.Errorf("unknown repository type %q", c.Repository.Type)
	}

	if c.Jobs.MaxConcurrent < 1 {
		return fmt.Errorf("jobs.max_concurrent must be at least 1, got %d", c.Jobs.MaxConcurrent)
	}

	return nil
}

// EnvironmentPair returns the two configured environments in order.
func (c *Config) EnvironmentPair() (types.EnvironmentID, types.EnvironmentID) {
	return types.EnvironmentID(c.Environments[0]), types.EnvironmentID(c.Environments[1])
}

// Scheduled reports whether the process should keep running on a cron schedule.
func (c *Config) Scheduled() bool {
	return c.Schedule != ""
}

// UsesDatabase reports whether any component needs the SQLite database.
func (c *Config) UsesDatabase() bool {
	return c.Fetcher.Type == FetcherDatabase || c.Repository.Type == RepositorySQLite
}

// Path returns the config file to load: JOBCOUNT_CONFIG or the default.
func Path() string {
	return getEnv(EnvPrefix+"CONFIG", DefaultConfigPath)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
