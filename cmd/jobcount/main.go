package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/0xPuncker/jobcount-watcher/internal/api"
	"github.com/0xPuncker/jobcount-watcher/internal/config"
	"github.com/0xPuncker/jobcount-watcher/internal/cron"
	"github.com/0xPuncker/jobcount-watcher/internal/logging"
	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/0xPuncker/jobcount-watcher/pkg/utils"
	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

const bannerText = `
{{ .Title "Job Count Watcher" "" 0 }}
{{ .AnsiBackground.BrightBlue }}{{ .AnsiColor.White }}
{{ .AnsiReset }}
`

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
		}
	}

	banner.Init(colorable.NewColorableStdout(), true, true, strings.NewReader(bannerText))
	fmt.Println("🔹 Starting Job Tracking System...")

	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("❌ Failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	envA, envB := cfg.EnvironmentPair()

	if !cfg.Scheduled() {
		runOnce(os.Stdout, a, logger, envA, envB)
		return
	}

	if err := runScheduled(a, cfg, logger, envA, envB); err != nil {
		logger.Errorf("Scheduled mode failed: %v", err)
	}
}

// runOnce processes a single pair and reports the outcome to out. Failures
// are reported, not turned into a non-zero exit.
func runOnce(out io.Writer, a *app, logger logrus.FieldLogger, envA, envB types.EnvironmentID) {
	total, err := a.service.ProcessJobCount(context.Background(), envA, envB)
	if err != nil {
		logger.Errorf("❌ Error occurred: %v", err)
		fmt.Fprintf(out, "❌ Error occurred: %v\n", err)
		return
	}

	fmt.Fprintf(out, "✅ Job count processing completed. Total: %s (limit %s)\n",
		utils.FormatCount(total),
		utils.FormatCount(a.service.Limit()))
}

func runScheduled(a *app, cfg *config.Config, logger *logrus.Logger, envA, envB types.EnvironmentID) error {
	scheduler := cron.NewScheduler(logger, cfg.Jobs)

	var jobNotifier cron.JobNotifier
	if a.notifications != nil {
		jobNotifier = a.notifications
	}
	job := cron.NewProcessJobCountJob(a.service, envA, envB, logger, jobNotifier)
	scheduler.Handle(cron.ProcessJobCountTask, job.Run)

	jobs := append([]types.Job{{
		Name:        "jobcount",
		Schedule:    cfg.Schedule,
		TaskName:    cron.ProcessJobCountTask,
		Enabled:     true,
		Description: fmt.Sprintf("Sum %s and %s job counts and check the license limit", envA, envB),
	}}, cfg.Jobs.Predefined...)
	if err := scheduler.Schedule(jobs); err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	if err := job.Run(); err != nil {
		logger.Errorf("Initial job count run failed: %v", err)
	}

	handler := api.NewHandler(a.service, a.reader, scheduler, logger, envA, envB, a.service.Limit())
	server, err := api.NewServer(handler, cfg.Server)
	if err != nil {
		return err
	}

	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	logger.Infof("Server started on port %s - Press Ctrl+C to stop.", cfg.Server.Port)

	var runErr error
	select {
	case <-stop:
	case runErr = <-serverErr:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scheduler.Stop()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}

	logger.Info("Server stopped")
	return runErr
}
