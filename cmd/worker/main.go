// Package main is the career hub worker.
//
// The worker owns the background side of the program: the daily deadline
// reminder job, the command handlers for progressions, leads and LIA
// placements, the event handlers that turn LIA decisions and milestone
// completions into Slack messages, and a small HTTP surface for health
// checks, metrics and the manual reminder trigger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/application/query"
	"github.com/chas-career/career-hub/internal/infrastructure/external/slack"
	"github.com/chas-career/career-hub/internal/infrastructure/scheduler"
	"github.com/chas-career/career-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/chas-career/career-hub/internal/interface/http"
	"github.com/chas-career/career-hub/internal/interface/http/handlers"
	"github.com/chas-career/career-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIG & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting career hub worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Location.String()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE (Postgres or in-memory, optional Redis cache)
	// ─────────────────────────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. NOTIFICATION SINK
	// ─────────────────────────────────────────────────────────────────────────
	slackCfg := slack.DefaultClientConfig(cfg.Slack.WebhookURL)
	if cfg.Slack.Timeout > 0 {
		slackCfg.Timeout = cfg.Slack.Timeout
	}
	slackCfg.Logger = log
	sink := slack.NewClient(slackCfg)
	if !sink.Enabled() {
		log.Warn("SLACK_WEBHOOK_URL not set, notifications will not be delivered")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS, HANDLERS & COMMANDS
	// ─────────────────────────────────────────────────────────────────────────
	wired, err := buildApp(cfg, st, sink, log, true)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus...")
		_ = wired.Close()
	}()
	log.Info("command handlers ready", logger.Bool("redis_mirror", st.redisClient != nil))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	reminderJob := jobs.NewDeadlineReminderJob(
		query.NewDueRemindersHandler(st.schedules, st.directory),
		sink, cfg.Features, log, nil,
	)

	sched := scheduler.New(scheduler.Config{Logger: log, JobTimeout: cfg.Reminders.JobTimeout})
	if cfg.Reminders.Enabled {
		daily, err := scheduler.NewDailySchedule(cfg.Reminders.RunHour, cfg.Reminders.RunMinute, cfg.App.Location)
		if err != nil {
			return fmt.Errorf("invalid reminder schedule: %w", err)
		}
		if err := sched.Register(reminderJob, daily); err != nil {
			return fmt.Errorf("failed to register reminder job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	} else {
		log.Warn("deadline reminders disabled, only the manual trigger is available")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	for name, p := range st.pingers {
		health.AddCheck(name, handlers.PingCheck(p))
	}

	server := httpserver.NewServer(cfg.HTTP, httpserver.Dependencies{
		Logger:    log,
		Health:    health,
		Reminders: reminderJob,
	})
	serverErr := server.StartAsync()

	log.Info("career hub worker is running", logger.Int("http_port", cfg.HTTP.Port))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err, ok := <-serverErr:
		if ok && err != nil {
			log.Error("http server failed", logger.Err(err))
			runErr = err
		}
	}

	timeout := cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("http shutdown error", logger.Err(err))
	}

	log.Info("shutdown completed")
	return runErr
}

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.Observability.LogFormat == string(logger.FormatConsole) || (cfg.IsDevelopment() && cfg.Observability.LogFormat == "") {
		opts.Format = logger.FormatConsole
	}
	return logger.New(opts).With(logger.String("service", cfg.App.Name))
}
