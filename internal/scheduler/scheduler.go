// Package scheduler is the cron collaborator that triggers pipeline runs.
// It evaluates each user's ScheduleConfig in that user's timezone and
// invokes the entry point; the pipeline itself never parses cron syntax.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/postpilot/postpilot/internal/pipeline"
	"github.com/postpilot/postpilot/internal/store"
)

// runTimeout bounds one scheduled invocation end to end.
const runTimeout = 30 * time.Minute

// Scheduler manages per-user pipeline triggers.
type Scheduler struct {
	cron   *cron.Cron
	store  *store.Store
	runner *pipeline.Pipeline
	jobs   map[string]cron.EntryID // keyed by user id
	logger *slog.Logger
}

// New creates a scheduler.
func New(st *store.Store, runner *pipeline.Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		store:  st,
		runner: runner,
		jobs:   make(map[string]cron.EntryID),
		logger: logger,
	}
}

// LoadJobs registers a cron entry for every stored schedule config. Configs
// with invalid expressions or timezones are skipped and logged.
func (s *Scheduler) LoadJobs(ctx context.Context) error {
	configs, err := s.store.ListScheduleConfigs(ctx)
	if err != nil {
		return fmt.Errorf("load schedule configs: %w", err)
	}

	for _, cfg := range configs {
		if err := s.addJob(cfg); err != nil {
			s.logger.Warn("skipping schedule config", "user_id", cfg.UserID, "error", err)
		}
	}
	s.logger.Info("schedules loaded", "jobs", len(s.jobs))
	return nil
}

func (s *Scheduler) addJob(cfg store.ScheduleConfig) error {
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %s: %w", cfg.Timezone, err)
	}

	// Per-entry timezone via the CRON_TZ prefix, so one scheduler serves
	// users across timezones.
	spec := fmt.Sprintf("CRON_TZ=%s %s", cfg.Timezone, cfg.CronExpression)
	userID := cfg.UserID

	entryID, err := s.cron.AddFunc(spec, func() {
		s.runOnce(userID)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.CronExpression, err)
	}
	s.jobs[userID] = entryID
	return nil
}

func (s *Scheduler) runOnce(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	s.logger.Info("scheduled run starting", "user_id", userID)
	start := time.Now()

	if err := s.store.TouchScheduleLastRun(ctx, userID, start.UTC()); err != nil {
		s.logger.Warn("could not record schedule fire", "user_id", userID, "error", err)
	}

	result, err := s.runner.Run(ctx, userID)
	if err != nil {
		// Not retried here: the next scheduled trigger retries the same
		// window because failed runs never advance analysis state.
		s.logger.Error("scheduled run failed", "user_id", userID, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled run finished", "user_id", userID,
		"status", result.Status, "suggestions", len(result.Suggestions), "duration", time.Since(start))
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that completes when
// in-flight jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}
