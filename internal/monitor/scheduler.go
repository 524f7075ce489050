package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic sweep and the daily summary with cron.
type Scheduler struct {
	config  Config
	monitor *Monitor
	summary *SummaryJob
	cron    *cron.Cron
}

// NewScheduler creates a new scheduler. summary may be nil to run sweeps only.
func NewScheduler(config Config, monitor *Monitor, summary *SummaryJob) *Scheduler {
	return &Scheduler{
		config:  config,
		monitor: monitor,
		summary: summary,
		cron:    cron.New(),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	sweepSpec := fmt.Sprintf("@every %s", s.config.SweepInterval)
	if _, err := s.cron.AddFunc(sweepSpec, func() { s.runSweep(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	if s.summary != nil {
		spec, err := summarySpec(s.config.SummaryTime)
		if err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(spec, func() { s.summary.Run(ctx) }); err != nil {
			return fmt.Errorf("schedule daily summary: %w", err)
		}
	}

	s.cron.Start()
	slog.Info("monitor scheduler started",
		"sweep_interval", s.config.SweepInterval,
		"summary_time", s.config.SummaryTime,
	)
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("monitor scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if _, err := s.monitor.Sweep(ctx); err != nil {
		if errors.Is(err, ErrSweepRunning) {
			slog.Debug("sweep still running, tick skipped")
			return
		}
		slog.Error("sla sweep failed", "error", err)
	}
}

// summarySpec converts a wall-clock "HH:MM" into a cron spec.
func summarySpec(at string) (string, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid summary time %q, want HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid summary hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid summary minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
