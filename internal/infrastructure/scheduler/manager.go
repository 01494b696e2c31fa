// Package scheduler runs the process's periodic jobs on gocron v2.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/goroutine"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

// Task is the body of a scheduled job. ctx is cancelled when the job's
// timeout elapses.
type Task func(ctx context.Context)

// SchedulerManager owns one gocron scheduler. Cron expressions are evaluated
// in the business timezone.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log.With("component", "scheduler"),
	}, nil
}

// Every registers task to run at a fixed interval. A run that is still going
// when the next one is due delays it instead of overlapping.
func (m *SchedulerManager) Every(name string, interval, timeout time.Duration, task Task) (uuid.UUID, error) {
	job, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		m.newTask(name, timeout, task),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(name),
		gocron.WithTags(name),
	)
	if err != nil {
		return uuid.Nil, err
	}

	m.logger.Infow("registered interval job", "job", name, "interval", interval)
	return job.ID(), nil
}

// Cron registers task on a five-field cron expression.
func (m *SchedulerManager) Cron(name, expr string, timeout time.Duration, task Task) (uuid.UUID, error) {
	job, err := m.scheduler.NewJob(
		gocron.CronJob(expr, false),
		m.newTask(name, timeout, task),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(name),
		gocron.WithTags(name),
	)
	if err != nil {
		return uuid.Nil, err
	}

	m.logger.Infow("registered cron job", "job", name, "cron", expr)
	return job.ID(), nil
}

func (m *SchedulerManager) newTask(name string, timeout time.Duration, task Task) gocron.Task {
	return gocron.NewTask(func() {
		defer goroutine.Recover(m.logger, name)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		task(ctx)
	})
}

// Remove unregisters a job. Removing an unknown job is not an error.
func (m *SchedulerManager) Remove(id uuid.UUID) error {
	if err := m.scheduler.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return err
	}
	return nil
}

// VouchResetter zeroes the periodic vouch counters.
type VouchResetter interface {
	ResetWeeklyVouches(ctx context.Context) (int64, error)
	ResetMonthlyVouches(ctx context.Context) (int64, error)
}

// RegisterVouchResetJobs schedules the weekly and monthly counter resets.
func (m *SchedulerManager) RegisterVouchResetJobs(resetter VouchResetter, weeklyCron, monthlyCron string) error {
	if _, err := m.Cron("vouch-reset-weekly", weeklyCron, time.Minute, func(ctx context.Context) {
		m.runReset(ctx, "weekly", resetter.ResetWeeklyVouches)
	}); err != nil {
		return err
	}
	if _, err := m.Cron("vouch-reset-monthly", monthlyCron, time.Minute, func(ctx context.Context) {
		m.runReset(ctx, "monthly", resetter.ResetMonthlyVouches)
	}); err != nil {
		return err
	}
	return nil
}

func (m *SchedulerManager) runReset(ctx context.Context, period string, reset func(context.Context) (int64, error)) {
	startTime := biztime.NowUTC()

	count, err := reset(ctx)
	if err != nil {
		m.logger.Errorw("vouch reset failed",
			"period", period,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	m.logger.Infow("vouch counters reset",
		"period", period,
		"helpers", count,
		"duration", time.Since(startTime),
	)
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to finish and stops the scheduler.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
