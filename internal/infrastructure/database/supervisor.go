package database

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/infrastructure/scheduler"
	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

const healthJobName = "db-health-check"

// CacheClearer is the part of the query cache the supervisor drops on
// shutdown.
type CacheClearer interface {
	InvalidateAll(ctx context.Context) error
}

// JobScheduler runs the periodic health check.
type JobScheduler interface {
	Every(name string, interval, timeout time.Duration, task scheduler.Task) (uuid.UUID, error)
	Remove(id uuid.UUID) error
}

// Supervisor keeps the store connection alive. A background job probes the
// connection on a fixed interval and reconnects after a failed probe.
// Connect and disconnect transitions are reported to registered callbacks.
type Supervisor struct {
	conn        *Connection
	cache       CacheClearer
	interval    time.Duration
	pingTimeout time.Duration
	logger      logger.Interface

	mu           sync.Mutex
	healthy      bool
	stopped      bool
	jobs         JobScheduler
	jobID        uuid.UUID
	onConnect    []func()
	onDisconnect []func(err error)
}

func NewSupervisor(conn *Connection, cache CacheClearer, cfg config.SupervisorConfig, log logger.Interface) *Supervisor {
	return &Supervisor{
		conn:        conn,
		cache:       cache,
		interval:    cfg.HealthCheckInterval(),
		pingTimeout: cfg.PingTimeout(),
		logger:      log.With("component", "supervisor"),
	}
}

// OnConnect registers fn to run each time the store becomes reachable.
func (s *Supervisor) OnConnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = append(s.onConnect, fn)
}

// OnDisconnect registers fn to run each time the store is lost. err is nil
// for an orderly shutdown.
func (s *Supervisor) OnDisconnect(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = append(s.onDisconnect, fn)
}

// EnsureConnected opens the connection if there is none and replaces it if
// it no longer answers.
func (s *Supervisor) EnsureConnected(ctx context.Context) error {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return errors.NewConnectionError("supervisor is shut down", nil)
	}

	if _, err := s.conn.Get(); err != nil {
		if err := s.conn.Open(ctx); err != nil {
			s.markDown(err)
			return err
		}
		s.markUp()
		return nil
	}

	if err := s.ping(ctx); err == nil {
		s.markUp()
		return nil
	}

	err := s.conn.Reconnect(ctx)
	metrics.RecordReconnect(err == nil)
	if err != nil {
		s.markDown(err)
		return err
	}
	s.markUp()
	return nil
}

// HealthCheck probes the connection once.
func (s *Supervisor) HealthCheck(ctx context.Context) bool {
	if err := s.ping(ctx); err != nil {
		s.markDown(err)
		return false
	}
	s.markUp()
	return true
}

func (s *Supervisor) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	return s.conn.Ping(ctx)
}

// Start registers the periodic health check on jobs.
func (s *Supervisor) Start(ctx context.Context, jobs JobScheduler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return errors.NewConnectionError("supervisor is shut down", nil)
	}
	if s.jobs != nil {
		return nil
	}

	id, err := jobs.Every(healthJobName, s.interval, s.interval, s.check)
	if err != nil {
		return err
	}
	s.jobs = jobs
	s.jobID = id

	s.logger.Infow("connection supervisor started", "interval", s.interval)
	return nil
}

func (s *Supervisor) check(ctx context.Context) {
	if s.HealthCheck(ctx) {
		return
	}

	s.logger.Warnw("store health check failed, reconnecting")
	if err := s.EnsureConnected(ctx); err != nil {
		s.logger.Errorw("store reconnect failed", "error", err)
		return
	}
	s.logger.Infow("store connection restored")
}

// Shutdown stops the health job, closes the connection and empties the
// cache. The supervisor cannot be restarted afterwards.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	jobs, jobID := s.jobs, s.jobID
	s.jobs = nil
	s.mu.Unlock()

	var errs []error
	if jobs != nil {
		if err := jobs.Remove(jobID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	s.markDown(nil)
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Infow("connection supervisor stopped")
	return stderrors.Join(errs...)
}

func (s *Supervisor) markUp() {
	s.mu.Lock()
	wasHealthy := s.healthy
	s.healthy = true
	callbacks := append([]func(){}, s.onConnect...)
	s.mu.Unlock()

	metrics.SetDBUp(true)
	if wasHealthy {
		return
	}
	for _, fn := range callbacks {
		fn()
	}
}

func (s *Supervisor) markDown(err error) {
	s.mu.Lock()
	wasHealthy := s.healthy
	s.healthy = false
	callbacks := append([]func(error){}, s.onDisconnect...)
	s.mu.Unlock()

	metrics.SetDBUp(false)
	if !wasHealthy {
		return
	}
	if err != nil {
		s.logger.Warnw("store connection lost", "error", err)
	}
	for _, fn := range callbacks {
		fn(err)
	}
}

// Healthy reports the outcome of the most recent probe.
func (s *Supervisor) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}
