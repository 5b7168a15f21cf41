// Package scheduler runs a screening job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Job is the scheduled work; ctx is cancelled by Stop or by the parent given to Start
type Job func(ctx context.Context) error

// Status describes the last execution
type Status struct {
	Running   bool
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
}

// Service runs one job on a six-field (seconds first) cron expression.
// Runs never overlap; a tick that fires while the job is running is skipped.
type Service struct {
	cron   *cron.Cron
	logger arbor.ILogger

	mu        sync.Mutex // protects the fields below
	running   bool
	entryID   cron.EntryID
	job       Job
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	lastRun   *time.Time
	lastError string

	globalMu sync.Mutex // serialises executions
}

// NewService creates a scheduler
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Start schedules job on schedule and starts the cron loop. Jobs run under a
// context derived from parent.
func (s *Service) Start(parent context.Context, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	id, err := s.cron.AddFunc(schedule, s.execute)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(parent)
	s.entryID = id
	s.job = job
	s.running = true
	s.cron.Start()

	s.logger.Info().Str("schedule", schedule).Msg("Scheduler started")
	return nil
}

// Stop cancels a running job and waits for it to return
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// TriggerNow runs the job immediately on the caller's goroutine
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return fmt.Errorf("scheduler not running")
	}
	s.execute()
	return nil
}

// Status reports the last and next execution
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.isRunning, LastRun: s.lastRun, LastError: s.lastError}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}

func (s *Service) execute() {
	if !s.globalMu.TryLock() {
		s.logger.Warn().Msg("Previous run still in progress, skipping tick")
		return
	}
	defer s.globalMu.Unlock()

	s.mu.Lock()
	ctx, job := s.ctx, s.job
	s.isRunning = true
	s.mu.Unlock()

	start := time.Now()
	err := s.safeRun(ctx, job)

	finished := time.Now()
	s.mu.Lock()
	s.isRunning = false
	s.lastRun = &finished
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled run failed")
		return
	}
	s.logger.Info().Dur("duration", time.Since(start)).Msg("Scheduled run completed")
}

func (s *Service) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx)
}
