// Package workers runs jobs on a bounded set of goroutines.
package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
)

// Job is a named unit of work
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs submitted jobs on at most maxWorkers goroutines.
// A panicking job is recovered and recorded as an error.
type Pool struct {
	jobs       chan Job
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	errors     []error
	errorsMu   sync.Mutex
	logger     arbor.ILogger
}

// NewPool creates a pool bound to parent; cancelling parent stops the workers
func NewPool(parent context.Context, maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		jobs:       make(chan Job),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.Debug().Int("max_workers", p.maxWorkers).Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit blocks until a worker accepts job or the pool is cancelled
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool stopped before %s was scheduled: %w", job.Name, p.ctx.Err())
	}
}

// Wait closes the queue and waits for running jobs to finish
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()
}

// Errors returns the errors collected from failed jobs
func (p *Pool) Errors() []error {
	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	return append([]error(nil), p.errors...)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		err := common.SafeRun(p.logger, job.Name, func() error {
			return job.Run(p.ctx)
		})
		if err != nil {
			p.errorsMu.Lock()
			p.errors = append(p.errors, err)
			p.errorsMu.Unlock()

			p.logger.Error().
				Err(err).
				Int("worker_id", id).
				Str("job", job.Name).
				Msg("Job failed")
		}
	}
}
