// Package worker retries ledger persists that failed on the request path.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
)

// Job is a pending flush for one user's ledger.
type Job struct {
	UserID  string
	Attempt int
}

// Config tunes the pool.
type Config struct {
	Workers     int
	QueueSize   int
	Delay       time.Duration
	Timeout     time.Duration
	MaxAttempts int
}

// Pool manages background workers that flush dirty ledgers.
type Pool struct {
	flusher     ports.LedgerFlusher
	jobs        chan Job
	quit        chan struct{}
	workers     int
	delay       time.Duration
	timeout     time.Duration
	maxAttempts int

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool

	wg sync.WaitGroup
}

var _ ports.RetryQueue = (*Pool)(nil)

// NewPool creates a worker pool. Zero config values fall back to defaults.
func NewPool(flusher ports.LedgerFlusher, cfg Config) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	return &Pool{
		flusher:     flusher,
		jobs:        make(chan Job, cfg.QueueSize),
		quit:        make(chan struct{}),
		workers:     cfg.Workers,
		delay:       cfg.Delay,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		pending:     make(map[string]struct{}),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.quit:
					return
				case job := <-p.jobs:
					p.processJob(job)
				}
			}
		}()
	}
}

// Stop signals workers to exit and waits for them. Queued jobs are
// abandoned; their ledgers stay dirty in the store.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
}

// Submit queues a flush for userID without blocking. A user already queued
// is not queued twice.
func (p *Pool) Submit(userID string) {
	p.enqueue(Job{UserID: userID, Attempt: 1})
}

// Pending reports how many users are queued or in flight.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pool) enqueue(job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if _, ok := p.pending[job.UserID]; ok {
		return
	}

	select {
	case p.jobs <- job:
		p.pending[job.UserID] = struct{}{}
	default:
		logging.Warn().Str("user_id", job.UserID).Msg("retry queue full, dropping flush")
	}
}

// maxBackoff caps the wait before a retry.
const maxBackoff = 5 * time.Minute

// backoff doubles the base delay per prior attempt, capped at maxBackoff.
func (p *Pool) backoff(attempt int) time.Duration {
	if p.delay <= 0 {
		return 0
	}
	d := p.delay
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func (p *Pool) processJob(job Job) {
	if backoff := p.backoff(job.Attempt); backoff > 0 {
		timer := time.NewTimer(backoff)
		select {
		case <-p.quit:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	err := p.flusher.FlushUser(ctx, job.UserID)
	cancel()

	p.mu.Lock()
	delete(p.pending, job.UserID)
	p.mu.Unlock()

	if err == nil {
		logging.Debug().Str("user_id", job.UserID).Int("attempt", job.Attempt).Msg("ledger flushed")
		return
	}

	if job.Attempt >= p.maxAttempts {
		logging.Error().Err(err).Str("user_id", job.UserID).Int("attempt", job.Attempt).Msg("giving up on ledger flush")
		return
	}
	logging.Warn().Err(err).Str("user_id", job.UserID).Int("attempt", job.Attempt).Msg("ledger flush failed, requeueing")
	p.enqueue(Job{UserID: job.UserID, Attempt: job.Attempt + 1})
}
