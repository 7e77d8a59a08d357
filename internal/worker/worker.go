// Package worker runs best-effort background work (receipts, event
// publishing) off the request path with bounded concurrency.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID identifies this pool in logs.
	WorkerID string

	// MaxConcurrency is the number of jobs processed at once.
	MaxConcurrency int

	// QueueSize bounds the number of jobs waiting to run.
	QueueSize int

	// JobTimeout caps a single job run.
	JobTimeout time.Duration
}

// Job is a named unit of background work.
type Job struct {
	Type string
	Run  func(ctx context.Context) error
}

// Pool processes jobs from an in-memory queue.
type Pool struct {
	config Config
	logger *slog.Logger
	queue  chan Job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a worker pool. Call Start before enqueueing.
func NewPool(config Config, logger *slog.Logger) *Pool {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}

	return &Pool{
		config: config,
		logger: logger,
		queue:  make(chan Job, config.QueueSize),
	}
}

// Start launches the workers. They exit once Shutdown drains the queue.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("worker pool starting",
		"worker_id", p.config.WorkerID,
		"max_concurrency", p.config.MaxConcurrency,
		"queue_size", p.config.QueueSize,
	)

	for i := 0; i < p.config.MaxConcurrency; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.queue {
				p.process(ctx, job)
			}
		}()
	}
}

// Enqueue schedules job and reports whether it was accepted. A full queue or
// a closed pool drops the job.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.queue <- job:
		return true
	default:
		p.logger.Warn("worker queue full, dropping job", "job_type", job.Type)
		if telemetry.Business != nil {
			telemetry.Business.JobsFailed.WithLabelValues(job.Type).Inc()
		}
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx
// to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped", "worker_id", p.config.WorkerID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) process(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "job_type", job.Type, "panic", r)
			if telemetry.Business != nil {
				telemetry.Business.JobsFailed.WithLabelValues(job.Type).Inc()
			}
		}
	}()

	start := time.Now()
	if err := job.Run(jobCtx); err != nil {
		p.logger.Error("job failed", "job_type", job.Type, "error", err)
		telemetry.CaptureError(jobCtx, err, map[string]any{"job_type": job.Type})
		if telemetry.Business != nil {
			telemetry.Business.JobsFailed.WithLabelValues(job.Type).Inc()
		}
		return
	}

	p.logger.Debug("job completed", "job_type", job.Type, "duration", time.Since(start))
	if telemetry.Business != nil {
		telemetry.Business.JobsProcessed.WithLabelValues(job.Type).Inc()
	}
}
