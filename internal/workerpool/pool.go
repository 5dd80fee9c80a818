// Package workerpool runs a bounded number of tasks concurrently and
// collects their errors.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devrev/graphmesh/internal/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Task represents a unit of work to be executed
type Task struct {
	ID string
	Fn func(context.Context) error
}

// WorkerPool bounds concurrent task execution. Tasks are started with Go and
// collected with Wait; a pool may be reused after Wait returns.
type WorkerPool struct {
	name       string
	maxWorkers int
	slots      chan struct{}
	metrics    *metrics.Metrics
	logger     *zap.Logger

	wg  sync.WaitGroup
	mu  sync.Mutex
	err error

	activeWorkers  int32
	totalTasks     uint64
	completedTasks uint64
	failedTasks    uint64
}

// Config holds worker pool configuration. Metrics is optional.
type Config struct {
	Name       string
	MaxWorkers int
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(cfg Config) *WorkerPool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &WorkerPool{
		name:       cfg.Name,
		maxWorkers: cfg.MaxWorkers,
		slots:      make(chan struct{}, cfg.MaxWorkers),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Go runs task on a free worker, blocking until one is available or ctx is
// done. The task receives ctx.
func (p *WorkerPool) Go(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.slots <- struct{}{}:
	}

	atomic.AddUint64(&p.totalTasks, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.slots }()
		p.executeTask(ctx, task)
	}()
	return nil
}

// Wait blocks until every started task has returned and reports their
// combined errors. The error state is reset.
func (p *WorkerPool) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.err
	p.err = nil
	return err
}

func (p *WorkerPool) executeTask(ctx context.Context, task Task) {
	p.setActive(atomic.AddInt32(&p.activeWorkers, 1))
	defer func() { p.setActive(atomic.AddInt32(&p.activeWorkers, -1)) }()

	start := time.Now()
	err := p.safeExecute(ctx, task)
	duration := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordPoolTask(p.name, err)
	}

	if err != nil {
		atomic.AddUint64(&p.failedTasks, 1)
		p.logger.Error("Task failed",
			zap.String("pool", p.name),
			zap.String("task_id", task.ID),
			zap.Duration("duration", duration),
			zap.Error(err))

		p.mu.Lock()
		p.err = multierr.Append(p.err, fmt.Errorf("%s: %w", task.ID, err))
		p.mu.Unlock()
		return
	}

	atomic.AddUint64(&p.completedTasks, 1)
	p.logger.Debug("Task completed",
		zap.String("pool", p.name),
		zap.String("task_id", task.ID),
		zap.Duration("duration", duration))
}

func (p *WorkerPool) setActive(n int32) {
	if p.metrics != nil {
		p.metrics.PoolActiveWorkers.WithLabelValues(p.name).Set(float64(n))
	}
}

// safeExecute executes a task with panic recovery
func (p *WorkerPool) safeExecute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Fn(ctx)
}

// Stats returns current worker pool statistics
func (p *WorkerPool) Stats() Stats {
	return Stats{
		Name:           p.name,
		MaxWorkers:     p.maxWorkers,
		ActiveWorkers:  int(atomic.LoadInt32(&p.activeWorkers)),
		TotalTasks:     atomic.LoadUint64(&p.totalTasks),
		CompletedTasks: atomic.LoadUint64(&p.completedTasks),
		FailedTasks:    atomic.LoadUint64(&p.failedTasks),
	}
}

// Stats represents worker pool statistics
type Stats struct {
	Name           string
	MaxWorkers     int
	ActiveWorkers  int
	TotalTasks     uint64
	CompletedTasks uint64
	FailedTasks    uint64
}

// SuccessRate returns the task success rate as a percentage
func (s Stats) SuccessRate() float64 {
	if s.TotalTasks == 0 {
		return 100.0
	}
	return (float64(s.CompletedTasks) / float64(s.TotalTasks)) * 100.0
}
