// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
)

var (
	ErrQueueFull = errors.New("worker queue full")
	ErrStopped   = errors.New("worker pool stopped")
)

type Task = func(ctx context.Context) error

type job struct {
	kind string
	id   string
	run  Task
}

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	wg      sync.WaitGroup
	jobs    chan job
	quit    chan struct{}
	n       int
	log     *zerolog.Logger
	stopped sync.Once
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		jobs: make(chan job, workers*4),
		quit: make(chan struct{}),
		n:    workers,
		log:  logging.Component(logger, "worker_pool"),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case j := <-p.jobs:
					metrics.SetQueueDepth(len(p.jobs))
					p.run(ctx, id, j)
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, worker int, j job) {
	jctx := logging.WithJobID(ctx, j.id)
	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncJob(j.kind, "panic")
			logging.With(jctx, p.log).Error().Interface("panic", rec).Int("worker", worker).Str("kind", j.kind).Msg("task panicked")
		}
	}()
	if err := j.run(jctx); err != nil {
		metrics.IncJob(j.kind, "error")
		logging.With(jctx, p.log).Warn().Err(err).Int("worker", worker).Str("kind", j.kind).Msg("task failed")
		return
	}
	metrics.IncJob(j.kind, "ok")
}

// Stop signals workers to exit and waits for in-flight tasks.
func (p *Pool) Stop() {
	p.stopped.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit enqueues without blocking; a saturated queue drops the task.
func (p *Pool) Submit(kind, id string, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.jobs <- job{kind: kind, id: id, run: task}:
		metrics.SetQueueDepth(len(p.jobs))
		return nil
	default:
		metrics.IncJob(kind, "dropped")
		return ErrQueueFull
	}
}
