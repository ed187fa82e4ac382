// Package worker drains competition jobs from a queue with a fixed number
// of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/mq/queue"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/matteohorvath/ksis/pkg/metrics"
)

// Processor ingests one job. Failures are reported through the processor's
// own channels, never by stopping the worker.
type Processor func(ctx context.Context, j queue.Job)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs from a queue.
type Worker interface {
	// Run starts the worker loop until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	process Processor
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, process Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		process:  process,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.handle(ctx, j)
		}
	}
}

func (w *InMemoryWorker) handle(ctx context.Context, j queue.Job) { //nolint:gocritic // Job is passed by value for channel semantics
	start := time.Now()
	metrics.AddWorkersActive(1)
	defer func() {
		metrics.AddWorkersActive(-1)
		metrics.RecordJobDuration(time.Since(start))
	}()

	w.logger.Debug(ctx, "job started",
		logger.Int64("competition_id", int64(j.Record.ID)),
		logger.String("pass", j.Pass.String()))
	w.process(ctx, j)
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	count   int
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a worker pool. The default size is runtime.NumCPU().
func NewPool(q Queue, process Processor, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:  q,
		count:  runtime.NumCPU(),
		logger: logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.workers = make([]*InMemoryWorker, p.count)
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, process, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Debug(ctx, "starting workers", logger.Int("count", len(p.workers)))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has exited, which happens once the queue
// is closed and drained or the start context is canceled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown stops all workers after their job in flight.
func (p *Pool) Shutdown(ctx context.Context) error {
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return err
		}
	}
	return nil
}
