package worker

import (
	"context"
	"fmt"

	"github.com/fluxorio/threadpool/pkg/core"
)

// Job represents a task to be executed by a worker.
// It is invoked exactly once, by exactly one worker.
type Job func()

// WorkerPool is a fixed-size pool of goroutines fed by an unbounded FIFO.
type WorkerPool struct {
	workers []*Worker
	sender  *Sender
	logger  core.Logger
}

// New creates a WorkerPool with size workers (ids 0..size-1).
// It returns an error, and starts nothing, when size is not positive.
func New(size int, opts ...Option) (*WorkerPool, error) {
	if err := core.ValidatePoolSize(size); err != nil {
		return nil, &core.Error{Code: core.ErrorCode(err), Message: err.Error(), Err: ErrInvalidSize}
	}

	o := options{
		logger:   core.Default(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	sender, receiver := newIntake()
	sender.onSend = o.observer.JobSubmitted
	shared := newSharedReceiver(receiver)

	workers := make([]*Worker, 0, size)
	for id := 0; id < size; id++ {
		workers = append(workers, newWorker(id, shared, o))
	}

	o.logger.Info(fmt.Sprintf("worker pool started with %d workers", size))

	return &WorkerPool{
		workers: workers,
		sender:  sender,
		logger:  o.logger,
	}, nil
}

// NewWorkerPool is like New but treats an invalid size as a fatal
// programming error and panics.
func NewWorkerPool(size int, opts ...Option) *WorkerPool {
	p, err := New(size, opts...)
	core.FailFast(err)
	return p
}

// Submit enqueues job for execution by the next free worker.
// It never blocks on queue capacity. Jobs submitted from one goroutine are
// dequeued in submission order.
// It returns ErrPoolClosed once shutdown has begun.
func (p *WorkerPool) Submit(job Job) error {
	if job == nil {
		return &core.Error{Code: "INVALID_JOB", Message: ErrNilJob.Error(), Err: ErrNilJob}
	}
	if err := p.sender.Send(job); err != nil {
		return &core.Error{Code: "POOL_CLOSED", Message: "cannot submit job: " + err.Error(), Err: err}
	}
	return nil
}

// Execute is the fatal variant of Submit: submitting to a closed pool, or
// submitting a nil job, panics.
func (p *WorkerPool) Execute(job Job) {
	core.FailFast(p.Submit(job))
}

// Close stops accepting jobs, lets the workers drain everything already
// queued, and waits for every worker goroutine to exit, in creation order.
// It blocks for as long as any running job does. Calling it again is safe.
func (p *WorkerPool) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown is Close with a bound on how long the caller waits. When ctx ends
// first it returns ctx.Err(); workers keep draining in the background and a
// later Close or Shutdown can wait for them again.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	core.FailFastIf(ctx == nil, "shutdown context cannot be nil")
	p.sender.Close()

	for _, w := range p.workers {
		select {
		case <-w.Done():
			p.logger.Debug(fmt.Sprintf("shutting down worker %d", w.ID()))
		case <-ctx.Done():
			p.logger.Error(fmt.Sprintf("shutdown interrupted while waiting for worker %d: %v", w.ID(), ctx.Err()))
			return ctx.Err()
		}
	}
	return nil
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// Workers returns the pool's workers in creation order
func (p *WorkerPool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Pending returns the number of queued jobs no worker has claimed yet
func (p *WorkerPool) Pending() int {
	return p.sender.Len()
}
