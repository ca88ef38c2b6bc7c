package worker

import (
	"time"

	"github.com/fluxorio/threadpool/pkg/core"
)

// Observer receives job lifecycle notifications. Implementations must be
// safe for concurrent use; every worker calls them from its own goroutine.
// JobSubmitted runs while the intake lock is held, so it must not block or
// submit; it is always counted before the matching JobStarted.
type Observer interface {
	JobSubmitted()
	JobStarted(workerID int)
	JobFinished(workerID int, elapsed time.Duration, panicked bool)
}

// PanicHandler is called after a job panicked and the panic was recovered
type PanicHandler func(workerID int, recovered interface{})

// Option configures a WorkerPool
type Option func(*options)

type options struct {
	logger   core.Logger
	observer Observer
	onPanic  PanicHandler
}

// WithLogger sets the pool logger (default: core.Default())
func WithLogger(l core.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver attaches a job lifecycle observer, e.g. prometheus.PoolMetrics
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithPanicHandler registers a callback for recovered job panics
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) {
		o.onPanic = h
	}
}

type noopObserver struct{}

func (noopObserver) JobSubmitted()                        {}
func (noopObserver) JobStarted(int)                       {}
func (noopObserver) JobFinished(int, time.Duration, bool) {}
