package worker

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fluxorio/threadpool/pkg/core"
)

// Worker owns one goroutine that pulls jobs from the shared receiver and
// runs them one at a time.
type Worker struct {
	id   int
	done chan struct{}

	rx       *SharedReceiver
	logger   core.Logger
	observer Observer
	onPanic  PanicHandler
}

// newWorker starts the worker goroutine and returns immediately
func newWorker(id int, rx *SharedReceiver, opts options) *Worker {
	w := &Worker{
		id:       id,
		done:     make(chan struct{}),
		rx:       rx,
		logger:   opts.logger.WithFields(map[string]interface{}{"worker_id": id}),
		observer: opts.observer,
		onPanic:  opts.onPanic,
	}
	go w.run()
	return w
}

// ID returns the worker id, unique within its pool
func (w *Worker) ID() int {
	return w.id
}

// Done is closed when the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// run is the worker's execution loop.
func (w *Worker) run() {
	disconnected := false
	defer func() {
		if disconnected {
			close(w.done)
			return
		}
		// A job called runtime.Goexit and took this goroutine with it.
		// Keep the worker alive on a fresh one so capacity stays fixed.
		go w.run()
	}()

	for {
		// The receiver lock is released when Recv returns, so other
		// workers can dequeue while this one executes.
		job, ok := w.rx.Recv()
		if !ok {
			disconnected = true
			w.logger.Debug(fmt.Sprintf("worker %d disconnected; shutting down", w.id))
			return
		}

		w.logger.Info(fmt.Sprintf("worker %d got a job; executing", w.id))
		w.execute(job)
	}
}

// execute runs job inside a recover boundary so a panicking job cannot
// take the worker (or the process) down with it.
func (w *Worker) execute(job Job) {
	start := time.Now()
	w.observer.JobStarted(w.id)

	finished := false
	defer func() {
		if finished {
			w.observer.JobFinished(w.id, time.Since(start), false)
			return
		}

		// panic(nil) surfaces as *runtime.PanicNilError, so nil means Goexit
		r := recover()
		if r == nil {
			w.observer.JobFinished(w.id, time.Since(start), false)
			w.logger.Error(fmt.Sprintf("worker %d: job called runtime.Goexit", w.id))
			return
		}

		w.observer.JobFinished(w.id, time.Since(start), true)
		w.logger.WithFields(map[string]interface{}{
			"panic": fmt.Sprint(r),
			"stack": string(debug.Stack()),
		}).Error(fmt.Sprintf("worker %d recovered from job panic", w.id))
		if w.onPanic != nil {
			w.onPanic(w.id, r)
		}
	}()

	job()
	finished = true
}
