// Package worker provides a fixed-size goroutine pool.
//
// A WorkerPool owns N workers and the sending half of an unbounded FIFO
// intake channel. Every worker shares the receiving half; a mutex held only
// for the duration of a single receive decides which idle worker gets the
// next job, so up to N jobs run concurrently.
//
// # Basic Usage
//
//	pool := worker.NewWorkerPool(4)
//	defer pool.Close()
//
//	for i := 0; i < 100; i++ {
//	    if err := pool.Submit(func() {
//	        // do work
//	    }); err != nil {
//	        return err
//	    }
//	}
//
// # Shutdown
//
// Close stops intake, lets workers drain every queued job, then waits for
// each worker in creation order. A job that never returns blocks Close
// forever; use Shutdown with a deadline to stop waiting without abandoning
// the work.
//
// # Failures
//
// A panicking job is recovered inside its worker, logged, and reported to
// the Observer and PanicHandler. A job that calls runtime.Goexit ends its
// goroutine; the worker resumes on a new one. Either way pool capacity
// never shrinks.
package worker
