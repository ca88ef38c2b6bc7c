package worker

import (
	"sync"

	"github.com/gammazero/deque"
)

// intake is the unbounded FIFO connecting submitters to workers.
// It is split into a Sender owned by the pool and a Receiver shared by
// every worker through a SharedReceiver.
type intake struct {
	mu     sync.Mutex
	ready  *sync.Cond
	queue  deque.Deque[Job]
	closed bool
}

// Sender is the sending half of the intake channel. Safe for concurrent use.
type Sender struct {
	ch *intake
	// onSend runs under the intake lock, before the job becomes visible
	// to any receiver
	onSend func()
}

// Receiver is the receiving half of the intake channel.
type Receiver struct {
	ch *intake
}

// newIntake creates an intake channel and returns both halves
func newIntake() (*Sender, *Receiver) {
	ch := &intake{}
	ch.ready = sync.NewCond(&ch.mu)
	return &Sender{ch: ch}, &Receiver{ch: ch}
}

// Send enqueues job. It never blocks on queue capacity.
// It returns ErrPoolClosed once Close has been called.
func (s *Sender) Send(job Job) error {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if s.ch.closed {
		return ErrPoolClosed
	}
	if s.onSend != nil {
		s.onSend()
	}
	s.ch.queue.PushBack(job)
	s.ch.ready.Signal()
	return nil
}

// Close marks the channel closed. Items already queued are still delivered.
// Calling Close more than once is a no-op.
func (s *Sender) Close() {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if s.ch.closed {
		return
	}
	s.ch.closed = true
	s.ch.ready.Broadcast()
}

// Len returns the number of queued, not yet received jobs
func (s *Sender) Len() int {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return s.ch.queue.Len()
}

// Recv blocks until a job is available or the channel is closed and empty.
// ok is false only in the latter case.
func (r *Receiver) Recv() (job Job, ok bool) {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	for r.ch.queue.Len() == 0 && !r.ch.closed {
		r.ch.ready.Wait()
	}
	if r.ch.queue.Len() == 0 {
		return nil, false
	}
	return r.ch.queue.PopFront(), true
}

// SharedReceiver hands one Receiver to many workers.
// The lock covers a single Recv call and is released before the job runs.
type SharedReceiver struct {
	mu sync.Mutex
	rx *Receiver
}

// newSharedReceiver wraps rx for shared use
func newSharedReceiver(rx *Receiver) *SharedReceiver {
	return &SharedReceiver{rx: rx}
}

// Recv acquires exclusive access, receives one job, and releases access
func (s *SharedReceiver) Recv() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx.Recv()
}
