package dispatch

import (
	"context"
	"sync"

	"github.com/funvibe/actorgen/pkg/actor"
)

// Serial is an unbounded FIFO queue served by a single goroutine.
type Serial struct {
	opts options

	mu      sync.Mutex
	pending []actor.Task
	closed  bool

	wake chan struct{}
	done chan struct{}
}

var _ actor.Queue = (*Serial)(nil)

// NewSerial starts a serial queue.
func NewSerial(opts ...Option) *Serial {
	s := &Serial{
		opts: newOptions("serial", opts),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Label returns the queue's label.
func (s *Serial) Label() string { return s.opts.label }

// Submit appends t to the queue.
func (s *Serial) Submit(t actor.Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.opts.metrics.rejected(s.opts.label)
		return ErrClosed
	}
	s.pending = append(s.pending, t)
	s.opts.metrics.submitted(s.opts.label)
	s.mu.Unlock()

	s.signal()
	return nil
}

// Len returns the number of tasks waiting to run.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops accepting tasks and waits until the pending ones have run or
// ctx is done.
func (s *Serial) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the queue is closed and drained.
func (s *Serial) Done() <-chan struct{} { return s.done }

func (s *Serial) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			<-s.wake
			continue
		}
		t := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.opts.metrics.dequeued(s.opts.label)
		s.opts.run(t)
	}
}
