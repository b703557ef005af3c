// Package dispatch provides reference implementations of actor.Queue.
//
// Serial runs tasks one at a time in submission order on a dedicated
// goroutine. Pool runs tasks concurrently on an ants worker pool. Keyed
// spreads keys over a fixed set of Serial lanes, giving FIFO order per key.
//
// Submit never waits for a task to run. A task that panics is recovered,
// logged and counted; the queue keeps going.
package dispatch

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funvibe/actorgen/pkg/actor"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("dispatch: queue closed")

	// ErrOverloaded is returned by Pool.Submit when every worker is busy.
	ErrOverloaded = errors.New("dispatch: queue overloaded")
)

// Option configures a queue.
type Option func(*options)

type options struct {
	label   string
	logger  *zap.Logger
	metrics *Metrics
}

// WithLabel names the queue in logs and metrics. Defaults to a random UUID.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records queue activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(kind string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.label == "" {
		o.label = kind + "-" + uuid.NewString()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.logger = o.logger.With(zap.String("queue", o.label))
	return o
}

// run executes t, recovering and reporting a panic.
func (o *options) run(t actor.Task) {
	defer func() {
		if v := recover(); v != nil {
			o.metrics.panicked(o.label)
			o.logger.Error("task panicked",
				zap.String("task", fmt.Sprintf("%v", t)),
				zap.Any("panic", v),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	t.Run()
	o.metrics.executed(o.label)
}
