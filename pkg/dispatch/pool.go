package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/funvibe/actorgen/pkg/actor"
)

// Pool runs tasks concurrently on a fixed number of workers. It makes no
// ordering promise. Submit fails with ErrOverloaded instead of waiting when
// every worker is busy.
type Pool struct {
	opts options
	pool *ants.Pool

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ actor.Queue = (*Pool)(nil)

// NewPool starts a pool with size workers.
func NewPool(size int, opts ...Option) (*Pool, error) {
	p := &Pool{opts: newOptions("pool", opts)}

	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Label returns the queue's label.
func (p *Pool) Label() string { return p.opts.label }

// Submit hands t to an idle worker.
func (p *Pool) Submit(t actor.Task) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.opts.metrics.rejected(p.opts.label)
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	p.opts.metrics.submitted(p.opts.label)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		p.opts.metrics.dequeued(p.opts.label)
		p.opts.run(t)
	})
	if err == nil {
		return nil
	}

	p.wg.Done()
	p.opts.metrics.dequeued(p.opts.label)
	p.opts.metrics.rejected(p.opts.label)
	switch {
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrOverloaded
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrClosed
	default:
		return err
	}
}

// Running returns the number of busy workers.
func (p *Pool) Running() int { return p.pool.Running() }

// Close stops accepting tasks, waits for running ones or ctx, then releases
// the workers.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.pool.Release()
		return nil
	case <-ctx.Done():
		p.pool.Release()
		return ctx.Err()
	}
}
