package dispatch_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/actorgen/pkg/actor"
	"github.com/funvibe/actorgen/pkg/dispatch"
)

func TestPool_RunsEverything(t *testing.T) {
	p, err := dispatch.NewPool(4)
	require.NoError(t, err)

	var n atomic.Int64
	for range 100 {
		for {
			err := p.Submit(actor.TaskFunc(func() { n.Add(1) }))
			if err == nil {
				break
			}
			require.ErrorIs(t, err, dispatch.ErrOverloaded)
			time.Sleep(time.Millisecond)
		}
	}
	require.NoError(t, p.Close(t.Context()))

	assert.EqualValues(t, 100, n.Load())
}

func TestPool_Overloaded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := dispatch.NewMetrics(reg)
	require.NoError(t, err)

	p, err := dispatch.NewPool(1, dispatch.WithLabel("busy"), dispatch.WithMetrics(m))
	require.NoError(t, err)

	release := make(chan struct{})
	require.NoError(t, p.Submit(actor.TaskFunc(func() { <-release })))
	assert.Eventually(t, func() bool { return p.Running() == 1 }, time.Second, time.Millisecond)

	err = p.Submit(actor.TaskFunc(func() {}))
	assert.ErrorIs(t, err, dispatch.ErrOverloaded)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues("busy")))

	close(release)
	require.NoError(t, p.Close(t.Context()))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Pending.WithLabelValues("busy")))
}

func TestPool_ClosedRejects(t *testing.T) {
	p, err := dispatch.NewPool(2)
	require.NoError(t, err)
	require.NoError(t, p.Close(t.Context()))

	assert.ErrorIs(t, p.Submit(actor.TaskFunc(func() {})), dispatch.ErrClosed)
}
