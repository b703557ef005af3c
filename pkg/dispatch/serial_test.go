package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/funvibe/actorgen/pkg/actor"
	"github.com/funvibe/actorgen/pkg/dispatch"
)

type trace struct {
	mu  sync.Mutex
	got []int
}

func (tr *trace) add(v int) actor.Task {
	return actor.TaskFunc(func() {
		tr.mu.Lock()
		tr.got = append(tr.got, v)
		tr.mu.Unlock()
	})
}

func (tr *trace) values() []int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]int(nil), tr.got...)
}

func TestSerial_FIFO(t *testing.T) {
	q := dispatch.NewSerial()

	var tr trace
	want := make([]int, 1000)
	for i := range want {
		want[i] = i
		require.NoError(t, q.Submit(tr.add(i)))
	}
	require.NoError(t, q.Close(t.Context()))

	assert.Equal(t, want, tr.values())
}

func TestSerial_SubmitDoesNotWait(t *testing.T) {
	q := dispatch.NewSerial()
	defer q.Close(t.Context())

	release := make(chan struct{})
	require.NoError(t, q.Submit(actor.TaskFunc(func() { <-release })))

	var tr trace
	for i := range 3 {
		require.NoError(t, q.Submit(tr.add(i)))
	}
	assert.Empty(t, tr.values())
	assert.Eventually(t, func() bool { return q.Len() == 3 }, time.Second, time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool { return len(tr.values()) == 3 }, time.Second, time.Millisecond)
	assert.Zero(t, q.Len())
}

func TestSerial_ClosedRejects(t *testing.T) {
	q := dispatch.NewSerial()
	require.NoError(t, q.Close(t.Context()))

	err := q.Submit(actor.TaskFunc(func() {}))
	assert.ErrorIs(t, err, dispatch.ErrClosed)

	select {
	case <-q.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestSerial_CloseHonorsContext(t *testing.T) {
	q := dispatch.NewSerial()

	release := make(chan struct{})
	require.NoError(t, q.Submit(actor.TaskFunc(func() { <-release })))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, q.Close(t.Context()))
}

func TestSerial_PanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	reg := prometheus.NewRegistry()
	m, err := dispatch.NewMetrics(reg)
	require.NoError(t, err)

	q := dispatch.NewSerial(
		dispatch.WithLabel("jobs"),
		dispatch.WithLogger(zap.New(core)),
		dispatch.WithMetrics(m),
	)

	var tr trace
	require.NoError(t, q.Submit(actor.TaskFunc(func() { panic("boom") })))
	require.NoError(t, q.Submit(tr.add(1)))
	require.NoError(t, q.Close(t.Context()))

	assert.Equal(t, []int{1}, tr.values())

	entries := logs.FilterMessage("task panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "jobs", entries[0].ContextMap()["queue"])
	assert.Equal(t, "boom", entries[0].ContextMap()["panic"])

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submitted.WithLabelValues("jobs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executed.WithLabelValues("jobs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Panics.WithLabelValues("jobs")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Pending.WithLabelValues("jobs")))
}

func TestSerial_DefaultLabel(t *testing.T) {
	a := dispatch.NewSerial()
	b := dispatch.NewSerial()
	defer a.Close(t.Context())
	defer b.Close(t.Context())

	assert.Regexp(t, `^serial-[0-9a-f-]{36}$`, a.Label())
	assert.NotEqual(t, a.Label(), b.Label())
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := dispatch.NewMetrics(reg)
	require.NoError(t, err)

	_, err = dispatch.NewMetrics(reg)
	assert.Error(t, err)
}
