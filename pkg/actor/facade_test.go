package actor_test

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/actorgen/pkg/actor"
)

// recorder is a queue that only records submissions; tests run them.
type recorder struct {
	mu    sync.Mutex
	tasks []actor.Task
	err   error
}

func (r *recorder) Submit(t actor.Task) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, t)
	return nil
}

func (r *recorder) drain() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()
	for _, t := range tasks {
		t.Run()
	}
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

type numbers interface {
	Ints(a int, b int8, c int64, d uint64)
	Floats(f float32, g float64)
	Mixed(name string, data []byte, opts map[string]int, next numbers)
	Sum(base int, rest ...int)
}

type numberSink struct {
	mu    sync.Mutex
	calls []string
	args  [][]any
}

func (s *numberSink) record(name string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	s.args = append(s.args, args)
}

func (s *numberSink) Ints(a int, b int8, c int64, d uint64) { s.record("Ints", a, b, c, d) }
func (s *numberSink) Floats(f float32, g float64)           { s.record("Floats", f, g) }
func (s *numberSink) Mixed(name string, data []byte, opts map[string]int, next numbers) {
	s.record("Mixed", name, data, opts, next)
}
func (s *numberSink) Sum(base int, rest ...int) { s.record("Sum", base, rest) }

func newNumbersProxy(t *testing.T, q actor.Queue) (*actor.Proxy, *numberSink) {
	t.Helper()
	sink := &numberSink{}
	p, err := actor.NewIn(actor.NewRegistry(), reflect.TypeFor[numbers](), sink, q)
	require.NoError(t, err)
	return p, sink
}

func TestProxy_InvokeDefersCall(t *testing.T) {
	q := &recorder{}
	p, sink := newNumbersProxy(t, q)

	require.NoError(t, p.Invoke("Ints", 1, int8(2), int64(3), uint64(4)))
	assert.Equal(t, 1, q.len(), "exactly one unit submitted")
	assert.Empty(t, sink.calls, "target must not run before the queue does")

	call, ok := q.tasks[0].(*actor.Call)
	require.True(t, ok, "submitted task is %T", q.tasks[0])
	assert.Equal(t, "Ints", call.Method())
	assert.Equal(t, int8(2), call.Arg(1))
	assert.Equal(t, uint64(4), call.Arg(3))

	q.drain()
	require.Equal(t, []string{"Ints"}, sink.calls)
	assert.Equal(t, []any{1, int8(2), int64(3), uint64(4)}, sink.args[0])
}

func TestProxy_BoundaryValues(t *testing.T) {
	q := &recorder{}
	p, sink := newNumbersProxy(t, q)

	cases := [][]any{
		{0, int8(0), int64(0), uint64(0)},
		{-1, int8(-1), int64(-1), uint64(1)},
		{math.MinInt, int8(math.MinInt8), int64(math.MinInt64), uint64(0)},
		{math.MaxInt, int8(math.MaxInt8), int64(math.MaxInt64), uint64(math.MaxUint64)},
	}
	for _, args := range cases {
		require.NoError(t, p.Invoke("Ints", args...))
	}
	require.NoError(t, p.Invoke("Floats", float32(-0.5), math.MaxFloat64))
	require.NoError(t, p.Invoke("Floats", float32(math.SmallestNonzeroFloat32), -math.MaxFloat64))

	q.drain()
	require.Len(t, sink.args, len(cases)+2)
	for i, args := range cases {
		assert.Equal(t, args, sink.args[i], "case %d", i)
	}
	assert.Equal(t, []any{float32(-0.5), math.MaxFloat64}, sink.args[4])
	assert.Equal(t, []any{float32(math.SmallestNonzeroFloat32), -math.MaxFloat64}, sink.args[5])
}

func TestProxy_ReferenceAndNilArguments(t *testing.T) {
	q := &recorder{}
	p, sink := newNumbersProxy(t, q)

	data := []byte("abc")
	opts := map[string]int{"x": 1}
	require.NoError(t, p.Invoke("Mixed", "name", data, opts, sink))
	require.NoError(t, p.Invoke("Mixed", "", nil, nil, nil))
	q.drain()

	require.Len(t, sink.args, 2)
	assert.Equal(t, "name", sink.args[0][0])
	assert.Equal(t, data, sink.args[0][1])
	assert.Equal(t, opts, sink.args[0][2])
	assert.Same(t, sink, sink.args[0][3])

	assert.Nil(t, sink.args[1][1])
	assert.Nil(t, sink.args[1][3])
}

func TestProxy_Variadic(t *testing.T) {
	q := &recorder{}
	p, sink := newNumbersProxy(t, q)

	require.NoError(t, p.Invoke("Sum", 1))
	require.NoError(t, p.Invoke("Sum", 1, 2, 3))
	require.NoError(t, p.Invoke("Sum", 1, []int{4, 5}))
	q.drain()

	require.Len(t, sink.args, 3)
	assert.Equal(t, []any{1, []int{}}, sink.args[0])
	assert.Equal(t, []any{1, []int{2, 3}}, sink.args[1])
	assert.Equal(t, []any{1, []int{4, 5}}, sink.args[2])
}

func TestProxy_ArgumentErrors(t *testing.T) {
	q := &recorder{}
	p, _ := newNumbersProxy(t, q)

	tests := []struct {
		name   string
		method string
		args   []any
		want   error
	}{
		{"unknown method", "Nope", nil, actor.ErrUnknownMethod},
		{"too few", "Ints", []any{1}, actor.ErrArgument},
		{"too many", "Floats", []any{float32(1), 2.0, 3.0}, actor.ErrArgument},
		{"wrong type", "Ints", []any{"1", int8(2), int64(3), uint64(4)}, actor.ErrArgument},
		{"nil for value type", "Ints", []any{nil, int8(2), int64(3), uint64(4)}, actor.ErrArgument},
		{"variadic missing fixed", "Sum", nil, actor.ErrArgument},
		{"variadic wrong elem", "Sum", []any{1, "x"}, actor.ErrArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Invoke(tt.method, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, q.len(), "rejected invocations submit nothing")
}

func TestProxy_Func(t *testing.T) {
	q := &recorder{}
	p, sink := newNumbersProxy(t, q)

	fn, err := p.Func("Sum")
	require.NoError(t, err)
	sum, ok := fn.(func(int, ...int))
	require.True(t, ok, "Func returns the method's own func type, got %T", fn)

	sum(10, 20, 30)
	assert.Empty(t, sink.calls)
	q.drain()
	assert.Equal(t, []any{10, []int{20, 30}}, sink.args[0])

	_, err = p.Func("Missing")
	assert.ErrorIs(t, err, actor.ErrUnknownMethod)
}

func TestProxy_QueueRejection(t *testing.T) {
	rejected := errors.New("queue shut down")
	q := &recorder{err: rejected}
	p, sink := newNumbersProxy(t, q)

	err := p.Invoke("Floats", float32(1), 2.0)
	assert.Same(t, rejected, err, "rejection is propagated unchanged")

	fn, err := p.Func("Floats")
	require.NoError(t, err)
	assert.PanicsWithValue(t, rejected, func() { fn.(func(float32, float64))(1, 2) })
	assert.Empty(t, sink.calls)
}

func TestSubmit_PanicsOnRejection(t *testing.T) {
	rejected := errors.New("full")
	assert.PanicsWithValue(t, rejected, func() {
		actor.Submit(&recorder{err: rejected}, actor.TaskFunc(func() {}))
	})

	ran := false
	q := &recorder{}
	actor.Submit(q, actor.TaskFunc(func() { ran = true }))
	q.drain()
	assert.True(t, ran)
}

type pingerA interface{ Ping(n int) }
type pingerB interface{ Ping(n int) }
type counterLike interface {
	Inc(n int)
	Dec(n int)
}

func TestUnitTypes_Distinct(t *testing.T) {
	r := actor.NewRegistry()

	fa, err := r.Lookup(reflect.TypeFor[pingerA]())
	require.NoError(t, err)
	fb, err := r.Lookup(reflect.TypeFor[pingerB]())
	require.NoError(t, err)

	ua, ok := fa.Unit("Ping")
	require.True(t, ok)
	ub, ok := fb.Unit("Ping")
	require.True(t, ok)
	assert.NotEqual(t, ua.Struct, ub.Struct, "interfaces never share a unit type")

	fc, err := r.Lookup(reflect.TypeFor[counterLike]())
	require.NoError(t, err)
	inc, _ := fc.Unit("Inc")
	dec, _ := fc.Unit("Dec")
	assert.NotEqual(t, inc.Struct, dec.Struct, "same parameters, different method")
	assert.Equal(t, 2, inc.Struct.NumField())
	assert.Equal(t, reflect.TypeFor[int](), inc.Struct.Field(1).Type)
}

type pingA struct{ got []int }

func (p *pingA) Ping(n int) { p.got = append(p.got, n) }

type pingB struct{ got []int }

func (p *pingB) Ping(n int) { p.got = append(p.got, n) }

func TestProxy_NeverCrossesInterfaces(t *testing.T) {
	q := &recorder{}
	r := actor.NewRegistry()
	a, b := &pingA{}, &pingB{}

	pa, err := actor.NewIn(r, reflect.TypeFor[pingerA](), a, q)
	require.NoError(t, err)
	pb, err := actor.NewIn(r, reflect.TypeFor[pingerB](), b, q)
	require.NoError(t, err)

	require.NoError(t, pa.Invoke("Ping", 1))
	require.NoError(t, pb.Invoke("Ping", 2))
	require.NoError(t, pa.Invoke("Ping", 3))
	q.drain()

	assert.Equal(t, []int{1, 3}, a.got)
	assert.Equal(t, []int{2}, b.got)
}

func TestNew_Validation(t *testing.T) {
	r := actor.NewRegistry()
	q := &recorder{}

	_, err := actor.NewIn(r, reflect.TypeFor[pingerA](), nil, q)
	assert.ErrorIs(t, err, actor.ErrNilTarget)

	_, err = actor.NewIn(r, reflect.TypeFor[pingerA](), &pingA{}, nil)
	assert.ErrorIs(t, err, actor.ErrNilQueue)

	_, err = actor.NewIn(r, reflect.TypeFor[pingerA](), &numberSink{}, q)
	assert.ErrorIs(t, err, actor.ErrArgument)

	_, err = actor.NewIn(r, reflect.TypeFor[reader](), &pingA{}, q)
	assert.ErrorIs(t, err, actor.ErrUnsupportedSignature)
}
