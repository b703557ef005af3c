package actor_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/funvibe/actorgen/pkg/actor"
)

type logger interface {
	Logf(format string, args ...any)
	Flush()
}

type reader interface {
	Read(p []byte) (int, error)
	Close() error
	Reset()
}

type withHidden interface {
	Visible()
	hidden()
}

func TestExtract_Order(t *testing.T) {
	sig, err := actor.Extract(reflect.TypeFor[logger]())
	require.NoError(t, err)

	require.Len(t, sig.Methods, 2)
	assert.Equal(t, "Flush", sig.Methods[0].Name)
	assert.Equal(t, "Logf", sig.Methods[1].Name)
	assert.Equal(t, "github.com/funvibe/actorgen/pkg/actor_test.logger", sig.Name)

	logf := sig.Methods[1]
	assert.True(t, logf.Variadic)
	require.Len(t, logf.In, 2)
	assert.Equal(t, reflect.TypeFor[string](), logf.In[0])
	assert.Equal(t, reflect.TypeFor[[]any](), logf.In[1])
}

func TestExtract_RejectsResults(t *testing.T) {
	_, err := actor.Extract(reflect.TypeFor[reader]())
	require.Error(t, err)
	assert.True(t, errors.Is(err, actor.ErrUnsupportedSignature))

	errs := multierr.Errors(err)
	require.Len(t, errs, 2, "every offending method is reported")

	var sigErr *actor.SignatureError
	require.True(t, errors.As(errs[0], &sigErr))
	assert.Equal(t, "Close", sigErr.Method)
	assert.Equal(t, "declares an error result", sigErr.Reason)

	require.True(t, errors.As(errs[1], &sigErr))
	assert.Equal(t, "Read", sigErr.Method)
	assert.Equal(t, "declares an error result", sigErr.Reason)
}

func TestExtract_RejectsUnexported(t *testing.T) {
	_, err := actor.Extract(reflect.TypeFor[withHidden]())
	require.Error(t, err)

	var sigErr *actor.SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, "hidden", sigErr.Method)
}

func TestExtract_NotInterface(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[struct{ A int }](),
		reflect.TypeFor[*logger](),
		nil,
	} {
		_, err := actor.Extract(typ)
		assert.ErrorIs(t, err, actor.ErrNotInterface, "type %v", typ)
	}
}

func TestExtract_EmptyInterface(t *testing.T) {
	sig, err := actor.Extract(reflect.TypeFor[any]())
	require.NoError(t, err)
	assert.Empty(t, sig.Methods)
	assert.Equal(t, "interface {}", sig.Name)
}

func TestFingerprint_Shape(t *testing.T) {
	sig, err := actor.Extract(reflect.TypeFor[logger]())
	require.NoError(t, err)

	want := actor.Fingerprint([]string{
		actor.Shape("Flush", 0, false),
		actor.Shape("Logf", 2, true),
	})
	assert.Equal(t, want, sig.Fingerprint())
	assert.Equal(t, "Logf(2...)", sig.Methods[1].Shape())
	assert.Len(t, want, 16)
}

func TestSignatureError_Message(t *testing.T) {
	err := &actor.SignatureError{Interface: "pkg.Store", Method: "Get", Reason: "returns 1 value(s)"}
	assert.Equal(t, "actor: pkg.Store.Get: returns 1 value(s)", err.Error())
	assert.ErrorIs(t, err, actor.ErrUnsupportedSignature)

	conflict := &actor.ConflictError{Name: "pkg.Store", Existing: "a", Requested: "b"}
	assert.ErrorIs(t, conflict, actor.ErrSynthesisConflict)
	assert.Contains(t, conflict.Error(), "pkg.Store")
}
