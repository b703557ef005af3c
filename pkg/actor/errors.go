package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInterface is returned when a facade is requested for a type that
	// is not an interface.
	ErrNotInterface = errors.New("actor: not an interface type")

	// ErrUnsupportedSignature is returned when an interface declares a method
	// a fire-and-forget facade cannot honor (results, error contract,
	// unexported name).
	ErrUnsupportedSignature = errors.New("actor: unsupported signature")

	// ErrSynthesisConflict is returned when the name derived for a facade is
	// already bound to a definition this package did not produce for the same
	// interface.
	ErrSynthesisConflict = errors.New("actor: synthesis conflict")

	// ErrNotGenerated is returned by Create when no generated constructor has
	// been registered for the interface. Run actorgen, or use New.
	ErrNotGenerated = errors.New("actor: no generated facade registered")

	ErrNilTarget = errors.New("actor: nil target")
	ErrNilQueue  = errors.New("actor: nil queue")

	// ErrUnknownMethod is returned by Proxy when the method name is not part
	// of the interface.
	ErrUnknownMethod = errors.New("actor: unknown method")

	// ErrArgument is returned by Proxy when arguments do not match the
	// method's parameter list.
	ErrArgument = errors.New("actor: bad argument")
)

// SignatureError describes one method that cannot be forwarded
// asynchronously.
type SignatureError struct {
	Interface string
	Method    string
	Reason    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("actor: %s.%s: %s", e.Interface, e.Method, e.Reason)
}

func (e *SignatureError) Unwrap() error { return ErrUnsupportedSignature }

// ConflictError reports a derived name that is already taken by an
// incompatible definition.
type ConflictError struct {
	// Name is the derived name both definitions map to.
	Name string
	// Existing describes the definition that is already published.
	Existing string
	// Requested describes the definition that could not be published.
	Requested string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("actor: %s: already defined as %s, cannot define as %s", e.Name, e.Existing, e.Requested)
}

func (e *ConflictError) Unwrap() error { return ErrSynthesisConflict }
