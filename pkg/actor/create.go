package actor

import (
	"fmt"
	"reflect"
)

// Register records the constructor of a generated facade for interface T.
// fingerprint is the method-set fingerprint the generator computed; it is
// checked against the run-time method set by Lookup and Create. Generated code
// calls Register from init; a registration made after the first lookup of
// T still takes effect.
func Register[T any](fingerprint string, construct func(target T, q Queue) T) {
	RegisterIn(DefaultRegistry, fingerprint, construct)
}

// RegisterIn is Register for a specific registry.
func RegisterIn[T any](r *Registry, fingerprint string, construct func(target T, q Queue) T) {
	r.register(reflect.TypeFor[T](), &registration{
		fingerprint: fingerprint,
		construct: func(target any, q Queue) any {
			return construct(target.(T), q)
		},
	})
}

// Lookup returns the facade type for interface T from DefaultRegistry,
// synthesizing it on first use.
func Lookup[T any]() (*FacadeType, error) {
	return DefaultRegistry.Lookup(reflect.TypeFor[T]())
}

// Create returns a facade implementing T that forwards every call on target
// to q. T must be an interface with a generated facade linked in.
func Create[T any](target T, q Queue) (T, error) {
	return CreateIn(DefaultRegistry, target, q)
}

// CreateIn is Create for a specific registry.
func CreateIn[T any](r *Registry, target T, q Queue) (T, error) {
	var zero T

	t := reflect.TypeFor[T]()
	ft, err := r.Lookup(t)
	if err != nil {
		return zero, err
	}
	if err := checkBinding(t, target, q); err != nil {
		return zero, err
	}
	reg, err := r.registration(ft.sig)
	if err != nil {
		return zero, err
	}
	if reg == nil {
		return zero, fmt.Errorf("%w: %s", ErrNotGenerated, ft.Name())
	}
	return reg.construct(target, q).(T), nil
}

// New returns a reflective facade for interface iface. It needs no generated
// code.
func New(iface reflect.Type, target any, q Queue) (*Proxy, error) {
	return NewIn(DefaultRegistry, iface, target, q)
}

// NewIn is New for a specific registry.
func NewIn(r *Registry, iface reflect.Type, target any, q Queue) (*Proxy, error) {
	ft, err := r.Lookup(iface)
	if err != nil {
		return nil, err
	}
	if err := checkBinding(iface, target, q); err != nil {
		return nil, err
	}

	tv := reflect.ValueOf(target)
	if !tv.Type().Implements(iface) {
		return nil, fmt.Errorf("%w: %s does not implement %s", ErrArgument, tv.Type(), ft.Name())
	}
	bound := reflect.New(iface).Elem()
	bound.Set(tv)
	return &Proxy{ft: ft, target: bound, queue: q}, nil
}

func checkBinding(iface reflect.Type, target any, q Queue) error {
	if q == nil {
		return ErrNilQueue
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrNilTarget, DerivedName(iface))
	}
	return nil
}
