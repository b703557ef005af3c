package actor

import (
	"fmt"
	"reflect"
)

// FacadeType is the synthesized facade for one interface: its validated
// method set and one UnitType per method. Generated constructors are looked
// up in the owning registry.
type FacadeType struct {
	registry *Registry
	sig      *Signature
	units    []*UnitType
	byName   map[string]int
}

func newFacadeType(r *Registry, sig *Signature) *FacadeType {
	ft := &FacadeType{
		registry: r,
		sig:      sig,
		units:    make([]*UnitType, len(sig.Methods)),
		byName:   make(map[string]int, len(sig.Methods)),
	}
	for i, m := range sig.Methods {
		ft.units[i] = newUnitType(sig, m)
		ft.byName[m.Name] = i
	}
	return ft
}

// Name is the derived name the facade is published under.
func (ft *FacadeType) Name() string { return ft.sig.Name }

// Interface is the interface type the facade implements.
func (ft *FacadeType) Interface() reflect.Type { return ft.sig.Type }

// Signature returns the validated method set.
func (ft *FacadeType) Signature() *Signature { return ft.sig }

// Unit returns the deferred-call type for the named method.
func (ft *FacadeType) Unit(method string) (*UnitType, bool) {
	i, ok := ft.byName[method]
	if !ok {
		return nil, false
	}
	return ft.units[i], true
}

// Generated reports whether a generated constructor matching the method
// set is registered.
func (ft *FacadeType) Generated() bool {
	reg, err := ft.registry.registration(ft.sig)
	return err == nil && reg != nil
}

// Proxy is a reflective facade instance: the runtime counterpart of a
// generated facade, usable for any interface.
type Proxy struct {
	ft     *FacadeType
	target reflect.Value
	queue  Queue
}

// Type returns the facade type the proxy was built from.
func (p *Proxy) Type() *FacadeType { return p.ft }

// Invoke submits a deferred call of method with args and returns as soon as
// the queue has accepted it. A queue rejection is returned unchanged.
//
// Untyped nil is accepted for parameters of nillable kinds. For variadic
// methods the trailing arguments are packed into the final slice.
func (p *Proxy) Invoke(method string, args ...any) error {
	i, ok := p.ft.byName[method]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, p.ft.Name(), method)
	}
	u := p.ft.units[i]

	in, err := convertArgs(u.Method, args)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", p.ft.Name(), method, err)
	}
	return p.queue.Submit(u.New(p.target, in))
}

// Func returns a function value with the method's own func type (for
// example func(int)) that submits a deferred call on every invocation.
// Because the function returns nothing, a queue rejection panics with the
// queue's error, like generated facades do.
func (p *Proxy) Func(method string) (any, error) {
	i, ok := p.ft.byName[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, p.ft.Name(), method)
	}
	u := p.ft.units[i]

	fn := reflect.MakeFunc(u.Method.Func, func(in []reflect.Value) []reflect.Value {
		Submit(p.queue, u.New(p.target, in))
		return nil
	})
	return fn.Interface(), nil
}

func convertArgs(m Method, args []any) ([]reflect.Value, error) {
	n := len(m.In)
	if m.Variadic {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", ErrArgument, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrArgument, n, len(args))
	}

	in := make([]reflect.Value, n)
	fixed := n
	if m.Variadic {
		fixed = n - 1
	}
	for i := 0; i < fixed; i++ {
		v, err := convertArg(args[i], m.In[i])
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		in[i] = v
	}

	if m.Variadic {
		sliceType := m.In[n-1]
		rest := args[fixed:]
		// A single argument that already has the slice type is passed as is.
		if len(rest) == 1 && rest[0] != nil && reflect.TypeOf(rest[0]) == sliceType {
			in[n-1] = reflect.ValueOf(rest[0])
			return in, nil
		}
		s := reflect.MakeSlice(sliceType, len(rest), len(rest))
		for j, a := range rest {
			v, err := convertArg(a, sliceType.Elem())
			if err != nil {
				return nil, fmt.Errorf("variadic arg %d: %w", j, err)
			}
			s.Index(j).Set(v)
		}
		in[n-1] = s
	}
	return in, nil
}

func convertArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch want.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil is not a valid %s", ErrArgument, want)
	}
	v := reflect.ValueOf(a)
	if !v.Type().AssignableTo(want) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrArgument, v.Type(), want)
	}
	if v.Type() != want {
		// Store with the declared type so the unit's field type matches.
		out := reflect.New(want).Elem()
		out.Set(v)
		return out, nil
	}
	return v, nil
}
