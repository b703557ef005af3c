package actor

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Registry publishes at most one FacadeType per interface. Lookups for
// different interfaces never wait on each other: the slow path is
// deduplicated per derived name, and publication is an atomic
// insert-if-absent.
type Registry struct {
	// facades maps reflect.Type to *FacadeType.
	facades sync.Map

	// names maps a derived name to the reflect.Type that owns it.
	names sync.Map

	// ctors maps reflect.Type to *registration, filled by generated code.
	ctors sync.Map

	flight    singleflight.Group
	syntheses atomic.Int64
}

// registration is a generated constructor as recorded by Register.
type registration struct {
	fingerprint string
	construct   func(target any, q Queue) any

	// conflict is set when two generated registrations for one interface
	// disagree.
	conflict *ConflictError
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry is used by Register, Create and New.
var DefaultRegistry = NewRegistry()

// Lookup returns the facade type for iface, synthesizing it on first use.
func (r *Registry) Lookup(iface reflect.Type) (*FacadeType, error) {
	if ft, ok := r.facades.Load(iface); ok {
		return ft.(*FacadeType), nil
	}
	if iface == nil || iface.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %v", ErrNotInterface, iface)
	}

	name := DerivedName(iface)
	v, err, _ := r.flight.Do(name, func() (any, error) {
		return r.synthesize(iface, name)
	})
	if err != nil {
		return nil, err
	}

	ft := v.(*FacadeType)
	if ft.Interface() != iface {
		// Shared the flight with a different type deriving the same name.
		return nil, &ConflictError{Name: name, Existing: describe(ft.Interface()), Requested: describe(iface)}
	}
	return ft, nil
}

// synthesize runs under the per-name flight.
func (r *Registry) synthesize(iface reflect.Type, name string) (*FacadeType, error) {
	if ft, ok := r.facades.Load(iface); ok {
		return ft.(*FacadeType), nil
	}

	sig, err := Extract(iface)
	if err != nil {
		return nil, err
	}

	if _, err := r.registration(sig); err != nil {
		return nil, err
	}

	if owner, loaded := r.names.LoadOrStore(name, iface); loaded && owner.(reflect.Type) != iface {
		return nil, &ConflictError{Name: name, Existing: describe(owner.(reflect.Type)), Requested: describe(iface)}
	}

	ft := newFacadeType(r, sig)
	actual, _ := r.facades.LoadOrStore(iface, ft)
	if actual == ft {
		r.syntheses.Add(1)
	}
	return actual.(*FacadeType), nil
}

// registration returns the generated constructor for sig's interface, or
// nil if none is registered. It is consulted on every Create, so a
// constructor registered after the facade type was synthesized still binds.
func (r *Registry) registration(sig *Signature) (*registration, error) {
	v, ok := r.ctors.Load(sig.Type)
	if !ok {
		return nil, nil
	}
	reg := v.(*registration)
	if reg.conflict != nil {
		return nil, reg.conflict
	}
	if reg.fingerprint != sig.Fingerprint() {
		return nil, &ConflictError{
			Name:      sig.Name,
			Existing:  "generated facade with fingerprint " + reg.fingerprint,
			Requested: "method set with fingerprint " + sig.Fingerprint() + " (regenerate with actorgen)",
		}
	}
	return reg, nil
}

// register records a generated constructor.
func (r *Registry) register(iface reflect.Type, reg *registration) {
	for {
		v, loaded := r.ctors.LoadOrStore(iface, reg)
		if !loaded {
			return
		}
		prev := v.(*registration)
		if prev.conflict != nil || prev.fingerprint == reg.fingerprint {
			return
		}
		bad := &registration{
			fingerprint: prev.fingerprint,
			conflict: &ConflictError{
				Name:      DerivedName(iface),
				Existing:  "generated facade with fingerprint " + prev.fingerprint,
				Requested: "generated facade with fingerprint " + reg.fingerprint,
			},
		}
		if r.ctors.CompareAndSwap(iface, prev, bad) {
			return
		}
	}
}

// Syntheses reports how many facade types this registry has synthesized.
func (r *Registry) Syntheses() int64 {
	return r.syntheses.Load()
}

// Types returns the derived names of every published facade type.
func (r *Registry) Types() []string {
	var names []string
	r.facades.Range(func(_, v any) bool {
		names = append(names, v.(*FacadeType).Name())
		return true
	})
	return names
}

func describe(t reflect.Type) string {
	return fmt.Sprintf("%s (%s)", t.String(), t.PkgPath())
}
