package actor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"
)

// Signature is the validated method set of an interface.
type Signature struct {
	// Type is the interface type itself.
	Type reflect.Type

	// Name is the identity the facade is published under (see DerivedName).
	Name string

	// Methods in method-set order (sorted by name).
	Methods []Method
}

// Method describes one forwardable interface method.
type Method struct {
	// Name is the Go method name.
	Name string

	// Index is the method's index in the interface's method set.
	Index int

	// In lists the parameter types in declaration order. For variadic
	// methods the last entry is the slice type.
	In []reflect.Type

	// Variadic is true if the last parameter is ...T.
	Variadic bool

	// Func is the method's func type, without receiver.
	Func reflect.Type
}

// Shape renders the method as Name(arity[,...]) for fingerprints.
func (m Method) Shape() string {
	return Shape(m.Name, len(m.In), m.Variadic)
}

// Extract validates t and returns its method set. Every offending method is
// reported, aggregated into one error, before anything is synthesized.
func Extract(t reflect.Type) (*Signature, error) {
	if t == nil || t.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %v", ErrNotInterface, t)
	}

	name := DerivedName(t)
	sig := &Signature{Type: t, Name: name}

	var errs error
	for i := 0; i < t.NumMethod(); i++ {
		rm := t.Method(i)

		if !rm.IsExported() {
			errs = multierr.Append(errs, &SignatureError{Interface: name, Method: rm.Name, Reason: "unexported method"})
			continue
		}

		ft := rm.Type
		if ft.NumOut() > 0 {
			errs = multierr.Append(errs, &SignatureError{Interface: name, Method: rm.Name, Reason: resultReason(ft)})
			continue
		}

		m := Method{
			Name:     rm.Name,
			Index:    i,
			Variadic: ft.IsVariadic(),
			Func:     ft,
		}
		for j := 0; j < ft.NumIn(); j++ {
			m.In = append(m.In, ft.In(j))
		}
		sig.Methods = append(sig.Methods, m)
	}

	if errs != nil {
		return nil, errs
	}
	return sig, nil
}

// Fingerprint summarizes the method set shape. Generated code embeds the
// value computed by the generator so stale output can be detected.
func (s *Signature) Fingerprint() string {
	shapes := make([]string, len(s.Methods))
	for i, m := range s.Methods {
		shapes[i] = m.Shape()
	}
	return Fingerprint(shapes)
}

// Method returns the method with the given name.
func (s *Signature) Method(name string) (Method, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// DerivedName is the key a facade for t is published under: the qualified
// type name, or the type literal for unnamed interfaces.
func DerivedName(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Shape formats one method for Fingerprint.
func Shape(name string, arity int, variadic bool) string {
	if variadic {
		return fmt.Sprintf("%s(%d...)", name, arity)
	}
	return fmt.Sprintf("%s(%d)", name, arity)
}

// Fingerprint hashes method shapes, in method-set order.
func Fingerprint(shapes []string) string {
	h := sha256.Sum256([]byte(strings.Join(shapes, ";")))
	return hex.EncodeToString(h[:])[:16]
}

var errorType = reflect.TypeFor[error]()

func resultReason(ft reflect.Type) string {
	if ft.Out(ft.NumOut()-1) == errorType {
		return "declares an error result"
	}
	return fmt.Sprintf("returns %d value(s)", ft.NumOut())
}
