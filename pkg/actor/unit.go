package actor

import (
	"fmt"
	"reflect"
	"strconv"
)

// UnitType is the deferred-call type synthesized for one interface method.
// Its Struct has a Target field of the interface type followed by one field
// per parameter (P0, P1, ...).
type UnitType struct {
	Method Method
	Struct reflect.Type
}

// newUnitType builds the struct type for m. The Target field carries a tag
// naming the interface and method, so every (interface, method) pair gets a
// distinct type even when parameter lists coincide.
func newUnitType(sig *Signature, m Method) *UnitType {
	fields := make([]reflect.StructField, 0, len(m.In)+1)
	fields = append(fields, reflect.StructField{
		Name: "Target",
		Type: sig.Type,
		Tag:  reflect.StructTag("actor:" + strconv.Quote(sig.Name+"."+m.Name)),
	})
	for i, in := range m.In {
		fields = append(fields, reflect.StructField{
			Name: "P" + strconv.Itoa(i),
			Type: in,
		})
	}
	return &UnitType{Method: m, Struct: reflect.StructOf(fields)}
}

// New stores target and args in a fresh unit. args must already have the
// method's parameter types.
func (u *UnitType) New(target reflect.Value, args []reflect.Value) *Call {
	v := reflect.New(u.Struct).Elem()
	v.Field(0).Set(target)
	for i, a := range args {
		v.Field(i + 1).Set(a)
	}
	return &Call{unit: u, fields: v}
}

// Call is one deferred invocation. It implements Task.
type Call struct {
	unit   *UnitType
	fields reflect.Value
}

// Run invokes the method on the stored target with the stored arguments.
func (c *Call) Run() {
	m := c.unit.Method
	fn := c.fields.Field(0).Method(m.Index)

	in := make([]reflect.Value, len(m.In))
	for i := range in {
		in[i] = c.fields.Field(i + 1)
	}
	if m.Variadic {
		fn.CallSlice(in)
		return
	}
	fn.Call(in)
}

// Method is the method this call will invoke.
func (c *Call) Method() string { return c.unit.Method.Name }

// Arg returns the i-th stored argument.
func (c *Call) Arg(i int) any { return c.fields.Field(i + 1).Interface() }

func (c *Call) String() string {
	return fmt.Sprintf("%s(%d args)", c.unit.Method.Name, len(c.unit.Method.In))
}
