package annotations

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/toyz/typeshape/internal/errors"
)

// AttributeType describes a Go struct type that can be attached to members as an attribute.
//
// Constructors are plain functions returning *T. Properties are Set<Name> methods
// declared on *T taking a single argument; fields are the exported fields of T.
type AttributeType struct {
	name         string
	goType       reflect.Type
	constructors []*Constructor
	properties   map[string]*Property
	fields       map[string]*Field
}

// Constructor identifies one constructor function of an attribute type
type Constructor struct {
	owner  *AttributeType
	index  int
	fn     reflect.Value
	params []reflect.Type
}

// Property is a named member of an attribute type assigned through a setter method
type Property struct {
	owner  *AttributeType
	name   string
	typ    reflect.Type
	setter string
}

// Field is a named member of an attribute type assigned directly
type Field struct {
	owner *AttributeType
	name  string
	typ   reflect.Type
	index []int
}

func newAttributeType(name string, constructors []any) (*AttributeType, error) {
	if name == "" {
		return nil, errors.NewAttributeError(name, "", "attribute name must not be empty")
	}
	if len(constructors) == 0 {
		return nil, errors.NewAttributeError(name, "", "at least one constructor is required")
	}

	at := &AttributeType{
		name:       name,
		properties: make(map[string]*Property),
		fields:     make(map[string]*Field),
	}

	for i, ctor := range constructors {
		fn := reflect.ValueOf(ctor)
		if fn.Kind() != reflect.Func || fn.IsNil() {
			return nil, errors.NewAttributeError(name, "", fmt.Sprintf("constructor %d is %T, not a function", i, ctor))
		}

		ft := fn.Type()
		if ft.IsVariadic() {
			return nil, errors.NewAttributeError(name, "", fmt.Sprintf("constructor %d must not be variadic", i))
		}
		if ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Pointer || ft.Out(0).Elem().Kind() != reflect.Struct {
			return nil, errors.NewAttributeError(name, "", fmt.Sprintf("constructor %d must return a single struct pointer", i))
		}

		goType := ft.Out(0).Elem()
		if at.goType == nil {
			at.goType = goType
		} else if at.goType != goType {
			return nil, errors.NewAttributeError(name, "",
				fmt.Sprintf("constructor %d returns *%s, expected *%s", i, goType, at.goType))
		}

		params := make([]reflect.Type, ft.NumIn())
		for p := range params {
			params[p] = ft.In(p)
		}

		at.constructors = append(at.constructors, &Constructor{owner: at, index: i, fn: fn, params: params})
	}

	ptrType := reflect.PointerTo(at.goType)
	for i := 0; i < ptrType.NumMethod(); i++ {
		method := ptrType.Method(i)
		if !strings.HasPrefix(method.Name, "Set") || len(method.Name) == len("Set") {
			continue
		}
		// receiver plus exactly one value
		if method.Type.NumIn() != 2 || method.Type.NumOut() != 0 {
			continue
		}
		propName := strings.TrimPrefix(method.Name, "Set")
		at.properties[propName] = &Property{owner: at, name: propName, typ: method.Type.In(1), setter: method.Name}
	}

	for _, sf := range reflect.VisibleFields(at.goType) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		at.fields[sf.Name] = &Field{owner: at, name: sf.Name, typ: sf.Type, index: sf.Index}
	}

	return at, nil
}

// Name returns the registered attribute name
func (a *AttributeType) Name() string {
	return a.name
}

// GoType returns the struct type instantiated by the constructors
func (a *AttributeType) GoType() reflect.Type {
	return a.goType
}

// Constructors returns the constructors in registration order
func (a *AttributeType) Constructors() []*Constructor {
	ctors := make([]*Constructor, len(a.constructors))
	copy(ctors, a.constructors)
	return ctors
}

// ConstructorWithArity returns the single constructor taking n arguments
func (a *AttributeType) ConstructorWithArity(n int) (*Constructor, error) {
	var found *Constructor
	for _, ctor := range a.constructors {
		if ctor.Arity() != n {
			continue
		}
		if found != nil {
			return nil, errors.NewAttributeError(a.name, "", fmt.Sprintf("more than one constructor takes %d arguments", n))
		}
		found = ctor
	}
	if found == nil {
		return nil, errors.NewAttributeError(a.name, "", fmt.Sprintf("no constructor takes %d arguments", n))
	}
	return found, nil
}

// Property looks up a settable property by name
func (a *AttributeType) Property(name string) (*Property, bool) {
	p, ok := a.properties[name]
	return p, ok
}

// Field looks up an exported field by name
func (a *AttributeType) Field(name string) (*Field, bool) {
	f, ok := a.fields[name]
	return f, ok
}

// AttributeType returns the type this constructor belongs to
func (c *Constructor) AttributeType() *AttributeType {
	return c.owner
}

// Arity returns the number of positional arguments the constructor takes
func (c *Constructor) Arity() int {
	return len(c.params)
}

// Params returns the constructor parameter types in order
func (c *Constructor) Params() []reflect.Type {
	params := make([]reflect.Type, len(c.params))
	copy(params, c.params)
	return params
}

// String renders the constructor signature, e.g. Range(float64, float64)
func (c *Constructor) String() string {
	names := make([]string, len(c.params))
	for i, p := range c.params {
		names[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", c.owner.name, strings.Join(names, ", "))
}

// Invoke calls the constructor and returns the new *T
func (c *Constructor) Invoke(args []any) (reflect.Value, error) {
	if len(args) != len(c.params) {
		return reflect.Value{}, errors.NewAttributeError(c.owner.name, "",
			fmt.Sprintf("constructor %s expects %d arguments, got %d", c, len(c.params), len(args)))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := valueFor(arg, c.params[i])
		if err != nil {
			return reflect.Value{}, errors.NewAttributeError(c.owner.name, fmt.Sprintf("argument %d", i), err.Error())
		}
		in[i] = v
	}

	return c.fn.Call(in)[0], nil
}

// AttributeType returns the type declaring this property
func (p *Property) AttributeType() *AttributeType {
	return p.owner
}

// Name returns the property name
func (p *Property) Name() string {
	return p.name
}

// Type returns the setter's argument type
func (p *Property) Type() reflect.Type {
	return p.typ
}

// Set assigns the property on target, which must be a *T of the owning type
func (p *Property) Set(target reflect.Value, value any) error {
	v, err := valueFor(value, p.typ)
	if err != nil {
		return errors.NewAttributeError(p.owner.name, p.name, err.Error())
	}
	target.MethodByName(p.setter).Call([]reflect.Value{v})
	return nil
}

// AttributeType returns the type declaring this field
func (f *Field) AttributeType() *AttributeType {
	return f.owner
}

// Name returns the field name
func (f *Field) Name() string {
	return f.name
}

// Type returns the field type
func (f *Field) Type() reflect.Type {
	return f.typ
}

// Set assigns the field on target, which must be a *T of the owning type
func (f *Field) Set(target reflect.Value, value any) error {
	v, err := valueFor(value, f.typ)
	if err != nil {
		return errors.NewAttributeError(f.owner.name, f.name, err.Error())
	}
	target.Elem().FieldByIndex(f.index).Set(v)
	return nil
}

// valueFor adapts a stored argument value to the declared parameter type
func valueFor(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", t)
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), nil
	}
	if v.Kind() == t.Kind() && v.Type().ConvertibleTo(t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", v.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
