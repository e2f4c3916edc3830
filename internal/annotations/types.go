package annotations

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// TagName is the struct tag holding attribute declarations
const TagName = "attr"

// TypedArgument is an evaluated argument value together with its declared type
type TypedArgument struct {
	Type  reflect.Type
	Value any
}

// NamedArgument is an argument bound by name to a property or field of the attribute type
type NamedArgument struct {
	Name     string
	IsField  bool
	Property *Property // set when IsField is false
	Field    *Field    // set when IsField is true
	Value    TypedArgument
}

// AttributeData is one attribute instance as attached to a member
type AttributeData struct {
	Constructor          *Constructor
	ConstructorArguments []TypedArgument
	NamedArguments       []NamedArgument
}

// AttributeType returns the type of the attached attribute
func (a AttributeData) AttributeType() *AttributeType {
	if a.Constructor == nil {
		return nil
	}
	return a.Constructor.owner
}

// String renders the attribute in tag syntax, e.g. Range(1, 10, ErrorMessage="bad")
func (a AttributeData) String() string {
	at := a.AttributeType()
	if at == nil {
		return "<invalid>"
	}
	args := make([]any, len(a.ConstructorArguments))
	for i, arg := range a.ConstructorArguments {
		args[i] = arg.Value
	}
	named := make([]NamedValue, len(a.NamedArguments))
	for i, arg := range a.NamedArguments {
		named[i] = NamedValue{Name: arg.Name, Value: arg.Value.Value}
	}
	return FormatAttribute(at.Name(), args, named)
}

// NamedValue pairs a member name with a value for rendering
type NamedValue struct {
	Name  string
	Value any
}

// FormatAttribute renders an attribute declaration that Parser accepts
func FormatAttribute(name string, args []any, named []NamedValue) string {
	if len(args) == 0 && len(named) == 0 {
		return name
	}

	parts := make([]string, 0, len(args)+len(named))
	for _, arg := range args {
		parts = append(parts, formatValue(arg))
	}
	for _, n := range named {
		parts = append(parts, n.Name+"="+formatValue(n.Value))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

func formatValue(value any) string {
	if value == nil {
		return "nil"
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return strconv.Quote(v.String())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Slice, reflect.Array:
		items := make([]string, v.Len())
		for i := range items {
			items[i] = formatValue(v.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Pointer, reflect.Interface, reflect.Map:
		if v.IsNil() {
			return "nil"
		}
	}
	return strconv.Quote(fmt.Sprint(value))
}

// Instantiate builds the attribute value described by data: the constructor is
// invoked with the positional arguments, then properties and fields are assigned
// in declaration order.
func Instantiate(data AttributeData) (any, error) {
	args := make([]any, len(data.ConstructorArguments))
	for i, arg := range data.ConstructorArguments {
		args[i] = arg.Value
	}
	properties := make([]PropertyValue, 0, len(data.NamedArguments))
	fields := make([]FieldValue, 0, len(data.NamedArguments))
	for _, named := range data.NamedArguments {
		if named.IsField {
			fields = append(fields, FieldValue{Field: named.Field, Value: named.Value.Value})
		} else {
			properties = append(properties, PropertyValue{Property: named.Property, Value: named.Value.Value})
		}
	}
	return Construct(data.Constructor, args, properties, fields)
}

// PropertyValue is a property assignment applied after construction
type PropertyValue struct {
	Property *Property
	Value    any
}

// FieldValue is a field assignment applied after construction
type FieldValue struct {
	Field *Field
	Value any
}

// Construct invokes ctor and applies the property and field assignments
func Construct(ctor *Constructor, args []any, properties []PropertyValue, fields []FieldValue) (any, error) {
	if ctor == nil {
		return nil, fmt.Errorf("attribute constructor is nil")
	}

	target, err := ctor.Invoke(args)
	if err != nil {
		return nil, err
	}

	for i, p := range properties {
		if p.Property == nil {
			return nil, fmt.Errorf("property %d of attribute %s is nil", i, ctor.owner.name)
		}
		if p.Property.owner != ctor.owner {
			return nil, fmt.Errorf("property %s does not belong to attribute %s", p.Property.name, ctor.owner.name)
		}
		if err := p.Property.Set(target, p.Value); err != nil {
			return nil, err
		}
	}
	for i, f := range fields {
		if f.Field == nil {
			return nil, fmt.Errorf("field %d of attribute %s is nil", i, ctor.owner.name)
		}
		if f.Field.owner != ctor.owner {
			return nil, fmt.Errorf("field %s does not belong to attribute %s", f.Field.name, ctor.owner.name)
		}
		if err := f.Field.Set(target, f.Value); err != nil {
			return nil, err
		}
	}

	return target.Interface(), nil
}
