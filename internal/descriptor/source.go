package descriptor

import (
	"reflect"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/errors"
)

// SourceMember is a reflected member a descriptor can be derived from
type SourceMember interface {
	Name() string
	Type() reflect.Type
	Attributes() []annotations.AttributeData
}

type reflectMember struct {
	field      reflect.StructField
	attributes []annotations.AttributeData
}

func (m *reflectMember) Name() string { return m.field.Name }
func (m *reflectMember) Type() reflect.Type { return m.field.Type }
func (m *reflectMember) Attributes() []annotations.AttributeData { return m.attributes }

// ReflectMember adapts a struct field; its attributes are parsed from the attr tag
func ReflectMember(parser *annotations.Parser, field reflect.StructField) (SourceMember, error) {
	if parser == nil {
		return nil, errors.NewArgumentError("parser")
	}
	attrs, err := parser.ParseField(field)
	if err != nil {
		return nil, err
	}
	return &reflectMember{field: field, attributes: attrs}, nil
}

// ReflectMembers adapts every exported field of a struct type (or pointer to one)
// in declaration order
func ReflectMembers(parser *annotations.Parser, t reflect.Type) ([]SourceMember, error) {
	if t == nil {
		return nil, errors.NewArgumentError("type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.NewArgumentErrorf("type", "%s is not a struct type", t)
	}

	members := make([]SourceMember, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		m, err := ReflectMember(parser, field)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}
