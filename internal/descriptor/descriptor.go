// Package descriptor derives member descriptors: the name, Go type and attribute
// annotations of one member of a type that is about to be synthesized. A descriptor
// comes either from a reflected struct field or from an operation parameter.
package descriptor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/errors"
)

// Key identifies a descriptor for deduplication; attributes are not part of it
type Key struct {
	Name string
	Type reflect.Type
}

// MemberDescriptor is an immutable description of one member to synthesize
type MemberDescriptor struct {
	name       string
	typ        reflect.Type
	attributes []AttributeAnnotation
}

// New creates a descriptor. The attribute list is copied.
func New(name string, t reflect.Type, attributes ...AttributeAnnotation) (*MemberDescriptor, error) {
	if name == "" {
		return nil, errors.NewArgumentErrorf("name", "member name must not be empty")
	}
	if t == nil {
		return nil, errors.NewArgumentError("type")
	}
	return newMemberDescriptor(name, t, attributes), nil
}

func newMemberDescriptor(name string, t reflect.Type, attributes []AttributeAnnotation) *MemberDescriptor {
	copied := make([]AttributeAnnotation, len(attributes))
	for i, a := range attributes {
		copied[i] = a.clone()
	}
	return &MemberDescriptor{name: name, typ: t, attributes: copied}
}

// Name returns the member name, used verbatim by emitters
func (d *MemberDescriptor) Name() string {
	return d.name
}

// Type returns the resolved member type
func (d *MemberDescriptor) Type() reflect.Type {
	return d.typ
}

// Attributes returns a copy of the attribute annotations in attachment order
func (d *MemberDescriptor) Attributes() []AttributeAnnotation {
	result := make([]AttributeAnnotation, len(d.attributes))
	for i, a := range d.attributes {
		result[i] = a.clone()
	}
	return result
}

// Key returns the identity of the descriptor
func (d *MemberDescriptor) Key() Key {
	return Key{Name: d.name, Type: d.typ}
}

// Equal reports whether both descriptors have the same name and type
func (d *MemberDescriptor) Equal(other *MemberDescriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Key() == other.Key()
}

func (d *MemberDescriptor) String() string {
	if len(d.attributes) == 0 {
		return fmt.Sprintf("%s %s", d.name, d.typ)
	}
	attrs := make([]string, len(d.attributes))
	for i, a := range d.attributes {
		attrs[i] = a.String()
	}
	return fmt.Sprintf("%s %s [%s]", d.name, d.typ, strings.Join(attrs, "; "))
}

// PropertyBinding assigns a property of the attribute type after construction
type PropertyBinding struct {
	Property *annotations.Property
	Value    any
}

// FieldBinding assigns a field of the attribute type after construction
type FieldBinding struct {
	Field *annotations.Field
	Value any
}

// AttributeAnnotation is a deferred attribute attachment: which constructor to call,
// with which arguments, and which properties and fields to assign afterwards
type AttributeAnnotation struct {
	Constructor *annotations.Constructor
	Arguments   []any
	Properties  []PropertyBinding
	Fields      []FieldBinding
}

// AttributeType returns the attribute type the constructor belongs to
func (a AttributeAnnotation) AttributeType() *annotations.AttributeType {
	if a.Constructor == nil {
		return nil
	}
	return a.Constructor.AttributeType()
}

// Build materializes the attribute value
func (a AttributeAnnotation) Build() (any, error) {
	properties := make([]annotations.PropertyValue, len(a.Properties))
	for i, p := range a.Properties {
		properties[i] = annotations.PropertyValue{Property: p.Property, Value: p.Value}
	}
	fields := make([]annotations.FieldValue, len(a.Fields))
	for i, f := range a.Fields {
		fields[i] = annotations.FieldValue{Field: f.Field, Value: f.Value}
	}

	value, err := annotations.Construct(a.Constructor, a.Arguments, properties, fields)
	if err != nil {
		name := "<nil>"
		if at := a.AttributeType(); at != nil {
			name = at.Name()
		}
		attrErr := errors.NewAttributeError(name, "", "failed to build")
		attrErr.WithCause(err)
		return nil, attrErr
	}
	return value, nil
}

// String renders the annotation in attr tag syntax; properties precede fields
func (a AttributeAnnotation) String() string {
	at := a.AttributeType()
	if at == nil {
		return "<invalid>"
	}
	named := make([]annotations.NamedValue, 0, len(a.Properties)+len(a.Fields))
	for _, p := range a.Properties {
		if p.Property == nil {
			return "<invalid>"
		}
		named = append(named, annotations.NamedValue{Name: p.Property.Name(), Value: p.Value})
	}
	for _, f := range a.Fields {
		if f.Field == nil {
			return "<invalid>"
		}
		named = append(named, annotations.NamedValue{Name: f.Field.Name(), Value: f.Value})
	}
	return annotations.FormatAttribute(at.Name(), a.Arguments, named)
}

func (a AttributeAnnotation) clone() AttributeAnnotation {
	return AttributeAnnotation{
		Constructor: a.Constructor,
		Arguments:   cloneSlice(a.Arguments),
		Properties:  cloneSlice(a.Properties),
		Fields:      cloneSlice(a.Fields),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Set is an ordered collection of descriptors without duplicate keys
type Set struct {
	members []*MemberDescriptor
	index   map[Key]int
}

// NewSet creates a set holding the given descriptors, first occurrence wins
func NewSet(members ...*MemberDescriptor) *Set {
	s := &Set{index: make(map[Key]int)}
	for _, m := range members {
		s.Add(m)
	}
	return s
}

// Add appends d unless an equal descriptor is already present
func (s *Set) Add(d *MemberDescriptor) bool {
	if d == nil {
		return false
	}
	if _, exists := s.index[d.Key()]; exists {
		return false
	}
	s.index[d.Key()] = len(s.members)
	s.members = append(s.members, d)
	return true
}

// Contains reports whether an equal descriptor is present
func (s *Set) Contains(d *MemberDescriptor) bool {
	if d == nil {
		return false
	}
	_, exists := s.index[d.Key()]
	return exists
}

// Len returns the number of descriptors
func (s *Set) Len() int {
	return len(s.members)
}

// Members returns the descriptors in insertion order
func (s *Set) Members() []*MemberDescriptor {
	return cloneSlice(s.members)
}
