// Package edm models operations described by a remote service: operations, their
// parameters and the structured types those parameters refer to.
package edm

import "fmt"

// TypeKind classifies a type definition
type TypeKind int

const (
	PrimitiveKind TypeKind = iota
	ComplexKind
	EntityKind
	EnumKind
	CollectionKind
)

// String returns the string representation of the type kind
func (k TypeKind) String() string {
	switch k {
	case PrimitiveKind:
		return "primitive"
	case ComplexKind:
		return "complex"
	case EntityKind:
		return "entity"
	case EnumKind:
		return "enum"
	case CollectionKind:
		return "collection"
	default:
		return "unknown"
	}
}

// TypeDefinition is a named type of the model
type TypeDefinition interface {
	FullName() string
	Kind() TypeKind
}

// TypeReference is a use of a type definition, carrying nullability
type TypeReference interface {
	Definition() TypeDefinition
	IsNullable() bool
	IsCollection() bool
	// AsCollection returns the reference as a collection; it panics when IsCollection is false
	AsCollection() CollectionTypeReference
}

// CollectionTypeReference is a reference to a collection of some element type
type CollectionTypeReference interface {
	TypeReference
	ElementType() TypeReference
}

// OperationParameter is one declared parameter of an operation
type OperationParameter interface {
	Name() string
	Type() TypeReference
}

// PrimitiveType is a built-in scalar type such as Edm.Int32
type PrimitiveType struct {
	name string
}

func (p *PrimitiveType) FullName() string { return "Edm." + p.name }
func (p *PrimitiveType) Kind() TypeKind { return PrimitiveKind }
func (p *PrimitiveType) String() string { return p.FullName() }

// Primitive definitions
var (
	Binary         = &PrimitiveType{name: "Binary"}
	Boolean        = &PrimitiveType{name: "Boolean"}
	Byte           = &PrimitiveType{name: "Byte"}
	Date           = &PrimitiveType{name: "Date"}
	DateTimeOffset = &PrimitiveType{name: "DateTimeOffset"}
	Decimal        = &PrimitiveType{name: "Decimal"}
	Double         = &PrimitiveType{name: "Double"}
	Duration       = &PrimitiveType{name: "Duration"}
	Guid           = &PrimitiveType{name: "Guid"}
	Int16          = &PrimitiveType{name: "Int16"}
	Int32          = &PrimitiveType{name: "Int32"}
	Int64          = &PrimitiveType{name: "Int64"}
	SByte          = &PrimitiveType{name: "SByte"}
	Single         = &PrimitiveType{name: "Single"}
	String         = &PrimitiveType{name: "String"}
	TimeOfDay      = &PrimitiveType{name: "TimeOfDay"}
)

// Primitives lists every primitive definition
var Primitives = []*PrimitiveType{
	Binary, Boolean, Byte, Date, DateTimeOffset, Decimal, Double, Duration,
	Guid, Int16, Int32, Int64, SByte, Single, String, TimeOfDay,
}

// Property is a declared member of a structured type
type Property struct {
	Name string
	Type TypeReference
}

// StructuredType is a complex or entity type declared by the model
type StructuredType struct {
	Namespace  string
	Name       string
	kind       TypeKind
	Properties []Property
	Keys       []string
}

// NewComplexType creates a complex type
func NewComplexType(namespace, name string, properties ...Property) *StructuredType {
	return &StructuredType{Namespace: namespace, Name: name, kind: ComplexKind, Properties: properties}
}

// NewEntityType creates an entity type with the given key property names
func NewEntityType(namespace, name string, keys []string, properties ...Property) *StructuredType {
	return &StructuredType{Namespace: namespace, Name: name, kind: EntityKind, Properties: properties, Keys: keys}
}

func (s *StructuredType) FullName() string { return s.Namespace + "." + s.Name }
func (s *StructuredType) Kind() TypeKind { return s.kind }
func (s *StructuredType) String() string { return s.FullName() }

// FindProperty looks up a declared property by name
func (s *StructuredType) FindProperty(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// IsKey reports whether the named property is part of the entity key
func (s *StructuredType) IsKey(name string) bool {
	for _, k := range s.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// EnumType is an enumeration declared by the model
type EnumType struct {
	Namespace string
	Name      string
	Members   []string
}

func (e *EnumType) FullName() string { return e.Namespace + "." + e.Name }
func (e *EnumType) Kind() TypeKind { return EnumKind }
func (e *EnumType) String() string { return e.FullName() }

// CollectionType is the anonymous definition behind a collection reference
type CollectionType struct {
	Element TypeReference
}

func (c *CollectionType) FullName() string {
	return fmt.Sprintf("Collection(%s)", c.Element.Definition().FullName())
}
func (c *CollectionType) Kind() TypeKind { return CollectionKind }

type typeReference struct {
	definition TypeDefinition
	nullable   bool
}

// NewTypeReference creates a reference to a non-collection definition
func NewTypeReference(definition TypeDefinition, nullable bool) TypeReference {
	return &typeReference{definition: definition, nullable: nullable}
}

func (r *typeReference) Definition() TypeDefinition { return r.definition }
func (r *typeReference) IsNullable() bool { return r.nullable }
func (r *typeReference) IsCollection() bool { return false }
func (r *typeReference) AsCollection() CollectionTypeReference {
	panic(fmt.Sprintf("type %s is not a collection", r.definition.FullName()))
}
func (r *typeReference) String() string { return formatReference(r) }

type collectionReference struct {
	definition *CollectionType
	nullable   bool
}

// NewCollectionReference creates a reference to a collection of element
func NewCollectionReference(element TypeReference, nullable bool) CollectionTypeReference {
	return &collectionReference{definition: &CollectionType{Element: element}, nullable: nullable}
}

func (r *collectionReference) Definition() TypeDefinition { return r.definition }
func (r *collectionReference) IsNullable() bool { return r.nullable }
func (r *collectionReference) IsCollection() bool { return true }
func (r *collectionReference) AsCollection() CollectionTypeReference { return r }
func (r *collectionReference) ElementType() TypeReference { return r.definition.Element }
func (r *collectionReference) String() string { return formatReference(r) }

func formatReference(r TypeReference) string {
	if r.IsNullable() {
		return r.Definition().FullName()
	}
	return r.Definition().FullName() + " not null"
}

type parameter struct {
	name string
	typ  TypeReference
}

// NewParameter creates an operation parameter
func NewParameter(name string, typ TypeReference) OperationParameter {
	return &parameter{name: name, typ: typ}
}

func (p *parameter) Name() string { return p.name }
func (p *parameter) Type() TypeReference { return p.typ }

// OperationKind distinguishes actions from functions
type OperationKind int

const (
	ActionOperation OperationKind = iota
	FunctionOperation
)

// String returns the string representation of the operation kind
func (k OperationKind) String() string {
	if k == FunctionOperation {
		return "function"
	}
	return "action"
}

// Operation is an action or function exposed by the service
type Operation struct {
	Namespace  string
	Name       string
	Kind       OperationKind
	IsBound    bool
	Parameters []OperationParameter
	ReturnType TypeReference
}

// FullName returns the namespace qualified operation name
func (o *Operation) FullName() string {
	if o.Namespace == "" {
		return o.Name
	}
	return o.Namespace + "." + o.Name
}

// BindingParameter returns the first parameter of a bound operation
func (o *Operation) BindingParameter() (OperationParameter, bool) {
	if !o.IsBound || len(o.Parameters) == 0 {
		return nil, false
	}
	return o.Parameters[0], true
}

// UnboundParameters returns the parameters a caller supplies, i.e. all of them
// except the binding parameter of a bound operation
func (o *Operation) UnboundParameters() []OperationParameter {
	if o.IsBound && len(o.Parameters) > 0 {
		return o.Parameters[1:]
	}
	return o.Parameters
}
