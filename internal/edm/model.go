package edm

import (
	"sort"
	"strings"

	"github.com/toyz/typeshape/internal/errors"
)

// Model is the set of types and operations described by one or more schema documents
type Model struct {
	types      map[string]TypeDefinition
	operations []*Operation
}

// NewModel creates a model that already knows the primitive types
func NewModel() *Model {
	m := &Model{types: make(map[string]TypeDefinition)}
	for _, p := range Primitives {
		m.types[p.FullName()] = p
	}
	return m
}

// AddType declares a type; full names must be unique
func (m *Model) AddType(def TypeDefinition) error {
	name := def.FullName()
	if _, exists := m.types[name]; exists {
		return errors.NewModelError(name, "type is declared more than once")
	}
	m.types[name] = def
	return nil
}

// AddOperation declares an operation
func (m *Model) AddOperation(op *Operation) error {
	for _, existing := range m.operations {
		if existing.FullName() == op.FullName() {
			return errors.NewModelError(op.FullName(), "operation is declared more than once")
		}
	}
	if op.IsBound && len(op.Parameters) == 0 {
		return errors.NewModelError(op.FullName(), "bound operation has no binding parameter")
	}
	m.operations = append(m.operations, op)
	return nil
}

// FindType looks up a type definition by full name
func (m *Model) FindType(fullName string) (TypeDefinition, bool) {
	def, ok := m.types[fullName]
	return def, ok
}

// StructuredTypes returns the declared complex and entity types sorted by full name
func (m *Model) StructuredTypes() []*StructuredType {
	var result []*StructuredType
	for _, def := range m.types {
		if st, ok := def.(*StructuredType); ok {
			result = append(result, st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName() < result[j].FullName() })
	return result
}

// EnumTypes returns the declared enums sorted by full name
func (m *Model) EnumTypes() []*EnumType {
	var result []*EnumType
	for _, def := range m.types {
		if et, ok := def.(*EnumType); ok {
			result = append(result, et)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName() < result[j].FullName() })
	return result
}

// Operations returns the declared operations in declaration order
func (m *Model) Operations() []*Operation {
	ops := make([]*Operation, len(m.operations))
	copy(ops, m.operations)
	return ops
}

// FindOperation looks up an operation by full or short name
func (m *Model) FindOperation(name string) (*Operation, bool) {
	for _, op := range m.operations {
		if op.FullName() == name || op.Name == name {
			return op, true
		}
	}
	return nil, false
}

// ParseTypeReference resolves a type expression such as "Edm.Int32" or
// "Collection(Shop.Address)" against the model. Nullability of a collection
// expression applies to the collection; elementNullable applies to its elements.
func (m *Model) ParseTypeReference(expr string, nullable, elementNullable bool) (TypeReference, error) {
	expr = strings.TrimSpace(expr)
	if inner, ok := strings.CutPrefix(expr, "Collection("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return nil, errors.NewSyntaxError("collection type is missing ')'", expr, len(expr))
		}
		element, err := m.ParseTypeReference(inner, elementNullable, true)
		if err != nil {
			return nil, err
		}
		if element.IsCollection() {
			return nil, errors.NewModelError(expr, "nested collections are not supported")
		}
		return NewCollectionReference(element, nullable), nil
	}

	if expr == "" {
		return nil, errors.NewSyntaxError("type expression is empty", expr, 0)
	}

	def, ok := m.types[expr]
	if !ok {
		return nil, errors.NewModelError(expr, "type is not declared")
	}
	return NewTypeReference(def, nullable), nil
}
