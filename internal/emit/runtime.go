// Package emit materializes member descriptor sets: as runtime struct types, as Go
// source and as JSON Schema. It also hosts the model driven type builder.
package emit

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/toyz/typeshape/internal/descriptor"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/utils"
)

// Emitter turns a named list of member descriptors into a Go type
type Emitter interface {
	Emit(name string, members []*descriptor.MemberDescriptor) (reflect.Type, error)
}

// Declaration is one emitted type together with the members it was emitted from
type Declaration struct {
	Name    string
	Type    reflect.Type
	Members []*descriptor.MemberDescriptor
}

// Runtime emits unnamed struct types with reflect.StructOf and remembers every
// emitted type by name
type Runtime struct {
	declarations *utils.Registry[string, Declaration]

	mu    sync.RWMutex
	names map[reflect.Type]string
}

// NewRuntime creates an empty runtime emitter
func NewRuntime() *Runtime {
	return &Runtime{
		declarations: utils.NewRegistry[string, Declaration](),
		names:        make(map[reflect.Type]string),
	}
}

// Emit builds the struct type for members. Equal descriptors (same name and type)
// collapse into one field, first occurrence wins. Names must be unique per runtime.
func (r *Runtime) Emit(name string, members []*descriptor.MemberDescriptor) (t reflect.Type, err error) {
	if name == "" {
		return nil, errors.NewArgumentErrorf("name", "type name must not be empty")
	}
	if r.declarations.Has(name) {
		return nil, errors.NewEmissionError(name, "a type with this name was already emitted")
	}

	fields, set, err := fieldsFor(name, members)
	if err != nil {
		return nil, err
	}

	// StructOf panics on invalid field sets
	defer func() {
		if recovered := recover(); recovered != nil {
			t = nil
			err = errors.NewEmissionError(name, fmt.Sprint(recovered))
		}
	}()
	t = reflect.StructOf(fields)

	decl := Declaration{Name: name, Type: t, Members: set.Members()}
	if err := r.declarations.Register(name, decl); err != nil {
		return nil, errors.WrapEmissionError(name, err)
	}

	r.mu.Lock()
	if _, exists := r.names[t]; !exists {
		r.names[t] = name
	}
	r.mu.Unlock()
	return t, nil
}

// Lookup returns the declaration emitted under name
func (r *Runtime) Lookup(name string) (Declaration, bool) {
	return r.declarations.Get(name)
}

// NameOf returns the name an emitted type was first declared under
func (r *Runtime) NameOf(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[t]
	return name, ok
}

// Declarations returns every emitted type in emission order
func (r *Runtime) Declarations() []Declaration {
	result := make([]Declaration, 0, r.declarations.Size())
	r.declarations.ForEach(func(_ string, d Declaration) {
		result = append(result, d)
	})
	return result
}

func fieldName(memberName string) string {
	return utils.ExportedName(memberName)
}
