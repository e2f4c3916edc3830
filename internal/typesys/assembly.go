// Package typesys resolves model type definitions to Go types and decides when a
// resolved type has to be replaced by a narrowed one.
package typesys

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/utils"
)

// PrimitiveAssemblyName is the name of the assembly returned by PrimitiveAssembly
const PrimitiveAssemblyName = "edm"

// Assembly is a named set of Go types, each reachable by the full model name it
// represents
type Assembly struct {
	name  string
	types *utils.Registry[string, reflect.Type]

	mu    sync.RWMutex
	names map[reflect.Type]string
}

// NewAssembly creates an empty assembly
func NewAssembly(name string) *Assembly {
	return &Assembly{
		name:  name,
		types: utils.NewRegistry[string, reflect.Type](),
		names: make(map[reflect.Type]string),
	}
}

// Name returns the assembly name
func (a *Assembly) Name() string {
	return a.name
}

// Register binds a full model name to a Go type. A Go type may stand for several
// model names; NameOf reports the first one.
func (a *Assembly) Register(fullName string, t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("type for %s must not be nil", fullName)
	}
	if err := a.types.Register(fullName, t); err != nil {
		return fmt.Errorf("assembly %s: %w", a.name, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.names[t]; !exists {
		a.names[t] = fullName
	}
	return nil
}

// MustRegister registers a type and panics on failure
func (a *Assembly) MustRegister(fullName string, t reflect.Type) {
	if err := a.Register(fullName, t); err != nil {
		panic(err)
	}
}

// Lookup finds the Go type registered for a full model name
func (a *Assembly) Lookup(fullName string) (reflect.Type, bool) {
	return a.types.Get(fullName)
}

// NameOf returns the full model name a Go type was registered under
func (a *Assembly) NameOf(t reflect.Type) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	name, ok := a.names[t]
	return name, ok
}

// Names returns the registered model names in registration order
func (a *Assembly) Names() []string {
	return a.types.List()
}

// AssemblySet is an ordered list of assemblies searched front to back
type AssemblySet []*Assembly

// Names returns the assembly names in search order
func (s AssemblySet) Names() []string {
	names := make([]string, 0, len(s))
	for _, a := range s {
		names = append(names, a.Name())
	}
	return names
}

// Lookup returns the first registration of fullName in search order
func (s AssemblySet) Lookup(fullName string) (reflect.Type, bool) {
	for _, a := range s {
		if t, ok := a.Lookup(fullName); ok {
			return t, true
		}
	}
	return nil, false
}

// NameOf returns the model name of a Go type from the first assembly that knows it
func (s AssemblySet) NameOf(t reflect.Type) (string, bool) {
	for _, a := range s {
		if name, ok := a.NameOf(t); ok {
			return name, true
		}
	}
	return "", false
}

var primitiveTypes = map[*edm.PrimitiveType]reflect.Type{
	edm.Binary:         reflect.TypeFor[[]byte](),
	edm.Boolean:        reflect.TypeFor[bool](),
	edm.Byte:           reflect.TypeFor[uint8](),
	edm.Date:           reflect.TypeFor[time.Time](),
	edm.DateTimeOffset: reflect.TypeFor[time.Time](),
	edm.Decimal:        reflect.TypeFor[float64](),
	edm.Double:         reflect.TypeFor[float64](),
	edm.Duration:       reflect.TypeFor[time.Duration](),
	edm.Guid:           reflect.TypeFor[uuid.UUID](),
	edm.Int16:          reflect.TypeFor[int16](),
	edm.Int32:          reflect.TypeFor[int32](),
	edm.Int64:          reflect.TypeFor[int64](),
	edm.SByte:          reflect.TypeFor[int8](),
	edm.Single:         reflect.TypeFor[float32](),
	edm.String:         reflect.TypeFor[string](),
	edm.TimeOfDay:      reflect.TypeFor[time.Duration](),
}

// PrimitiveAssembly returns an assembly mapping every Edm primitive to its Go type
func PrimitiveAssembly() *Assembly {
	a := NewAssembly(PrimitiveAssemblyName)
	for _, p := range edm.Primitives {
		a.MustRegister(p.FullName(), primitiveTypes[p])
	}
	return a
}
