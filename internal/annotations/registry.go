package annotations

import (
	"sync"

	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/utils"
)

// Registry maps attribute names to their registered types
type Registry struct {
	types *utils.Registry[string, *AttributeType]
}

// NewRegistry creates an empty attribute registry
func NewRegistry() *Registry {
	return &Registry{types: utils.NewRegistry[string, *AttributeType]()}
}

// Register adds an attribute type built from the given constructor functions
func (r *Registry) Register(name string, constructors ...any) (*AttributeType, error) {
	at, err := newAttributeType(name, constructors)
	if err != nil {
		return nil, err
	}
	if err := r.types.Register(name, at); err != nil {
		return nil, errors.NewAttributeError(name, "", "attribute is already registered").WithCause(err)
	}
	return at, nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(name string, constructors ...any) *AttributeType {
	at, err := r.Register(name, constructors...)
	if err != nil {
		panic(err)
	}
	return at
}

// Lookup returns the attribute type registered under name
func (r *Registry) Lookup(name string) (*AttributeType, bool) {
	return r.types.Get(name)
}

// Names returns registered attribute names in registration order
func (r *Registry) Names() []string {
	return r.types.List()
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the shared registry preloaded with the built-in attributes
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// NewRegistryWithBuiltins creates an independent registry holding the built-in attributes
func NewRegistryWithBuiltins() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}
