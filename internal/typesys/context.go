package typesys

import (
	"reflect"
	"sync"

	"github.com/toyz/typeshape/internal/edm"
)

// ServiceProvider hands out services by type
type ServiceProvider interface {
	GetService(serviceType reflect.Type) (any, bool)
}

// Services is a thread-safe ServiceProvider backed by a map
type Services struct {
	mu       sync.RWMutex
	services map[reflect.Type]any
}

// NewServices creates an empty service container
func NewServices() *Services {
	return &Services{services: make(map[reflect.Type]any)}
}

// Add registers a service under its dynamic type, replacing any previous one
func (s *Services) Add(service any) {
	s.set(reflect.TypeOf(service), service)
}

// GetService returns the service registered for serviceType
func (s *Services) GetService(serviceType reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	service, ok := s.services[serviceType]
	return service, ok
}

func (s *Services) set(serviceType reflect.Type, service any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[serviceType] = service
}

// AddService registers a service under T, which may be an interface type
func AddService[T any](s *Services, service T) {
	s.set(reflect.TypeFor[T](), service)
}

// ServiceOf returns the service registered under T
func ServiceOf[T any](sp ServiceProvider) (T, bool) {
	var zero T
	if sp == nil {
		return zero, false
	}
	service, ok := sp.GetService(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	typed, ok := service.(T)
	return typed, ok
}

// TypeBuilder produces a narrowed Go type for a structured model type whose Go
// representation carries members the model does not declare
type TypeBuilder interface {
	NewStructuredType(def *edm.StructuredType, goType reflect.Type, ctx *Context) (reflect.Type, error)
}

// Context carries the collaborators needed to turn model references into Go types
type Context struct {
	Services    ServiceProvider
	Assemblies  AssemblySet
	Builder     TypeBuilder
	Resolver    Resolver
	Substituter Substituter
}

// NewContext creates a context with the default resolver and the model substituter
func NewContext(services ServiceProvider, assemblies AssemblySet, builder TypeBuilder) *Context {
	return &Context{
		Services:    services,
		Assemblies:  assemblies,
		Builder:     builder,
		Resolver:    DefaultResolver(),
		Substituter: ModelSubstituter{},
	}
}

// ResolveElementType resolves def through the context resolver and assemblies
func (c *Context) ResolveElementType(def edm.TypeDefinition) (reflect.Type, error) {
	resolver := c.Resolver
	if resolver == nil {
		resolver = sharedResolver()
	}
	return resolver.ResolveElementType(def, c.Assemblies)
}

// SubstituteIfNecessary applies the context substituter to t
func (c *Context) SubstituteIfNecessary(t reflect.Type) (reflect.Type, error) {
	if c.Substituter == nil {
		return t, nil
	}
	return c.Substituter.SubstituteIfNecessary(t, c)
}

var (
	sharedResolverOnce sync.Once
	sharedResolverInst *CachingResolver
)

func sharedResolver() *CachingResolver {
	sharedResolverOnce.Do(func() {
		sharedResolverInst = DefaultResolver()
	})
	return sharedResolverInst
}
