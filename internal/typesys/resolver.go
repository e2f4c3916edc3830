package typesys

import (
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
)

// DefaultResolverCacheSize bounds the number of resolutions a CachingResolver keeps
const DefaultResolverCacheSize = 512

// Resolver maps a type definition to the Go type that implements it
type Resolver interface {
	ResolveElementType(def edm.TypeDefinition, assemblies AssemblySet) (reflect.Type, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(def edm.TypeDefinition, assemblies AssemblySet) (reflect.Type, error)

// ResolveElementType calls f
func (f ResolverFunc) ResolveElementType(def edm.TypeDefinition, assemblies AssemblySet) (reflect.Type, error) {
	return f(def, assemblies)
}

type resolutionKey struct {
	name       string
	assemblies string
}

// CachingResolver looks a definition up by full name in the assemblies, first match
// wins. Successful lookups are cached per assembly set; failures are not.
type CachingResolver struct {
	cache *lru.Cache[resolutionKey, reflect.Type]
}

// NewCachingResolver creates a resolver holding at most size resolutions
func NewCachingResolver(size int) (*CachingResolver, error) {
	cache, err := lru.New[resolutionKey, reflect.Type](size)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigurationErrorCode, "invalid resolver cache size", err)
	}
	return &CachingResolver{cache: cache}, nil
}

// DefaultResolver creates a CachingResolver with the default cache size
func DefaultResolver() *CachingResolver {
	r, err := NewCachingResolver(DefaultResolverCacheSize)
	if err != nil {
		panic(err)
	}
	return r
}

// ResolveElementType resolves def. A collection definition resolves to a slice of
// its resolved element type.
func (r *CachingResolver) ResolveElementType(def edm.TypeDefinition, assemblies AssemblySet) (reflect.Type, error) {
	if def == nil {
		return nil, errors.NewArgumentError("def")
	}

	if coll, ok := def.(*edm.CollectionType); ok {
		elem, err := r.ResolveElementType(coll.Element.Definition(), assemblies)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	}

	key := resolutionKey{name: def.FullName(), assemblies: assemblyIdentity(assemblies)}
	if t, ok := r.cache.Get(key); ok {
		return t, nil
	}

	t, ok := assemblies.Lookup(def.FullName())
	if !ok {
		return nil, errors.NewTypeResolutionError(def.FullName(), assemblies.Names())
	}
	r.cache.Add(key, t)
	return t, nil
}

// Len returns the number of cached resolutions
func (r *CachingResolver) Len() int {
	return r.cache.Len()
}

// Purge drops every cached resolution
func (r *CachingResolver) Purge() {
	r.cache.Purge()
}

func assemblyIdentity(assemblies AssemblySet) string {
	parts := make([]string, len(assemblies))
	for i, a := range assemblies {
		parts[i] = fmt.Sprintf("%s@%p", a.Name(), a)
	}
	return strings.Join(parts, ",")
}
