package emit

import (
	"fmt"
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/descriptor"
	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/typesys"
	"github.com/toyz/typeshape/internal/utils"
)

// DefaultBuilderCacheSize bounds the number of narrowed types a builder keeps
const DefaultBuilderCacheSize = 256

// ParametersSuffix is appended to an operation name to name its parameter type
const ParametersSuffix = "Parameters"

type narrowKey struct {
	definition string
	goType     reflect.Type
}

// ModelTypeBuilder synthesizes types from the model: narrowed structured types for
// substitution and parameter types for operations. It decides which members go into
// a type; the descriptor package describes each member.
type ModelTypeBuilder struct {
	parser      *annotations.Parser
	emitter     *Runtime
	diagnostics *utils.DiagnosticSystem
	cache       *lru.Cache[narrowKey, reflect.Type]

	// narrowMu serializes narrowing so names are unique and the cache is filled once
	narrowMu sync.Mutex
}

// BuilderOption configures a ModelTypeBuilder
type BuilderOption func(*builderOptions)

type builderOptions struct {
	parser      *annotations.Parser
	emitter     *Runtime
	diagnostics *utils.DiagnosticSystem
	cacheSize   int
}

// WithParser sets the parser used to read attr tags of narrowed struct fields
func WithParser(parser *annotations.Parser) BuilderOption {
	return func(o *builderOptions) { o.parser = parser }
}

// WithRuntime sets the runtime emitter that receives every built type
func WithRuntime(runtime *Runtime) BuilderOption {
	return func(o *builderOptions) { o.emitter = runtime }
}

// WithDiagnostics sets the diagnostic output
func WithDiagnostics(diagnostics *utils.DiagnosticSystem) BuilderOption {
	return func(o *builderOptions) { o.diagnostics = diagnostics }
}

// WithCacheSize sets the number of narrowed types kept in the cache
func WithCacheSize(size int) BuilderOption {
	return func(o *builderOptions) { o.cacheSize = size }
}

// NewModelTypeBuilder creates a builder. Without options it uses the default
// attribute registry, a fresh runtime emitter and silent diagnostics.
func NewModelTypeBuilder(opts ...BuilderOption) (*ModelTypeBuilder, error) {
	o := &builderOptions{cacheSize: DefaultBuilderCacheSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.parser == nil {
		o.parser = annotations.NewParser(annotations.Default())
	}
	if o.emitter == nil {
		o.emitter = NewRuntime()
	}
	if o.diagnostics == nil {
		o.diagnostics = utils.NewSilentDiagnostics()
	}

	cache, err := lru.New[narrowKey, reflect.Type](o.cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigurationErrorCode, "invalid builder cache size", err)
	}

	return &ModelTypeBuilder{
		parser:      o.parser,
		emitter:     o.emitter,
		diagnostics: o.diagnostics,
		cache:       cache,
	}, nil
}

// Runtime returns the emitter holding every type the builder produced
func (b *ModelTypeBuilder) Runtime() *Runtime {
	return b.emitter
}

// NewStructuredType narrows goType to the fields def declares. Field types are
// substituted through ctx so nested types are narrowed too. A type that is already
// being narrowed further up the same call is returned unchanged. Concurrent calls
// are serialized.
func (b *ModelTypeBuilder) NewStructuredType(def *edm.StructuredType, goType reflect.Type, ctx *typesys.Context) (reflect.Type, error) {
	if def == nil {
		return nil, errors.NewArgumentError("def")
	}
	if goType == nil {
		return nil, errors.NewArgumentError("goType")
	}
	if ctx == nil {
		return nil, errors.NewArgumentError("ctx")
	}

	b.narrowMu.Lock()
	defer b.narrowMu.Unlock()

	n := &narrowing{builder: b, building: make(map[narrowKey]bool)}
	scoped := *ctx
	scoped.Builder = n
	return n.NewStructuredType(def, goType, &scoped)
}

// narrowing is one top-level NewStructuredType call. Nested substitutions reach it
// through the scoped context, so the recursion guard belongs to a single call chain.
type narrowing struct {
	builder  *ModelTypeBuilder
	building map[narrowKey]bool
}

func (n *narrowing) NewStructuredType(def *edm.StructuredType, goType reflect.Type, ctx *typesys.Context) (reflect.Type, error) {
	b := n.builder
	if goType.Kind() != reflect.Struct {
		return nil, errors.NewEmissionError(def.FullName(), fmt.Sprintf("%s is not a struct type", goType))
	}

	key := narrowKey{definition: def.FullName(), goType: goType}
	if t, ok := b.cache.Get(key); ok {
		return t, nil
	}
	if n.building[key] {
		b.diagnostics.Warn("recursive reference to %s, keeping %s", def.FullName(), goType)
		return goType, nil
	}
	n.building[key] = true
	defer delete(n.building, key)

	var members []*descriptor.MemberDescriptor
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}
		prop, declared := typesys.DeclaredProperty(def, field)
		if !declared {
			b.diagnostics.Debug("%s: dropping undeclared field %s", def.FullName(), field.Name)
			continue
		}

		source, err := descriptor.ReflectMember(b.parser, field)
		if err != nil {
			return nil, errors.WrapEmissionError(def.FullName(), err)
		}
		fieldType, err := ctx.SubstituteIfNecessary(field.Type)
		if err != nil {
			return nil, err
		}
		member, err := descriptor.FromMember(renamedMember{SourceMember: source, name: prop.Name}, fieldType)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	t, err := b.emitter.Emit(b.uniqueName(def.Name), members)
	if err != nil {
		return nil, err
	}
	b.cache.Add(key, t)
	b.diagnostics.Verbose("narrowed %s to %d of %d fields", def.FullName(), len(members), goType.NumField())
	return t, nil
}

// NewActionParameters emits the parameter type of op, one member per parameter a
// caller supplies. The binding parameter of a bound operation is skipped.
func (b *ModelTypeBuilder) NewActionParameters(ctx *typesys.Context, op *edm.Operation) (reflect.Type, error) {
	if op == nil {
		return nil, errors.NewArgumentError("op")
	}

	params := op.UnboundParameters()
	members := make([]*descriptor.MemberDescriptor, 0, len(params))
	for _, p := range params {
		member, err := descriptor.FromParameter(ctx, p)
		if err != nil {
			return nil, errors.WrapWithOperation("describe parameter", op.FullName()+"."+p.Name(), err)
		}
		members = append(members, member)
	}

	name := ParametersTypeName(op)
	t, err := b.emitter.Emit(name, members)
	if err != nil {
		return nil, err
	}
	b.diagnostics.Verbose("built %s with %d member(s)", name, len(members))
	return t, nil
}

// ParametersTypeName returns the name of the parameter type emitted for op
func ParametersTypeName(op *edm.Operation) string {
	return utils.ExportedName(op.Name) + ParametersSuffix
}

// uniqueName must be called with narrowMu held
func (b *ModelTypeBuilder) uniqueName(base string) string {
	name := utils.ExportedName(base)
	for i := 2; ; i++ {
		if _, taken := b.emitter.Lookup(name); !taken {
			return name
		}
		name = fmt.Sprintf("%s%d", utils.ExportedName(base), i)
	}
}

// renamedMember presents a reflected field under its model property name
type renamedMember struct {
	descriptor.SourceMember
	name string
}

func (m renamedMember) Name() string {
	return m.name
}
