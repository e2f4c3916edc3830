// Package typeshape binds incoming operation calls to parameter types built at
// runtime from an operation model, validates them against their attributes and
// serves them through the adapters in the adapters package.
package typeshape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sync"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/emit"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/typesys"
	"github.com/toyz/typeshape/internal/utils"
)

// ApplicationAssemblyName names the assembly holding the types given with WithType
const ApplicationAssemblyName = "application"

// Binder decodes operation calls into the parameter types of a model
type Binder struct {
	model     *edm.Model
	builder   *emit.ModelTypeBuilder
	ctx       *typesys.Context
	validator *Validator

	mu    sync.Mutex
	types map[string]reflect.Type
}

// Option configures a Binder
type Option func(*options)

type options struct {
	registry    *annotations.Registry
	diagnostics *utils.DiagnosticSystem
	assemblies  []*typesys.Assembly
	types       []registeredType
}

type registeredType struct {
	fullName string
	goType   reflect.Type
}

// WithRegistry sets the attribute registry used for attr tags
func WithRegistry(registry *annotations.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithDiagnostics sets the diagnostic output of the type builder
func WithDiagnostics(diagnostics *utils.DiagnosticSystem) Option {
	return func(o *options) { o.diagnostics = diagnostics }
}

// WithAssembly makes the Go types of assembly stand for the model types they are
// registered under. Assemblies are searched in the order they are given.
func WithAssembly(assembly *typesys.Assembly) Option {
	return func(o *options) { o.assemblies = append(o.assemblies, assembly) }
}

// WithType registers goType for the structured model type fullName. Fields of goType
// the model does not declare are left out of the parameter types; declared fields
// keep their attr tags.
//
// Example usage:
//
//	binder, err := typeshape.NewBinder(model,
//		typeshape.WithType("Shop.Product", reflect.TypeFor[Product]()))
func WithType(fullName string, goType reflect.Type) Option {
	return func(o *options) { o.types = append(o.types, registeredType{fullName: fullName, goType: goType}) }
}

// NewBinder creates a binder for model
func NewBinder(model *edm.Model, opts ...Option) (*Binder, error) {
	if model == nil {
		return nil, errors.NewArgumentError("model")
	}

	o := &options{registry: annotations.Default(), diagnostics: utils.NewSilentDiagnostics()}
	for _, opt := range opts {
		opt(o)
	}

	parser := annotations.NewParser(o.registry)
	builder, err := emit.NewModelTypeBuilder(emit.WithParser(parser), emit.WithDiagnostics(o.diagnostics))
	if err != nil {
		return nil, err
	}
	assemblies := o.assemblies
	if len(o.types) > 0 {
		app := typesys.NewAssembly(ApplicationAssemblyName)
		for _, rt := range o.types {
			if err := app.Register(rt.fullName, rt.goType); err != nil {
				return nil, errors.NewArgumentErrorf("types", "%v", err)
			}
		}
		assemblies = append([]*typesys.Assembly{app}, assemblies...)
	}
	ctx, err := emit.NewModelContext(model, o.registry, builder, assemblies...)
	if err != nil {
		return nil, err
	}

	return &Binder{
		model:     model,
		builder:   builder,
		ctx:       ctx,
		validator: NewValidator(parser),
		types:     make(map[string]reflect.Type),
	}, nil
}

// LoadBinder loads the YAML model files and creates a binder for them
func LoadBinder(paths ...string) (*Binder, error) {
	model, err := edm.LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	return NewBinder(model)
}

// Operation looks up an operation by full or short name
func (b *Binder) Operation(name string) (*edm.Operation, error) {
	op, ok := b.model.FindOperation(name)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownOperation, name)
	}
	return op, nil
}

// ParametersType returns the parameter type of an operation, building it on
// first use
func (b *Binder) ParametersType(name string) (reflect.Type, error) {
	op, err := b.Operation(name)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.types[op.FullName()]; ok {
		return t, nil
	}
	t, err := b.builder.NewActionParameters(b.ctx, op)
	if err != nil {
		return nil, err
	}
	b.types[op.FullName()] = t
	return t, nil
}

// BindJSON decodes body into a new value of the operation's parameter type and
// validates it. The result is a pointer to the parameter struct. An empty body
// binds no parameters.
func (b *Binder) BindJSON(name string, body []byte) (any, error) {
	target, err := b.newParameters(name)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(target.Interface()); err != nil {
			return nil, ErrBadRequest(fmt.Sprintf("invalid request body: %v", err))
		}
	}

	return b.validated(target)
}

// BindQuery assigns query values to the members of the operation's parameter type
// and validates the result. Unknown keys are ignored.
func (b *Binder) BindQuery(name string, values url.Values) (any, error) {
	target, err := b.newParameters(name)
	if err != nil {
		return nil, err
	}

	elem := target.Elem()
	details := make(map[string]string)
	for i := 0; i < elem.NumField(); i++ {
		member := typesys.MemberName(elem.Type().Field(i))
		raw, ok := values[member]
		if !ok || member == "" {
			continue
		}
		if err := parseInto(elem.Field(i), raw); err != nil {
			details[member] = err.Error()
		}
	}
	if len(details) > 0 {
		return nil, ErrBadRequestWithDetails("invalid query parameters", details)
	}

	return b.validated(target)
}

// Validate checks a bound value against its attributes
func (b *Binder) Validate(value any) error {
	return b.validator.Validate(value)
}

func (b *Binder) newParameters(name string) (reflect.Value, error) {
	t, err := b.ParametersType(name)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.New(t), nil
}

func (b *Binder) validated(target reflect.Value) (any, error) {
	value := target.Interface()
	if err := b.validator.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// As converts a bound parameter value into T, typically the named struct the
// generator wrote for the same operation. Layout compatible types convert
// directly; anything else goes through JSON.
func As[T any](value any) (T, error) {
	var result T
	target := reflect.TypeOf((*T)(nil)).Elem()

	v := reflect.ValueOf(value)
	for v.IsValid() && v.Kind() == reflect.Pointer && target.Kind() != reflect.Pointer {
		if v.IsNil() {
			return result, errors.NewArgumentErrorf("value", "nil %s", v.Type())
		}
		v = v.Elem()
	}
	if v.IsValid() && v.Type().ConvertibleTo(target) {
		return v.Convert(target).Interface().(T), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}
