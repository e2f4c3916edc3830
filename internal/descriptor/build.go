package descriptor

import (
	"reflect"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/typesys"
)

// FromMember describes member under the name of the source and the given type.
// Every attribute attached to the source becomes one annotation, in attachment
// order, with its positional arguments copied and its named arguments split into
// property and field bindings.
func FromMember(member SourceMember, override reflect.Type) (*MemberDescriptor, error) {
	if member == nil {
		return nil, errors.NewArgumentError("member")
	}
	if override == nil {
		return nil, errors.NewArgumentError("override")
	}
	if member.Name() == "" {
		return nil, errors.NewArgumentErrorf("member", "member name must not be empty")
	}

	attached := member.Attributes()
	attrs := make([]AttributeAnnotation, 0, len(attached))
	for _, data := range attached {
		attrs = append(attrs, annotationFrom(data))
	}
	return newMemberDescriptor(member.Name(), override, attrs), nil
}

func annotationFrom(data annotations.AttributeData) AttributeAnnotation {
	a := AttributeAnnotation{
		Constructor: data.Constructor,
		Arguments:   make([]any, len(data.ConstructorArguments)),
	}
	for i, arg := range data.ConstructorArguments {
		a.Arguments[i] = arg.Value
	}
	for _, named := range data.NamedArguments {
		if named.IsField {
			a.Fields = append(a.Fields, FieldBinding{Field: named.Field, Value: named.Value.Value})
		} else {
			a.Properties = append(a.Properties, PropertyBinding{Property: named.Property, Value: named.Value.Value})
		}
	}
	return a
}

// FromParameter describes an operation parameter. A collection parameter gets a
// slice of its substituted element type; any other parameter gets its substituted
// declared type. A non-nullable parameter carries a single Required annotation.
// Resolution and substitution errors are returned as is.
func FromParameter(ctx *typesys.Context, param edm.OperationParameter) (*MemberDescriptor, error) {
	if ctx == nil {
		return nil, errors.NewArgumentError("ctx")
	}
	if param == nil {
		return nil, errors.NewArgumentError("param")
	}
	if param.Name() == "" {
		return nil, errors.NewArgumentErrorf("param", "parameter name must not be empty")
	}
	paramType := param.Type()
	if paramType == nil {
		return nil, errors.NewArgumentError("param.Type")
	}
	if ctx.Services == nil {
		return nil, errors.NewArgumentError("ctx.Services")
	}
	if ctx.Assemblies == nil {
		return nil, errors.NewArgumentError("ctx.Assemblies")
	}
	if ctx.Builder == nil {
		return nil, errors.NewArgumentError("ctx.Builder")
	}

	var resolved reflect.Type
	if paramType.IsCollection() {
		elem, err := resolveAndSubstitute(ctx, paramType.AsCollection().ElementType().Definition())
		if err != nil {
			return nil, err
		}
		resolved = reflect.SliceOf(elem)
	} else {
		t, err := resolveAndSubstitute(ctx, paramType.Definition())
		if err != nil {
			return nil, err
		}
		resolved = t
	}

	var attrs []AttributeAnnotation
	if !paramType.IsNullable() {
		ctor, err := requiredConstructor(ctx)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, AttributeAnnotation{Constructor: ctor})
	}
	return newMemberDescriptor(param.Name(), resolved, attrs), nil
}

func resolveAndSubstitute(ctx *typesys.Context, def edm.TypeDefinition) (reflect.Type, error) {
	t, err := ctx.ResolveElementType(def)
	if err != nil {
		return nil, err
	}
	return ctx.SubstituteIfNecessary(t)
}

// requiredConstructor finds the zero-argument Required constructor in the registry
// supplied through ctx.Services, falling back to the default registry
func requiredConstructor(ctx *typesys.Context) (*annotations.Constructor, error) {
	registry, ok := typesys.ServiceOf[*annotations.Registry](ctx.Services)
	if !ok {
		registry = annotations.Default()
	}
	at, ok := registry.Lookup(annotations.RequiredName)
	if !ok {
		return nil, errors.NewAttributeError(annotations.RequiredName, "", "attribute type is not registered")
	}
	ctor, err := at.ConstructorWithArity(0)
	if err != nil {
		return nil, errors.NewAttributeError(annotations.RequiredName, "", err.Error())
	}
	return ctor, nil
}
