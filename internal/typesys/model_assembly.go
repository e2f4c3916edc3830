package typesys

import (
	"reflect"
	"strings"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/utils"
)

// ModelAssemblyName is the name of the assembly returned by ModelAssembly
const ModelAssemblyName = "model"

// ModelAssembly synthesizes a Go struct for every structured type of the model and
// an underlying string type for every enum. Types referenced by the model are looked
// up in base first. A structured type that (transitively) refers to itself gets an
// interface-typed field at the point of recursion.
func ModelAssembly(model *edm.Model, base AssemblySet) (*Assembly, error) {
	if model == nil {
		return nil, errors.NewArgumentError("model")
	}

	b := &modelAssemblyBuilder{
		base:     base,
		assembly: NewAssembly(ModelAssemblyName),
		building: make(map[string]bool),
	}
	for _, et := range model.EnumTypes() {
		if _, err := b.enumType(et); err != nil {
			return nil, err
		}
	}
	for _, st := range model.StructuredTypes() {
		if _, err := b.structType(st); err != nil {
			return nil, err
		}
	}
	return b.assembly, nil
}

type modelAssemblyBuilder struct {
	base     AssemblySet
	assembly *Assembly
	building map[string]bool
}

func (b *modelAssemblyBuilder) structType(st *edm.StructuredType) (reflect.Type, error) {
	if t, ok := b.assembly.Lookup(st.FullName()); ok {
		return t, nil
	}
	b.building[st.FullName()] = true
	defer delete(b.building, st.FullName())

	fields := make([]reflect.StructField, 0, len(st.Properties))
	for i, p := range st.Properties {
		ft, err := b.referenceType(p.Type)
		if err != nil {
			return nil, errors.WrapModelError(st.FullName()+"."+p.Name, err)
		}
		fields = append(fields, reflect.StructField{
			Name: utils.ExportedName(p.Name),
			Type: ft,
			Tag:  propertyTag(st, i),
		})
	}

	t := reflect.StructOf(fields)
	if err := b.assembly.Register(st.FullName(), t); err != nil {
		return nil, errors.Wrap(errors.ModelErrorCode, "failed to register model type", err)
	}
	return t, nil
}

func (b *modelAssemblyBuilder) enumType(et *edm.EnumType) (reflect.Type, error) {
	if t, ok := b.assembly.Lookup(et.FullName()); ok {
		return t, nil
	}
	t := reflect.TypeFor[string]()
	if err := b.assembly.Register(et.FullName(), t); err != nil {
		return nil, errors.Wrap(errors.ModelErrorCode, "failed to register model type", err)
	}
	return t, nil
}

func (b *modelAssemblyBuilder) referenceType(ref edm.TypeReference) (reflect.Type, error) {
	if ref.IsCollection() {
		elem, err := b.referenceType(ref.AsCollection().ElementType())
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	}

	def := ref.Definition()
	if t, ok := b.base.Lookup(def.FullName()); ok {
		return t, nil
	}

	switch d := def.(type) {
	case *edm.EnumType:
		return b.enumType(d)
	case *edm.StructuredType:
		if b.building[d.FullName()] {
			return reflect.TypeFor[any](), nil
		}
		t, err := b.structType(d)
		if err != nil {
			return nil, err
		}
		if ref.IsNullable() {
			return reflect.PointerTo(t), nil
		}
		return t, nil
	default:
		return nil, errors.NewTypeResolutionError(def.FullName(), b.base.Names())
	}
}

// propertyTag renders the json and attr tags of a synthesized field so the field
// reflects the declared nullability and key membership
func propertyTag(st *edm.StructuredType, index int) reflect.StructTag {
	p := st.Properties[index]

	jsonTag := p.Name
	if p.Type.IsNullable() {
		jsonTag += ",omitempty"
	}

	var attrs []string
	for order, key := range st.Keys {
		if key == p.Name {
			attrs = append(attrs, annotations.FormatAttribute(annotations.KeyName, nil,
				[]annotations.NamedValue{{Name: "Order", Value: order}}))
		}
	}
	if !p.Type.IsNullable() {
		attrs = append(attrs, annotations.RequiredName)
	}

	tag := `json:"` + jsonTag + `"`
	if len(attrs) > 0 {
		tag += ` ` + annotations.TagName + `:"` + strings.Join(attrs, "; ") + `"`
	}
	return reflect.StructTag(tag)
}
