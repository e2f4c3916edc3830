package typesys

import (
	"reflect"
	"strings"

	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
)

// Substituter decides whether a resolved type must be replaced before it is used as
// a member type, and produces the replacement
type Substituter interface {
	SubstituteIfNecessary(t reflect.Type, ctx *Context) (reflect.Type, error)
}

// SubstituterFunc adapts a function to the Substituter interface
type SubstituterFunc func(t reflect.Type, ctx *Context) (reflect.Type, error)

// SubstituteIfNecessary calls f
func (f SubstituterFunc) SubstituteIfNecessary(t reflect.Type, ctx *Context) (reflect.Type, error) {
	return f(t, ctx)
}

// Identity never substitutes
var Identity Substituter = SubstituterFunc(func(t reflect.Type, _ *Context) (reflect.Type, error) {
	return t, nil
})

// Mapping substitutes types by table lookup
type Mapping map[reflect.Type]reflect.Type

// SubstituteIfNecessary returns the mapped type, or t when it has no entry
func (m Mapping) SubstituteIfNecessary(t reflect.Type, _ *Context) (reflect.Type, error) {
	if mapped, ok := m[t]; ok {
		return mapped, nil
	}
	return t, nil
}

// ModelSubstituter replaces a struct registered for a structured model type with a
// narrowed struct built by ctx.Builder whenever the Go struct has fields the model
// does not declare, directly or in a nested member type. Pointers, slices, arrays and
// map values are walked. The model is taken from ctx.Services as *edm.Model.
type ModelSubstituter struct{}

// SubstituteIfNecessary implements Substituter
func (ModelSubstituter) SubstituteIfNecessary(t reflect.Type, ctx *Context) (reflect.Type, error) {
	if t == nil || ctx == nil {
		return t, nil
	}
	model, ok := ServiceOf[*edm.Model](ctx.Services)
	if !ok {
		return t, nil
	}
	s := &modelSubstitution{ctx: ctx, model: model, visiting: make(map[reflect.Type]bool)}
	if !s.needsSubstitution(t) {
		return t, nil
	}
	return s.substitute(t)
}

type modelSubstitution struct {
	ctx      *Context
	model    *edm.Model
	visiting map[reflect.Type]bool
}

func (s *modelSubstitution) substitute(t reflect.Type) (reflect.Type, error) {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
		elem, err := s.substitute(t.Elem())
		if err != nil || elem == t.Elem() {
			return t, err
		}
		switch t.Kind() {
		case reflect.Pointer:
			return reflect.PointerTo(elem), nil
		case reflect.Slice:
			return reflect.SliceOf(elem), nil
		case reflect.Array:
			return reflect.ArrayOf(t.Len(), elem), nil
		default:
			return reflect.MapOf(t.Key(), elem), nil
		}
	case reflect.Struct:
		def := s.definitionOf(t)
		if def == nil || !s.needsSubstitution(t) {
			return t, nil
		}
		if s.ctx.Builder == nil {
			return nil, errors.NewArgumentError("ctx.Builder")
		}
		return s.ctx.Builder.NewStructuredType(def, t, s.ctx)
	default:
		return t, nil
	}
}

func (s *modelSubstitution) definitionOf(t reflect.Type) *edm.StructuredType {
	name, ok := s.ctx.Assemblies.NameOf(t)
	if !ok {
		return nil
	}
	def, ok := s.model.FindType(name)
	if !ok {
		return nil
	}
	st, _ := def.(*edm.StructuredType)
	return st
}

func (s *modelSubstitution) needsSubstitution(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
		return s.needsSubstitution(t.Elem())
	case reflect.Struct:
	default:
		return false
	}

	def := s.definitionOf(t)
	if def == nil || s.visiting[t] {
		return false
	}
	s.visiting[t] = true
	defer delete(s.visiting, t)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if _, declared := DeclaredProperty(def, field); !declared {
			return true
		}
		if s.needsSubstitution(field.Type) {
			return true
		}
	}
	return false
}

// MemberName returns the model-facing name of a struct field: its json tag name
// when present, otherwise the field name
func MemberName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// DeclaredProperty finds the property of def that a struct field represents;
// names compare case-insensitively
func DeclaredProperty(def *edm.StructuredType, field reflect.StructField) (edm.Property, bool) {
	name := MemberName(field)
	if name == "" {
		return edm.Property{}, false
	}
	for _, p := range def.Properties {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return edm.Property{}, false
}
