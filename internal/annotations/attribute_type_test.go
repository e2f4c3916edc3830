package annotations

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/typeshape/internal/errors"
)

type labelAttribute struct {
	Text     string
	Priority int

	color string
}

func newLabel(text string) *labelAttribute { return &labelAttribute{Text: text} }

func newLabelWithPriority(text string, priority int) *labelAttribute {
	return &labelAttribute{Text: text, Priority: priority}
}

func (l *labelAttribute) SetColor(color string) { l.color = color }

// not a property: returns a value
func (l *labelAttribute) SetNothing(string) bool { return false }

type otherAttribute struct{}

func newOther() *otherAttribute { return &otherAttribute{} }

func TestRegistry_Builtins(t *testing.T) {
	reg := NewRegistryWithBuiltins()

	assert.Equal(t, []string{RequiredName, RangeName, StringLengthName, DescriptionName, KeyName}, reg.Names())
	assert.Same(t, Default(), Default())

	required, ok := reg.Lookup(RequiredName)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Required{}), required.GoType())

	ctor, err := required.ConstructorWithArity(0)
	require.NoError(t, err)
	assert.Equal(t, 0, ctor.Arity())
	assert.Same(t, required, ctor.AttributeType())

	_, ok = required.Property("ErrorMessage")
	assert.True(t, ok)
	field, ok := required.Field("AllowEmptyStrings")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(false), field.Type())
	_, ok = required.Field("errorMessage")
	assert.False(t, ok, "unexported fields are not attribute fields")
}

func TestRegistry_RegisterDiscoversMembers(t *testing.T) {
	reg := NewRegistry()
	label, err := reg.Register("Label", newLabel, newLabelWithPriority)
	require.NoError(t, err)

	assert.Len(t, label.Constructors(), 2)
	assert.Equal(t, "Label(string, int)", label.Constructors()[1].String())

	color, ok := label.Property("Color")
	require.True(t, ok)
	assert.Equal(t, "Color", color.Name())
	assert.Same(t, label, color.AttributeType())

	_, ok = label.Property("Nothing")
	assert.False(t, ok)

	_, ok = label.Field("Text")
	assert.True(t, ok)
	_, ok = label.Field("Priority")
	assert.True(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	tests := []struct {
		name  string
		attr  string
		ctors []any
	}{
		{"empty name", "", []any{newOther}},
		{"no constructors", "X", nil},
		{"not a function", "X", []any{42}},
		{"returns non pointer", "X", []any{func() otherAttribute { return otherAttribute{} }}},
		{"returns pointer to non struct", "X", []any{func() *int { return nil }}},
		{"variadic", "X", []any{func(...int) *otherAttribute { return nil }}},
		{"mixed types", "X", []any{newOther, newLabel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry().Register(tt.attr, tt.ctors...)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.AttributeErrorCode))
		})
	}

	reg := NewRegistry()
	reg.MustRegister("Other", newOther)
	_, err := reg.Register("Other", newOther)
	assert.True(t, errors.HasCode(err, errors.AttributeErrorCode))
	assert.Panics(t, func() { reg.MustRegister("Other", newOther) })
}

func TestAttributeType_ConstructorWithArity(t *testing.T) {
	reg := NewRegistry()
	label := reg.MustRegister("Label", newLabel, newLabelWithPriority, func(s string) *labelAttribute { return nil })

	_, err := label.ConstructorWithArity(1)
	assert.Error(t, err, "two single-argument constructors are ambiguous")

	ctor, err := label.ConstructorWithArity(2)
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{reflect.TypeOf(""), reflect.TypeOf(0)}, ctor.Params())

	_, err = label.ConstructorWithArity(3)
	assert.Error(t, err)
}

func TestConstruct(t *testing.T) {
	reg := NewRegistry()
	label := reg.MustRegister("Label", newLabelWithPriority)
	color, _ := label.Property("Color")
	priority, _ := label.Field("Priority")

	value, err := Construct(label.Constructors()[0],
		[]any{"hello", int64(3)},
		[]PropertyValue{{Property: color, Value: "red"}},
		[]FieldValue{{Field: priority, Value: 9}})
	require.NoError(t, err)

	built := value.(*labelAttribute)
	assert.Equal(t, "hello", built.Text)
	assert.Equal(t, 9, built.Priority, "fields are assigned after construction")
	assert.Equal(t, "red", built.color)

	_, err = Construct(label.Constructors()[0], []any{"only one"}, nil, nil)
	assert.Error(t, err)

	_, err = Construct(label.Constructors()[0], []any{42, 1}, nil, nil)
	assert.Error(t, err)

	_, err = Construct(nil, nil, nil, nil)
	assert.Error(t, err)

	other := NewRegistryWithBuiltins()
	required, _ := other.Lookup(RequiredName)
	foreign, _ := required.Property("ErrorMessage")
	_, err = Construct(label.Constructors()[0], []any{"x", 1}, []PropertyValue{{Property: foreign, Value: "m"}}, nil)
	assert.Error(t, err)

	assert.NotPanics(t, func() {
		_, err = Construct(label.Constructors()[0], []any{"x", 1}, []PropertyValue{{Value: "red"}}, nil)
	})
	assert.ErrorContains(t, err, "property 0 of attribute Label is nil")

	assert.NotPanics(t, func() {
		_, err = Construct(label.Constructors()[0], []any{"x", 1}, nil, []FieldValue{{Value: 9}})
	})
	assert.ErrorContains(t, err, "field 0 of attribute Label is nil")
}

func TestAttributeData_StringWithoutConstructor(t *testing.T) {
	assert.Equal(t, "<invalid>", AttributeData{}.String())
}
