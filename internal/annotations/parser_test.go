package annotations

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/typeshape/internal/errors"
)

type tagsAttribute struct {
	Values []string
	Weight any
}

func newTags(values []string) *tagsAttribute { return &tagsAttribute{Values: values} }

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	reg := NewRegistryWithBuiltins()
	reg.MustRegister("Tags", newTags)
	return NewParser(reg)
}

func TestParser_Parse(t *testing.T) {
	p := newTestParser(t)

	data, err := p.Parse(`Required; Range(1, 10.5, ErrorMessage="out of range"); StringLength(64, MinimumLength=2)`)
	require.NoError(t, err)
	require.Len(t, data, 3)

	assert.Equal(t, RequiredName, data[0].AttributeType().Name())
	assert.Empty(t, data[0].ConstructorArguments)
	assert.Empty(t, data[0].NamedArguments)

	rng := data[1]
	assert.Equal(t, RangeName, rng.AttributeType().Name())
	require.Len(t, rng.ConstructorArguments, 2)
	assert.Equal(t, float64(1), rng.ConstructorArguments[0].Value)
	assert.Equal(t, 10.5, rng.ConstructorArguments[1].Value)
	assert.Equal(t, reflect.TypeOf(float64(0)), rng.ConstructorArguments[0].Type)
	require.Len(t, rng.NamedArguments, 1)
	assert.Equal(t, "ErrorMessage", rng.NamedArguments[0].Name)
	assert.False(t, rng.NamedArguments[0].IsField)
	assert.NotNil(t, rng.NamedArguments[0].Property)
	assert.Nil(t, rng.NamedArguments[0].Field)
	assert.Equal(t, "out of range", rng.NamedArguments[0].Value.Value)

	length := data[2]
	assert.Equal(t, 64, length.ConstructorArguments[0].Value)
	assert.Equal(t, 2, length.NamedArguments[0].Value.Value)
}

func TestParser_NamedFieldArguments(t *testing.T) {
	p := newTestParser(t)

	data, err := p.Parse(`Required(ErrorMessage="missing", AllowEmptyStrings=true)`)
	require.NoError(t, err)
	require.Len(t, data, 1)

	named := data[0].NamedArguments
	require.Len(t, named, 2)
	assert.False(t, named[0].IsField)
	assert.Equal(t, "ErrorMessage", named[0].Property.Name())
	assert.True(t, named[1].IsField)
	assert.Equal(t, "AllowEmptyStrings", named[1].Field.Name())
	assert.Equal(t, true, named[1].Value.Value)
}

func TestParser_Lists(t *testing.T) {
	p := newTestParser(t)

	data, err := p.Parse(`Tags(["a", "b"], Weight=[1, 2.5, "x", nil])`)
	require.NoError(t, err)
	require.Len(t, data, 1)

	assert.Equal(t, []string{"a", "b"}, data[0].ConstructorArguments[0].Value)
	assert.True(t, data[0].NamedArguments[0].IsField)
	assert.Equal(t, []any{1, 2.5, "x", nil}, data[0].NamedArguments[0].Value.Value)

	data, err = p.Parse(`Tags([])`)
	require.NoError(t, err)
	assert.Equal(t, []string{}, data[0].ConstructorArguments[0].Value)
}

func TestParser_Errors(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name string
		tag  string
		code errors.ErrorCode
	}{
		{"unterminated call", `Range(1,`, errors.SyntaxErrorCode},
		{"garbage", `Range(1 2)`, errors.SyntaxErrorCode},
		{"positional after named", `Range(ErrorMessage="x", 1, 2)`, errors.SyntaxErrorCode},
		{"unknown attribute", `Unknown`, errors.AttributeErrorCode},
		{"wrong arity", `Range(1)`, errors.AttributeErrorCode},
		{"wrong argument type", `StringLength("long")`, errors.AttributeErrorCode},
		{"integer overflow", `StringLength(99999999999999999999)`, errors.AttributeErrorCode},
		{"unknown member", `Required(Missing=1)`, errors.AttributeErrorCode},
		{"wrong named type", `Required(AllowEmptyStrings="yes")`, errors.AttributeErrorCode},
		{"nil for value type", `StringLength(nil)`, errors.AttributeErrorCode},
		{"list for scalar", `StringLength([1])`, errors.AttributeErrorCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.tag)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err), "error: %v", err)
		})
	}
}

func TestParser_ParseField(t *testing.T) {
	type order struct {
		ID    int    `attr:"Key; Required"`
		Note  string `json:"note"`
		Email string `attr:"StringLength(128"`
	}

	p := newTestParser(t)
	rt := reflect.TypeOf(order{})

	data, err := p.ParseField(rt.Field(0))
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, KeyName, data[0].AttributeType().Name())
	assert.Equal(t, RequiredName, data[1].AttributeType().Name())

	data, err = p.ParseField(rt.Field(1))
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = p.ParseField(rt.Field(2))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.SyntaxErrorCode))
	assert.Contains(t, err.Error(), "field 'Email'")
}

func TestAttributeData_StringRoundTrip(t *testing.T) {
	p := newTestParser(t)

	inputs := []string{
		`Required`,
		`Range(-1, 2.25, ErrorMessage="say \"hi\"")`,
		`StringLength(64, MinimumLength=2)`,
		`Required(AllowEmptyStrings=true)`,
		`Tags(["a", "b"], Weight=nil)`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			data, err := p.Parse(input)
			require.NoError(t, err)
			require.Len(t, data, 1)

			assert.Equal(t, input, data[0].String())

			again, err := p.Parse(data[0].String())
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestInstantiate(t *testing.T) {
	p := newTestParser(t)

	data, err := p.Parse(`Required(ErrorMessage="missing", AllowEmptyStrings=true); StringLength(10, MinimumLength=3); Range(0, 5)`)
	require.NoError(t, err)

	value, err := Instantiate(data[0])
	require.NoError(t, err)
	required := value.(*Required)
	assert.True(t, required.AllowEmptyStrings)
	assert.Equal(t, "missing", required.ErrorMessage())
	assert.Equal(t, []string{"required"}, required.SchemaTags())

	value, err = Instantiate(data[1])
	require.NoError(t, err)
	length := value.(*StringLength)
	assert.Equal(t, 10, length.MaximumLength)
	assert.Equal(t, 3, length.MinimumLength())
	assert.Equal(t, []string{"maxLength=10", "minLength=3"}, length.SchemaTags())

	value, err = Instantiate(data[2])
	require.NoError(t, err)
	assert.Equal(t, []string{"minimum=0", "maximum=5"}, value.(SchemaTagger).SchemaTags())
}
