package emit

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/toyz/typeshape/internal/errors"
)

// Schema produces JSON Schema documents for emitted types. Required members come
// from the jsonschema tags written by the runtime emitter; nested types are inlined.
type Schema struct {
	reflector *jsonschema.Reflector
}

// NewSchema creates a schema generator
func NewSchema() *Schema {
	return &Schema{
		reflector: &jsonschema.Reflector{
			Anonymous:                  true,
			DoNotReference:             true,
			RequiredFromJSONSchemaTags: true,
		},
	}
}

// Generate reflects t into a schema titled name
func (s *Schema) Generate(name string, t reflect.Type) (*jsonschema.Schema, error) {
	if t == nil {
		return nil, errors.NewArgumentError("type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.NewEmissionError(name, "schemas can only be generated for struct types")
	}

	schema := s.reflector.ReflectFromType(t)
	schema.Title = name
	return schema, nil
}

// Marshal generates the schema for t as indented JSON
func (s *Schema) Marshal(name string, t reflect.Type) ([]byte, error) {
	schema, err := s.Generate(name, t)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errors.WrapEmissionError(name, err)
	}
	return data, nil
}
