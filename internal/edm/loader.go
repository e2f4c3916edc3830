package edm

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/toyz/typeshape/internal/errors"
)

// document is the YAML form of one schema namespace
type document struct {
	Namespace  string              `yaml:"namespace"`
	Enums      []enumDocument      `yaml:"enums"`
	Types      []typeDocument      `yaml:"types"`
	Operations []operationDocument `yaml:"operations"`
}

type enumDocument struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

type typeDocument struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Keys       []string        `yaml:"keys"`
	Properties []typedDocument `yaml:"properties"`
}

type typedDocument struct {
	Name            string `yaml:"name"`
	Type            string `yaml:"type"`
	Nullable        *bool  `yaml:"nullable"`
	ElementNullable *bool  `yaml:"elementNullable"`
}

type operationDocument struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Bound      bool            `yaml:"bound"`
	Parameters []typedDocument `yaml:"parameters"`
	Returns    *typedDocument  `yaml:"returns"`
}

// LoadFiles reads and merges YAML schema documents into a new model
func LoadFiles(paths ...string) (*Model, error) {
	var docs []document
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFileSystemError("read", path, err)
		}
		parsed, err := decodeDocuments(bytes.NewReader(content))
		if err != nil {
			return nil, errors.WrapModelError(path, err)
		}
		docs = append(docs, parsed...)
	}
	return build(docs)
}

// Load reads YAML schema documents from r into a new model
func Load(r io.Reader) (*Model, error) {
	docs, err := decodeDocuments(r)
	if err != nil {
		return nil, errors.WrapModelError("<input>", err)
	}
	return build(docs)
}

func decodeDocuments(r io.Reader) ([]document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var docs []document
	for {
		var doc document
		err := decoder.Decode(&doc)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

// build declares every type before resolving any reference so documents may refer to each other
func build(docs []document) (*Model, error) {
	m := NewModel()
	pending := make(map[*StructuredType]typeDocument)

	for _, doc := range docs {
		if doc.Namespace == "" {
			return nil, errors.NewModelError("namespace", "document has no namespace")
		}
		for _, e := range doc.Enums {
			if err := m.AddType(&EnumType{Namespace: doc.Namespace, Name: e.Name, Members: e.Members}); err != nil {
				return nil, err
			}
		}
		for _, t := range doc.Types {
			var st *StructuredType
			switch t.Kind {
			case "", "complex":
				st = NewComplexType(doc.Namespace, t.Name)
			case "entity":
				st = NewEntityType(doc.Namespace, t.Name, t.Keys)
			default:
				return nil, errors.NewModelError(doc.Namespace+"."+t.Name, "unknown type kind '"+t.Kind+"'")
			}
			if err := m.AddType(st); err != nil {
				return nil, err
			}
			pending[st] = t
		}
	}

	for st, t := range pending {
		for _, p := range t.Properties {
			if p.Name == "" {
				return nil, errors.NewModelError(st.FullName(), "property has no name")
			}
			ref, err := m.parseTyped(p)
			if err != nil {
				return nil, err
			}
			st.Properties = append(st.Properties, Property{Name: p.Name, Type: ref})
		}
	}

	for _, doc := range docs {
		for _, o := range doc.Operations {
			op := &Operation{Namespace: doc.Namespace, Name: o.Name, IsBound: o.Bound}
			switch o.Kind {
			case "", "action":
				op.Kind = ActionOperation
			case "function":
				op.Kind = FunctionOperation
			default:
				return nil, errors.NewModelError(op.FullName(), "unknown operation kind '"+o.Kind+"'")
			}

			for _, p := range o.Parameters {
				if p.Name == "" {
					return nil, errors.NewModelError(op.FullName(), "parameter has no name")
				}
				ref, err := m.parseTyped(p)
				if err != nil {
					return nil, err
				}
				op.Parameters = append(op.Parameters, NewParameter(p.Name, ref))
			}
			if o.Returns != nil {
				ref, err := m.parseTyped(*o.Returns)
				if err != nil {
					return nil, err
				}
				op.ReturnType = ref
			}
			if err := m.AddOperation(op); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *Model) parseTyped(t typedDocument) (TypeReference, error) {
	return m.ParseTypeReference(t.Type, boolOr(t.Nullable, true), boolOr(t.ElementNullable, true))
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
