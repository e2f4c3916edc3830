package emit

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/dave/jennifer/jen"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/errors"
)

// GeneratedFileName is the file written by Source.Write
const GeneratedFileName = "autogen_types.go"

// GeneratedFile is rendered Go source ready to be written
type GeneratedFile struct {
	PackageName string
	FilePath    string
	Content     []byte
}

// Source renders declarations as named Go struct types. A member whose type is
// itself a declared type refers to it by name.
type Source struct {
	packageName  string
	declarations []Declaration
	names        map[reflect.Type]string
}

// NewSource creates a source emitter for the given package
func NewSource(packageName string) *Source {
	return &Source{
		packageName: packageName,
		names:       make(map[reflect.Type]string),
	}
}

// Declare adds declarations in order
func (s *Source) Declare(declarations ...Declaration) {
	for _, d := range declarations {
		s.declarations = append(s.declarations, d)
		if _, exists := s.names[d.Type]; !exists && d.Type != nil {
			s.names[d.Type] = d.Name
		}
	}
}

// File builds the jennifer file holding every declaration
func (s *Source) File() (*jen.File, error) {
	f := jen.NewFile(s.packageName)
	f.HeaderComment("Code generated by typeshape. DO NOT EDIT.")

	for _, d := range s.declarations {
		var fieldErr error
		name := fieldName(d.Name)
		f.Commentf("%s is synthesized from %d member(s)", name, len(d.Members))
		f.Type().Id(name).StructFunc(func(g *jen.Group) {
			for _, m := range d.Members {
				code, err := s.typeCode(m.Type(), d.Type)
				if err != nil {
					fieldErr = errors.WrapEmissionError(d.Name, err)
					return
				}
				tags, err := memberTags(m)
				if err != nil {
					fieldErr = errors.WrapEmissionError(d.Name, err)
					return
				}
				g.Id(fieldName(m.Name())).Add(code).Tag(tags)
			}
		})
		if fieldErr != nil {
			return nil, fieldErr
		}
	}
	return f, nil
}

// Render writes the generated source to w
func (s *Source) Render(w io.Writer) error {
	f, err := s.File()
	if err != nil {
		return err
	}
	if err := f.Render(w); err != nil {
		return errors.Wrap(errors.EmissionErrorCode, "failed to render source", err)
	}
	return nil
}

// Generate renders the source for a file placed in dir
func (s *Source) Generate(dir string) (*GeneratedFile, error) {
	var buf bytes.Buffer
	if err := s.Render(&buf); err != nil {
		return nil, err
	}
	return &GeneratedFile{
		PackageName: s.packageName,
		FilePath:    filepath.Join(dir, GeneratedFileName),
		Content:     buf.Bytes(),
	}, nil
}

// Write generates the source and writes it into dir, creating dir if needed
func (s *Source) Write(dir string) (*GeneratedFile, error) {
	file, err := s.Generate(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WrapFileSystemError("create directory", dir, err)
	}
	if err := os.WriteFile(file.FilePath, file.Content, 0644); err != nil {
		return nil, errors.WrapFileSystemError("write", file.FilePath, err)
	}
	return file, nil
}

// typeCode renders t; self is the type being declared, which is never referenced by name
func (s *Source) typeCode(t reflect.Type, self reflect.Type) (jen.Code, error) {
	if name, ok := s.names[t]; ok && t != self {
		return jen.Id(fieldName(name)), nil
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return jen.Id(t.Name()), nil
		}
		return jen.Qual(t.PkgPath(), t.Name()), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := s.typeCode(t.Elem(), self)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case reflect.Slice:
		elem, err := s.typeCode(t.Elem(), self)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case reflect.Array:
		elem, err := s.typeCode(t.Elem(), self)
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(t.Len())).Add(elem), nil
	case reflect.Map:
		key, err := s.typeCode(t.Key(), self)
		if err != nil {
			return nil, err
		}
		elem, err := s.typeCode(t.Elem(), self)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return jen.Interface(), nil
		}
	case reflect.Struct:
		return s.inlineStruct(t, self)
	}
	return nil, fmt.Errorf("type %s cannot be rendered as source", t)
}

func (s *Source) inlineStruct(t reflect.Type, self reflect.Type) (jen.Code, error) {
	fields := make([]jen.Code, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		code, err := s.typeCode(f.Type, self)
		if err != nil {
			return nil, err
		}
		field := jen.Id(f.Name).Add(code)
		if tags := knownTags(f.Tag); len(tags) > 0 {
			field.Tag(tags)
		}
		fields = append(fields, field)
	}
	return jen.Struct(fields...), nil
}

func knownTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, key := range []string{JSONTag, SchemaTag, SchemaDescriptionTag, annotations.TagName} {
		if value, ok := tag.Lookup(key); ok {
			tags[key] = value
		}
	}
	return tags
}
