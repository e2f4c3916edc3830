package annotations

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/typeshape/internal/errors"
)

// tagList is the root of an attribute tag: `Required; Range(1, 10, ErrorMessage="bad")`
type tagList struct {
	Attributes []*tagAttribute `parser:"( @@ ( ';' @@ )* ';'? )?"`
}

type tagAttribute struct {
	Pos  lexer.Position
	Name string         `parser:"@Ident"`
	Args []*tagArgument `parser:"( '(' ( @@ ( ',' @@ )* )? ')' )?"`
}

type tagArgument struct {
	Pos   lexer.Position
	Name  *string   `parser:"( @Ident '=' )?"`
	Value *tagValue `parser:"@@"`
}

type tagValue struct {
	Pos    lexer.Position
	String *string       `parser:"  @String"`
	Number *string       `parser:"| @Number"`
	Bool   *string       `parser:"| @( 'true' | 'false' )"`
	Nil    bool          `parser:"| @'nil'"`
	List   *tagListValue `parser:"| @@"`
}

type tagListValue struct {
	Open  string      `parser:"@'['"`
	Items []*tagValue `parser:"( @@ ( ',' @@ )* )? ']'"`
}

var tagLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `[-+]?[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[()\[\],;=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Parser turns attribute tag text into AttributeData bound against a registry
type Parser struct {
	parser   *participle.Parser[tagList]
	registry *Registry
}

// NewParser creates a parser resolving attribute names through registry
func NewParser(registry *Registry) *Parser {
	return &Parser{
		parser: participle.MustBuild[tagList](
			participle.Lexer(tagLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
			participle.UseLookahead(2),
		),
		registry: registry,
	}
}

// Registry returns the registry used for binding
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Parse parses a tag value into attribute instances, in declaration order
func (p *Parser) Parse(tag string) ([]AttributeData, error) {
	root, err := p.parser.ParseString("", tag)
	if err != nil {
		position := 0
		var perr participle.Error
		if stderrors.As(err, &perr) {
			position = perr.Position().Offset
		}
		return nil, errors.NewSyntaxError(fmt.Sprintf("invalid attribute declaration: %v", err), tag, position)
	}

	result := make([]AttributeData, 0, len(root.Attributes))
	for _, attr := range root.Attributes {
		data, err := p.bind(attr, tag)
		if err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	return result, nil
}

// ParseField parses the attribute tag of a struct field
func (p *Parser) ParseField(sf reflect.StructField) ([]AttributeData, error) {
	tag, ok := sf.Tag.Lookup(TagName)
	if !ok || strings.TrimSpace(tag) == "" {
		return nil, nil
	}

	data, err := p.Parse(tag)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeOf(err), err, "field '%s'", sf.Name).WithContext("field", sf.Name)
	}
	return data, nil
}

func (p *Parser) bind(attr *tagAttribute, input string) (AttributeData, error) {
	at, ok := p.registry.Lookup(attr.Name)
	if !ok {
		return AttributeData{}, errors.NewAttributeError(attr.Name, "", "attribute is not registered").
			WithSuggestion(fmt.Sprintf("Known attributes: %s", strings.Join(p.registry.Names(), ", ")))
	}

	var positional []*tagValue
	var named []*tagArgument
	for _, arg := range attr.Args {
		if arg.Name == nil {
			if len(named) > 0 {
				return AttributeData{}, errors.NewSyntaxError(
					fmt.Sprintf("attribute '%s': positional argument after named argument", attr.Name),
					input, arg.Pos.Offset)
			}
			positional = append(positional, arg.Value)
			continue
		}
		named = append(named, arg)
	}

	ctor, args, err := selectConstructor(at, positional)
	if err != nil {
		return AttributeData{}, err
	}

	data := AttributeData{Constructor: ctor, ConstructorArguments: args}
	for _, arg := range named {
		name := *arg.Name
		if prop, ok := at.Property(name); ok {
			value, err := convertValue(arg.Value, prop.Type())
			if err != nil {
				return AttributeData{}, errors.NewAttributeError(at.Name(), name, err.Error())
			}
			data.NamedArguments = append(data.NamedArguments, NamedArgument{
				Name:     name,
				Property: prop,
				Value:    TypedArgument{Type: prop.Type(), Value: value},
			})
			continue
		}
		if field, ok := at.Field(name); ok {
			value, err := convertValue(arg.Value, field.Type())
			if err != nil {
				return AttributeData{}, errors.NewAttributeError(at.Name(), name, err.Error())
			}
			data.NamedArguments = append(data.NamedArguments, NamedArgument{
				Name:    name,
				IsField: true,
				Field:   field,
				Value:   TypedArgument{Type: field.Type(), Value: value},
			})
			continue
		}
		return AttributeData{}, errors.NewAttributeError(at.Name(), name, "no property or field with this name")
	}

	return data, nil
}

// selectConstructor picks the first constructor whose arity and parameter types accept the arguments
func selectConstructor(at *AttributeType, positional []*tagValue) (*Constructor, []TypedArgument, error) {
	var lastErr error
	for _, ctor := range at.constructors {
		if ctor.Arity() != len(positional) {
			continue
		}

		args := make([]TypedArgument, len(positional))
		ok := true
		for i, value := range positional {
			converted, err := convertValue(value, ctor.params[i])
			if err != nil {
				lastErr = errors.NewAttributeError(at.Name(), fmt.Sprintf("argument %d", i), err.Error())
				ok = false
				break
			}
			args[i] = TypedArgument{Type: ctor.params[i], Value: converted}
		}
		if ok {
			return ctor, args, nil
		}
	}

	if lastErr != nil {
		return nil, nil, lastErr
	}
	return nil, nil, errors.NewAttributeError(at.Name(), "", fmt.Sprintf("no constructor takes %d arguments", len(positional)))
}

// convertValue converts a literal to the Go type of its target parameter, property or field
func convertValue(value *tagValue, t reflect.Type) (any, error) {
	switch {
	case value.Nil:
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			return nil, nil
		}
		return nil, fmt.Errorf("nil is not assignable to %s", t)

	case value.String != nil:
		switch t.Kind() {
		case reflect.String:
			return reflect.ValueOf(*value.String).Convert(t).Interface(), nil
		case reflect.Interface:
			if reflect.TypeOf("").Implements(t) {
				return *value.String, nil
			}
		}
		return nil, fmt.Errorf("string is not assignable to %s", t)

	case value.Bool != nil:
		b := *value.Bool == "true"
		switch t.Kind() {
		case reflect.Bool:
			return reflect.ValueOf(b).Convert(t).Interface(), nil
		case reflect.Interface:
			if reflect.TypeOf(b).Implements(t) {
				return b, nil
			}
		}
		return nil, fmt.Errorf("bool is not assignable to %s", t)

	case value.Number != nil:
		return convertNumber(*value.Number, t)

	case value.List != nil:
		elemType := t
		switch t.Kind() {
		case reflect.Slice:
			elemType = t.Elem()
		case reflect.Interface:
			elemType = reflect.TypeOf((*any)(nil)).Elem()
		default:
			return nil, fmt.Errorf("list is not assignable to %s", t)
		}

		slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(value.List.Items))
		for _, item := range value.List.Items {
			converted, err := convertValue(item, elemType)
			if err != nil {
				return nil, err
			}
			if converted == nil {
				slice = reflect.Append(slice, reflect.Zero(elemType))
				continue
			}
			slice = reflect.Append(slice, reflect.ValueOf(converted))
		}
		if t.Kind() == reflect.Slice {
			return slice.Convert(t).Interface(), nil
		}
		return slice.Interface(), nil
	}

	return nil, fmt.Errorf("empty value")
}

func convertNumber(text string, t reflect.Type) (any, error) {
	target := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid %s", text, t)
		}
		target.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimPrefix(text, "+"), 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid %s", text, t)
		}
		target.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid %s", text, t)
		}
		target.SetFloat(f)
	case reflect.Interface:
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, err
			}
			return f, nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	default:
		return nil, fmt.Errorf("number is not assignable to %s", t)
	}
	return target.Interface(), nil
}
