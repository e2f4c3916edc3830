package errors

import (
	"fmt"
	"strings"
)

// ArgumentError reports a required input that was absent or malformed
type ArgumentError struct {
	*BaseError
	Argument string // name of the offending argument
}

// NewArgumentError creates an invalid-argument error for a nil or missing input
func NewArgumentError(argument string) *ArgumentError {
	return &ArgumentError{
		BaseError: New(InvalidArgumentErrorCode, fmt.Sprintf("argument '%s' must not be nil", argument)).
			WithContext("argument", argument),
		Argument: argument,
	}
}

// NewArgumentErrorf creates an invalid-argument error with a custom message
func NewArgumentErrorf(argument, format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{
		BaseError: Newf(InvalidArgumentErrorCode, "argument '%s': %s", argument, fmt.Sprintf(format, args...)).
			WithContext("argument", argument),
		Argument: argument,
	}
}

// TypeResolutionError reports that no assembly declares a type
type TypeResolutionError struct {
	*BaseError
	TypeName   string   // model-level full name that was looked up
	Assemblies []string // names of the assemblies that were searched
}

// NewTypeResolutionError creates an unresolvable-type error
func NewTypeResolutionError(typeName string, assemblies []string) *TypeResolutionError {
	message := fmt.Sprintf("type '%s' could not be found", typeName)
	if len(assemblies) > 0 {
		message = fmt.Sprintf("%s in assemblies [%s]", message, strings.Join(assemblies, ", "))
	}

	return &TypeResolutionError{
		BaseError: New(UnresolvableTypeErrorCode, message).
			WithContext("type_name", typeName).
			WithSuggestion("Register the type in one of the searched assemblies"),
		TypeName:   typeName,
		Assemblies: assemblies,
	}
}

// SyntaxError represents a failure to parse an attribute tag or type expression
type SyntaxError struct {
	*BaseError
	Input    string // the text being parsed
	Position int    // byte offset where parsing failed
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message, input string, position int) *SyntaxError {
	return &SyntaxError{
		BaseError: New(SyntaxErrorCode, message).
			WithContext("input", input).
			WithContext("position", position),
		Input:    input,
		Position: position,
	}
}

// AttributeError reports an attribute declaration that does not match its registered type
type AttributeError struct {
	*BaseError
	Attribute string // attribute type name
	Member    string // constructor parameter, property or field involved, if any
}

// NewAttributeError creates a new attribute error
func NewAttributeError(attribute, member, message string) *AttributeError {
	err := &AttributeError{
		BaseError: New(AttributeErrorCode, fmt.Sprintf("attribute '%s': %s", attribute, message)).
			WithContext("attribute", attribute),
		Attribute: attribute,
		Member:    member,
	}
	if member != "" {
		err.WithContext("member", member)
	}
	return err
}

// ModelError reports an invalid operation model document
type ModelError struct {
	*BaseError
	Element string // the model element at fault
}

// NewModelError creates a new model error
func NewModelError(element, message string) *ModelError {
	return &ModelError{
		BaseError: Newf(ModelErrorCode, "model element '%s': %s", element, message).
			WithContext("element", element),
		Element: element,
	}
}

// EmissionError reports a failure to materialize a synthesized type
type EmissionError struct {
	*BaseError
	TypeName string // name of the type being emitted
}

// NewEmissionError creates a new emission error
func NewEmissionError(typeName, message string) *EmissionError {
	return &EmissionError{
		BaseError: Newf(EmissionErrorCode, "failed to emit type '%s': %s", typeName, message).
			WithContext("type_name", typeName),
		TypeName: typeName,
	}
}
