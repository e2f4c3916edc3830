package annotations

import (
	"fmt"
	"strconv"
)

// Built-in attribute names
const (
	RequiredName     = "Required"
	RangeName        = "Range"
	StringLengthName = "StringLength"
	DescriptionName  = "Description"
	KeyName          = "Key"
)

// SchemaTagger is implemented by attributes that map onto jsonschema struct tag options
type SchemaTagger interface {
	SchemaTags() []string
}

// Describer is implemented by attributes that carry a human readable description
type Describer interface {
	Describe() string
}

// Required marks a member that must be supplied
type Required struct {
	AllowEmptyStrings bool

	errorMessage string
}

// NewRequired creates a Required marker
func NewRequired() *Required {
	return &Required{}
}

// SetErrorMessage sets the message reported when the member is missing
func (r *Required) SetErrorMessage(message string) {
	r.errorMessage = message
}

// ErrorMessage returns the configured message
func (r *Required) ErrorMessage() string {
	return r.errorMessage
}

func (r *Required) SchemaTags() []string {
	return []string{"required"}
}

// Range constrains a numeric member to [Minimum, Maximum]
type Range struct {
	Minimum float64
	Maximum float64

	errorMessage string
}

// NewRange creates a Range constraint
func NewRange(minimum, maximum float64) *Range {
	return &Range{Minimum: minimum, Maximum: maximum}
}

// SetErrorMessage sets the message reported when the value is out of range
func (r *Range) SetErrorMessage(message string) {
	r.errorMessage = message
}

// ErrorMessage returns the configured message
func (r *Range) ErrorMessage() string {
	return r.errorMessage
}

func (r *Range) SchemaTags() []string {
	return []string{
		"minimum=" + strconv.FormatFloat(r.Minimum, 'f', -1, 64),
		"maximum=" + strconv.FormatFloat(r.Maximum, 'f', -1, 64),
	}
}

// StringLength bounds the length of a string member
type StringLength struct {
	MaximumLength int

	minimumLength int
}

// NewStringLength creates a StringLength constraint
func NewStringLength(maximumLength int) *StringLength {
	return &StringLength{MaximumLength: maximumLength}
}

// SetMinimumLength sets the lower bound
func (s *StringLength) SetMinimumLength(minimumLength int) {
	s.minimumLength = minimumLength
}

// MinimumLength returns the lower bound
func (s *StringLength) MinimumLength() int {
	return s.minimumLength
}

func (s *StringLength) SchemaTags() []string {
	tags := []string{fmt.Sprintf("maxLength=%d", s.MaximumLength)}
	if s.minimumLength > 0 {
		tags = append(tags, fmt.Sprintf("minLength=%d", s.minimumLength))
	}
	return tags
}

// Description documents a member
type Description struct {
	Text string
}

// NewDescription creates a Description
func NewDescription(text string) *Description {
	return &Description{Text: text}
}

func (d *Description) Describe() string {
	return d.Text
}

// Key marks a member as part of the identity of its declaring type
type Key struct {
	Order int
}

// NewKey creates a Key marker
func NewKey() *Key {
	return &Key{}
}

func registerBuiltins(r *Registry) {
	r.MustRegister(RequiredName, NewRequired)
	r.MustRegister(RangeName, NewRange)
	r.MustRegister(StringLengthName, NewStringLength)
	r.MustRegister(DescriptionName, NewDescription)
	r.MustRegister(KeyName, NewKey)
}
