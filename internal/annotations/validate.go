package annotations

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Validator is implemented by attributes that constrain the value of the member
// they are attached to. A nil error means the value is acceptable.
type Validator interface {
	Validate(value reflect.Value) error
}

// Validate fails for nil references and, unless AllowEmptyStrings is set, for
// empty strings. Zero numbers are accepted.
func (r *Required) Validate(value reflect.Value) error {
	if !value.IsValid() {
		return r.fail("is required")
	}
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		if value.IsNil() {
			return r.fail("is required")
		}
		if value.Kind() == reflect.Pointer {
			return r.Validate(value.Elem())
		}
	case reflect.String:
		if value.Len() == 0 && !r.AllowEmptyStrings {
			return r.fail("must not be empty")
		}
	}
	return nil
}

func (r *Required) fail(message string) error {
	if r.errorMessage != "" {
		return fmt.Errorf("%s", r.errorMessage)
	}
	return fmt.Errorf("%s", message)
}

// Validate checks numeric values against the bounds; absent values pass
func (r *Range) Validate(value reflect.Value) error {
	value, ok := indirect(value)
	if !ok {
		return nil
	}

	var n float64
	switch {
	case value.CanInt():
		n = float64(value.Int())
	case value.CanUint():
		n = float64(value.Uint())
	case value.CanFloat():
		n = value.Float()
	default:
		return nil
	}

	if n < r.Minimum || n > r.Maximum {
		if r.errorMessage != "" {
			return fmt.Errorf("%s", r.errorMessage)
		}
		return fmt.Errorf("must be between %s and %s",
			strconv.FormatFloat(r.Minimum, 'f', -1, 64), strconv.FormatFloat(r.Maximum, 'f', -1, 64))
	}
	return nil
}

// Validate counts runes, not bytes. Absent values and empty strings pass;
// Required rejects those.
func (s *StringLength) Validate(value reflect.Value) error {
	value, ok := indirect(value)
	if !ok || value.Kind() != reflect.String || value.Len() == 0 {
		return nil
	}

	n := utf8.RuneCountInString(value.String())
	if n > s.MaximumLength {
		return fmt.Errorf("must be at most %d characters", s.MaximumLength)
	}
	if n < s.minimumLength {
		return fmt.Errorf("must be at least %d characters", s.minimumLength)
	}
	return nil
}

func indirect(value reflect.Value) (reflect.Value, bool) {
	for value.IsValid() && (value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return reflect.Value{}, false
		}
		value = value.Elem()
	}
	return value, value.IsValid()
}
