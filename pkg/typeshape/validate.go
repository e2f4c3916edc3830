package typeshape

import (
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/typesys"
)

// FieldError reports one constraint a member value violates
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every violated constraint of a bound value
type ValidationErrors []FieldError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + " " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type fieldRule struct {
	index      int
	name       string
	validators []annotations.Validator
}

// Validator checks values against the attributes declared in their attr tags
type Validator struct {
	parser *annotations.Parser
	rules  *lru.Cache[reflect.Type, []fieldRule]
}

// NewValidator creates a validator resolving attr tags with parser
func NewValidator(parser *annotations.Parser) *Validator {
	rules, _ := lru.New[reflect.Type, []fieldRule](256)
	return &Validator{parser: parser, rules: rules}
}

// Validate walks v, a struct or a pointer to one, including nested structs,
// slices and maps. Violations are returned as ValidationErrors; an attr tag that
// does not parse is returned as is.
func (v *Validator) Validate(value any) error {
	var errs ValidationErrors
	if err := v.walk(reflect.ValueOf(value), "", &errs); err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) walk(value reflect.Value, path string, errs *ValidationErrors) error {
	for value.IsValid() && (value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if !value.IsValid() {
		return nil
	}

	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := v.walk(value.Index(i), fmt.Sprintf("%s[%d]", path, i), errs); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := value.MapRange()
		for iter.Next() {
			if err := v.walk(iter.Value(), fmt.Sprintf("%s[%v]", path, iter.Key()), errs); err != nil {
				return err
			}
		}
	case reflect.Struct:
		rules, err := v.rulesFor(value.Type())
		if err != nil {
			return err
		}
		for _, rule := range rules {
			field := value.Field(rule.index)
			fieldPath := rule.name
			if path != "" {
				fieldPath = path + "." + rule.name
			}
			for _, validator := range rule.validators {
				if err := validator.Validate(field); err != nil {
					*errs = append(*errs, FieldError{Field: fieldPath, Message: err.Error()})
				}
			}
			if err := v.walk(field, fieldPath, errs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Validator) rulesFor(t reflect.Type) ([]fieldRule, error) {
	if rules, ok := v.rules.Get(t); ok {
		return rules, nil
	}

	rules := make([]fieldRule, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := typesys.MemberName(sf)
		if name == "" {
			continue
		}

		data, err := v.parser.ParseField(sf)
		if err != nil {
			return nil, err
		}
		rule := fieldRule{index: i, name: name}
		for _, d := range data {
			attr, err := annotations.Instantiate(d)
			if err != nil {
				return nil, err
			}
			if validator, ok := attr.(annotations.Validator); ok {
				rule.validators = append(rule.validators, validator)
			}
		}
		rules = append(rules, rule)
	}

	v.rules.Add(t, rules)
	return rules, nil
}
