package typeshape

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValueParser converts a raw query value into a value of its target type
type ValueParser func(raw string) (any, error)

// BuiltinParsers convert query values for types the kind based fallback cannot
var BuiltinParsers = map[reflect.Type]ValueParser{
	reflect.TypeOf([]byte(nil)):      ParseBinary,
	reflect.TypeOf(uuid.UUID{}):      ParseUUID,
	reflect.TypeOf(time.Time{}):      ParseTime,
	reflect.TypeOf(time.Duration(0)): ParseDuration,
}

// ParseBinary decodes standard base64
func ParseBinary(raw string) (any, error) {
	return base64.StdEncoding.DecodeString(raw)
}

// ParseUUID parses a value to uuid.UUID
func ParseUUID(raw string) (any, error) {
	return uuid.Parse(raw)
}

// ParseTime parses an RFC 3339 timestamp or a plain date
func ParseTime(raw string) (any, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// ParseDuration parses a Go duration such as "1h30m"
func ParseDuration(raw string) (any, error) {
	return time.ParseDuration(raw)
}

// parseInto assigns raw values to target. Slices take one element per value or a
// single comma separated value; slices of structured elements take one JSON value
// per element or a single JSON array. Every other type takes the first value.
func parseInto(target reflect.Value, raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	t := target.Type()

	if t.Kind() == reflect.Pointer {
		elem := reflect.New(t.Elem())
		if err := parseInto(elem.Elem(), raw); err != nil {
			return err
		}
		target.Set(elem)
		return nil
	}

	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		structured := isStructured(t.Elem())
		if len(raw) == 1 {
			single := strings.TrimSpace(raw[0])
			switch {
			case structured && strings.HasPrefix(single, "["):
				slice := reflect.New(t)
				if err := json.Unmarshal([]byte(single), slice.Interface()); err != nil {
					return err
				}
				target.Set(slice.Elem())
				return nil
			case !structured:
				raw = strings.Split(raw[0], ",")
			}
		}
		slice := reflect.MakeSlice(t, len(raw), len(raw))
		for i, r := range raw {
			if err := parseInto(slice.Index(i), []string{strings.TrimSpace(r)}); err != nil {
				return err
			}
		}
		target.Set(slice)
		return nil
	}

	value, err := parseValue(t, raw[0])
	if err != nil {
		return err
	}
	target.Set(value)
	return nil
}

// isStructured reports whether values of t travel as JSON rather than as text
func isStructured(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if _, ok := BuiltinParsers[t]; ok {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	default:
		return false
	}
}

func parseValue(t reflect.Type, raw string) (reflect.Value, error) {
	if parser, ok := BuiltinParsers[t]; ok {
		parsed, err := parser(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(parsed).Convert(t), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	case reflect.Struct, reflect.Map, reflect.Slice:
		// structured values travel as JSON
		if err := json.Unmarshal([]byte(raw), v.Addr().Interface()); err != nil {
			return reflect.Value{}, err
		}
	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", t)
	}
	return v, nil
}
