package emit

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/descriptor"
	"github.com/toyz/typeshape/internal/errors"
)

// Struct tag keys written on emitted members
const (
	JSONTag              = "json"
	SchemaTag            = "jsonschema"
	SchemaDescriptionTag = "jsonschema_description"
)

// memberTags computes the struct tags of an emitted member. The attr tag re-renders
// every annotation so the emitted field can be reflected again.
func memberTags(d *descriptor.MemberDescriptor) (map[string]string, error) {
	tags := make(map[string]string)

	var (
		required     bool
		schema       []string
		descriptions []string
		rendered     []string
	)
	for _, a := range d.Attributes() {
		value, err := a.Build()
		if err != nil {
			return nil, err
		}
		if _, ok := value.(*annotations.Required); ok {
			required = true
		}
		if tagger, ok := value.(annotations.SchemaTagger); ok {
			schema = append(schema, tagger.SchemaTags()...)
		}
		if describer, ok := value.(annotations.Describer); ok {
			descriptions = append(descriptions, describer.Describe())
		}
		rendered = append(rendered, a.String())
	}

	tags[JSONTag] = d.Name()
	if !required {
		tags[JSONTag] += ",omitempty"
	}
	if len(schema) > 0 {
		tags[SchemaTag] = strings.Join(schema, ",")
	}
	if len(descriptions) > 0 {
		tags[SchemaDescriptionTag] = strings.Join(descriptions, " ")
	}
	if len(rendered) > 0 {
		tags[annotations.TagName] = strings.Join(rendered, "; ")
	}
	return tags, nil
}

// structTag renders tags in key order
func structTag(tags map[string]string) reflect.StructTag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + strconv.Quote(tags[k])
	}
	return reflect.StructTag(strings.Join(parts, " "))
}

// fieldsFor turns descriptors into struct fields, deduplicated by descriptor key.
// Two distinct members mapping to the same Go field name are an error.
func fieldsFor(typeName string, members []*descriptor.MemberDescriptor) ([]reflect.StructField, *descriptor.Set, error) {
	set := descriptor.NewSet(members...)
	fields := make([]reflect.StructField, 0, set.Len())
	seen := make(map[string]string, set.Len())

	for _, d := range set.Members() {
		name := fieldName(d.Name())
		if other, exists := seen[name]; exists {
			return nil, nil, errors.NewEmissionError(typeName,
				fmt.Sprintf("members '%s' and '%s' map to the same field %s", other, d.Name(), name))
		}
		seen[name] = d.Name()

		tags, err := memberTags(d)
		if err != nil {
			return nil, nil, errors.WrapEmissionError(typeName, err)
		}
		fields = append(fields, reflect.StructField{
			Name: name,
			Type: d.Type(),
			Tag:  structTag(tags),
		})
	}
	return fields, set, nil
}
