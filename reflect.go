package opshell

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/opshell/opshell/typedesc"
)

// reflectParams walks an argument struct type and produces the operation's
// parameter list in field declaration order. t must be a struct or a
// pointer to one.
func reflectParams(t reflect.Type) ([]typedesc.Param, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, Errorf(CodeUnsupportedType, "arguments type must be a struct, got %s", t.Kind())
	}

	var params []typedesc.Param
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, optional, skip := parseJSONTag(field.Tag.Get("json"), field.Name)
		if skip {
			continue
		}

		desc, err := fieldDescriptor(field, optional)
		if err != nil {
			return nil, Errorf(CodeUnsupportedType, "field %s.%s: %v", t.Name(), field.Name, err)
		}

		p := typedesc.Param{Name: name, Type: desc}
		if raw, ok := field.Tag.Lookup("default"); ok {
			p.Default = parseTagValue(raw)
			p.HasDefault = true
		}
		params = append(params, p)
	}
	return params, nil
}

// fieldDescriptor builds the descriptor for one struct field, applying the
// schema-related tags. Metadata entries are fed to the compiler in a fixed
// declaration order: description, format, minimum, maximum, required.
func fieldDescriptor(field reflect.StructField, optional bool) (typedesc.Descriptor, error) {
	t := field.Type
	pointer := t.Kind() == reflect.Ptr
	if pointer {
		t = t.Elem()
	}

	var desc typedesc.Descriptor
	if raw, ok := field.Tag.Lookup("enum"); ok {
		values := []any{}
		for _, part := range strings.Split(raw, ",") {
			values = append(values, parseTagValue(part))
		}
		desc = typedesc.Enum(values...)
	} else {
		var err error
		desc, err = typeDescriptor(t)
		if err != nil {
			return nil, err
		}
	}

	var meta []typedesc.Meta
	if v, ok := field.Tag.Lookup("desc"); ok {
		meta = append(meta, typedesc.Meta{Key: "description", Value: v})
	}
	if v, ok := field.Tag.Lookup("format"); ok {
		meta = append(meta, typedesc.Meta{Key: "format", Value: v})
	}
	for _, key := range []string{"minimum", "maximum"} {
		v, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, Errorf(CodeUnsupportedType, "invalid %s tag %q", key, v)
		}
		meta = append(meta, typedesc.Meta{Key: key, Value: n})
	}
	if v, ok := field.Tag.Lookup("required"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, Errorf(CodeUnsupportedType, "invalid required tag %q", v)
		}
		meta = append(meta, typedesc.Meta{Key: "required", Value: b})
	}
	if len(meta) > 0 {
		desc = typedesc.Annotate(desc, meta...)
	}

	if pointer || optional {
		desc = typedesc.Union(desc, typedesc.Absent())
	}
	return desc, nil
}

// typeDescriptor converts a Go type to a type descriptor.
func typeDescriptor(t reflect.Type) (typedesc.Descriptor, error) {
	for t.Kind() == reflect.Ptr {
		elem, err := typeDescriptor(t.Elem())
		if err != nil {
			return nil, err
		}
		return typedesc.Union(elem, typedesc.Absent()), nil
	}

	// time.Time is a struct but travels as an RFC 3339 string.
	if t.PkgPath() == "time" && t.Name() == "Time" {
		return typedesc.Annotate(typedesc.String(), typedesc.Meta{Key: "format", Value: "date-time"}), nil
	}

	switch t.Kind() {
	case reflect.String:
		return typedesc.String(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return typedesc.Number(), nil

	case reflect.Bool:
		return typedesc.Bool(), nil

	case reflect.Slice, reflect.Array:
		elem, err := typeDescriptor(t.Elem())
		if err != nil {
			return nil, err
		}
		return typedesc.Seq(elem), nil

	case reflect.Struct:
		return recordDescriptor(t)

	default:
		return nil, Errorf(CodeUnsupportedType, "unsupported type %s (kind %s)", t.String(), t.Kind())
	}
}

// recordDescriptor walks a nested struct into a record descriptor. Nested
// fields carry the same tags as top-level parameters, minus defaults.
func recordDescriptor(t reflect.Type) (*typedesc.RecordDescriptor, error) {
	var fields []typedesc.Field
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, optional, skip := parseJSONTag(field.Tag.Get("json"), field.Name)
		if skip {
			continue
		}
		desc, err := fieldDescriptor(field, optional)
		if err != nil {
			return nil, err
		}
		fields = append(fields, typedesc.Field{Name: name, Type: desc})
	}
	return typedesc.Record(fields...), nil
}

// parseTagValue decodes a tag value as a JSON literal, falling back to the
// raw string so default:"fast" works without inner quoting.
func parseTagValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// parseJSONTag parses a json struct tag and returns the wire name and
// flags.
func parseJSONTag(tag, fieldName string) (name string, optional, skip bool) {
	if tag == "" {
		return fieldName, false, false
	}

	parts := strings.Split(tag, ",")
	name = parts[0]

	if name == "-" && len(parts) == 1 {
		return "", false, true
	}
	if name == "" {
		name = fieldName
	}

	for i := 1; i < len(parts); i++ {
		switch parts[i] {
		case "omitempty", "omitzero":
			optional = true
		}
	}
	return name, optional, false
}
