// Package opshell exposes arbitrary callable operations through multiple
// front-ends by deriving a JSON-Schema description of each operation's
// inputs and outputs from its type descriptors, and using that description
// to validate untrusted input before dispatch.
package opshell

import (
	"github.com/opshell/opshell/typedesc"
)

// Schema is a compiled JSON-Schema-shaped validation object. Nested
// property and item schemas are themselves Schema values, so the whole
// tree marshals directly to JSON.
type Schema map[string]any

// primitiveSchemaType maps a primitive kind to its schema type name.
func primitiveSchemaType(k typedesc.PrimitiveKind) string {
	switch k {
	case typedesc.PrimitiveString:
		return "string"
	case typedesc.PrimitiveNumber:
		return "number"
	default:
		return "boolean"
	}
}

// Compile converts a type descriptor into a validation schema and a
// required/optional verdict. The walk is depth-first and single-pass;
// descriptors are small and acyclic, so no memoization is needed.
// Compiling the same descriptor twice yields identical schemas.
//
// Ordering matters in two places and is part of the contract:
//   - Annotated metadata is applied in declaration order. A "required"
//     entry sets the running verdict; a "default" entry is merged into the
//     schema and then clears the verdict, so a trailing default silently
//     undoes an earlier required:true.
//   - A union branch that does not map to a scalar type replaces the whole
//     schema built so far. Multiple such branches do not merge; the last
//     one wins.
func Compile(d typedesc.Descriptor) (Schema, bool, error) {
	switch d := d.(type) {
	case *typedesc.PrimitiveDescriptor:
		return Schema{"type": primitiveSchemaType(d.Primitive)}, true, nil

	case *typedesc.RecordDescriptor:
		return compileRecord(d)

	case *typedesc.SequenceDescriptor:
		items, required, err := Compile(d.Element)
		if err != nil {
			return nil, false, err
		}
		// The element's verdict propagates to the sequence position.
		return Schema{"type": "array", "items": items}, required, nil

	case *typedesc.EnumDescriptor:
		values := make([]any, len(d.Values))
		copy(values, d.Values)
		return Schema{"enum": values}, true, nil

	case *typedesc.UnionDescriptor:
		return compileUnion(d)

	case *typedesc.AnnotatedDescriptor:
		return compileAnnotated(d)
	}

	kind := "nil"
	if d != nil {
		kind = d.Kind().String()
	}
	err := Errorf(CodeUnsupportedType, "cannot compile descriptor of kind %s", kind).
		WithDetail("kind", kind)
	return nil, false, err
}

func compileRecord(d *typedesc.RecordDescriptor) (Schema, bool, error) {
	// An empty record is omitted from its parent entirely.
	if len(d.Fields) == 0 {
		return Schema{}, false, nil
	}

	properties := make(map[string]any, len(d.Fields))
	required := []string{}
	childRequired := false
	for _, f := range d.Fields {
		child, req, err := Compile(f.Type)
		if err != nil {
			return nil, false, err
		}
		properties[f.Name] = child
		if req {
			required = append(required, f.Name)
		}
		childRequired = req
	}

	schema := Schema{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
	// The record's own verdict follows its final field.
	return schema, childRequired, nil
}

func compileUnion(d *typedesc.UnionDescriptor) (Schema, bool, error) {
	types := []any{}
	required := false
	var replacement Schema

	for _, branch := range d.Branches {
		switch b := branch.(type) {
		case *typedesc.AbsentDescriptor:
			// The absence marker makes the position optional and
			// contributes no schema type.
			required = false
		case *typedesc.PrimitiveDescriptor:
			name := primitiveSchemaType(b.Primitive)
			if !containsValue(types, name) {
				types = append(types, name)
			}
		default:
			child, req, err := Compile(branch)
			if err != nil {
				return nil, false, err
			}
			replacement = child
			required = req
		}
	}

	if replacement != nil {
		return replacement, required, nil
	}

	schema := Schema{}
	if len(types) == 1 {
		schema["type"] = types[0]
	} else {
		schema["type"] = types
	}
	return schema, required, nil
}

func compileAnnotated(d *typedesc.AnnotatedDescriptor) (Schema, bool, error) {
	var schema Schema
	required := false

	if p, ok := d.Base.(*typedesc.PrimitiveDescriptor); ok {
		// A bare primitive base only contributes its type name; it does
		// not carry the primitive's unconditional required verdict.
		schema = Schema{"type": primitiveSchemaType(p.Primitive)}
	} else {
		var err error
		schema, required, err = Compile(d.Base)
		if err != nil {
			return nil, false, err
		}
	}

	for _, m := range d.Meta {
		if m.Key == "required" {
			required = coerceBool(m.Value)
			continue
		}
		schema[m.Key] = m.Value
		if m.Key == "default" {
			required = false
		}
	}

	return schema, required, nil
}

// coerceBool applies truthiness to a metadata value.
func coerceBool(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
