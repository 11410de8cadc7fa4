package typedesc

// PrimitiveKind identifies the category of a primitive type.
type PrimitiveKind int

const (
	PrimitiveString PrimitiveKind = iota
	PrimitiveNumber
	PrimitiveBool
)

// String returns the string representation of the primitive kind.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveString:
		return "String"
	case PrimitiveNumber:
		return "Number"
	case PrimitiveBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// PrimitiveDescriptor represents a built-in scalar type.
type PrimitiveDescriptor struct {
	base
	Primitive PrimitiveKind
}

// Kind returns KindPrimitive.
func (d *PrimitiveDescriptor) Kind() Kind { return KindPrimitive }

// String returns a PrimitiveDescriptor for string values.
func String() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{Primitive: PrimitiveString}
}

// Number returns a PrimitiveDescriptor for numeric values.
// Integers and floats share one schema type.
func Number() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{Primitive: PrimitiveNumber}
}

// Bool returns a PrimitiveDescriptor for boolean values.
func Bool() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{Primitive: PrimitiveBool}
}
