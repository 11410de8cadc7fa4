// Package typedesc defines the type descriptor tree used as input to the
// schema compiler. Descriptors are an explicit, acyclic representation of a
// parameter or return type: primitives, records of named fields, sequences,
// unions, literal enumerations, and annotated wrappers carrying schema
// metadata overrides.
package typedesc

// Kind identifies the category of a descriptor.
type Kind int

const (
	KindPrimitive Kind = iota // Built-in scalar type (string, number, boolean)
	KindRecord                // Ordered named fields (object)
	KindSequence              // Homogeneous element list (array)
	KindUnion                 // Ordered alternatives, may include the absence marker
	KindEnum                  // Fixed list of acceptable literal values
	KindAnnotated             // Base descriptor plus ordered metadata overrides
	KindAbsent                // Absence marker, only meaningful inside a union
)

// String returns the string representation of the descriptor kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindRecord:
		return "Record"
	case KindSequence:
		return "Sequence"
	case KindUnion:
		return "Union"
	case KindEnum:
		return "Enum"
	case KindAnnotated:
		return "Annotated"
	case KindAbsent:
		return "Absent"
	default:
		return "Unknown"
	}
}

// Descriptor is the base interface for all type descriptors.
type Descriptor interface {
	// Kind returns the descriptor kind for type switching.
	Kind() Kind

	// Ensure only types in this package can implement Descriptor.
	sealed()
}

// base provides the sealed marker for descriptor implementations.
type base struct{}

func (base) sealed() {}
