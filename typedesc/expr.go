package typedesc

// Field is one named member of a record. Field order is significant: the
// compiler emits properties and the required list in declaration order.
type Field struct {
	Name string
	Type Descriptor
}

// RecordDescriptor represents an object with named fields.
// A record with zero fields compiles to nothing and is omitted from its
// parent schema entirely.
type RecordDescriptor struct {
	base

	// Fields in declaration order.
	Fields []Field
}

// Kind returns KindRecord.
func (d *RecordDescriptor) Kind() Kind { return KindRecord }

// Record returns a RecordDescriptor with the given fields.
func Record(fields ...Field) *RecordDescriptor {
	return &RecordDescriptor{Fields: fields}
}

// SequenceDescriptor represents an ordered collection of one element type.
type SequenceDescriptor struct {
	base

	// Element is the sequence element type.
	Element Descriptor
}

// Kind returns KindSequence.
func (d *SequenceDescriptor) Kind() Kind { return KindSequence }

// Seq returns a SequenceDescriptor for the given element type.
func Seq(element Descriptor) *SequenceDescriptor {
	return &SequenceDescriptor{Element: element}
}

// UnionDescriptor represents ordered alternatives. A branch may be the
// absence marker, which makes the position optional without contributing a
// schema type. Multiple non-scalar branches do not merge: the last one
// compiled replaces the schema built so far.
type UnionDescriptor struct {
	base

	// Branches in declaration order.
	Branches []Descriptor
}

// Kind returns KindUnion.
func (d *UnionDescriptor) Kind() Kind { return KindUnion }

// Union returns a UnionDescriptor over the given branches.
func Union(branches ...Descriptor) *UnionDescriptor {
	return &UnionDescriptor{Branches: branches}
}

// AbsentDescriptor marks a union branch meaning "value may be missing".
// It is only valid inside a union; compiling it on its own is an error.
type AbsentDescriptor struct {
	base
}

// Kind returns KindAbsent.
func (d *AbsentDescriptor) Kind() Kind { return KindAbsent }

// Absent returns the absence marker.
func Absent() *AbsentDescriptor {
	return &AbsentDescriptor{}
}

// EnumDescriptor represents a fixed list of acceptable literal values.
// Values are kept in the given order and are not deduplicated.
type EnumDescriptor struct {
	base

	// Values in declaration order.
	Values []any
}

// Kind returns KindEnum.
func (d *EnumDescriptor) Kind() Kind { return KindEnum }

// Enum returns an EnumDescriptor over the given values.
func Enum(values ...any) *EnumDescriptor {
	return &EnumDescriptor{Values: values}
}

// Meta is one schema metadata override on an annotated descriptor.
// Two keys have special meaning to the compiler: "required" sets the
// required verdict instead of being merged into the schema, and "default"
// is merged and additionally clears the required verdict. All other keys
// are merged into the schema verbatim.
type Meta struct {
	Key   string
	Value any
}

// AnnotatedDescriptor wraps a base descriptor with ordered metadata
// overrides. Metadata is applied in declaration order, so a later entry can
// overwrite the effect of an earlier one.
type AnnotatedDescriptor struct {
	base

	// Base is the wrapped descriptor.
	Base Descriptor

	// Meta entries in declaration order.
	Meta []Meta
}

// Kind returns KindAnnotated.
func (d *AnnotatedDescriptor) Kind() Kind { return KindAnnotated }

// Annotate returns an AnnotatedDescriptor wrapping base with the given
// metadata entries.
func Annotate(b Descriptor, meta ...Meta) *AnnotatedDescriptor {
	return &AnnotatedDescriptor{Base: b, Meta: meta}
}
