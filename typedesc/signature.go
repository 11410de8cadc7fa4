package typedesc

// Param describes one declared parameter of an operation.
type Param struct {
	// Name is the wire name the caller supplies the argument under.
	Name string

	// Type is the parameter's descriptor.
	Type Descriptor

	// Default is the declared default value, valid only when HasDefault is
	// true. It must be a JSON-shaped value (string, float64, bool, nil,
	// []any, map[string]any) so it can be embedded in the compiled schema.
	Default any

	// HasDefault distinguishes an explicit nil default from no default.
	HasDefault bool
}

// Signature is the introspected shape of an operation: its parameters in
// declaration order and its return type. Return may be nil for operations
// that do not declare a result.
type Signature struct {
	Params []Param
	Return Descriptor
}
