package opshell

// Dispatch runs the shared validation and invocation sequence both
// front-ends use:
//
//  1. Look up the descriptor; a missing name is a not_found error.
//  2. If the descriptor validates, check args against the compiled args
//     schema. A violation is an invalid_argument error carrying the
//     validator's diagnostic, and the operation is never invoked.
//  3. Invoke the operation with the argument object's fields when it has
//     required arguments; otherwise invoke it with no arguments and ignore
//     any supplied payload.
//
// The raw result is returned unmodified for the front-end to serialize.
// Errors raised by the operation itself propagate unchanged.
func Dispatch(s *Shell, name string, args any) (any, error) {
	desc, err := s.Descriptor(name)
	if err != nil {
		return nil, err
	}

	if desc.validate {
		compiled, err := desc.compiledSchema()
		if err != nil {
			return nil, err
		}
		if err := compiled.Validate(args); err != nil {
			return nil, Errorf(CodeInvalidArgument, "%v", err)
		}
	}

	if desc.HasArgs() {
		m, _ := args.(map[string]any)
		return desc.op.Call(m)
	}
	return desc.op.Call(nil)
}
