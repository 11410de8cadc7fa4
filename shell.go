package opshell

// Shell is the name-keyed registry of operation descriptors. Names are
// unique and case-sensitive. Registration is a single-threaded setup phase;
// once traffic starts the shell is read-only and safe for unsynchronized
// concurrent reads.
type Shell struct {
	descriptors map[string]*FuncDescriptor
	names       []string
}

// NewShell returns an empty registry.
func NewShell() *Shell {
	return &Shell{
		descriptors: make(map[string]*FuncDescriptor),
	}
}

// RegisterOption configures a descriptor at registration time.
type RegisterOption func(*FuncDescriptor)

// WithoutValidation disables argument validation against the compiled
// schema for this operation. The schema is still derived and published.
func WithoutValidation() RegisterOption {
	return func(d *FuncDescriptor) { d.validate = false }
}

// WebOnly clears the command-line flag, which removes the operation from
// the CLI front-end and makes it eligible for the HTTP front-end.
func WebOnly() RegisterOption {
	return func(d *FuncDescriptor) { d.commandLine = false }
}

// Register stores a new descriptor for op under name. By default the
// operation validates its arguments and is exposed on the command line.
// Registering a duplicate name is a caller error.
func (s *Shell) Register(name string, op Operation, description string, opts ...RegisterOption) error {
	if _, exists := s.descriptors[name]; exists {
		return Errorf(CodeAlreadyExists, "operation %q already registered", name)
	}
	d := &FuncDescriptor{
		op:          op,
		description: description,
		validate:    true,
		commandLine: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	s.descriptors[name] = d
	s.names = append(s.names, name)
	return nil
}

// MustRegister is Register for the setup phase; it panics on error.
func (s *Shell) MustRegister(name string, op Operation, description string, opts ...RegisterOption) {
	if err := s.Register(name, op, description, opts...); err != nil {
		panic("opshell: " + err.Error())
	}
}

// Descriptor returns the descriptor registered under name.
func (s *Shell) Descriptor(name string) (*FuncDescriptor, error) {
	d, ok := s.descriptors[name]
	if !ok {
		return nil, Errorf(CodeNotFound, "operation %q not registered", name)
	}
	return d, nil
}

// Names returns all registered names in registration order.
func (s *Shell) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// WebNames returns the names of operations not exposed on the command
// line, in registration order. These are the operations the HTTP front-end
// serves.
func (s *Shell) WebNames() []string {
	var out []string
	for _, name := range s.names {
		if !s.descriptors[name].commandLine {
			out = append(out, name)
		}
	}
	return out
}
