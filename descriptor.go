package opshell

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/opshell/opshell/typedesc"
)

// FuncDescriptor wraps one registered operation: its callable, a human
// description, and two independent flags controlling schema validation and
// command-line exposure. The input and output schemas are derived from the
// operation's signature on first access and memoized for the descriptor's
// lifetime.
//
// Descriptors are created by Shell.Register and are read-only afterwards,
// so concurrent access from request handlers needs no locking beyond the
// memoization guards.
type FuncDescriptor struct {
	op          Operation
	description string
	validate    bool
	commandLine bool

	argsOnce   sync.Once
	argsSchema Schema
	argsErr    error

	returnOnce   sync.Once
	returnSchema Schema
	returnErr    error

	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compiledErr  error
}

// Operation returns the wrapped callable.
func (d *FuncDescriptor) Operation() Operation { return d.op }

// Description returns the human-readable description.
func (d *FuncDescriptor) Description() string { return d.description }

// ValidatesSchema reports whether dispatch validates arguments against the
// compiled args schema before invoking the operation.
func (d *FuncDescriptor) ValidatesSchema() bool { return d.validate }

// CommandLine reports whether the operation is exposed on the command-line
// front-end. Operations with this flag cleared are the ones eligible for
// the HTTP front-end.
func (d *FuncDescriptor) CommandLine() bool { return d.commandLine }

// HasArgs reports whether the args schema has a non-empty required list.
// Front-ends use this to decide whether an argument payload is mandatory;
// the dispatcher uses it to decide whether to pass the payload through.
func (d *FuncDescriptor) HasArgs() bool {
	schema, err := d.ArgsSchema()
	if err != nil {
		return false
	}
	required, ok := schema["required"].([]string)
	return ok && len(required) > 0
}

// ArgsSchema returns the compiled schema for the operation's arguments.
// The operation's signature is read at most once; subsequent calls return
// the memoized schema.
func (d *FuncDescriptor) ArgsSchema() (Schema, error) {
	d.argsOnce.Do(d.buildArgsSchema)
	return d.argsSchema, d.argsErr
}

func (d *FuncDescriptor) buildArgsSchema() {
	sig, err := d.op.Signature()
	if err != nil {
		d.argsErr = err
		return
	}

	fields := make([]typedesc.Field, 0, len(sig.Params))
	for _, p := range sig.Params {
		fields = append(fields, typedesc.Field{Name: p.Name, Type: p.Type})
	}

	schema, _, err := Compile(typedesc.Record(fields...))
	if err != nil {
		d.argsErr = err
		return
	}

	// Declared defaults are patched in after compilation: the default value
	// lands in the parameter's sub-schema and the parameter drops out of
	// the required list, regardless of what the compiler decided.
	for _, p := range sig.Params {
		if !p.HasDefault {
			continue
		}
		if properties, ok := schema["properties"].(map[string]any); ok {
			if prop, ok := properties[p.Name].(Schema); ok {
				prop["default"] = p.Default
			}
		}
		if required, ok := schema["required"].([]string); ok {
			schema["required"] = removeString(required, p.Name)
		}
	}

	d.argsSchema = schema
}

// ReturnSchema returns the compiled schema for the operation's declared
// return type. The schema is descriptive only; results are never validated
// against it. Operations without a declared return type get an empty
// schema.
func (d *FuncDescriptor) ReturnSchema() (Schema, error) {
	d.returnOnce.Do(func() {
		sig, err := d.op.Signature()
		if err != nil {
			d.returnErr = err
			return
		}
		if sig.Return == nil {
			d.returnSchema = Schema{}
			return
		}
		d.returnSchema, _, d.returnErr = Compile(sig.Return)
	})
	return d.returnSchema, d.returnErr
}

// compiledSchema returns the args schema compiled into a validator,
// memoized alongside the schema itself so dispatch does not recompile per
// request.
func (d *FuncDescriptor) compiledSchema() (*jsonschema.Schema, error) {
	d.compiledOnce.Do(func() {
		raw, err := d.ArgsSchema()
		if err != nil {
			d.compiledErr = err
			return
		}
		data, err := json.Marshal(raw)
		if err != nil {
			d.compiledErr = Errorf(CodeInternal, "marshal args schema: %v", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			d.compiledErr = Errorf(CodeInternal, "decode args schema: %v", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("args.json", doc); err != nil {
			d.compiledErr = Errorf(CodeInternal, "add schema resource: %v", err)
			return
		}
		d.compiled, err = c.Compile("args.json")
		if err != nil {
			d.compiledErr = Errorf(CodeInternal, "compile args schema: %v", err)
		}
	})
	return d.compiled, d.compiledErr
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}
