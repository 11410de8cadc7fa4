// Package cli exposes a shell's operations as subcommands of a command-line
// application. Each command takes a single optional argument holding either
// a JSON literal or a path to a JSON file; dispatch, including validation,
// goes through the core dispatch sequence.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/opshell/opshell"
)

// App builds and runs the command-line front-end for a shell.
type App struct {
	name        string
	description string
	shell       *opshell.Shell
	stdout      io.Writer
}

// NewApp returns an App named name serving the shell's command-line
// operations.
func NewApp(name string, shell *opshell.Shell) *App {
	return &App{
		name:   name,
		shell:  shell,
		stdout: os.Stdout,
	}
}

// WithDescription sets the application description shown in help output.
func (a *App) WithDescription(description string) *App {
	a.description = description
	return a
}

// WithOutput redirects result output, which defaults to stdout.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// Run parses args (excluding the program name) and dispatches the selected
// operation. Results are printed to the configured output as indented
// JSON; a nil result prints nothing.
func (a *App) Run(args []string) error {
	opts := []kong.Option{
		kong.Name(a.name),
		kong.Description(a.description),
		kong.UsageOnError(),
	}

	for _, name := range a.shell.Names() {
		desc, err := a.shell.Descriptor(name)
		if err != nil {
			return err
		}
		if !desc.CommandLine() {
			continue
		}
		opts = append(opts, kong.DynamicCommand(name, a.commandHelp(desc), "", &operationCmd{app: a, name: name}))
	}

	var root struct{}
	parser, err := kong.New(&root, opts...)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run()
}

// commandHelp combines the operation description with its args schema so
// --help documents the expected payload.
func (a *App) commandHelp(desc *opshell.FuncDescriptor) string {
	help := desc.Description()
	schema, err := desc.ArgsSchema()
	if err != nil || len(schema) == 0 {
		return help
	}
	pretty, err := json.Marshal(schema)
	if err != nil {
		return help
	}
	return help + " Args schema: " + string(pretty)
}

// operationCmd is the kong command bound to one registered operation.
type operationCmd struct {
	Args string `arg:"" optional:"" help:"JSON value or path to a JSON file."`

	app  *App
	name string
}

func (c *operationCmd) Run() error {
	var args any
	if c.Args != "" {
		value, err := decodeArgs(c.Args)
		if err != nil {
			return err
		}
		args = value
	}

	result, err := opshell.Dispatch(c.app.shell, c.name, args)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return opshell.Errorf(opshell.CodeInternal, "encode result: %v", err)
	}
	_, err = fmt.Fprintln(c.app.stdout, string(out))
	return err
}

// decodeArgs resolves the argument string as either a path to a JSON file
// or a JSON literal.
func decodeArgs(s string) (any, error) {
	data := []byte(s)
	if info, err := os.Stat(s); err == nil && !info.IsDir() {
		b, err := os.ReadFile(s)
		if err != nil {
			return nil, opshell.Errorf(opshell.CodeInvalidArgument, "read args file: %v", err)
		}
		data = b
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, opshell.Errorf(opshell.CodeInvalidArgument, "args is not valid JSON or a readable JSON file")
	}
	return v, nil
}
