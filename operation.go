package opshell

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/opshell/opshell/typedesc"
)

var (
	validate     = validator.New()
	queryDecoder = schema.NewDecoder()
)

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
	queryDecoder.SetAliasTag("json")
}

// Operation is a registered callable unit. Signature describes its
// parameters and return type for schema derivation; Call invokes it with a
// generic argument map. Implementations bind the map into their own typed
// parameters, keeping the dispatcher ignorant of concrete parameter lists.
type Operation interface {
	Signature() (typedesc.Signature, error)
	Call(args map[string]any) (any, error)
}

// QueryBinder is implemented by operations that can bind URL query values
// into an argument map. The HTTP front-end uses it for GET requests.
type QueryBinder interface {
	BindQuery(values url.Values) (map[string]any, error)
}

// Func adapts a typed Go function to the Operation interface. Args must be
// a struct; its exported fields become the operation's parameters, with
// names and optionality taken from json tags and descriptors derived from
// the field types. Supported field tags:
//
//	json:"name,omitempty"  wire name; omitempty makes the parameter optional
//	enum:"a,b,c"           restrict to a literal enumeration
//	default:"<json>"       declared default value (JSON literal or bare string)
//	desc:"..."             schema description
//	format:"..."           schema format
//	minimum:"1" maximum:"9" numeric bounds
//	required:"false"       explicit required override
//	validate:"..."         go-playground/validator rules, checked after binding
//
// Pointer fields are optional (a union with the absence marker).
type Func[Args any, Res any] struct {
	fn func(Args) (Res, error)

	sigOnce sync.Once
	sig     typedesc.Signature
	sigErr  error
}

// NewFunc wraps fn as an Operation.
func NewFunc[Args any, Res any](fn func(Args) (Res, error)) *Func[Args, Res] {
	return &Func[Args, Res]{fn: fn}
}

// Signature derives the operation's signature from the Args and Res types.
// Derivation runs once; the result is memoized.
func (f *Func[Args, Res]) Signature() (typedesc.Signature, error) {
	f.sigOnce.Do(func() {
		params, err := reflectParams(reflect.TypeOf((*Args)(nil)).Elem())
		if err != nil {
			f.sigErr = err
			return
		}
		ret, err := typeDescriptor(reflect.TypeOf((*Res)(nil)).Elem())
		if err != nil {
			f.sigErr = err
			return
		}
		f.sig = typedesc.Signature{Params: params, Return: ret}
	})
	return f.sig, f.sigErr
}

// Call binds the argument map into a typed Args value and invokes the
// wrapped function. Declared defaults fill in absent keys before binding,
// and validate tags are checked on the bound value. Errors from the
// function itself propagate unchanged.
func (f *Func[Args, Res]) Call(args map[string]any) (any, error) {
	sig, err := f.Signature()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(args)+len(sig.Params))
	for k, v := range args {
		merged[k] = v
	}
	for _, p := range sig.Params {
		if !p.HasDefault {
			continue
		}
		if _, ok := merged[p.Name]; !ok {
			merged[p.Name] = p.Default
		}
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, Errorf(CodeInvalidArgument, "encode arguments: %v", err)
	}
	var typed Args
	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, Errorf(CodeInvalidArgument, "bind arguments: %v", err)
	}

	if err := validate.Struct(typed); err != nil {
		return nil, bindValidationError(err)
	}

	return f.fn(typed)
}

// BindQuery decodes URL query values into the Args struct and returns the
// result as a JSON-shaped argument map, so GET requests flow through the
// same dispatch path as JSON bodies.
func (f *Func[Args, Res]) BindQuery(values url.Values) (map[string]any, error) {
	var typed Args
	if err := queryDecoder.Decode(&typed, values); err != nil {
		return nil, Errorf(CodeInvalidArgument, "decode query: %v", err)
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return nil, Errorf(CodeInvalidArgument, "encode query arguments: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, Errorf(CodeInvalidArgument, "bind query arguments: %v", err)
	}
	return m, nil
}

// Nullary adapts a parameterless function to the Operation interface.
type Nullary[Res any] struct {
	fn func() (Res, error)

	sigOnce sync.Once
	sig     typedesc.Signature
	sigErr  error
}

// NewNullary wraps fn as an Operation with no parameters. Dispatch ignores
// any supplied argument payload.
func NewNullary[Res any](fn func() (Res, error)) *Nullary[Res] {
	return &Nullary[Res]{fn: fn}
}

// Signature returns an empty parameter list and the derived return type.
func (n *Nullary[Res]) Signature() (typedesc.Signature, error) {
	n.sigOnce.Do(func() {
		ret, err := typeDescriptor(reflect.TypeOf((*Res)(nil)).Elem())
		if err != nil {
			n.sigErr = err
			return
		}
		n.sig = typedesc.Signature{Return: ret}
	})
	return n.sig, n.sigErr
}

// Call invokes the wrapped function. The argument map is ignored.
func (n *Nullary[Res]) Call(map[string]any) (any, error) {
	return n.fn()
}

// bindValidationError converts validator failures into the invalid_argument
// envelope with per-field details.
func bindValidationError(err error) error {
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any)
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return &Error{
			Code:    CodeInvalidArgument,
			Message: strings.Join(messages, "; "),
			Details: details,
		}
	}
	return Errorf(CodeInvalidArgument, "%v", err)
}

// formatValidationError converts a validator.FieldError to a human-readable
// message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
