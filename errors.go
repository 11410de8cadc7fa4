package opshell

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// CodeUnsupportedType means the schema compiler encountered a
	// descriptor shape it cannot represent. Fatal to schema derivation
	// for that operation.
	CodeUnsupportedType ErrorCode = "unsupported_type"

	// CodeAlreadyExists means a registration used a name that is already
	// taken. Registration-time only.
	CodeAlreadyExists ErrorCode = "already_exists"

	// CodeNotFound means a dispatch referenced an unregistered operation.
	CodeNotFound ErrorCode = "not_found"

	// CodeInvalidArgument means the dispatch input failed validation; the
	// operation was never invoked.
	CodeInvalidArgument ErrorCode = "invalid_argument"

	// CodeMethodNotAllowed is used by the HTTP front-end for requests with
	// an unsupported method.
	CodeMethodNotAllowed ErrorCode = "method_not_allowed"

	// CodeInternal covers everything else.
	CodeInternal ErrorCode = "internal"
)

// Error is the standard error envelope shared by the core and both
// front-ends.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeUnsupportedType, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
