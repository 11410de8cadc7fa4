package web

import "github.com/opshell/opshell"

// response is the envelope type for successful responses.
// This wraps the actual result in a {"result": ...} structure.
type response struct {
	Result any `json:"result"`
}

// errorResponse is the envelope type for error responses.
// This wraps the error in an {"error": {...}} structure.
type errorResponse struct {
	Error *opshell.Error `json:"error"`
}
