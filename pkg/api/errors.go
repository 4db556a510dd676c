package api

import "fmt"

// ErrorName identifies the category of a worker or search error.
type ErrorName string

const (
	ErrorInvalidInput       ErrorName = "invalid_input"
	ErrorDimensionMismatch  ErrorName = "dimension_mismatch"
	ErrorModelLoadFailure   ErrorName = "model_load_failure"
	ErrorTimeout            ErrorName = "timeout"
	ErrorUnknownMessageType ErrorName = "unknown_message_type"
	ErrorStore              ErrorName = "store_error"
	ErrorClientDisposed     ErrorName = "client_disposed"
)

// Error is a structured error with a stable name, a human-readable
// message, and an optional parameter reference.
type Error struct {
	Name    ErrorName `json:"name"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Name, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Is reports whether target is an *Error with the same name, so callers
// can match on taxonomy with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

// NewInvalidInputError creates an Error for malformed request payloads.
func NewInvalidInputError(param, message string) *Error {
	return &Error{
		Name:    ErrorInvalidInput,
		Param:   param,
		Message: message,
	}
}

// NewDimensionMismatchError creates an Error for vectors whose length
// disagrees with the deployment's fixed embedding dimension.
func NewDimensionMismatchError(want, got int) *Error {
	return &Error{
		Name:    ErrorDimensionMismatch,
		Message: fmt.Sprintf("embedding dimension is %d, got vector of length %d", want, got),
	}
}

// NewModelLoadFailureError creates an Error for network or runtime
// failures while loading a model.
func NewModelLoadFailureError(message string) *Error {
	return &Error{
		Name:    ErrorModelLoadFailure,
		Message: message,
	}
}

// NewTimeoutError creates an Error for calls that received no terminal
// response within the configured window.
func NewTimeoutError(message string) *Error {
	return &Error{
		Name:    ErrorTimeout,
		Message: message,
	}
}

// NewUnknownMessageTypeError creates an Error for request types outside
// the defined set.
func NewUnknownMessageTypeError(messageType string) *Error {
	return &Error{
		Name:    ErrorUnknownMessageType,
		Message: fmt.Sprintf("unknown message type %q", messageType),
	}
}

// NewStoreError creates an Error for failed store queries or mutations.
func NewStoreError(message string) *Error {
	return &Error{
		Name:    ErrorStore,
		Message: message,
	}
}

// NewClientDisposedError creates an Error used to reject calls still
// pending when the RPC client is disposed.
func NewClientDisposedError() *Error {
	return &Error{
		Name:    ErrorClientDisposed,
		Message: "worker client disposed",
	}
}
