package execctx

import "errors"

var (
	// ErrVariableNotFound is returned by callers that need an error value
	// rather than execctx's usual (value, ok) accessor style.
	ErrVariableNotFound = errors.New("shared variable not found")
	// ErrExecutionNotFound is available to callers that need an error
	// value for a Store miss; Store.Get itself reports a miss as false.
	ErrExecutionNotFound = errors.New("execution context not found")
)
