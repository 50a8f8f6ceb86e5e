package retry

import "errors"

// ErrExhausted is returned by callers that want an error value once a
// State reports all attempts exhausted.
var ErrExhausted = errors.New("retry: all attempts exhausted")
