package checkpoint

import "errors"

// ErrNotFound is returned when no checkpoint file matches the requested
// execution ID.
var ErrNotFound = errors.New("checkpoint: not found")
