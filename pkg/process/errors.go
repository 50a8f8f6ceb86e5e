package process

import "errors"

// ErrNotFound is returned when an operation references an agent ID the
// Supervisor has no record of.
var ErrNotFound = errors.New("process: agent not found")
