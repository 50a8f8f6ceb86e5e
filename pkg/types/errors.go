package types

import (
	"errors"
	"fmt"
)

var (
	ErrCycleDetected    = errors.New("workflow contains cycles (circular dependencies)")
	ErrNodeNotFound     = errors.New("node not found")
	ErrDuplicateNodeID  = errors.New("duplicate node id")
	ErrInvalidFormat    = errors.New("invalid workflow graph format")
	ErrAgentSpawnFailed = errors.New("failed to spawn agent process")
	ErrAgentTimeout     = errors.New("agent execution timed out")
	ErrAgentNotFound    = errors.New("agent not registered")
	ErrCancelled        = errors.New("execution cancelled")
	ErrResourceTimeout  = errors.New("timed out waiting to acquire execution resources")
)

// ErrMissingRequiredField creates an error for a missing required field.
func ErrMissingRequiredField(fieldName string) error {
	return fmt.Errorf("missing required field: %s", fieldName)
}

// ErrInvalidFieldValue creates an error for an invalid field value.
func ErrInvalidFieldValue(fieldName string, value interface{}, reason string) error {
	return fmt.Errorf("invalid value for field %s: %v (%s)", fieldName, value, reason)
}

// ErrUnknownConditionKind creates an error for an unrecognized condition kind.
func ErrUnknownConditionKind(kind ConditionKind) error {
	return fmt.Errorf("unknown condition kind: %s", kind)
}

// ErrUnknownAggregationKind creates an error for an unrecognized aggregation kind.
func ErrUnknownAggregationKind(kind AggregationKind) error {
	return fmt.Errorf("unknown aggregation kind: %s", kind)
}
