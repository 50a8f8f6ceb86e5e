package engine

import "errors"

// Sentinel errors for engine operations.
var (
	// ErrEmptyWorkflow is returned when a submitted graph has no nodes.
	ErrEmptyWorkflow = errors.New("workflow is empty")
	// ErrCycleDetected is returned when the submitted graph cannot be
	// partitioned into levels because it contains a cycle.
	ErrCycleDetected = errors.New("cycle detected in workflow graph")
	// ErrExecutionNotFound names an unknown execution ID for callers that
	// need an error value; Cancel and Status report that case by
	// returning false rather than this error.
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrNodeExecutionFailed wraps a node's agent process exiting with a
	// failed status.
	ErrNodeExecutionFailed = errors.New("node execution failed")
	// ErrExecutionTimeout is returned when a node's agent exceeds
	// config.Config.MaxNodeExecutionTime.
	ErrExecutionTimeout = errors.New("node execution timed out")
	// ErrExecutionCanceled is returned to in-flight nodes once an
	// execution's context has been cancelled.
	ErrExecutionCanceled = errors.New("execution was cancelled")
	// ErrPlannerFailed wraps an orchestrator-mode planning agent that did
	// not produce a usable plan.
	ErrPlannerFailed = errors.New("orchestrator planning failed")
)
