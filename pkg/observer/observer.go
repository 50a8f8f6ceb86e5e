// Package observer provides the Observer pattern implementation for workflow execution monitoring.
// This allows library consumers to track and monitor workflow execution behavior.
package observer

import (
	"context"
	"time"

	"github.com/nexusdag/nexus/pkg/types"
)

// EventType represents the wire value of an event published on the
// workflow-event channel. The twelve variants named there are
// execution_started, node_status_changed, node_started, node_completed,
// node_failed, node_skipped, level_started, level_completed,
// progress_update, execution_completed, execution_failed, and
// execution_cancelled; agent_spawned, node_retried, and node_end are
// NEXUS-internal additions beyond that set, consumed by in-process
// observers (telemetry, console logging) rather than the external
// channel contract. agent_output is never published here — it has its
// own dedicated streaming channel.
type EventType string

const (
	EventWorkflowStarted   EventType = "execution_started"
	EventWorkflowCompleted EventType = "execution_completed"
	EventWorkflowFailed    EventType = "execution_failed"
	EventWorkflowCancelled EventType = "execution_cancelled"

	EventLevelStarted   EventType = "level_started"
	EventLevelCompleted EventType = "level_completed"

	EventProgressUpdate    EventType = "progress_update"
	EventNodeStatusChanged EventType = "node_status_changed"

	EventNodeStart   EventType = "node_started"
	EventNodeEnd     EventType = "node_end"
	EventNodeSuccess EventType = "node_completed"
	EventNodeFailure EventType = "node_failed"
	EventNodeSkipped EventType = "node_skipped"
	EventNodeRetried EventType = "node_retried"

	EventAgentSpawned EventType = "agent_spawned"
	EventAgentOutput  EventType = "agent_output"
)

// ExecutionStatus represents the status of a node or workflow execution
type ExecutionStatus string

const (
	StatusStarted   ExecutionStatus = "started"
	StatusSuccess   ExecutionStatus = "success"
	StatusFailure   ExecutionStatus = "failure"
	StatusCompleted ExecutionStatus = "completed"
)

// Event represents an execution event with all relevant metadata.
type Event struct {
	// Event identification
	Type      EventType       `json:"type"`
	Status    ExecutionStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`

	// Execution context
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id,omitempty"`
	Level       int    `json:"level,omitempty"`

	// Node-specific data (empty for workflow- and level-level events)
	NodeID   string         `json:"node_id,omitempty"`
	NodeType types.NodeType `json:"node_type,omitempty"`
	AgentID  string         `json:"agent_id,omitempty"`

	// Timing information
	StartTime   time.Time     `json:"start_time,omitempty"`
	ElapsedTime time.Duration `json:"elapsed_time,omitempty"`

	// Execution results
	Result interface{} `json:"result,omitempty"`
	Error  error       `json:"error,omitempty"`

	// Additional metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Observer defines the interface for workflow execution observers.
// Observers receive notifications about various stages of workflow execution.
type Observer interface {
	// OnEvent is called when an execution event occurs.
	// The context can be used for cancellation and passing request-scoped values.
	OnEvent(ctx context.Context, event Event)
}

// Logger defines the interface for custom logging.
// This allows library consumers to integrate with their own logging systems.
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields map[string]interface{})

	// Info logs info-level messages
	Info(msg string, fields map[string]interface{})

	// Warn logs warning-level messages
	Warn(msg string, fields map[string]interface{})

	// Error logs error-level messages
	Error(msg string, fields map[string]interface{})
}
