// Package types provides shared type definitions for the NEXUS execution
// core. All core data structures used across packages are defined here to
// avoid circular dependencies.
package types

import (
	"context"
	"time"
)

// ============================================================================
// Context Keys
// ============================================================================

// contextKey is used for context keys to avoid collisions
type contextKey string

const (
	// ContextKeyExecutionID is the context key for the unique execution ID
	ContextKeyExecutionID contextKey = "execution_id"

	// ContextKeyWorkflowID is the context key for the workflow ID
	ContextKeyWorkflowID contextKey = "workflow_id"
)

// GetExecutionID extracts the execution ID from context.
// Returns empty string if not found in context.
func GetExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyExecutionID).(string); ok {
		return id
	}
	return ""
}

// GetWorkflowID extracts the workflow ID from context.
// Returns empty string if not found in context.
func GetWorkflowID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyWorkflowID).(string); ok {
		return id
	}
	return ""
}

// WithExecutionID returns a new context carrying the execution ID.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyExecutionID, id)
}

// WithWorkflowID returns a new context carrying the workflow ID.
func WithWorkflowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyWorkflowID, id)
}

// ============================================================================
// Node Types (agent roles)
// ============================================================================

// NodeType names the role an agent plays at a node. It doubles as the
// telemetry/logging "node type" field carried over from the ambient stack.
type NodeType string

const (
	NodeTypeArchitect    NodeType = "architect"
	NodeTypeImplementer  NodeType = "implementer"
	NodeTypeTester       NodeType = "tester"
	NodeTypeDocumenter   NodeType = "documenter"
	NodeTypeSecurity     NodeType = "security"
	NodeTypeDevOps       NodeType = "devops"
	NodeTypeGeneric      NodeType = "generic"
)

// ============================================================================
// Core Data Structures
// ============================================================================

// GraphPayload is the JSON payload describing a workflow's nodes and edges,
// as submitted over the HTTP surface or constructed by the planner.
type GraphPayload struct {
	WorkflowID string `json:"workflow_id,omitempty"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
}

// Node represents a single unit of work in the workflow graph: one agent
// invocation under one role, gated by an optional execution condition.
//
// Aggregation, Transform and Tags are consulted by every execution
// mode, since all modes share one level loop. They live on Node itself
// rather than a side-channel config map, following the same nested,
// omitted-when-empty convention as Condition and AgentConfig.
type Node struct {
	ID          string           `json:"id"`
	Type        NodeType         `json:"type,omitempty"`
	Role        string           `json:"role"`                   // agent role / persona label shown to the user
	Prompt      string           `json:"prompt"`                  // task prompt template, interpolated by the execution context
	Condition   *Condition       `json:"condition,omitempty"`     // gate evaluated once all predecessors have settled
	Agent       AgentConfig      `json:"agent"`
	Aggregation *Aggregation     `json:"aggregation,omitempty"`   // how to combine predecessor outputs; defaults to the execution's DefaultAggregation
	Transform   *OutputTransform `json:"transform,omitempty"`     // post-processes the aggregated predecessor input
	Tags        []string         `json:"tags,omitempty"`          // carried onto the node's stored output for downstream filtering
	Priority    int              `json:"priority,omitempty"`      // resources.Priority value used when queuing for a permit; 0 is resources.PriorityNormal
}

// AgentConfig describes how to spawn the external CLI agent for a node.
type AgentConfig struct {
	Binary      string            `json:"binary,omitempty"`       // overrides config.Config.AgentBinary when set
	Args        []string          `json:"args,omitempty"`
	WorkingDir  string            `json:"working_dir,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	MaxAttempts int               `json:"max_attempts,omitempty"` // overrides retry.Config.MaxAttempts when > 0
}

// Edge represents a directed dependency between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ExecutionStatus is the lifecycle status of a node or an entire execution.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusSkipped   ExecutionStatus = "skipped"
	StatusCancelled ExecutionStatus = "cancelled"
)

// RetryAttempt records one attempt of a retried node for the checkpoint log.
type RetryAttempt struct {
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
	Delay     time.Duration `json:"delay"`
	Timestamp time.Time `json:"timestamp"`
}

// NodeState tracks the live status of one node within an execution.
//
// Invariant: Progress == 100 if and only if Status is Completed or Skipped.
type NodeState struct {
	NodeID      string          `json:"node_id"`
	Status      ExecutionStatus `json:"status"`
	Progress    int             `json:"progress"` // 0-100
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Output      *AgentOutput    `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	RetryLog    []RetryAttempt  `json:"retry_log,omitempty"`
	AgentID     string          `json:"agent_id,omitempty"`
}

// Start transitions the node into Running.
func (s *NodeState) Start(now time.Time) {
	s.Status = StatusRunning
	s.Progress = 0
	s.StartedAt = &now
}

// Complete transitions the node into Completed with output, enforcing the
// progress invariant directly rather than leaving it to the caller.
func (s *NodeState) Complete(now time.Time, output AgentOutput) {
	s.Status = StatusCompleted
	s.Progress = 100
	s.EndedAt = &now
	s.Output = &output
}

// Fail transitions the node into Failed. Progress is left at its last
// observed value, since a failed node did not reach 100%.
func (s *NodeState) Fail(now time.Time, err error) {
	s.Status = StatusFailed
	s.EndedAt = &now
	if err != nil {
		s.Error = err.Error()
	}
}

// Skip transitions the node into Skipped. Per the progress invariant,
// skipped nodes are reported as fully progressed — they will never run.
func (s *NodeState) Skip(now time.Time, reason string) {
	s.Status = StatusSkipped
	s.Progress = 100
	s.EndedAt = &now
	s.Error = reason
}

// ExecutionRecord is the terminal or in-flight record of a workflow run.
type ExecutionRecord struct {
	ExecutionID string                `json:"execution_id"`
	WorkflowID  string                `json:"workflow_id,omitempty"`
	Status      ExecutionStatus       `json:"status"`
	Levels      [][]string            `json:"levels"`
	Nodes       map[string]*NodeState `json:"nodes"`
	Variables   map[string]interface{} `json:"variables,omitempty"`
	CurrentLevel int                  `json:"current_level"`
	StartedAt   time.Time             `json:"started_at"`
	EndedAt     *time.Time            `json:"ended_at,omitempty"`
	FinalError  string                `json:"final_error,omitempty"`
}
