package types

import "time"

// CheckpointTrigger names what caused a checkpoint to be written.
type CheckpointTrigger string

const (
	TriggerAfterLevel CheckpointTrigger = "after_level"
	TriggerAfterNodes CheckpointTrigger = "after_n_nodes"
	TriggerOnFailure  CheckpointTrigger = "on_failure"
	TriggerInterval   CheckpointTrigger = "interval"
	TriggerManual     CheckpointTrigger = "manual"
)

// Checkpoint is a point-in-time, resumable snapshot of an execution.
type Checkpoint struct {
	SchemaVersion int                    `json:"schema_version"`
	ExecutionID   string                 `json:"execution_id"`
	WorkflowID    string                 `json:"workflow_id,omitempty"`
	Status        ExecutionStatus        `json:"status"`
	Trigger       CheckpointTrigger      `json:"trigger"`
	Levels        [][]string             `json:"levels"`
	CurrentLevel  int                    `json:"current_level"`
	Nodes         map[string]*NodeState  `json:"nodes"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Outputs       map[string]AgentOutput `json:"outputs,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// MessageKind discriminates the simple per-spec Message type used for
// agent-to-engine status reporting. The richer inter-agent taxonomy
// lives in pkg/messaging as a supplemental enrichment.
type MessageKind string

const (
	MessageStatus   MessageKind = "status"
	MessageProgress MessageKind = "progress"
	MessageResult   MessageKind = "result"
	MessageError    MessageKind = "error"
)

// Message is the literal per-specification message type for an agent
// reporting its own status back to the engine.
type Message struct {
	Kind      MessageKind `json:"kind"`
	NodeID    string      `json:"node_id"`
	Text      string      `json:"text,omitempty"`
	Progress  int         `json:"progress,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
