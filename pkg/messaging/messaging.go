// Package messaging provides a supplemental typed message bus for
// inter-agent coordination, layered above the simple per-node
// types.Message status reports the engine itself consumes.
package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the AgentMessage taxonomy.
type Kind string

const (
	KindTaskAssignment Kind = "task_assignment"
	KindTaskUpdate     Kind = "task_update"
	KindTaskComplete   Kind = "task_complete"
	KindDataRequest    Kind = "data_request"
	KindDataResponse   Kind = "data_response"
	KindPing           Kind = "ping"
	KindPong           Kind = "pong"
	KindHeartbeat      Kind = "heartbeat"
	KindFileCreated    Kind = "file_created"
	KindFileModified   Kind = "file_modified"
	KindFileDeleted    Kind = "file_deleted"
	KindError          Kind = "error"
)

// TaskStatus mirrors a task's lifecycle as reported in a TaskUpdate message.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// HealthStatus reports an agent's self-assessed health in a Heartbeat message.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// AgentMessage is a duck-typed sum type over the message taxonomy: every
// field is optional, and which are populated is determined by Kind.
type AgentMessage struct {
	Kind Kind `json:"kind"`

	// TaskAssignment / TaskUpdate / TaskComplete
	TaskID       string       `json:"task_id,omitempty"`
	Description  string       `json:"description,omitempty"`
	Priority     int          `json:"priority,omitempty"`
	Dependencies []string     `json:"dependencies,omitempty"`
	Status       TaskStatus   `json:"status,omitempty"`
	Progress     int          `json:"progress,omitempty"`
	Result       interface{}  `json:"result,omitempty"`

	// DataRequest / DataResponse
	RequestID string      `json:"request_id,omitempty"`
	DataType  string      `json:"data_type,omitempty"`
	Query     interface{} `json:"query,omitempty"`
	Data      interface{} `json:"data,omitempty"`

	// Ping / Pong / Heartbeat
	Timestamp         int64        `json:"timestamp,omitempty"`
	OriginalTimestamp int64        `json:"original_timestamp,omitempty"`
	Health            HealthStatus `json:"health,omitempty"`
	Load              float64      `json:"load,omitempty"`

	// File operations
	Path        string `json:"path,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Changes     string `json:"changes,omitempty"`

	// Error
	Code        string `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`
}

// Envelope wraps an AgentMessage with routing metadata.
type Envelope struct {
	ID        string        `json:"id"`
	From      string        `json:"from"`
	To        string        `json:"to,omitempty"` // empty means broadcast
	Timestamp time.Time     `json:"timestamp"`
	Message   AgentMessage  `json:"message"`
	ReplyTo   string        `json:"reply_to,omitempty"`
	TTL       time.Duration `json:"ttl,omitempty"`
}

// NewEnvelope builds a direct or broadcast envelope (to == "" broadcasts).
func NewEnvelope(from, to string, message AgentMessage) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Message:   message,
	}
}

// Reply builds an envelope addressed back to original's sender.
func Reply(original Envelope, from string, message AgentMessage) Envelope {
	e := NewEnvelope(from, original.From, message)
	e.ReplyTo = original.ID
	return e
}

// Broadcast builds a broadcast envelope with a default 60-second TTL.
func Broadcast(from string, message AgentMessage) Envelope {
	e := NewEnvelope(from, "", message)
	e.TTL = 60 * time.Second
	return e
}

// Expired reports whether a broadcast envelope has outlived its TTL.
func (e Envelope) Expired() bool {
	if e.TTL <= 0 {
		return false
	}
	return time.Since(e.Timestamp) > e.TTL
}
