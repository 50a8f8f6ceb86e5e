package checkpoint

import (
	"time"

	"github.com/nexusdag/nexus/pkg/types"
)

// Summary is a lightweight, listable view over a Checkpoint that avoids
// carrying its full node/variable/output payload.
type Summary struct {
	ExecutionID  string            `json:"execution_id"`
	WorkflowID   string            `json:"workflow_id,omitempty"`
	Status       types.ExecutionStatus `json:"status"`
	Trigger      types.CheckpointTrigger `json:"trigger"`
	CreatedAt    time.Time         `json:"created_at"`
	TotalNodes   int               `json:"total_nodes"`
	Completed    int               `json:"completed"`
	Failed       int               `json:"failed"`
	Interrupted  int               `json:"interrupted"`
	Progress     float64           `json:"progress"`
}

// Summarize derives a Summary from a full Checkpoint.
func Summarize(cp *types.Checkpoint) Summary {
	s := Summary{
		ExecutionID: cp.ExecutionID,
		WorkflowID:  cp.WorkflowID,
		Status:      cp.Status,
		Trigger:     cp.Trigger,
		CreatedAt:   cp.CreatedAt,
		TotalNodes:  len(cp.Nodes),
	}
	s.Completed = len(CompletedNodes(cp))
	s.Failed = len(FailedNodes(cp))
	s.Interrupted = len(InterruptedNodes(cp))
	s.Progress = GetProgress(cp)
	return s
}

// CompletedNodes returns the IDs of nodes that finished successfully or
// were skipped, in no particular order.
func CompletedNodes(cp *types.Checkpoint) []string {
	var ids []string
	for id, node := range cp.Nodes {
		if node.Status == types.StatusCompleted || node.Status == types.StatusSkipped {
			ids = append(ids, id)
		}
	}
	return ids
}

// FailedNodes returns the IDs of nodes whose last known status was
// Failed.
func FailedNodes(cp *types.Checkpoint) []string {
	var ids []string
	for id, node := range cp.Nodes {
		if node.Status == types.StatusFailed {
			ids = append(ids, id)
		}
	}
	return ids
}

// PendingNodes returns the IDs of nodes that never started.
func PendingNodes(cp *types.Checkpoint) []string {
	var ids []string
	for id, node := range cp.Nodes {
		if node.Status == types.StatusPending {
			ids = append(ids, id)
		}
	}
	return ids
}

// InterruptedNodes returns the IDs of nodes that were still Running when
// the checkpoint was written — the execution stopped mid-flight rather
// than finishing or failing cleanly.
func InterruptedNodes(cp *types.Checkpoint) []string {
	var ids []string
	for id, node := range cp.Nodes {
		if node.Status == types.StatusRunning {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetProgress returns the percentage of nodes that are Completed or
// Skipped, matching the invariant that those are the only statuses
// reporting 100% node progress.
func GetProgress(cp *types.Checkpoint) float64 {
	if len(cp.Nodes) == 0 {
		return 0
	}
	done := len(CompletedNodes(cp))
	return float64(done) / float64(len(cp.Nodes)) * 100
}

// ResumeOptions controls how a resumed execution treats the nodes
// recorded in a checkpoint.
type ResumeOptions struct {
	// RetryFailed re-runs nodes that last failed, rather than leaving
	// them failed.
	RetryFailed bool
	// RerunInterrupted re-runs nodes that were still Running when the
	// checkpoint was captured.
	RerunInterrupted bool
	// SkipNodes is an explicit set of node IDs to mark Skipped instead
	// of running, regardless of their checkpointed status.
	SkipNodes []string
	// OverrideVariables replaces or adds shared variables before
	// resuming, taking precedence over the checkpointed values.
	OverrideVariables map[string]interface{}
}

// DefaultResumeOptions mirrors the original's Default impl: failed and
// interrupted nodes are re-run by default.
func DefaultResumeOptions() ResumeOptions {
	return ResumeOptions{
		RetryFailed:      true,
		RerunInterrupted: true,
	}
}
