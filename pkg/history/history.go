// Package history records terminal execution summaries for later
// inspection, independent of pkg/checkpoint's resumption snapshots: a
// history record is written once, when an execution reaches a terminal
// status, and is never read back into a running execution.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nexusdag/nexus/pkg/types"
)

// Manager writes and lists execution history files under a directory, one
// file per execution, named "<execution_id>.json".
type Manager struct {
	dir string
}

// New creates a Manager rooted at dir, creating it if necessary.
func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// DefaultDir resolves the default history directory under the user's
// cache directory, mirroring dirs::data_local_dir() joined with
// "nexus/history" in the original implementation.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("history: resolve cache dir: %w", err)
	}
	return filepath.Join(base, "nexus", "history"), nil
}

// NewDefault creates a Manager rooted at DefaultDir().
func NewDefault() (*Manager, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return New(dir)
}

func (m *Manager) path(executionID string) string {
	return filepath.Join(m.dir, executionID+".json")
}

// Record is the stored form of one terminal execution, keyed by
// ExecutionID for an O(1) lookup by Get.
type Record struct {
	ExecutionID string                     `json:"execution_id"`
	WorkflowID  string                     `json:"workflow_id,omitempty"`
	Status      types.ExecutionStatus      `json:"status"`
	Nodes       map[string]types.NodeState `json:"nodes"`
	StartedAt   time.Time                  `json:"started_at"`
	EndedAt     *time.Time                 `json:"ended_at,omitempty"`
	FinalError  string                     `json:"final_error,omitempty"`
	RecordedAt  time.Time                  `json:"recorded_at"`
}

// Write stores rec to disk, stamping RecordedAt if unset, overwriting any
// existing record for the same execution ID.
func (m *Manager) Write(rec Record) error {
	if rec.ExecutionID == "" {
		return fmt.Errorf("history: execution ID is required")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal %s: %w", rec.ExecutionID, err)
	}
	if err := os.WriteFile(m.path(rec.ExecutionID), data, 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", rec.ExecutionID, err)
	}
	return nil
}

// Get reads the record for executionID.
func (m *Manager) Get(executionID string) (Record, error) {
	data, err := os.ReadFile(m.path(executionID))
	if err != nil {
		return Record{}, fmt.Errorf("history: read %s: %w", executionID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("history: unmarshal %s: %w", executionID, err)
	}
	return rec, nil
}

// List returns every stored record, most recently recorded first.
func (m *Manager) List() ([]Record, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("history: read dir %s: %w", m.dir, err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	return records, nil
}

// Delete removes the stored record for executionID, if any.
func (m *Manager) Delete(executionID string) error {
	if err := os.Remove(m.path(executionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("history: remove %s: %w", executionID, err)
	}
	return nil
}

// RecordFromSummary converts an engine.Summary-shaped value into a Record.
// Engine summaries are accepted as their field set rather than an import of
// pkg/engine, avoiding a dependency cycle (pkg/engine does not, and should
// not, depend on pkg/history).
func RecordFromSummary(executionID, workflowID string, status types.ExecutionStatus, nodes map[string]types.NodeState, startedAt time.Time, endedAt *time.Time, finalError string) Record {
	return Record{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Status:      status,
		Nodes:       nodes,
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		FinalError:  finalError,
	}
}
