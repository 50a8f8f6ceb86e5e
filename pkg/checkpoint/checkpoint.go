// Package checkpoint persists and restores point-in-time execution
// snapshots to disk, so an interrupted or failed workflow run can be
// resumed instead of restarted from scratch.
package checkpoint

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

// SchemaVersion is written into every checkpoint and checked on load.
const SchemaVersion = 1

const filenameTimeLayout = "20060102_150405"

// Manager reads and writes checkpoint files under a directory, one file
// per checkpoint, named "<execution_id>_<YYYYMMDD_HHMMSS>.checkpoint.json".
type Manager struct {
	dir string
}

// New creates a Manager rooted at dir, creating it if necessary.
func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create directory %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// DefaultDir resolves the default checkpoint directory under the user's
// cache directory, mirroring dirs::data_local_dir() joined with
// "nexus/checkpoints" in the original implementation.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("checkpoint: resolve cache dir: %w", err)
	}
	return filepath.Join(base, "nexus", "checkpoints"), nil
}

// NewDefault creates a Manager rooted at DefaultDir().
func NewDefault() (*Manager, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return New(dir)
}

func (m *Manager) filename(executionID string, createdAt time.Time) string {
	return fmt.Sprintf("%s_%s.checkpoint.json", executionID, createdAt.Format(filenameTimeLayout))
}

// Save writes cp to disk, stamping its SchemaVersion and CreatedAt if
// unset, and returns the path written.
func (m *Manager) Save(cp *types.Checkpoint) (string, error) {
	if cp.SchemaVersion == 0 {
		cp.SchemaVersion = SchemaVersion
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("checkpoint: marshal: %w", err)
	}

	path := filepath.Join(m.dir, m.filename(cp.ExecutionID, cp.CreatedAt))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("checkpoint: write %s: %w", path, err)
	}
	return path, nil
}

// Load reads the single checkpoint file belonging to executionID.
// Checkpoint filenames are keyed by execution ID and timestamp, so Load
// matches by execution ID and returns an error if no file or more than
// one file matches (LoadLatest picks the newest in the latter case).
func (m *Manager) Load(executionID string) (*types.Checkpoint, error) {
	matches, err := m.filesForExecution(executionID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("checkpoint: %w: %s", ErrNotFound, executionID)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("checkpoint: %d checkpoints match execution %s, use LoadLatest", len(matches), executionID)
	}
	return loadFile(matches[0])
}

// LoadLatest scans the checkpoint directory for files belonging to
// executionID, and returns the one with the newest embedded timestamp.
func (m *Manager) LoadLatest(executionID string) (*types.Checkpoint, error) {
	matches, err := m.filesForExecution(executionID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("checkpoint: %w: %s", ErrNotFound, executionID)
	}

	sort.Slice(matches, func(i, j int) bool {
		ti, _ := timestampFromFilename(matches[i])
		tj, _ := timestampFromFilename(matches[j])
		return ti.After(tj)
	})
	return loadFile(matches[0])
}

// List returns a Summary for every checkpoint in the directory, newest
// first.
func (m *Manager) List() ([]Summary, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read dir %s: %w", m.dir, err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".checkpoint.json") {
			continue
		}
		cp, err := loadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		summaries = append(summaries, Summarize(cp))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// ListForExecution returns summaries for checkpoints belonging to
// executionID, newest first.
func (m *Manager) ListForExecution(executionID string) ([]Summary, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	var out []Summary
	for _, s := range all {
		if s.ExecutionID == executionID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Cleanup keeps only the keepPerExecution newest checkpoints for each
// execution ID found in the directory, deleting the rest. It returns the
// number of files deleted.
func (m *Manager) Cleanup(keepPerExecution int) (int, error) {
	if keepPerExecution < 1 {
		keepPerExecution = 1
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: read dir %s: %w", m.dir, err)
	}

	byExecution := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".checkpoint.json") {
			continue
		}
		execID, ok := executionIDFromFilename(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		byExecution[execID] = append(byExecution[execID], path)
	}

	deleted := 0
	for _, paths := range byExecution {
		sort.Slice(paths, func(i, j int) bool {
			ti, _ := timestampFromFilename(paths[i])
			tj, _ := timestampFromFilename(paths[j])
			return ti.After(tj)
		})
		if len(paths) <= keepPerExecution {
			continue
		}
		for _, stale := range paths[keepPerExecution:] {
			if err := os.Remove(stale); err != nil {
				return deleted, fmt.Errorf("checkpoint: remove %s: %w", stale, err)
			}
			deleted++
		}
	}
	return deleted, nil
}

// DeleteForExecution removes every checkpoint belonging to executionID.
func (m *Manager) DeleteForExecution(executionID string) (int, error) {
	matches, err := m.filesForExecution(executionID)
	if err != nil {
		return 0, err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return 0, fmt.Errorf("checkpoint: remove %s: %w", path, err)
		}
	}
	return len(matches), nil
}

func (m *Manager) filesForExecution(executionID string) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read dir %s: %w", m.dir, err)
	}

	prefix := executionID + "_"
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".checkpoint.json") {
			matches = append(matches, filepath.Join(m.dir, entry.Name()))
		}
	}
	return matches, nil
}

func loadFile(path string) (*types.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	var cp types.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal %s: %w", path, err)
	}
	return &cp, nil
}

func executionIDFromFilename(name string) (string, bool) {
	base := strings.TrimSuffix(name, ".checkpoint.json")
	idx := strings.LastIndex(base, "_")
	// the timestamp itself contains one underscore (date_time), so the
	// execution ID is everything before the second-to-last underscore.
	if idx < 0 {
		return "", false
	}
	rest := base[:idx]
	idx2 := strings.LastIndex(rest, "_")
	if idx2 < 0 {
		return "", false
	}
	return rest[:idx2], true
}

func timestampFromFilename(path string) (time.Time, error) {
	name := filepath.Base(path)
	base := strings.TrimSuffix(name, ".checkpoint.json")
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return time.Time{}, fmt.Errorf("checkpoint: malformed filename %s", name)
	}
	idx2 := strings.LastIndex(base[:idx], "_")
	if idx2 < 0 {
		return time.Time{}, fmt.Errorf("checkpoint: malformed filename %s", name)
	}
	return time.Parse(filenameTimeLayout, base[idx2+1:])
}
