// Package process supervises the external agent binary as a PTY-backed
// child process: one process per running node, with a rolling output
// buffer, graceful SIGTERM-then-SIGKILL shutdown, and pause/resume via
// SIGSTOP/SIGCONT.
package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/nexusdag/nexus/pkg/config"
)

// initialPTYRows/initialPTYCols size every newly opened PTY before the
// agent binary produces its first output, so CLIs that lay out their
// interactive UI on first frame don't see a 0x0 or default 80x24
// terminal.
const (
	initialPTYRows = 40
	initialPTYCols = 120
)

// Status describes the lifecycle state of a supervised agent process.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusKilled    Status = "killed"
)

// Info is a serializable snapshot of one supervised agent.
type Info struct {
	ID        string    `json:"id"`
	NodeID    string    `json:"node_id"`
	Role      string    `json:"role"`
	Status    Status    `json:"status"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// agentProcess is the live, non-serializable process state kept behind
// the Supervisor's lock.
type agentProcess struct {
	info Info
	cmd  *exec.Cmd
	pty  *os.File
	buf  *bytes.Buffer
	mu   sync.Mutex // guards buf
	done chan struct{}
}

// Supervisor tracks every live agent process keyed by agent ID, guarded
// by a single mutex rather than a concurrent map since the hot path is
// output-buffer appends, not the process table itself.
type Supervisor struct {
	cfg *config.Config

	mu        sync.Mutex
	processes map[string]*agentProcess
}

// New creates a Supervisor using cfg's process defaults.
func New(cfg *config.Config) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		processes: make(map[string]*agentProcess),
	}
}

// Spawn starts the agent binary under a PTY, passing prompt as the
// value of its -p flag, and registers it under agentID. binary overrides
// cfg.AgentBinary when non-empty, letting a node's AgentConfig.Binary
// select a different CLI per node. The returned channel closes when the
// process exits.
func (s *Supervisor) Spawn(ctx context.Context, agentID, nodeID, role, workingDir, prompt, binary string) (<-chan struct{}, error) {
	if binary == "" {
		binary = s.cfg.AgentBinary
	}

	resolved, err := discoverBinary(binary)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, resolved, "-p", prompt, "--dangerously-skip-permissions")
	cmd.Dir = workingDir
	cmd.Env = buildEnv(resolved)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("process: spawn %s: %w", resolved, err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: initialPTYRows, Cols: initialPTYCols}); err != nil {
		ptmx.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("process: set initial PTY size for %s: %w", resolved, err)
	}

	ap := &agentProcess{
		info: Info{
			ID:        agentID,
			NodeID:    nodeID,
			Role:      role,
			Status:    StatusStarting,
			PID:       cmd.Process.Pid,
			StartedAt: time.Now(),
		},
		cmd:  cmd,
		pty:  ptmx,
		buf:  &bytes.Buffer{},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.processes[agentID] = ap
	s.mu.Unlock()

	go s.readOutput(ap)
	go s.waitExit(ap)

	time.Sleep(s.cfg.AgentStartupGrace)
	s.mu.Lock()
	ap.info.Status = StatusRunning
	s.mu.Unlock()

	return ap.done, nil
}

func (s *Supervisor) readOutput(ap *agentProcess) {
	chunk := make([]byte, s.cfg.OutputChunkBytes)
	for {
		n, err := ap.pty.Read(chunk)
		if n > 0 {
			ap.mu.Lock()
			ap.buf.Write(chunk[:n])
			if ap.buf.Len() > s.cfg.OutputBufferBytes {
				overflow := ap.buf.Len() - s.cfg.OutputBufferBytes
				ap.buf.Next(overflow)
			}
			ap.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *Supervisor) waitExit(ap *agentProcess) {
	err := ap.cmd.Wait()

	s.mu.Lock()
	if err != nil {
		ap.info.Status = StatusFailed
	} else {
		ap.info.Status = StatusCompleted
	}
	s.mu.Unlock()

	close(ap.done)
}

// Output returns the current rolling output buffer for agentID.
func (s *Supervisor) Output(agentID string) (string, bool) {
	s.mu.Lock()
	ap, ok := s.processes[agentID]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.buf.String(), true
}

// Info returns the current info snapshot for agentID.
func (s *Supervisor) Info(agentID string) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ap, ok := s.processes[agentID]
	if !ok {
		return Info{}, false
	}
	return ap.info, true
}

// Write sends input to the PTY, for interactive follow-up messages.
func (s *Supervisor) Write(agentID string, input string) error {
	s.mu.Lock()
	ap, ok := s.processes[agentID]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if _, err := ap.pty.Write([]byte(input + "\n")); err != nil {
		return fmt.Errorf("process: write to %s: %w", agentID, err)
	}
	return nil
}

// Kill sends SIGTERM, waits GracefulKillWait, then SIGKILL if the
// process is still alive.
func (s *Supervisor) Kill(agentID string) error {
	s.mu.Lock()
	ap, ok := s.processes[agentID]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	_ = ap.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-ap.done:
		s.setStatus(agentID, StatusKilled)
		return nil
	case <-time.After(s.cfg.GracefulKillWait):
	}

	if err := ap.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("process: kill %s: %w", agentID, err)
	}
	s.setStatus(agentID, StatusKilled)
	return nil
}

// Pause sends SIGSTOP, suspending the process without killing it.
func (s *Supervisor) Pause(agentID string) error {
	return s.signal(agentID, syscall.SIGSTOP, StatusPaused)
}

// Resume sends SIGCONT to a previously paused process.
func (s *Supervisor) Resume(agentID string) error {
	return s.signal(agentID, syscall.SIGCONT, StatusRunning)
}

func (s *Supervisor) signal(agentID string, sig syscall.Signal, newStatus Status) error {
	s.mu.Lock()
	ap, ok := s.processes[agentID]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if err := ap.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("process: signal %s: %w", agentID, err)
	}
	s.setStatus(agentID, newStatus)
	return nil
}

func (s *Supervisor) setStatus(agentID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ap, ok := s.processes[agentID]; ok {
		ap.info.Status = status
	}
}

// Remove drops agentID from the supervisor's table.
func (s *Supervisor) Remove(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processes, agentID)
}

// List returns info for every currently tracked agent.
func (s *Supervisor) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]Info, 0, len(s.processes))
	for _, ap := range s.processes {
		infos = append(infos, ap.info)
	}
	return infos
}

// isTerminal reports whether status is a resting state CleanupOld may
// safely drop the process table entry for.
func isTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusKilled:
		return true
	default:
		return false
	}
}

// CleanupOld drops every tracked agent that both reached a terminal
// status and has been sitting in the table longer than maxAge, and
// returns the agent IDs removed. It never removes a still-running or
// still-starting process regardless of age.
func (s *Supervisor) CleanupOld(maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	now := time.Now()
	for id, ap := range s.processes {
		if !isTerminal(ap.info.Status) {
			continue
		}
		if now.Sub(ap.info.StartedAt) <= maxAge {
			continue
		}
		delete(s.processes, id)
		removed = append(removed, id)
	}
	return removed
}
