package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nexusdag/nexus/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.Testing()
	cfg.AgentBinary = "echo"
	return cfg
}

func TestSpawnCollectsOutput(t *testing.T) {
	s := New(testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done, err := s.Spawn(ctx, "agent-1", "node-1", "implementer", t.TempDir(), "hello", "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("process did not exit in time")
	}

	out, ok := s.Output("agent-1")
	if !ok {
		t.Fatalf("expected output to be recorded")
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("expected echoed prompt in output, got %q", out)
	}

	info, ok := s.Info("agent-1")
	if !ok || info.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %+v ok=%v", info, ok)
	}
}

func TestKillUnknownAgent(t *testing.T) {
	s := New(testConfig())
	if err := s.Kill("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSpawnUnknownBinaryReturnsClaudeNotFound(t *testing.T) {
	cfg := testConfig()
	cfg.AgentBinary = "nexus-test-binary-that-does-not-exist"
	s := New(cfg)

	_, err := s.Spawn(context.Background(), "agent-1", "node-1", "implementer", t.TempDir(), "hello", "")
	var notFound *ClaudeNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ClaudeNotFound, got %v", err)
	}
}

func TestDiscoverBinaryFindsPathEntry(t *testing.T) {
	path, err := discoverBinary("echo")
	if err != nil {
		t.Fatalf("discoverBinary: %v", err)
	}
	if path == "" {
		t.Fatalf("expected a resolved path")
	}
}

func TestBuildEnvSetsTermAndWidensPath(t *testing.T) {
	env := buildEnv("/usr/local/bin/claude")

	var term string
	var path string
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			term = strings.TrimPrefix(kv, "TERM=")
		}
		if strings.HasPrefix(kv, "PATH=") {
			path = strings.TrimPrefix(kv, "PATH=")
		}
	}
	if term != "xterm-256color" {
		t.Fatalf("expected TERM=xterm-256color, got %q", term)
	}
	if !strings.Contains(path, "/usr/local/bin") {
		t.Fatalf("expected PATH to include the binary's directory, got %q", path)
	}
}

func TestCleanupOldRemovesOnlyAgedTerminalAgents(t *testing.T) {
	s := New(testConfig())

	s.processes["old-completed"] = &agentProcess{
		info: Info{ID: "old-completed", Status: StatusCompleted, StartedAt: time.Now().Add(-time.Hour)},
	}
	s.processes["fresh-completed"] = &agentProcess{
		info: Info{ID: "fresh-completed", Status: StatusCompleted, StartedAt: time.Now()},
	}
	s.processes["old-running"] = &agentProcess{
		info: Info{ID: "old-running", Status: StatusRunning, StartedAt: time.Now().Add(-time.Hour)},
	}

	removed := s.CleanupOld(time.Minute)
	if len(removed) != 1 || removed[0] != "old-completed" {
		t.Fatalf("expected only old-completed removed, got %v", removed)
	}
	if _, ok := s.processes["fresh-completed"]; !ok {
		t.Fatalf("fresh-completed should not have been removed")
	}
	if _, ok := s.processes["old-running"]; !ok {
		t.Fatalf("old-running should not have been removed")
	}
}
