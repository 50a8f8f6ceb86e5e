package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"My Cool Project":    "my-cool-project",
		"  leading/trailing ": "leadingtrailing",
		"already-sane_name":  "already-sane_name",
		"***":                "project",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreate(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	info, err := Create(root, "My Project", now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.Path != filepath.Join(root, "my-project") {
		t.Fatalf("unexpected path: %s", info.Path)
	}

	for _, sub := range []string{"src", "docs", "tests", ".nexus"} {
		if st, err := os.Stat(filepath.Join(info.Path, sub)); err != nil || !st.IsDir() {
			t.Errorf("expected directory %s to exist", sub)
		}
	}
	for _, f := range []string{"README.md", ".gitignore", filepath.Join(".nexus", "config.json")} {
		if _, err := os.Stat(filepath.Join(info.Path, f)); err != nil {
			t.Errorf("expected file %s to exist", f)
		}
	}
}

func TestCreateCollisionGetsTimestampSuffix(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := Create(root, "dup", now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := Create(root, "dup", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Create (second): %v", err)
	}
	if first.Path == second.Path {
		t.Fatalf("expected distinct paths, got %s twice", first.Path)
	}
}
