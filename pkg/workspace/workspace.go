// Package workspace bootstraps a project's on-disk working directory: the
// place a spawned agent's process.Supervisor.Spawn call actually runs in.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nonNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// Sanitize reduces name to lowercase alphanumerics plus "-"/"_", collapsing
// whitespace runs to a single "-" and trimming leading/trailing separators.
func Sanitize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonNameChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "-_")
	if s == "" {
		s = "project"
	}
	return s
}

// Info describes a bootstrapped project workspace.
type Info struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Config is the contents of a project's .nexus/config.json.
type Config struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

const readmeTemplate = "# %s\n\nA NEXUS project workspace.\n"

const gitignoreContents = "/.nexus/*.log\n"

// Create bootstraps a new project workspace under root (typically
// $HOME/nexus-projects). If a workspace for the sanitized name already
// exists, the created directory name gets a unix-timestamp suffix; if
// that suffixed directory exists too, Create returns an error rather
// than write into it.
func Create(root, name string, now time.Time) (Info, error) {
	sanitized := Sanitize(name)
	dirName := sanitized
	path := filepath.Join(root, dirName)
	if _, err := os.Stat(path); err == nil {
		dirName = fmt.Sprintf("%s-%d", sanitized, now.Unix())
		path = filepath.Join(root, dirName)
		if _, err := os.Stat(path); err == nil {
			return Info{}, fmt.Errorf("workspace: %s already exists", path)
		}
	}

	for _, sub := range []string{"src", "docs", "tests", ".nexus"} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
			return Info{}, fmt.Errorf("workspace: create %s: %w", sub, err)
		}
	}

	readme := fmt.Sprintf(readmeTemplate, name)
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte(readme), 0o644); err != nil {
		return Info{}, fmt.Errorf("workspace: write README.md: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, ".gitignore"), []byte(gitignoreContents), 0o644); err != nil {
		return Info{}, fmt.Errorf("workspace: write .gitignore: %w", err)
	}

	cfg := Config{Name: name, CreatedAt: now}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("workspace: marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, ".nexus", "config.json"), data, 0o644); err != nil {
		return Info{}, fmt.Errorf("workspace: write .nexus/config.json: %w", err)
	}

	return Info{Name: name, Path: path}, nil
}

// DefaultRoot returns $HOME/nexus-projects.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("workspace: resolve home dir: %w", err)
	}
	return filepath.Join(home, "nexus-projects"), nil
}
