package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ClaudeNotFound is returned when discoverBinary exhausts PATH and every
// conventional install location without finding the agent CLI.
type ClaudeNotFound struct {
	Binary string
}

func (e *ClaudeNotFound) Error() string {
	return fmt.Sprintf("process: %q not found on PATH or in common install locations; install it or set AgentConfig.Binary/config.Config.AgentBinary to its absolute path", e.Binary)
}

// discoverBinary resolves name to an absolute path: first via PATH
// (exec.LookPath, the Go equivalent of `which`), then against a fixed
// list of conventional install locations including common NVM
// node-version directories, since a spawned child's inherited PATH often
// predates a shell profile that sources NVM. An already-absolute name is
// checked directly rather than searched.
func discoverBinary(name string) (string, error) {
	if filepath.IsAbs(name) {
		if isExecutableFile(name) {
			return name, nil
		}
		return "", &ClaudeNotFound{Binary: name}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	for _, candidate := range conventionalPaths(name) {
		if isExecutableFile(candidate) {
			return candidate, nil
		}
	}

	return "", &ClaudeNotFound{Binary: name}
}

// conventionalPaths lists absolute locations worth checking for name
// beyond PATH: common package-manager install prefixes, the per-user
// local bin directories Claude Code and npm global installs favor, and
// every installed NVM node version's bin directory.
func conventionalPaths(name string) []string {
	paths := []string{
		"/usr/local/bin/" + name,
		"/opt/homebrew/bin/" + name,
		"/usr/bin/" + name,
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return paths
	}

	paths = append(paths,
		filepath.Join(home, ".claude", "local", name),
		filepath.Join(home, ".local", "bin", name),
		filepath.Join(home, ".npm-global", "bin", name),
	)

	nvmRoot := filepath.Join(home, ".nvm", "versions", "node")
	entries, err := os.ReadDir(nvmRoot)
	if err != nil {
		return paths
	}
	for _, entry := range entries {
		if entry.IsDir() {
			paths = append(paths, filepath.Join(nvmRoot, entry.Name(), "bin", name))
		}
	}
	return paths
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// buildEnv constructs the spawned process's environment: the parent's
// environment, with PATH widened to include binaryPath's directory,
// TERM forced to xterm-256color so interactive CLIs that probe the
// terminal type behave the same way under supervision as run by hand,
// and ANTHROPIC_API_KEY forwarded explicitly rather than left to nil-Env
// inheritance.
func buildEnv(binaryPath string) []string {
	env := os.Environ()
	dir := filepath.Dir(binaryPath)

	pathSet := false
	for i, kv := range env {
		if len(kv) >= 5 && kv[:5] == "PATH=" {
			env[i] = "PATH=" + dir + string(os.PathListSeparator) + kv[5:]
			pathSet = true
			break
		}
	}
	if !pathSet {
		env = append(env, "PATH="+dir)
	}

	env = append(env, "TERM=xterm-256color")
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		env = append(env, "ANTHROPIC_API_KEY="+key)
	}
	return env
}
