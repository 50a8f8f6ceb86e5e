// Package process supervises external agent binaries as PTY-backed
// child processes.
//
// A PTY (github.com/creack/pty) is used instead of plain pipes so
// interactive CLI agents that detect a terminal behave the same way
// under supervision as they do run by hand.
//
// # Lifecycle
//
// Spawn starts the process and returns a channel that closes on exit.
// Kill sends SIGTERM, waits GracefulKillWait, then escalates to
// SIGKILL. Pause and Resume use SIGSTOP/SIGCONT to freeze and
// unfreeze a running agent without losing its state.
//
// # Output
//
// Each process gets a rolling byte buffer capped at
// config.Config's OutputBufferBytes; once full, the oldest bytes are
// dropped to make room for new output.
//
// # Binary discovery
//
// Spawn resolves its binary argument with discoverBinary before
// starting anything: PATH first, then a set of conventional install
// locations (including NVM node-version directories), returning a
// structured ClaudeNotFound if none of them exist. A resolved binary's
// directory is prepended to the child's PATH, and TERM/ANTHROPIC_API_KEY
// are set explicitly rather than left to environment inheritance.
//
// # Cleanup
//
// CleanupOld drops process-table entries for agents that are in a
// terminal status and were started more than a given age ago, so a
// long-lived Supervisor
// doesn't accumulate one entry per agent forever.
package process
