// Package checkpoint persists execution snapshots to disk so an engine
// run can be resumed after an interruption, a crash, or an explicit
// pause.
//
// # Storage Layout
//
// Each checkpoint is one JSON file named
// "<execution_id>_<YYYYMMDD_HHMMSS>.checkpoint.json" under a directory
// that defaults to the user's cache directory joined with
// "nexus/checkpoints". The timestamp in the filename is also the sort
// key LoadLatest and Cleanup use, so no separate index file is needed.
//
// # Resuming
//
// A Checkpoint records every node's last known NodeState. ResumeOptions
// decides what happens to each status on resume: failed nodes retry by
// default, nodes still Running when the checkpoint was written (an
// interrupted execution) re-run by default, and callers can force
// specific nodes to be skipped or override shared variables before
// resuming.
package checkpoint
