// Package engine is the core multi-agent workflow executor for NEXUS.
//
// # Overview
//
// A workflow is a DAG of nodes, each one external agent process invoked
// under a role and a task prompt. The engine partitions the graph into
// dependency levels and runs every node in a level concurrently; level
// L+1 never starts until every node in level L has settled (completed,
// failed, or skipped). A node whose dependency failed is skipped rather
// than run, and a failed node never stops sibling nodes in its own
// level from finishing.
//
// # Execution modes
//
//   - Execute runs a caller-supplied graph as-is.
//   - ExecuteOrchestrated spawns a single planning agent first, parses
//     its output into a task graph, and runs that.
//   - ExecuteEnhanced additionally threads predecessor output through
//     the shared execution context, evaluates per-node conditions and
//     aggregation strategies, retries failed nodes with backoff, and
//     checkpoints progress after each level.
//
// All three share one underlying level loop; Execute and
// ExecuteOrchestrated simply run it with the enhanced features at their
// default (always-on) settings rather than maintaining three separate
// copies of the loop.
//
// # Concurrency
//
// Every node in a level runs in its own goroutine. A panic inside a
// node's goroutine is recovered and converted into a node failure
// rather than crashing the execution. Cancelling an execution's context
// stops it from starting new levels and kills any node agents still
// running; the engine still waits for in-flight goroutines to return
// before emitting the execution's single terminal event.
//
// # Dependency injection
//
// Engine takes its process supervisor, resource manager and checkpoint
// manager as constructor arguments rather than constructing them
// itself, so one supervisor instance backs every execution an Engine
// runs and every node's agent draws from the same resource pool.
package engine
