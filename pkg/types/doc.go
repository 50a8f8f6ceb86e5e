// Package types provides shared type definitions for the NEXUS execution
// core.
//
// # Overview
//
// This package contains all core data structures used across the engine,
// graph, execution context, condition, aggregation, retry, checkpoint,
// process, and messaging packages. It serves as the foundation for
// avoiding circular dependencies, mirroring the same role the engine's own
// types package plays in the reference implementation this module was
// modeled on.
//
// # Key Components
//
//   - Graph: GraphPayload, Node, Edge, AgentConfig
//   - Control flow: Condition, Aggregation, OutputTransform (duck-typed
//     sum types — one flat struct per kind, discriminated by a Kind field)
//   - Execution: NodeState, ExecutionRecord, ExecutionStatus
//   - Agent results: AgentOutput
//   - Durability: Checkpoint, Message
//
// # Design Principles
//
//   - Minimal dependencies: this package depends on nothing else in the
//     module.
//   - Duck-typed sum types: every tagged union is encoded as a flat JSON
//     struct with a Kind discriminator and per-variant fields, rather than
//     a Go interface hierarchy, so that graphs submitted over the wire
//     decode with plain encoding/json.
//
// # Thread Safety
//
// Types in this package carry no internal synchronization; callers holding
// a *NodeState or *ExecutionRecord concurrently must synchronize access
// themselves (pkg/execctx does this for the execution-wide state).
package types
