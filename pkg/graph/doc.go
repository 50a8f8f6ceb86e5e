// Package graph provides graph algorithms and utilities for workflow execution.
//
// # Overview
//
// The graph package implements essential graph algorithms used by the workflow
// engine for dependency resolution, cycle detection, and execution ordering.
// It provides a foundation for DAG-based workflow execution.
//
// # Key Algorithms
//
// Topological Sort:
//   - Implements Kahn's algorithm for topological ordering
//   - Ensures nodes execute in dependency order
//   - Detects cycles in the workflow graph
//   - Provides stable, deterministic ordering
//
// Cycle Detection:
//   - Identifies circular dependencies
//   - Reports that a cycle exists, not which nodes form it
//   - Prevents infinite execution loops
//   - Uses the same Kahn's-algorithm pass as TopologicalSort
//
// Dependency Analysis:
//   - Direct dependencies and successors of a node
//   - Roots (no incoming edges) and leaves (no outgoing edges)
//   - Execution levels of mutually independent, parallelizable nodes
//
// # Graph Representation
//
// Workflows are represented as directed graphs where:
//
//   - Nodes represent workflow operations
//   - Edges represent data dependencies
//   - Direction indicates data flow (source → target)
//   - Multiple edges can connect the same nodes
//
// # Topological Sort Usage
//
//	import "github.com/nexusdag/nexus/pkg/graph"
//
//	// Build the graph
//	edges := []types.Edge{
//	    {Source: "A", Target: "B"},
//	    {Source: "B", Target: "C"},
//	}
//	g := graph.New(nodes, edges)
//
//	// Perform topological sort
//	sorted, err := g.TopologicalSort()
//	if err != nil {
//	    // Handle cycle
//	}
//
//	// Execute in sorted order
//	for _, nodeID := range sorted {
//	    execute(nodeID)
//	}
//
// # Cycle Detection
//
//	if err := g.DetectCycles(); err != nil {
//	    fmt.Printf("Cycle detected: %v\n", err)
//	}
//
// # Parallel Execution Analysis
//
//	// Find nodes that can execute in parallel
//	g := graph.New(nodes, edges)
//	levels, err := g.Levels()
//	for level, nodeIDs := range levels {
//	    // All nodes in same level can execute concurrently
//	    executeParallel(nodeIDs)
//	}
//
// # Performance Characteristics
//
//   - Topological sort: O(V + E) where V=nodes, E=edges
//   - Cycle detection: O(V + E) using Kahn's algorithm
//   - Parallel levels: O(V + E) single pass
//   - Memory efficient: Uses sparse graph representation
//
// # Error Handling
//
// Graph operations return errors for:
//
//   - Cycles: TopologicalSort, Levels and DetectCycles
//   - Invalid edges: Validate, for references to non-existent nodes
//   - Missing or duplicate node IDs: Validate
//
// An empty graph is not an error: TopologicalSort and Levels return an
// empty result. Disconnected nodes are accepted as roots.
//
// # Algorithm Details
//
// Kahn's Algorithm (Topological Sort):
//  1. Calculate in-degree for all nodes
//  2. Add zero in-degree nodes to queue
//  3. Process queue: remove node, decrement neighbor in-degrees
//  4. Add newly zero in-degree nodes to queue
//  5. If processed count != node count, cycle exists
//
// Levels runs the same steps but drains one whole zero in-degree
// frontier at a time, so each frontier becomes one execution level.
//
// # Use Cases
//
//   - Workflow execution ordering
//   - Dependency resolution
//   - Build systems
//   - Task scheduling
//   - Data pipeline orchestration
//
// # Design Principles
//
//   - Efficiency: Optimized for large graphs
//   - Clarity: Clear, well-documented algorithms
//   - Correctness: Extensively tested edge cases
//   - Flexibility: Generic graph operations
//
// # Thread Safety
//
// Graph algorithms are stateless and safe for concurrent use.
// Multiple goroutines can analyze the same graph simultaneously.
package graph
