// Package orchestrator implements planner-mode: turning a single free-form
// request into a task graph by asking one planning agent to decompose it,
// then parsing that agent's output into nodes and edges the engine can run.
package orchestrator
