// Package execctx provides the shared execution context: the in-memory
// store that lets agents at different nodes in a workflow pass data to
// one another and share variables for the lifetime of one execution.
//
// # Overview
//
// Every workflow execution gets its own Context. As each node's agent
// finishes, its output is stored under the node's ID. Downstream nodes
// read their predecessors' outputs back out, either individually or
// pre-rendered into a prompt via BuildAgentPrompt.
//
// # Basic Usage
//
//	ctx := execctx.New(executionID, workflowID, originalPrompt)
//
//	ctx.StoreOutput(execctx.Output{
//	    NodeID:    "design",
//	    AgentRole: "architect",
//	    Data:      types.AgentOutput{Kind: types.OutputText, Text: "Use microservices"},
//	    Timestamp: time.Now(),
//	})
//
//	prompt := ctx.BuildAgentPrompt(node.Prompt, graph.Dependencies(node.ID), true)
//
// # Prompt Assembly
//
// BuildAgentPrompt renders four sections in order, each omitted entirely
// when it has nothing to contribute: the original user request, context
// gathered from predecessor outputs, shared variables, and the node's
// own task text.
//
// # Thread Safety
//
// Context is safe for concurrent use. A single RWMutex guards both the
// output and variable maps; every read accessor copies its result out of
// the map under lock rather than returning an internal reference.
//
// # Multiple Executions
//
// Store tracks one Context per execution ID, so the engine and the HTTP
// surface can both reach the context for a given run without threading
// it through every call.
package execctx
