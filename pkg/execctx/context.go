// Package execctx provides the shared execution context that lets agents
// at different nodes pass data to each other during a workflow run.
package execctx

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nexusdag/nexus/pkg/types"
)

// Output is one piece of data produced by an agent at a node, captured
// alongside the bookkeeping needed to render it back into a downstream
// agent's prompt.
type Output struct {
	NodeID    string
	AgentID   string
	AgentRole string
	Data      types.AgentOutput
	Timestamp time.Time
	Tags      []string
}

// ToContextString renders an agent output the way it should appear inside
// another agent's prompt, or be inspected by a condition. Each Kind gets
// its own textualization rule.
func ToContextString(o types.AgentOutput) string {
	switch o.Kind {
	case types.OutputText:
		return o.Text
	case types.OutputJson:
		return fmt.Sprintf("%v", o.Json)
	case types.OutputFilePath:
		return "File: " + o.FilePath
	case types.OutputFileSet:
		var b strings.Builder
		b.WriteString("Files:\n")
		for _, f := range o.Files {
			b.WriteString("  - " + f + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	case types.OutputCode:
		return fmt.Sprintf("```%s\n%s\n```", o.Language, o.Code)
	case types.OutputError:
		return "Error: " + o.Message
	case types.OutputKeyValue:
		var b strings.Builder
		first := true
		for k, v := range o.KeyValue {
			if !first {
				b.WriteString("\n")
			}
			first = false
			b.WriteString(fmt.Sprintf("%s: %v", k, v))
		}
		return b.String()
	default:
		return ""
	}
}

// Context is the shared execution context for a single workflow run. It
// holds per-node outputs and shared variables that agents read from and
// write to as the run progresses.
//
// All operations are safe for concurrent use: a RWMutex guards the two
// backing maps, and every accessor copies data out rather than returning
// a reference into the internal maps, so callers can never observe or
// corrupt context state outside the lock.
type Context struct {
	ExecutionID    string
	WorkflowID     string
	OriginalPrompt string
	StartedAt      time.Time

	mu        sync.RWMutex
	outputs   map[string][]Output
	variables map[string]interface{}
}

// New creates a new shared execution context for one workflow run.
func New(executionID, workflowID, originalPrompt string) *Context {
	return &Context{
		ExecutionID:    executionID,
		WorkflowID:     workflowID,
		OriginalPrompt: originalPrompt,
		StartedAt:      time.Now(),
		outputs:        make(map[string][]Output),
		variables:      make(map[string]interface{}),
	}
}

// StoreOutput records an output produced by a node's agent.
func (c *Context) StoreOutput(out Output) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[out.NodeID] = append(c.outputs[out.NodeID], out)
}

// GetNodeOutputs returns all outputs stored for a node, oldest first.
func (c *Context) GetNodeOutputs(nodeID string) []Output {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stored := c.outputs[nodeID]
	if len(stored) == 0 {
		return nil
	}
	out := make([]Output, len(stored))
	copy(out, stored)
	return out
}

// GetLatestOutput returns the most recently stored output for a node.
func (c *Context) GetLatestOutput(nodeID string) (Output, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stored := c.outputs[nodeID]
	if len(stored) == 0 {
		return Output{}, false
	}
	return stored[len(stored)-1], true
}

// GetPredecessorOutputs collects every output stored for each of the
// given node IDs, in the order the IDs were given.
func (c *Context) GetPredecessorOutputs(predecessorIDs []string) []Output {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []Output
	for _, id := range predecessorIDs {
		result = append(result, c.outputs[id]...)
	}
	return result
}

// aggregatePredecessorContext renders the given predecessors' outputs
// into one textual block, or the empty string if none have run yet.
func (c *Context) aggregatePredecessorContext(predecessorIDs []string) string {
	outputs := c.GetPredecessorOutputs(predecessorIDs)
	if len(outputs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== Context from Previous Agents ===\n\n")
	for _, o := range outputs {
		fmt.Fprintf(&b, "--- From %s (%s) ---\n%s\n\n", o.NodeID, o.AgentRole, ToContextString(o.Data))
	}
	return b.String()
}

// SetVariable sets a shared variable visible to every node.
func (c *Context) SetVariable(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables[key] = value
}

// GetVariable looks up a shared variable.
func (c *Context) GetVariable(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variables[key]
	return v, ok
}

// GetAllVariables returns a copy of every shared variable.
func (c *Context) GetAllVariables() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]interface{}, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}
	return out
}

// BuildAgentPrompt assembles the prompt text to hand to a node's agent:
// the original user request (if requested), then context gathered from
// predecessor nodes, then shared variables, then the task itself. Any
// section with nothing to show is omitted entirely rather than printed
// empty.
func (c *Context) BuildAgentPrompt(baseTask string, predecessorIDs []string, includeOriginalPrompt bool) string {
	var b strings.Builder

	if includeOriginalPrompt {
		fmt.Fprintf(&b, "=== Original User Request ===\n%s\n\n", c.OriginalPrompt)
	}

	if predecessorContext := c.aggregatePredecessorContext(predecessorIDs); predecessorContext != "" {
		b.WriteString(predecessorContext)
	}

	if vars := c.GetAllVariables(); len(vars) > 0 {
		b.WriteString("=== Shared Variables ===\n")
		for k, v := range vars {
			fmt.Fprintf(&b, "%s: %v\n", k, v)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "=== Your Task ===\n%s", baseTask)
	return b.String()
}

// Summary is a point-in-time overview of a context's contents, useful
// for logging and the execution history store.
type Summary struct {
	ExecutionID   string
	WorkflowID    string
	StartedAt     time.Time
	NodeCount     int
	TotalOutputs  int
	VariableCount int
}

// GetExecutionSummary reports aggregate counts across the whole context.
func (c *Context) GetExecutionSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, outs := range c.outputs {
		total += len(outs)
	}
	return Summary{
		ExecutionID:   c.ExecutionID,
		WorkflowID:    c.WorkflowID,
		StartedAt:     c.StartedAt,
		NodeCount:     len(c.outputs),
		TotalOutputs:  total,
		VariableCount: len(c.variables),
	}
}

// Store holds one Context per in-flight execution, so the engine and the
// HTTP surface can both reach the same context by execution ID.
type Store struct {
	mu       sync.RWMutex
	contexts map[string]*Context
}

// NewStore creates an empty context store.
func NewStore() *Store {
	return &Store{contexts: make(map[string]*Context)}
}

// Create builds a new context for the given execution and registers it.
func (s *Store) Create(executionID, workflowID, originalPrompt string) *Context {
	ctx := New(executionID, workflowID, originalPrompt)
	s.mu.Lock()
	s.contexts[executionID] = ctx
	s.mu.Unlock()
	return ctx
}

// Get retrieves the context for an execution, if it is still tracked.
func (s *Store) Get(executionID string) (*Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.contexts[executionID]
	return ctx, ok
}

// Remove drops a context once its execution is finished.
func (s *Store) Remove(executionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, executionID)
}
