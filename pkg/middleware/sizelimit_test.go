package middleware

import (
	"strings"
	"testing"

	"github.com/nexusdag/nexus/pkg/execctx"
	"github.com/nexusdag/nexus/pkg/types"
)

// TestSizeLimitMiddleware_InputSizeLimit tests input size limiting
func TestSizeLimitMiddleware_InputSizeLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     100, // 100 bytes
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeImplementer, Prompt: strings.Repeat("x", 200)}

	handler := func(ctx *execctx.Context, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Error("expected error for large input, got nil")
	}

	if !strings.Contains(err.Error(), "input size limit exceeded") {
		t.Errorf("expected size limit error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_ResultSizeLimit tests result size limiting
func TestSizeLimitMiddleware_ResultSizeLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxResultSize:     100, // 100 bytes
		EnforceResultSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeImplementer}

	// Handler returns large result
	largeResult := strings.Repeat("x", 200)
	handler := func(ctx *execctx.Context, node types.Node) (interface{}, error) {
		return largeResult, nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Error("expected error for large result, got nil")
	}

	if !strings.Contains(err.Error(), "result size limit exceeded") {
		t.Errorf("expected result size limit error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_StringLengthLimit tests string length limiting
func TestSizeLimitMiddleware_StringLengthLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     1000, // Set high enough to not trigger first
		MaxStringLength:  50,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeImplementer, Prompt: strings.Repeat("x", 100)}

	handler := func(ctx *execctx.Context, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Error("expected error for long string, got nil")
	}

	if !strings.Contains(err.Error(), "string length") {
		t.Errorf("expected string length error, got: %v", err)
	}
}

// TestSizeLimitMiddleware_ArrayLengthLimit checks that MaxArrayLength does
// not count a node's CLI args, which reach the middleware as separate
// string inputs rather than one array
func TestSizeLimitMiddleware_ArrayLengthLimit(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:     10000, // Set high enough to not trigger first
		MaxArrayLength:   10,
		EnforceInputSize: true,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)

	// 20 CLI args on the node's agent config
	args := make([]string, 20)
	for i := 0; i < 20; i++ {
		args[i] = "arg"
	}
	node := types.Node{ID: "test", Type: types.NodeTypeImplementer, Agent: types.AgentConfig{Args: args}}

	handler := func(ctx *execctx.Context, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err != nil {
		t.Errorf("unexpected error with flat string args: %v", err)
	}
}

// TestSizeLimitMiddleware_AllowedInputs tests that allowed inputs pass
func TestSizeLimitMiddleware_AllowedInputs(t *testing.T) {
	m := NewSizeLimitMiddleware()
	node := types.Node{ID: "test", Type: types.NodeTypeImplementer, Prompt: "hello"}

	executionCount := 0
	handler := func(ctx *execctx.Context, node types.Node) (interface{}, error) {
		executionCount++
		return "ok", nil
	}

	result, err := m.Process(nil, node, handler)
	if err != nil {
		t.Errorf("expected no error for valid inputs, got: %v", err)
	}

	if result != "ok" {
		t.Errorf("expected 'ok', got %v", result)
	}

	if executionCount != 1 {
		t.Errorf("expected handler to be called once, got %d", executionCount)
	}
}

// TestSizeLimitMiddleware_DisabledLimits tests with limits disabled
func TestSizeLimitMiddleware_DisabledLimits(t *testing.T) {
	config := SizeLimitConfig{
		MaxInputSize:      10,
		MaxResultSize:     10,
		EnforceInputSize:  false,
		EnforceResultSize: false,
	}

	m := NewSizeLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeImplementer, Prompt: strings.Repeat("x", 100)}

	largeResult := strings.Repeat("y", 100)
	handler := func(ctx *execctx.Context, node types.Node) (interface{}, error) {
		return largeResult, nil
	}

	result, err := m.Process(nil, node, handler)
	if err != nil {
		t.Errorf("expected no error with disabled limits, got: %v", err)
	}

	if result != largeResult {
		t.Error("result should be returned even if large when limits disabled")
	}
}

// TestSizeLimitMiddleware_Name tests the Name method
func TestSizeLimitMiddleware_Name(t *testing.T) {
	m := NewSizeLimitMiddleware()

	if m.Name() != "SizeLimit" {
		t.Errorf("expected 'SizeLimit', got %s", m.Name())
	}
}

// TestValidateWorkflowSize_NodeCount tests node count validation
func TestValidateWorkflowSize_NodeCount(t *testing.T) {
	config := SizeLimitConfig{
		MaxNodeCount: 5,
	}

	// Create 10 nodes
	nodes := make([]types.Node, 10)
	for i := 0; i < 10; i++ {
		nodes[i] = types.Node{ID: string(rune('a' + i)), Type: types.NodeTypeImplementer}
	}

	err := ValidateWorkflowSize(nodes, []types.Edge{}, config)
	if err == nil {
		t.Error("expected error for too many nodes, got nil")
	}

	if !strings.Contains(err.Error(), "nodes") {
		t.Errorf("expected node count error, got: %v", err)
	}
}

// TestValidateWorkflowSize_EdgeCount tests edge count validation
func TestValidateWorkflowSize_EdgeCount(t *testing.T) {
	config := SizeLimitConfig{
		MaxEdgeCount: 5,
	}

	nodes := []types.Node{
		{ID: "1", Type: types.NodeTypeImplementer},
		{ID: "2", Type: types.NodeTypeImplementer},
	}

	// Create 10 edges
	edges := make([]types.Edge, 10)
	for i := 0; i < 10; i++ {
		edges[i] = types.Edge{Source: "1", Target: "2"}
	}

	err := ValidateWorkflowSize(nodes, edges, config)
	if err == nil {
		t.Error("expected error for too many edges, got nil")
	}

	if !strings.Contains(err.Error(), "edges") {
		t.Errorf("expected edge count error, got: %v", err)
	}
}

// TestValidateWorkflowSize_ValidWorkflow tests valid workflow passes
func TestValidateWorkflowSize_ValidWorkflow(t *testing.T) {
	config := DefaultSizeLimitConfig()

	nodes := []types.Node{
		{ID: "1", Type: types.NodeTypeImplementer},
		{ID: "2", Type: types.NodeTypeImplementer},
		{ID: "3", Type: types.NodeTypeImplementer},
	}

	edges := []types.Edge{
		{Source: "1", Target: "2"},
		{Source: "2", Target: "3"},
	}

	err := ValidateWorkflowSize(nodes, edges, config)
	if err != nil {
		t.Errorf("expected no error for valid workflow, got: %v", err)
	}
}
