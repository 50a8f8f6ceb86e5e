// Package middleware provides node-execution middleware for the workflow engine.
//
// # Overview
//
// The middleware package implements a chain of interceptors around a
// single node-execution Handler, allowing pre-processing,
// post-processing, and wrapping of node execution. This enables
// cross-cutting concerns like logging, metrics, retries, timeouts,
// rate limits, size limits and validation.
//
// # Features
//
//   - Node middleware: Intercept individual node execution
//   - Chain composition: Stack multiple middleware
//   - Order control: Middleware run in the order they are added
//   - Short-circuit: A middleware may return without calling next
//   - Error handling: Intercept and transform errors
//
// There is no workflow-level middleware; every middleware wraps the
// execution of one node.
//
// # Middleware Interface
//
//	type Handler func(ctx *execctx.Context, node types.Node) (interface{}, error)
//
//	type Middleware interface {
//	    Process(ctx *execctx.Context, node types.Node, next Handler) (interface{}, error)
//	    Name() string
//	}
//
// # Basic Usage
//
//	import "github.com/nexusdag/nexus/pkg/middleware"
//
//	chain := middleware.NewChain().
//	    Use(middleware.NewLoggingMiddleware(logger)).
//	    Use(middleware.NewMetricsMiddleware(middleware.NewInMemoryMetricsCollector()))
//
//	result, err := chain.Execute(execCtx, node, handler)
//
// The engine does not build a Chain itself; a caller that wants
// middleware around node execution wraps its own Handler this way.
//
// # Custom Middleware Example
//
//	type TimingMiddleware struct{}
//
//	func (m *TimingMiddleware) Process(ctx *execctx.Context, node types.Node, next middleware.Handler) (interface{}, error) {
//	    start := time.Now()
//	    result, err := next(ctx, node)
//	    log.Printf("node %s took %v", node.ID, time.Since(start))
//	    return result, err
//	}
//
//	func (m *TimingMiddleware) Name() string { return "Timing" }
//
// # Built-in Middleware
//
// LoggingMiddleware (NewLoggingMiddleware):
//   - Logs node execution and its errors through a *logging.Logger
//
// MetricsMiddleware (NewMetricsMiddleware):
//   - Records node execution results through a MetricsCollector;
//     InMemoryMetricsCollector is provided
//
// RetryMiddleware and ConditionalRetryMiddleware:
//   - Retry a failed call with exponential backoff (RetryConfig)
//   - ConditionalRetryMiddleware retries only errors that match one of
//     the given substrings
//
// TimeoutMiddleware and TimeoutMiddlewareWithContext:
//   - Return a timeout error once the limit passes
//   - Do not stop the handler, which keeps running in its goroutine
//
// RateLimitMiddleware:
//   - Token-bucket limits: global, per node type and per workflow
//
// SizeLimitMiddleware:
//   - Limits on input, string and result size (SizeLimitConfig)
//   - ValidateWorkflowSize checks node and edge counts
//
// ValidationMiddleware and InputValidationMiddleware:
//   - Validate a node through a caller-supplied validator, or limit the
//     size of a node's input
//
// There is no caching or security middleware.
//
// # Middleware Chain
//
// The first middleware added runs first on the way in and last on the
// way out:
//
//	chain := middleware.NewChain().Use(a).Use(b)
//
//	a (before) → b (before) → handler → b (after) → a (after)
//
// # Error Handling
//
// Middleware can intercept and transform errors:
//
//	func (m *ErrorMiddleware) Process(ctx *execctx.Context, node types.Node, next middleware.Handler) (interface{}, error) {
//	    result, err := next(ctx, node)
//	    if err != nil {
//	        return nil, fmt.Errorf("node %s failed: %w", node.ID, err)
//	    }
//	    return result, nil
//	}
//
// # Performance Considerations
//
//   - Minimize allocations in hot paths
//   - Use context for request-scoped data
//   - Avoid blocking operations in middleware
//   - Consider middleware overhead for high-throughput scenarios
//
// # Use Cases
//
//   - Authentication and authorization
//   - Request/response logging
//   - Metrics collection and monitoring
//   - Rate limiting and throttling
//   - Input validation and sanitization
//   - Error handling and recovery
//   - Request tracing and correlation
//
// # Best Practices
//
//   - Keep middleware focused on a single concern
//   - Avoid modifying workflow/node state in middleware
//   - Use context for passing request-scoped data
//   - Always call next() unless explicitly stopping the chain
//   - Handle errors appropriately (wrap, transform, or log)
//   - Document middleware ordering requirements
//
// # Thread Safety
//
// Middleware implementations should be stateless and thread-safe.
// The same middleware instance may be used concurrently by multiple
// goroutines.
package middleware
