// Package logging provides structured logging capabilities for the workflow engine.
//
// # Overview
//
// The logging package wraps the standard library's log/slog. A Logger is
// configured once with New; scoped loggers are derived from it with the
// With* methods, each of which returns a new Logger carrying one more
// attribute and leaves the receiver unchanged.
//
// # Features
//
//   - Structured logging: JSON (default) or slog text format
//   - Log levels: debug, info, warn, error
//   - Scoped fields: workflow, execution, node, agent and message IDs,
//     node type, errors and arbitrary key/value fields
//   - Level filtering: entries below the configured level are dropped
//   - Thread-safe: Safe for concurrent use
//   - Flexible output: Write to any io.Writer
//
// # Log Levels
//
// Config.Level accepts "debug", "info", "warn" (or "warning") and
// "error". Any other value, including the empty string, selects info.
//
// # Basic Usage
//
//	import "github.com/nexusdag/nexus/pkg/logging"
//
//	// Create logger
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	// Log messages
//	logger.WithWorkflowID("wf-123").Info("Workflow started")
//	logger.WithNodeID("node-5").WithError(err).Error("Execution failed")
//	logger.Infof("level %d completed", level)
//
// # Context Integration
//
// WithContext stores a Logger in a context.Context and FromContext
// retrieves it; FromContext returns a logger built from DefaultConfig
// when the context carries none:
//
//	ctx = logger.WithContext(ctx)
//	logging.FromContext(ctx).WithField("node_type", "architect").Info("Node executing")
//
// # Structured Fields
//
//	logger.WithFields(map[string]interface{}{
//	    "node_count":  42,
//	    "duration_ms": 145,
//	}).Info("Workflow completed")
//
// # Output Formats
//
// JSON format (Pretty false, the default) uses slog's JSON handler:
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"Workflow started","workflow_id":"wf-123"}
//
// Text format (Pretty true) uses slog's text handler:
//
//	time=2024-01-15T10:30:00Z level=INFO msg="Workflow started" workflow_id=wf-123
//
// # Configuration
//
// Logger configuration options:
//
//	config := logging.Config{
//	    Level:         "debug",   // Minimum level to log
//	    Output:        os.Stdout, // Where to write logs (nil means os.Stdout)
//	    Pretty:        false,     // slog text output instead of JSON
//	    IncludeCaller: true,      // Include source file:line
//	}
//
// Fatal and Fatalf log at error level and then call os.Exit(1).
//
// # Best Practices
//
//   - Use structured fields instead of string formatting
//   - Include execution context (workflow_id, node_id, etc.)
//   - Log at appropriate levels (avoid debug in production)
//   - Add timing information for performance analysis
//   - Include error context (not just error message)
//   - Use consistent field names across the codebase
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently
// from multiple goroutines without additional synchronization.
//
// # Testing
//
// For testing, use a logger with a buffer:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: buf,
//	})
//
//	// Execute code
//	// Verify log output
//	if !strings.Contains(buf.String(), "expected message") { ... }
package logging
