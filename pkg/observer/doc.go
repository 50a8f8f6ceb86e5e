// Package observer provides an event-driven observer pattern for workflow execution.
//
// # Overview
//
// The observer package implements the observer pattern to enable monitoring,
// logging, and reacting to workflow execution events. Observers can track
// workflow lifecycle, node execution, state changes, and errors without
// coupling to the engine implementation.
//
// # Features
//
//   - Event-driven: React to workflow and node events
//   - Multiple observers: Register multiple observers simultaneously
//   - Lifecycle hooks: Observe all stages of execution
//   - Error events: Track failures and exceptions
//   - State events: Monitor state changes and updates
//   - Performance events: Track timing and metrics
//   - Thread-safe: Concurrent event emission
//
// # Observer Interface
//
//	type Observer interface {
//	    OnEvent(ctx context.Context, event Event)
//	}
//
// Every event arrives through OnEvent as an Event value; its Type says
// what happened, and fields such as ExecutionID, WorkflowID, NodeID,
// NodeType, AgentID, Status, Error and Metadata carry the details.
//
// # Event Types
//
// Workflow events:
//   - EventWorkflowStarted
//   - EventWorkflowCompleted, EventWorkflowFailed, EventWorkflowCancelled
//
// Level and progress events:
//   - EventLevelStarted, EventLevelCompleted
//   - EventProgressUpdate
//
// Node events:
//   - EventNodeStart
//   - EventNodeSuccess, EventNodeFailure, EventNodeSkipped, EventNodeRetried
//   - EventNodeStatusChanged
//
// Agent events:
//   - EventAgentSpawned, EventAgentOutput
//
// # Basic Usage
//
//	import "github.com/nexusdag/nexus/pkg/observer"
//
//	// Create a manager and register observers (nil observers are ignored)
//	mgr := observer.NewManager()
//	mgr.Register(observer.NewConsoleObserver())
//
//	// Deliver an event to every registered observer
//	mgr.Notify(ctx, observer.Event{Type: observer.EventWorkflowStarted, WorkflowID: "wf-1"})
//
// # Custom Observer Example
//
//	type CountingObserver struct {
//	    mu     sync.Mutex
//	    counts map[observer.EventType]int
//	}
//
//	func (o *CountingObserver) OnEvent(ctx context.Context, event observer.Event) {
//	    o.mu.Lock()
//	    defer o.mu.Unlock()
//	    o.counts[event.Type]++
//	}
//
// # Built-in Observers
//
// NoOpObserver:
//   - Ignores every event
//
// ConsoleObserver:
//   - Logs events through a Logger
//   - NewConsoleObserver uses a DefaultLogger, which writes to stdout
//     (errors to stderr)
//   - NewConsoleObserverWithLogger accepts any Logger, such as NoOpLogger
//
// # Observer Composition
//
// Multiple observers can be registered on one Manager:
//
//	mgr := observer.NewManagerWithObservers(consoleObserver, countingObserver)
//
// Notify hands the event to each observer in its own goroutine and
// returns without waiting, so the order in which observers see an
// event, and the order of events across Notify calls, is not defined.
//
// # Event Timing
//
// Events are emitted at specific points in execution:
//
//	Workflow Lifecycle:
//	  EventWorkflowStarted
//	    → for each level: EventLevelStarted
//	       → for each node: EventNodeStart
//	            → Execute Node (EventNodeRetried on a retry)
//	          EventNodeSuccess, EventNodeFailure or EventNodeSkipped
//	       EventLevelCompleted, EventProgressUpdate
//	  EventWorkflowCompleted, EventWorkflowFailed or EventWorkflowCancelled
//
// # Context Propagation
//
// Events receive the execution context containing:
//
//   - Execution ID
//   - Workflow ID
//   - User information
//   - Request metadata
//   - Cancellation signals
//
// Observers can extract context values:
//
//	executionID := types.GetExecutionID(ctx)
//	workflowID := types.GetWorkflowID(ctx)
//
// # Performance Considerations
//
//   - Observers should not block
//   - Use buffered channels for async processing
//   - Minimize allocations in hot paths
//   - Consider observer overhead for high-throughput
//
// # Error Handling
//
// A misbehaving observer does not stop execution:
//
//   - Observer panics are recovered silently; nothing is logged
//   - Execution continues normally
//   - Other observers still receive events
//
// # Use Cases
//
//   - Logging and auditing
//   - Metrics collection and monitoring
//   - Real-time dashboards
//   - Debugging and troubleshooting
//   - Performance profiling
//   - Event streaming to external systems
//   - Workflow analytics
//   - Alerting and notifications
//
// # Testing
//
// For testing, use a mock observer:
//
//	type MockObserver struct {
//	    mu     sync.Mutex
//	    events []observer.Event
//	}
//
//	func (o *MockObserver) OnEvent(ctx context.Context, event observer.Event) {
//	    o.mu.Lock()
//	    defer o.mu.Unlock()
//	    o.events = append(o.events, event)
//	}
//
// Because Notify does not wait for observers, a test waits (or polls)
// before inspecting what a mock observer received.
//
// # Best Practices
//
//   - Keep observer logic simple and fast
//   - Use async processing for expensive operations
//   - Don't modify workflow or node state
//   - Handle errors gracefully (don't panic)
//   - Use structured logging for consistency
//   - Consider observer overhead in production
//
// # Thread Safety
//
// Observer methods may be called concurrently from multiple goroutines.
// Implementations must be thread-safe using appropriate synchronization.
package observer
