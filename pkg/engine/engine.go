// Package engine provides the workflow execution engine.
// This orchestrates graph validation, level-by-level scheduling, and
// agent execution across Execute, ExecuteOrchestrated and ExecuteEnhanced.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nexusdag/nexus/pkg/aggregation"
	"github.com/nexusdag/nexus/pkg/checkpoint"
	"github.com/nexusdag/nexus/pkg/condition"
	"github.com/nexusdag/nexus/pkg/config"
	"github.com/nexusdag/nexus/pkg/execctx"
	"github.com/nexusdag/nexus/pkg/graph"
	"github.com/nexusdag/nexus/pkg/logging"
	"github.com/nexusdag/nexus/pkg/observer"
	"github.com/nexusdag/nexus/pkg/orchestrator"
	"github.com/nexusdag/nexus/pkg/process"
	"github.com/nexusdag/nexus/pkg/resources"
	"github.com/nexusdag/nexus/pkg/retry"
	"github.com/nexusdag/nexus/pkg/types"
)

// Options controls the enhanced-execution features (data flow,
// conditions, aggregation, retry, checkpointing). Execute and
// ExecuteOrchestrated run with DefaultOptions; ExecuteEnhanced lets the
// caller override them per run.
type Options struct {
	// IncludeOriginalPrompt prepends the workflow's original prompt to
	// every node's built prompt.
	IncludeOriginalPrompt bool
	// DefaultAggregation is used for a node with multiple predecessors
	// and no Aggregation override of its own.
	DefaultAggregation types.Aggregation
	// CheckpointTrigger decides when the engine saves a checkpoint. Only
	// TriggerAfterLevel and TriggerManual are meaningful here; any other
	// value disables automatic checkpointing for the run.
	CheckpointTrigger types.CheckpointTrigger
	// RetryConfig decides which node failures are retryable for this
	// run. Every node in the execution shares it; a node's own
	// Agent.MaxAttempts still overrides only the attempt budget.
	RetryConfig retry.Config
}

// DefaultOptions returns the options Execute and ExecuteOrchestrated run
// with.
func DefaultOptions() Options {
	return Options{
		IncludeOriginalPrompt: true,
		DefaultAggregation:    types.Aggregation{Kind: types.AggregationConcatenate},
		CheckpointTrigger:     types.TriggerAfterLevel,
		RetryConfig:           retry.DefaultConfig(),
	}
}

// Summary is a point-in-time snapshot of one execution's progress,
// returned by Status.
type Summary struct {
	ExecutionID    string
	WorkflowID     string
	Status         types.ExecutionStatus
	Levels         [][]string
	CurrentLevel   int
	Nodes          map[string]types.NodeState
	Progress       int
	StartedAt      time.Time
	EndedAt        *time.Time
	FinalError     string
}

// Engine runs workflow executions. One Engine can drive many concurrent
// executions; its dependencies (process supervisor, resource manager,
// checkpoint manager) are injected once at construction rather than
// built per execution, so every execution draws from the same process
// table and resource pool.
type Engine struct {
	cfg         *config.Config
	supervisor  *process.Supervisor
	resourceMgr *resources.Manager
	checkpoints *checkpoint.Manager
	contexts    *execctx.Store
	conditions  *condition.Evaluator
	observerMgr *observer.Manager
	logger      *logging.Logger

	mu         sync.RWMutex
	executions map[string]*execution
}

// New creates an Engine wired to the given dependencies. Any of
// checkpoints/observerMgr/logger may be nil; a nil checkpoint manager
// simply disables checkpointing, a nil observer manager disables event
// delivery, and a nil logger falls back to logging.New(logging.DefaultConfig()).
func New(cfg *config.Config, supervisor *process.Supervisor, resourceMgr *resources.Manager, checkpoints *checkpoint.Manager, observerMgr *observer.Manager, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	if observerMgr == nil {
		observerMgr = observer.NewManager()
	}
	return &Engine{
		cfg:         cfg,
		supervisor:  supervisor,
		resourceMgr: resourceMgr,
		checkpoints: checkpoints,
		contexts:    execctx.NewStore(),
		conditions:  condition.NewEvaluator(),
		observerMgr: observerMgr,
		logger:      logger,
		executions:  make(map[string]*execution),
	}
}

// execution is the live, in-memory record of one workflow run.
type execution struct {
	id         string
	workflowID string
	g          *graph.Graph
	levels     [][]string
	nodeByID   map[string]types.Node
	opts       Options

	cancel context.CancelFunc

	mu           sync.RWMutex
	status       types.ExecutionStatus
	currentLevel int
	nodeStates   map[string]*types.NodeState
	startedAt    time.Time
	endedAt      *time.Time
	finalError   string
}

func (ex *execution) snapshotStatuses() map[string]types.ExecutionStatus {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	out := make(map[string]types.ExecutionStatus, len(ex.nodeStates))
	for id, st := range ex.nodeStates {
		out[id] = st.Status
	}
	return out
}

func (ex *execution) summary() Summary {
	ex.mu.RLock()
	defer ex.mu.RUnlock()

	nodes := make(map[string]types.NodeState, len(ex.nodeStates))
	total, progressSum := 0, 0
	for id, st := range ex.nodeStates {
		nodes[id] = *st
		total++
		progressSum += st.Progress
	}
	progress := 0
	if total > 0 {
		progress = progressSum / total
	}

	return Summary{
		ExecutionID:  ex.id,
		WorkflowID:   ex.workflowID,
		Status:       ex.status,
		Levels:       ex.levels,
		CurrentLevel: ex.currentLevel,
		Nodes:        nodes,
		Progress:     progress,
		StartedAt:    ex.startedAt,
		EndedAt:      ex.endedAt,
		FinalError:   ex.finalError,
	}
}

// Execute runs nodes/edges as a static graph, starting from prompt as
// the workflow's original request.
func (e *Engine) Execute(ctx context.Context, workflowID string, nodes []types.Node, edges []types.Edge, prompt string) (string, error) {
	return e.submit(ctx, workflowID, nodes, edges, prompt, DefaultOptions())
}

// ExecuteEnhanced runs nodes/edges with caller-controlled data flow,
// aggregation default and checkpoint behavior.
func (e *Engine) ExecuteEnhanced(ctx context.Context, workflowID string, nodes []types.Node, edges []types.Edge, prompt string, opts Options) (string, error) {
	return e.submit(ctx, workflowID, nodes, edges, prompt, opts)
}

// ExecuteOrchestrated spawns a single planning agent to turn prompt into
// a task graph, then runs that graph exactly as Execute would.
// workingDir is the directory the planning agent (and every node agent
// it plans) runs in.
func (e *Engine) ExecuteOrchestrated(ctx context.Context, workflowID, prompt, workingDir string) (string, error) {
	planAgentID := "orchestrator-" + types.GenerateAgentID()

	e.notify(ctx, observer.EventNodeStart, observer.StatusStarted, "", workflowID, 0, "orchestrator", types.NodeTypeGeneric, planAgentID, nil, nil)

	plannerCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.PlannerTimeout > 0 {
		plannerCtx, cancel = context.WithTimeout(ctx, e.cfg.PlannerTimeout)
		defer cancel()
	}

	done, err := e.supervisor.Spawn(plannerCtx, planAgentID, "orchestrator", "orchestrator", workingDir, orchestrator.BuildPlanPrompt(prompt), "")
	if err != nil {
		e.notify(ctx, observer.EventNodeFailure, observer.StatusFailure, "", workflowID, 0, "orchestrator", types.NodeTypeGeneric, planAgentID, nil, err)
		return "", fmt.Errorf("%w: %v", ErrPlannerFailed, err)
	}

	select {
	case <-done:
	case <-plannerCtx.Done():
		_ = e.supervisor.Kill(planAgentID)
		e.notify(ctx, observer.EventNodeFailure, observer.StatusFailure, "", workflowID, 0, "orchestrator", types.NodeTypeGeneric, planAgentID, nil, plannerCtx.Err())
		return "", fmt.Errorf("%w: %v", ErrPlannerFailed, plannerCtx.Err())
	}

	info, _ := e.supervisor.Info(planAgentID)
	raw, _ := e.supervisor.Output(planAgentID)
	if info.Status == process.StatusFailed || info.Status == process.StatusKilled {
		e.notify(ctx, observer.EventNodeFailure, observer.StatusFailure, "", workflowID, 0, "orchestrator", types.NodeTypeGeneric, planAgentID, nil, ErrPlannerFailed)
		return "", fmt.Errorf("%w: planner agent exited with status %s", ErrPlannerFailed, info.Status)
	}

	plan, err := orchestrator.ParsePlan(raw)
	if err != nil {
		e.notify(ctx, observer.EventNodeFailure, observer.StatusFailure, "", workflowID, 0, "orchestrator", types.NodeTypeGeneric, planAgentID, nil, err)
		return "", fmt.Errorf("%w: %v", ErrPlannerFailed, err)
	}

	e.notify(ctx, observer.EventNodeSuccess, observer.StatusSuccess, "", workflowID, 0, "orchestrator", types.NodeTypeGeneric, planAgentID, map[string]interface{}{"task_count": len(plan.Tasks), "project_summary": plan.ProjectSummary}, nil)

	payload := orchestrator.PlanToGraph(plan)
	for i := range payload.Nodes {
		payload.Nodes[i].Agent.WorkingDir = workingDir
	}

	e.logger.WithWorkflowID(workflowID).Infof("orchestrator produced %d task(s): %s", len(payload.Nodes), plan.ProjectSummary)

	return e.submit(ctx, workflowID, payload.Nodes, payload.Edges, prompt, DefaultOptions())
}

func (e *Engine) submit(ctx context.Context, workflowID string, nodes []types.Node, edges []types.Edge, prompt string, opts Options) (string, error) {
	g := graph.New(nodes, edges)
	if g.IsEmpty() {
		return "", ErrEmptyWorkflow
	}
	if err := g.Validate(); err != nil {
		return "", err
	}
	levels, err := g.Levels()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCycleDetected, err)
	}

	executionID := types.GenerateExecutionID()
	nodeByID := make(map[string]types.Node, len(nodes))
	nodeStates := make(map[string]*types.NodeState, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
		nodeStates[n.ID] = &types.NodeState{NodeID: n.ID, Status: types.StatusPending}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ec := e.contexts.Create(executionID, workflowID, prompt)

	ex := &execution{
		id:         executionID,
		workflowID: workflowID,
		g:          g,
		levels:     levels,
		nodeByID:   nodeByID,
		opts:       opts,
		cancel:     cancel,
		status:     types.StatusRunning,
		nodeStates: nodeStates,
		startedAt:  time.Now(),
	}

	e.mu.Lock()
	e.executions[executionID] = ex
	e.mu.Unlock()

	e.notify(ctx, observer.EventWorkflowStarted, observer.StatusStarted, executionID, workflowID, 0, "", "", "", nil, nil)

	go e.run(runCtx, ex, ec, prompt)

	return executionID, nil
}

// Cancel requests that a running execution stop: no further levels will
// start, and every in-flight node's agent is killed. It reports whether
// executionID was a known, still-tracked execution.
func (e *Engine) Cancel(executionID string) bool {
	e.mu.RLock()
	ex, ok := e.executions[executionID]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	ex.cancel()
	return true
}

// Status returns a snapshot of executionID's current progress.
func (e *Engine) Status(executionID string) (Summary, bool) {
	e.mu.RLock()
	ex, ok := e.executions[executionID]
	e.mu.RUnlock()
	if !ok {
		return Summary{}, false
	}
	return ex.summary(), true
}

// Resume re-enters a checkpointed execution. nodes/edges must describe
// the same graph the checkpoint was captured from. Per opts: a node
// that last Failed is reset to Pending when RetryFailed is set, a node
// still Running (interrupted mid-level) is reset to Pending when
// RerunInterrupted is set, every ID in SkipNodes is forced to Skipped
// regardless of its checkpointed status, and OverrideVariables take
// precedence over the checkpointed variable store. Every other node
// keeps its checkpointed status. The level loop then resumes at
// cp.CurrentLevel rather than restarting from level 0.
func (e *Engine) Resume(ctx context.Context, nodes []types.Node, edges []types.Edge, cp *types.Checkpoint, opts checkpoint.ResumeOptions) (string, error) {
	if cp == nil {
		return "", fmt.Errorf("engine: resume requires a checkpoint")
	}

	g := graph.New(nodes, edges)
	if g.IsEmpty() {
		return "", ErrEmptyWorkflow
	}
	if err := g.Validate(); err != nil {
		return "", err
	}
	levels, err := g.Levels()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCycleDetected, err)
	}

	nodeByID := make(map[string]types.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	skip := make(map[string]bool, len(opts.SkipNodes))
	for _, id := range opts.SkipNodes {
		skip[id] = true
	}

	nodeStates := make(map[string]*types.NodeState, len(nodeByID))
	for id := range nodeByID {
		cpState, ok := cp.Nodes[id]
		switch {
		case skip[id]:
			nodeStates[id] = &types.NodeState{NodeID: id, Status: types.StatusSkipped, Progress: 100, Error: "skipped on resume"}
		case !ok:
			nodeStates[id] = &types.NodeState{NodeID: id, Status: types.StatusPending}
		case cpState.Status == types.StatusFailed && opts.RetryFailed:
			nodeStates[id] = &types.NodeState{NodeID: id, Status: types.StatusPending}
		case cpState.Status == types.StatusRunning && opts.RerunInterrupted:
			nodeStates[id] = &types.NodeState{NodeID: id, Status: types.StatusPending}
		default:
			st := *cpState
			nodeStates[id] = &st
		}
	}

	ec := e.contexts.Create(cp.ExecutionID, cp.WorkflowID, "")
	for k, v := range cp.Variables {
		ec.SetVariable(k, v)
	}
	for k, v := range opts.OverrideVariables {
		ec.SetVariable(k, v)
	}
	now := time.Now()
	for id, out := range cp.Outputs {
		ec.StoreOutput(execctx.Output{NodeID: id, AgentRole: nodeByID[id].Role, Data: out, Timestamp: now})
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ex := &execution{
		id:           cp.ExecutionID,
		workflowID:   cp.WorkflowID,
		g:            g,
		levels:       levels,
		nodeByID:     nodeByID,
		opts:         DefaultOptions(),
		cancel:       cancel,
		status:       types.StatusRunning,
		currentLevel: cp.CurrentLevel,
		nodeStates:   nodeStates,
		startedAt:    cp.CreatedAt,
	}

	e.mu.Lock()
	e.executions[cp.ExecutionID] = ex
	e.mu.Unlock()

	e.notify(ctx, observer.EventWorkflowStarted, observer.StatusStarted, cp.ExecutionID, cp.WorkflowID, cp.CurrentLevel, "", "", "", map[string]interface{}{"resumed": true}, nil)

	go e.run(runCtx, ex, ec, "")

	return cp.ExecutionID, nil
}

// run drives one execution's level loop from start to terminal event.
// Exactly one of ExecutionCompleted/ExecutionFailed/ExecutionCancelled
// is emitted before this goroutine returns.
func (e *Engine) run(ctx context.Context, ex *execution, ec *execctx.Context, originalPrompt string) {
	failed := make(map[string]bool)
	ex.mu.RLock()
	for id, st := range ex.nodeStates {
		if st.Status == types.StatusFailed {
			failed[id] = true
		}
	}
	startLevel := ex.currentLevel
	ex.mu.RUnlock()

	for levelIdx := startLevel; levelIdx < len(ex.levels); levelIdx++ {
		levelIDs := ex.levels[levelIdx]
		select {
		case <-ctx.Done():
			e.finish(ctx, ex, types.StatusCancelled, "")
			return
		default:
		}

		ex.mu.Lock()
		ex.currentLevel = levelIdx
		ex.mu.Unlock()

		toRun, toSkip := e.partitionLevel(ec, ex, levelIDs, failed)

		for _, s := range toSkip {
			now := time.Now()
			ex.mu.Lock()
			ex.nodeStates[s.id].Skip(now, s.reason)
			ex.mu.Unlock()
			e.notifyNode(ctx, observer.EventNodeSkipped, observer.StatusCompleted, ex.id, ex.workflowID, levelIdx, s.id, ex.nodeByID[s.id].Type, "", map[string]interface{}{"reason": s.reason}, nil)
		}

		if len(toRun) == 0 {
			continue
		}

		e.notify(ctx, observer.EventLevelStarted, observer.StatusStarted, ex.id, ex.workflowID, levelIdx, "", "", "", map[string]interface{}{"nodes": toRun}, nil)

		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, nodeID := range toRun {
			wg.Add(1)
			go func(nodeID string) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						mu.Lock()
						failed[nodeID] = true
						mu.Unlock()
						now := time.Now()
						ex.mu.Lock()
						ex.nodeStates[nodeID].Fail(now, fmt.Errorf("task panicked"))
						ex.mu.Unlock()
						e.notifyNode(ctx, observer.EventNodeFailure, observer.StatusFailure, ex.id, ex.workflowID, levelIdx, nodeID, ex.nodeByID[nodeID].Type, "", nil, fmt.Errorf("task panicked"))
					}
				}()
				if err := e.runNode(ctx, ex, ec, nodeID, levelIdx, originalPrompt); err != nil {
					mu.Lock()
					failed[nodeID] = true
					mu.Unlock()
				}
			}(nodeID)
		}
		wg.Wait()

		if ex.opts.CheckpointTrigger == types.TriggerAfterLevel {
			e.saveCheckpoint(ex, ec)
		}

		e.notify(ctx, observer.EventLevelCompleted, observer.StatusCompleted, ex.id, ex.workflowID, levelIdx, "", "", "", nil, nil)
		e.notify(ctx, observer.EventProgressUpdate, observer.StatusCompleted, ex.id, ex.workflowID, levelIdx, "", "", "", map[string]interface{}{"progress": ex.summary().Progress}, nil)
	}

	select {
	case <-ctx.Done():
		e.finish(ctx, ex, types.StatusCancelled, "")
		return
	default:
	}

	if len(failed) == 0 {
		e.finish(ctx, ex, types.StatusCompleted, "")
		return
	}

	failedList := make([]string, 0, len(failed))
	for id := range failed {
		failedList = append(failedList, id)
	}
	sort.Strings(failedList)
	e.finish(ctx, ex, types.StatusFailed, fmt.Sprintf("%d node(s) failed: %s", len(failedList), strings.Join(failedList, ", ")))
}

type skippedNode struct {
	id     string
	reason string
}

// partitionLevel splits one level's nodes into those to run and those
// to skip. A node whose dependency failed is always skipped, regardless
// of its own Condition — dependency-skip takes precedence over every
// other gate.
func (e *Engine) partitionLevel(ec *execctx.Context, ex *execution, levelIDs []string, failed map[string]bool) (toRun []string, toSkip []skippedNode) {
	statuses := ex.snapshotStatuses()
	for _, nodeID := range levelIDs {
		deps := ex.g.Dependencies(nodeID)

		depFailed := false
		for _, d := range deps {
			if failed[d] {
				depFailed = true
				break
			}
		}
		if depFailed {
			toSkip = append(toSkip, skippedNode{nodeID, "dependency failed"})
			continue
		}

		node := ex.nodeByID[nodeID]
		cond := types.Condition{Kind: types.ConditionAlways}
		if node.Condition != nil {
			cond = *node.Condition
		}
		result := e.conditions.Evaluate(ec, cond, statuses, deps)
		if !result.ShouldExecute {
			toSkip = append(toSkip, skippedNode{nodeID, result.Reason})
			continue
		}

		toRun = append(toRun, nodeID)
	}
	return toRun, toSkip
}

func (e *Engine) finish(ctx context.Context, ex *execution, status types.ExecutionStatus, errMsg string) {
	ex.mu.Lock()
	ex.status = status
	now := time.Now()
	ex.endedAt = &now
	ex.finalError = errMsg
	ex.mu.Unlock()

	var evType observer.EventType
	var evStatus observer.ExecutionStatus
	switch status {
	case types.StatusCompleted:
		evType, evStatus = observer.EventWorkflowCompleted, observer.StatusCompleted
	case types.StatusFailed:
		evType, evStatus = observer.EventWorkflowFailed, observer.StatusFailure
	case types.StatusCancelled:
		evType, evStatus = observer.EventWorkflowCancelled, observer.StatusFailure
	}

	var evErr error
	if errMsg != "" {
		evErr = fmt.Errorf("%s", errMsg)
	}
	e.notify(ctx, evType, evStatus, ex.id, ex.workflowID, 0, "", "", "", map[string]interface{}{"duration": time.Since(ex.startedAt).String()}, evErr)
}

// notify builds an observer.Event from its arguments and delivers it.
func (e *Engine) notify(ctx context.Context, evType observer.EventType, status observer.ExecutionStatus, executionID, workflowID string, level int, nodeID string, nodeType types.NodeType, agentID string, metadata map[string]interface{}, err error) {
	e.observerMgr.Notify(ctx, observer.Event{
		Type:        evType,
		Status:      status,
		Timestamp:   time.Now(),
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Level:       level,
		NodeID:      nodeID,
		NodeType:    nodeType,
		AgentID:     agentID,
		Metadata:    metadata,
		Error:       err,
	})
}

// notifyNode delivers a node-lifecycle event (start/success/failure/
// skipped/retried) plus the companion node_status_changed event the
// external channel contract names alongside the specific transition.
func (e *Engine) notifyNode(ctx context.Context, evType observer.EventType, status observer.ExecutionStatus, executionID, workflowID string, level int, nodeID string, nodeType types.NodeType, agentID string, metadata map[string]interface{}, err error) {
	e.notify(ctx, evType, status, executionID, workflowID, level, nodeID, nodeType, agentID, metadata, err)
	e.notify(ctx, observer.EventNodeStatusChanged, status, executionID, workflowID, level, nodeID, nodeType, agentID, metadata, err)
}

func (e *Engine) saveCheckpoint(ex *execution, ec *execctx.Context) {
	if e.checkpoints == nil {
		return
	}

	ex.mu.RLock()
	nodes := make(map[string]*types.NodeState, len(ex.nodeStates))
	for id, st := range ex.nodeStates {
		cp := *st
		nodes[id] = &cp
	}
	levels := ex.levels
	currentLevel := ex.currentLevel
	status := ex.status
	ex.mu.RUnlock()

	outputs := make(map[string]types.AgentOutput, len(nodes))
	for id := range nodes {
		if out, ok := ec.GetLatestOutput(id); ok {
			outputs[id] = out.Data
		}
	}

	cp := &types.Checkpoint{
		ExecutionID:  ex.id,
		WorkflowID:   ex.workflowID,
		Status:       status,
		Trigger:      ex.opts.CheckpointTrigger,
		Levels:       levels,
		CurrentLevel: currentLevel,
		Nodes:        nodes,
		Variables:    ec.GetAllVariables(),
		Outputs:      outputs,
	}

	if _, err := e.checkpoints.Save(cp); err != nil {
		e.logger.WithExecutionID(ex.id).WithError(err).Warn("failed to save checkpoint")
	}
}

// runNode builds the node's prompt, then spawns and retries its agent
// until it succeeds, its retry budget is exhausted, or the execution is
// cancelled.
func (e *Engine) runNode(ctx context.Context, ex *execution, ec *execctx.Context, nodeID string, levelIdx int, originalPrompt string) error {
	node := ex.nodeByID[nodeID]
	deps := ex.g.Dependencies(nodeID)

	taskPrompt := e.buildPrompt(ec, ex, node, deps, originalPrompt)

	agentRole := node.Role
	if agentRole == "" {
		agentRole = string(node.Type)
	}
	workingDir := node.Agent.WorkingDir
	if workingDir == "" {
		workingDir = "."
	}

	retryState := retry.NewState(e.cfg, ex.opts.RetryConfig, node.Agent.MaxAttempts)

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return e.failNode(ctx, ex, nodeID, levelIdx, ErrExecutionCanceled)
		default:
		}

		permit, err := e.resourceMgr.Acquire(ctx, resources.QueuedTask{
			ExecutionID: ex.id,
			NodeID:      nodeID,
			AgentRole:   agentRole,
			Priority:    resources.Priority(node.Priority),
			QueuedAt:    time.Now(),
		})
		if err != nil {
			return e.failNode(ctx, ex, nodeID, levelIdx, fmt.Errorf("acquire execution resources: %w", err))
		}

		agentID := fmt.Sprintf("%s-%s", ex.id, nodeID)

		now := time.Now()
		ex.mu.Lock()
		ex.nodeStates[nodeID].Start(now)
		ex.nodeStates[nodeID].AgentID = agentID
		ex.mu.Unlock()
		e.notifyNode(ctx, observer.EventNodeStart, observer.StatusStarted, ex.id, ex.workflowID, levelIdx, nodeID, node.Type, agentID, nil, nil)
		e.notify(ctx, observer.EventAgentSpawned, observer.StatusStarted, ex.id, ex.workflowID, levelIdx, nodeID, node.Type, agentID, nil, nil)

		done, spawnErr := e.supervisor.Spawn(ctx, agentID, nodeID, agentRole, workingDir, taskPrompt, node.Agent.Binary)
		if spawnErr != nil {
			e.resourceMgr.Release(permit)
			lastErr = fmt.Errorf("%w: %v", types.ErrAgentSpawnFailed, spawnErr)
		} else {
			lastErr = e.awaitAgent(ctx, agentID, done)
			e.resourceMgr.Release(permit)
		}

		if lastErr == nil {
			output := e.collectOutput(agentID)
			ec.StoreOutput(execctx.Output{
				NodeID:    nodeID,
				AgentID:   agentID,
				AgentRole: agentRole,
				Data:      output,
				Timestamp: time.Now(),
				Tags:      node.Tags,
			})
			completedAt := time.Now()
			ex.mu.Lock()
			ex.nodeStates[nodeID].Complete(completedAt, output)
			ex.mu.Unlock()
			e.notifyNode(ctx, observer.EventNodeSuccess, observer.StatusSuccess, ex.id, ex.workflowID, levelIdx, nodeID, node.Type, agentID, nil, nil)
			return nil
		}

		if lastErr == ErrExecutionCanceled {
			return e.failNode(ctx, ex, nodeID, levelIdx, lastErr)
		}

		decision := retryState.ShouldRetry(lastErr.Error())
		if !decision.Retry {
			break
		}

		retryAt := time.Now()
		ex.mu.Lock()
		ex.nodeStates[nodeID].RetryLog = append(ex.nodeStates[nodeID].RetryLog, types.RetryAttempt{
			Attempt:   decision.Attempt,
			Error:     lastErr.Error(),
			Delay:     decision.Delay,
			Timestamp: retryAt,
		})
		ex.mu.Unlock()
		e.notifyNode(ctx, observer.EventNodeRetried, observer.StatusStarted, ex.id, ex.workflowID, levelIdx, nodeID, node.Type, agentID, map[string]interface{}{"attempt": decision.Attempt, "delay": decision.Delay.String()}, lastErr)

		select {
		case <-time.After(decision.Delay):
		case <-ctx.Done():
			return e.failNode(ctx, ex, nodeID, levelIdx, ErrExecutionCanceled)
		}
	}

	return e.failNode(ctx, ex, nodeID, levelIdx, lastErr)
}

func (e *Engine) failNode(ctx context.Context, ex *execution, nodeID string, levelIdx int, err error) error {
	now := time.Now()
	ex.mu.Lock()
	ex.nodeStates[nodeID].Fail(now, err)
	ex.mu.Unlock()
	e.notifyNode(ctx, observer.EventNodeFailure, observer.StatusFailure, ex.id, ex.workflowID, levelIdx, nodeID, ex.nodeByID[nodeID].Type, "", nil, err)
	return err
}

// buildPrompt assembles a node's task prompt, folding in aggregated
// predecessor output as a shared variable when the node has
// predecessors. Aggregation feeds condition/expression evaluation via
// the stored variable rather than replacing BuildAgentPrompt's own
// fixed per-predecessor rendering, which every node relies on for a
// consistent "what did my predecessors say" section.
func (e *Engine) buildPrompt(ec *execctx.Context, ex *execution, node types.Node, deps []string, originalPrompt string) string {
	baseTask := node.Prompt
	if baseTask == "" {
		baseTask = originalPrompt
	}

	if len(deps) > 0 {
		agg := ex.opts.DefaultAggregation
		if node.Aggregation != nil {
			agg = *node.Aggregation
		}
		predecessorOutputs := ec.GetPredecessorOutputs(deps)
		aggregated := aggregation.Aggregate(predecessorOutputs, agg)
		if node.Transform != nil {
			aggregated = aggregation.ApplyTransform(aggregated, *node.Transform)
		}
		ec.SetVariable(node.ID+".aggregated_input", execctx.ToContextString(aggregated))
	}

	return ec.BuildAgentPrompt(baseTask, deps, ex.opts.IncludeOriginalPrompt)
}

func (e *Engine) awaitAgent(ctx context.Context, agentID string, done <-chan struct{}) error {
	var timeoutCh <-chan time.Time
	if e.cfg.MaxNodeExecutionTime > 0 {
		timer := time.NewTimer(e.cfg.MaxNodeExecutionTime)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-done:
		info, _ := e.supervisor.Info(agentID)
		if info.Status == process.StatusFailed || info.Status == process.StatusKilled {
			return fmt.Errorf("%w: agent %s exited with status %s", ErrNodeExecutionFailed, agentID, info.Status)
		}
		return nil

	case <-ctx.Done():
		_ = e.supervisor.Kill(agentID)
		return ErrExecutionCanceled

	case <-timeoutCh:
		_ = e.supervisor.Kill(agentID)
		return fmt.Errorf("%w: agent %s exceeded %s", ErrExecutionTimeout, agentID, e.cfg.MaxNodeExecutionTime)
	}
}

// collectOutput wraps an agent's raw captured output into an
// AgentOutput. process.Supervisor only ever hands back the raw text off
// the PTY; interpreting it is the engine's job.
func (e *Engine) collectOutput(agentID string) types.AgentOutput {
	raw, _ := e.supervisor.Output(agentID)
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		var js interface{}
		if json.Unmarshal([]byte(text), &js) == nil {
			return types.AgentOutput{Kind: types.OutputJson, Json: js}
		}
	}
	return types.AgentOutput{Kind: types.OutputText, Text: text}
}
