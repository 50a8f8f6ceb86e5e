// Package resources throttles how many agents run concurrently, queues
// excess work by priority, and rate-limits acquisition so a workflow
// cannot overrun the machine or an upstream agent API.
package resources

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nexusdag/nexus/pkg/config"
)

// Priority orders queued tasks: higher values run first, ties broken by
// arrival order (older first).
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// QueuedTask is a unit of work waiting for a permit.
type QueuedTask struct {
	ExecutionID string
	NodeID      string
	AgentRole   string
	Priority    Priority
	QueuedAt    time.Time
}

// Permit represents acquired concurrency capacity for one agent
// invocation. Release must be called exactly once.
type Permit struct {
	agentRole  string
	acquiredAt time.Time
}

// Manager controls concurrent agent execution: a global semaphore, an
// optional per-role cap, a priority queue for overflow, and a token
// bucket rate limiter guarding the rate at which permits are handed out.
type Manager struct {
	cfg *config.Config

	sem *semaphore.Weighted

	mu           sync.Mutex
	queue        taskHeap
	activePerRole map[string]int

	limiter *rateLimiter
	stats   stats

	active int64
}

// New creates a Manager from cfg's resource-manager defaults.
func New(cfg *config.Config) *Manager {
	return &Manager{
		cfg:           cfg,
		sem:           semaphore.NewWeighted(int64(cfg.MaxConcurrentAgents)),
		activePerRole: make(map[string]int),
		limiter:       newRateLimiter(cfg.RateLimitCapacity, cfg.RateLimitRefillRate),
	}
}

// Acquire returns ErrRateLimited at once if the rate limiter has no
// token, then blocks, subject to ctx and the configured
// ResourceAcquireWait, until the global semaphore grants a permit, and
// then returns ErrRoleLimitExceeded at once if task.AgentRole is at its
// per-role cap. Every call occupies a slot on the priority overflow
// queue for the duration of the wait, so QueueLength/Stats reflect
// genuine contention; the semaphore itself grants permits in arrival
// order, not by task.Priority.
func (m *Manager) Acquire(ctx context.Context, task QueuedTask) (*Permit, error) {
	if !m.limiter.tryAcquire() {
		m.stats.rejected.Add(1)
		return nil, ErrRateLimited
	}

	if err := m.enqueue(task); err != nil {
		return nil, err
	}
	defer m.dequeueTask(task)

	acquireCtx := ctx
	var cancel context.CancelFunc
	if m.cfg.ResourceAcquireWait > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, m.cfg.ResourceAcquireWait)
		defer cancel()
	}

	if err := m.sem.Acquire(acquireCtx, 1); err != nil {
		m.stats.timeouts.Add(1)
		return nil, ErrTimeout
	}

	if m.cfg.MaxPerRole > 0 {
		m.mu.Lock()
		if m.activePerRole[task.AgentRole] >= m.cfg.MaxPerRole {
			m.mu.Unlock()
			m.sem.Release(1)
			return nil, ErrRoleLimitExceeded
		}
		m.activePerRole[task.AgentRole]++
		m.mu.Unlock()
	}

	atomic.AddInt64(&m.active, 1)
	m.stats.acquired.Add(1)
	m.stats.updatePeak(atomic.LoadInt64(&m.active))

	return &Permit{agentRole: task.AgentRole, acquiredAt: time.Now()}, nil
}

// Release returns a permit's capacity to the pool.
func (m *Manager) Release(p *Permit) {
	m.stats.addDuration(time.Since(p.acquiredAt))

	if m.cfg.MaxPerRole > 0 {
		m.mu.Lock()
		if m.activePerRole[p.agentRole] > 0 {
			m.activePerRole[p.agentRole]--
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&m.active, -1)
	m.stats.released.Add(1)
	m.sem.Release(1)
}

// maxQueueSize bounds the overflow priority queue. config.Config has no
// dedicated queue-size knob, so this stands in for it.
const maxQueueSize = 1000

// enqueue is Acquire's internal queue-length check and admission: it
// pushes task onto the priority heap, rejecting it if the queue is
// already at capacity.
func (m *Manager) enqueue(task QueuedTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) >= maxQueueSize {
		m.stats.rejected.Add(1)
		return ErrQueueFull
	}

	heap.Push(&m.queue, task)
	m.stats.queued.Add(1)
	return nil
}

// dequeueTask removes task from the overflow queue once Acquire has
// stopped waiting on it (served or given up). heap.Pop always removes
// the current highest-priority entry, which need not be this task if a
// higher-priority task was queued in the meantime, so removal is by
// identity (execution/node/queued-at) rather than queue position.
func (m *Manager) dequeueTask(task QueuedTask) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.queue {
		if t.ExecutionID == task.ExecutionID && t.NodeID == task.NodeID && t.QueuedAt.Equal(task.QueuedAt) {
			heap.Remove(&m.queue, i)
			m.stats.dequeued.Add(1)
			return
		}
	}
}

// QueueTask pushes task onto the priority queue for later dequeue,
// rejecting it if the queue is already at capacity. It is independent of
// Acquire's own internal queueing, for callers that want to hold a task
// for manual dispatch via DequeueTask instead of blocking in Acquire.
func (m *Manager) QueueTask(task QueuedTask) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) >= maxQueueSize {
		return 0, ErrQueueFull
	}

	heap.Push(&m.queue, task)
	m.stats.queued.Add(1)
	return len(m.queue), nil
}

// DequeueTask pops the highest-priority, oldest-queued task, or ok=false
// if the queue is empty.
func (m *Manager) DequeueTask() (QueuedTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return QueuedTask{}, false
	}
	task := heap.Pop(&m.queue).(QueuedTask)
	m.stats.dequeued.Add(1)
	return task, true
}

// QueueLength reports the number of tasks currently queued.
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// ActiveCount reports the number of permits currently held.
func (m *Manager) ActiveCount() int64 {
	return atomic.LoadInt64(&m.active)
}

// IsAvailable reports whether a permit could be acquired immediately.
func (m *Manager) IsAvailable() bool {
	if !m.sem.TryAcquire(1) {
		return false
	}
	m.sem.Release(1)
	return true
}

// Stats returns a point-in-time snapshot of usage counters.
func (m *Manager) Stats() Snapshot {
	return m.stats.snapshot(m.ActiveCount(), m.QueueLength())
}

// taskHeap implements container/heap.Interface as a max-heap on
// Priority, breaking ties in favor of the task queued earliest.
type taskHeap []QueuedTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].QueuedAt.Before(h[j].QueuedAt)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) {
	*h = append(*h, x.(QueuedTask))
}
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
