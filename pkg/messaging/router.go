package messaging

import (
	"fmt"
	"sync"
)

// Router fans envelopes out to registered agent mailboxes, keyed by
// agent ID, and keeps a log of everything routed for later inspection.
type Router struct {
	mu     sync.RWMutex
	agents map[string]chan Envelope
	log    map[string]Envelope
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		agents: make(map[string]chan Envelope),
		log:    make(map[string]Envelope),
	}
}

// Register creates a mailbox for agentID and returns the channel it
// should receive envelopes on. The channel is buffered so Route never
// blocks on a slow consumer within this process.
func (r *Router) Register(agentID string) <-chan Envelope {
	ch := make(chan Envelope, 64)
	r.mu.Lock()
	r.agents[agentID] = ch
	r.mu.Unlock()
	return ch
}

// Unregister closes and removes agentID's mailbox.
func (r *Router) Unregister(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.agents[agentID]; ok {
		close(ch)
		delete(r.agents, agentID)
	}
}

// Route delivers envelope to its target mailbox, or to every registered
// agent except the sender if To is empty (broadcast).
func (r *Router) Route(envelope Envelope) error {
	r.mu.Lock()
	r.log[envelope.ID] = envelope
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if envelope.To != "" {
		ch, ok := r.agents[envelope.To]
		if !ok {
			return fmt.Errorf("messaging: %w: %s", ErrAgentNotFound, envelope.To)
		}
		select {
		case ch <- envelope:
			return nil
		default:
			return fmt.Errorf("messaging: %w: %s", ErrSendFailed, envelope.To)
		}
	}

	for id, ch := range r.agents {
		if id == envelope.From {
			continue
		}
		select {
		case ch <- envelope:
		default:
		}
	}
	return nil
}

// SendTo is a convenience wrapper that builds and routes a direct
// envelope in one call.
func (r *Router) SendTo(from, to string, message AgentMessage) error {
	return r.Route(NewEnvelope(from, to, message))
}

// BroadcastFrom is a convenience wrapper that builds and routes a
// broadcast envelope in one call.
func (r *Router) BroadcastFrom(from string, message AgentMessage) error {
	return r.Route(Broadcast(from, message))
}

// Get returns a previously routed envelope by ID.
func (r *Router) Get(messageID string) (Envelope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.log[messageID]
	return e, ok
}

// AgentCount returns the number of currently registered agents.
func (r *Router) AgentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// RegisteredAgents returns the IDs of every registered agent.
func (r *Router) RegisteredAgents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	return ids
}
