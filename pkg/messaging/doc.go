// Package messaging is a supplemental typed message bus for richer
// inter-agent coordination than the engine's own per-node status
// reports: task handoffs, data requests, heartbeats, and file-change
// notifications, all carried in a single duck-typed AgentMessage and
// routed through per-agent buffered channels.
package messaging
