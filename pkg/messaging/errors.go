package messaging

import "errors"

var (
	// ErrAgentNotFound is returned when routing to an unregistered agent ID.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrSendFailed is returned when an agent's mailbox is full.
	ErrSendFailed = errors.New("failed to send message to agent")
)
