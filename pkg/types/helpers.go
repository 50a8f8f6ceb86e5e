package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateExecutionID creates a unique execution identifier.
// Uses crypto/rand for cryptographically secure random IDs.
// Format: "exec_" followed by 16 hex characters (8 bytes) for balance between
// uniqueness and readability.
func GenerateExecutionID() string {
	return generateID("exec")
}

// GenerateAgentID creates a unique identifier for a supervised agent process.
func GenerateAgentID() string {
	return generateID("agent")
}

// GenerateMessageID creates a unique identifier for a bus message envelope.
func GenerateMessageID() string {
	return generateID("msg")
}

func generateID(prefix string) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID if random generation fails
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
