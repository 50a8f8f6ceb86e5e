package messaging

import (
	"testing"
	"time"
)

func TestDirectRouting(t *testing.T) {
	r := NewRouter()
	mailbox := r.Register("agent-b")

	if err := r.SendTo("agent-a", "agent-b", AgentMessage{Kind: KindPing, Timestamp: 1}); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	select {
	case env := <-mailbox:
		if env.Message.Kind != KindPing {
			t.Fatalf("expected ping, got %+v", env.Message)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}
}

func TestRouteToUnknownAgent(t *testing.T) {
	r := NewRouter()
	err := r.SendTo("agent-a", "ghost", AgentMessage{Kind: KindPing})
	if err == nil {
		t.Fatalf("expected error routing to unknown agent")
	}
}

func TestBroadcastSkipsSender(t *testing.T) {
	r := NewRouter()
	a := r.Register("agent-a")
	b := r.Register("agent-b")

	if err := r.BroadcastFrom("agent-a", AgentMessage{Kind: KindHeartbeat, Health: HealthHealthy}); err != nil {
		t.Fatalf("BroadcastFrom: %v", err)
	}

	select {
	case <-a:
		t.Fatalf("sender should not receive its own broadcast")
	case env := <-b:
		if env.Message.Kind != KindHeartbeat {
			t.Fatalf("expected heartbeat, got %+v", env.Message)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestBroadcastExpiry(t *testing.T) {
	env := Broadcast("agent-a", AgentMessage{Kind: KindPing})
	env.Timestamp = time.Now().Add(-time.Hour)
	if !env.Expired() {
		t.Fatalf("expected hour-old broadcast with 60s TTL to be expired")
	}
}
