package mcpclient

import (
	"context"
	"testing"
)

func TestStateMachineRejectsOutOfOrderTransitions(t *testing.T) {
	ctx := context.Background()
	c := New(ServerDef{Name: "test", Command: "/bin/true"})

	if _, err := c.ListTools(ctx); err == nil {
		t.Error("expected list_tools before initialize to fail")
	}
	if err := c.Initialize(ctx, "claudeless", "0.0.0"); err == nil {
		t.Error("expected initialize before connect to fail")
	}
	if _, err := c.CallTool(ctx, "anything", nil); err == nil {
		t.Error("expected call_tool before connect to fail")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateUnconnected: "unconnected",
		StateConnected:   "connected",
		StateInitialized: "initialized",
		StateRunning:     "running",
		StateShutdown:    "shutdown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := New(ServerDef{Name: "test", Command: "/bin/true"})
	if err := c.Shutdown(); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
	if c.State() != StateShutdown {
		t.Errorf("state = %v, want shutdown", c.State())
	}
}

func TestHasToolFalseBeforeListTools(t *testing.T) {
	c := New(ServerDef{Name: "test", Command: "/bin/true"})
	if c.HasTool("read_file") {
		t.Error("expected HasTool to be false before any ListTools call")
	}
}
