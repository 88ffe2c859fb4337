package hook

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestRunEmptyStdoutProceedsDefault(t *testing.T) {
	resp, err := Run(context.Background(), Spec{Path: "true", Timeout: time.Second}, Request{Event: "notification"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !resp.ShouldProceed() {
		t.Error("expected empty stdout to default to proceed:true")
	}
}

func TestRunBlankEchoOutputProceedsDefault(t *testing.T) {
	resp, err := Run(context.Background(), Spec{
		Path:    "/bin/echo",
		Timeout: time.Second,
	}, Request{Event: "pre_tool_execution"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// /bin/echo with no args prints a bare newline, which trims to empty and
	// should default to proceed:true just like TestRunEmptyStdoutProceedsDefault.
	if !resp.ShouldProceed() {
		t.Error("expected blank echo output to default to proceed:true")
	}
}

func TestRegistryFireTwoProceedingHooksDoNotVeto(t *testing.T) {
	r := NewRegistry()
	r.Register(PreToolExecution, Spec{Path: "true", Timeout: time.Second})
	r.Register(PreToolExecution, Spec{Path: "true", Timeout: time.Second})
	result := r.Fire(context.Background(), PreToolExecution, "session_1", json.RawMessage(`{"tool":"Bash"}`))
	if result.Vetoed {
		t.Fatalf("unexpected veto: %s", result.VetoMessage)
	}
}

func TestRegistryFireBlockingVetoStopsChain(t *testing.T) {
	r := NewRegistry()
	r.Register(PreToolExecution, Spec{Path: "/bin/false", Timeout: time.Second, Blocking: true})
	result := r.Fire(context.Background(), PreToolExecution, "session_1", json.RawMessage(`{}`))
	if !result.Vetoed {
		t.Fatal("expected blocking hook failure to veto the chain")
	}
}

func TestRegistryFireNonBlockingFailureDoesNotVeto(t *testing.T) {
	r := NewRegistry()
	r.Register(PreToolExecution, Spec{Path: "/bin/false", Timeout: time.Second, Blocking: false})
	result := r.Fire(context.Background(), PreToolExecution, "session_1", json.RawMessage(`{}`))
	if result.Vetoed {
		t.Fatal("expected non-blocking hook failure to be logged, not veto")
	}
}
