package runtime

import (
	"context"
	"testing"
	"time"

	"claudeless/pkg/clock"
	"claudeless/pkg/hook"
	"claudeless/pkg/ids"
	"claudeless/pkg/output"
	"claudeless/pkg/scenario"
	"claudeless/pkg/state"
	"claudeless/pkg/toolexec"
)

func newTestRuntime(t *testing.T, sc *scenario.Scenario) *Runtime {
	t.Helper()
	clk := clock.NewFake(time.Unix(0, 0))
	return &Runtime{
		Scenario: sc,
		Hooks:    hook.NewRegistry(),
		Tools:    toolexec.Mock{},
		State:    state.NewWriter(t.TempDir(), ids.NewDeterministic("t"), clk),
		Output:   output.NewWriter(output.Text, nil),
		Clock:    clk,
		IDs:      ids.NewDeterministic("t"),
	}
}

func mustLoad(t *testing.T, src string, format scenario.Format) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Load([]byte(src), format)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return sc
}

func TestExecuteSimpleContainsMatch(t *testing.T) {
	sc := mustLoad(t, `{
		"responses": [
			{"pattern": {"kind": "contains", "value": "hello"}, "response": "Hi!"}
		]
	}`, scenario.FormatJSON)
	rt := newTestRuntime(t, sc)
	rt.SessionID = "sess_1"
	rt.ProjectPath = "/tmp/proj"

	result, err := rt.Execute(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Text != "Hi!" {
		t.Errorf("Text = %q, want %q", result.Text, "Hi!")
	}
	if result.ExitCode != output.ExitSuccess {
		t.Errorf("ExitCode = %d, want success", result.ExitCode)
	}
}

func TestExecuteTurnSequence(t *testing.T) {
	sc := mustLoad(t, `{
		"responses": [
			{
				"pattern": {"kind": "contains", "value": "login"},
				"response": "Username:",
				"turns": [
					{"expect": {"kind": "any"}, "response": "Password:"},
					{"expect": {"kind": "any"}, "response": "OK"}
				]
			}
		]
	}`, scenario.FormatJSON)
	rt := newTestRuntime(t, sc)
	rt.SessionID = "sess_1"
	rt.ProjectPath = "/tmp/proj"

	prompts := []string{"please login", "alice", "pw"}
	want := []string{"Username:", "Password:", "OK"}
	for i, p := range prompts {
		result, err := rt.Execute(context.Background(), p)
		if err != nil {
			t.Fatalf("Execute(%q): %v", p, err)
		}
		if result.Text != want[i] {
			t.Errorf("prompt %q: Text = %q, want %q", p, result.Text, want[i])
		}
	}
}

func TestExecuteRateLimitFailure(t *testing.T) {
	sc := mustLoad(t, `{
		"responses": [
			{"pattern": {"kind": "any"}, "response": "ignored", "failure": {"kind": "rate_limit", "retry_after": 30}}
		]
	}`, scenario.FormatJSON)
	rt := newTestRuntime(t, sc)
	rt.SessionID = "sess_1"
	rt.ProjectPath = "/tmp/proj"

	result, err := rt.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ExitCode != output.ExitError {
		t.Errorf("ExitCode = %d, want error", result.ExitCode)
	}
}

func TestExecuteTodoWriteToolCall(t *testing.T) {
	sc := mustLoad(t, `{
		"responses": [
			{
				"pattern": {"kind": "any"},
				"response": {
					"text": "done",
					"tool_calls": [
						{"tool": "TodoWrite", "input": {"todos": [{"content": "task", "status": "pending"}]}, "result": "Updated 1 todos"}
					]
				}
			}
		]
	}`, scenario.FormatJSON)
	rt := newTestRuntime(t, sc)
	rt.SessionID = "sess_1"
	rt.ProjectPath = "/tmp/proj"

	result, err := rt.Execute(context.Background(), "add a task")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.ToolOutputs) != 1 {
		t.Fatalf("expected 1 tool output, got %d", len(result.ToolOutputs))
	}
	if result.ToolOutputs[0].Output != "Updated 1 todos" {
		t.Errorf("tool output = %q", result.ToolOutputs[0].Output)
	}
}

func TestExecuteClearsActiveSequenceAfterThreeTurns(t *testing.T) {
	sc := mustLoad(t, `{
		"responses": [
			{
				"pattern": {"kind": "exact", "value": "start"},
				"response": "go",
				"turns": [{"expect": {"kind": "any"}, "response": "end"}]
			}
		]
	}`, scenario.FormatJSON)
	rt := newTestRuntime(t, sc)
	rt.SessionID = "sess_1"
	rt.ProjectPath = "/tmp/proj"

	rt.Execute(context.Background(), "start")
	rt.Execute(context.Background(), "anything")
	// Sequence should now be cleared, so the entry prompt is matched against
	// the top-level rules again instead of a follow-up turn.
	result, err := rt.Execute(context.Background(), "start")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Text != "go" {
		t.Errorf("expected the entry rule to refire, got %q", result.Text)
	}
}
