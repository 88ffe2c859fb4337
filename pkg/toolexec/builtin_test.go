package toolexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"claudeless/pkg/session"
)

func TestDisabledRejectsAllCalls(t *testing.T) {
	result := Disabled{}.Execute(context.Background(), ToolCallSpec{ToolUseID: "t1", Name: "Read"})
	if !result.IsError {
		t.Error("expected Disabled to return an error result")
	}
}

func TestMockReturnsScriptedResultVerbatim(t *testing.T) {
	result := Mock{}.Execute(context.Background(), ToolCallSpec{ToolUseID: "t1", Result: "scripted output"})
	if result.IsError {
		t.Error("expected non-error result")
	}
	if result.Output != "scripted output" {
		t.Errorf("Output = %q, want %q", result.Output, "scripted output")
	}
}

func TestMockHonorsIsError(t *testing.T) {
	result := Mock{}.Execute(context.Background(), ToolCallSpec{ToolUseID: "t1", Result: "boom", IsError: true})
	if !result.IsError {
		t.Error("expected error result")
	}
}

func TestBuiltinWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	b := Builtin{WorkingDirectory: dir}

	writeResult := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "w1",
		Name:      "Write",
		Input:     map[string]any{"file_path": "hello.txt", "content": "hi there"},
	})
	if writeResult.IsError {
		t.Fatalf("Write failed: %s", writeResult.Output)
	}

	readResult := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "r1",
		Name:      "Read",
		Input:     map[string]any{"file_path": "hello.txt"},
	})
	if readResult.IsError {
		t.Fatalf("Read failed: %s", readResult.Output)
	}
	if readResult.Output != "hi there" {
		t.Errorf("Output = %q, want %q", readResult.Output, "hi there")
	}
}

func TestBuiltinEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edit.txt")
	if err := os.WriteFile(path, []byte("foo bar baz"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	b := Builtin{WorkingDirectory: dir}

	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "e1",
		Name:      "Edit",
		Input:     map[string]any{"file_path": "edit.txt", "old_string": "bar", "new_string": "qux"},
	})
	if result.IsError {
		t.Fatalf("Edit failed: %s", result.Output)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "foo qux baz" {
		t.Errorf("file contents = %q, want %q", data, "foo qux baz")
	}
}

func TestBuiltinEditMissingOldStringErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edit.txt")
	os.WriteFile(path, []byte("foo"), 0o644)
	b := Builtin{WorkingDirectory: dir}

	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "e1",
		Name:      "Edit",
		Input:     map[string]any{"file_path": "edit.txt", "old_string": "missing", "new_string": "x"},
	})
	if !result.IsError {
		t.Error("expected error when old_string is absent")
	}
}

func TestBuiltinBashFormatsExitCode(t *testing.T) {
	b := Builtin{WorkingDirectory: t.TempDir()}
	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "b1",
		Name:      "Bash",
		Input:     map[string]any{"command": "echo hi && exit 0"},
	})
	want := "hi\n\nExit code: 0"
	if result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
}

func TestBuiltinBashNonZeroExit(t *testing.T) {
	b := Builtin{WorkingDirectory: t.TempDir()}
	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "b1",
		Name:      "Bash",
		Input:     map[string]any{"command": "exit 7"},
	})
	want := "\n\nExit code: 7"
	if result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
}

func TestBuiltinGlobMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("text"), 0o644)
	b := Builtin{WorkingDirectory: dir}

	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "g1",
		Name:      "Glob",
		Input:     map[string]any{"pattern": "*.go"},
	})
	if result.IsError {
		t.Fatalf("Glob failed: %s", result.Output)
	}
	if result.Output != "a.go" {
		t.Errorf("Output = %q, want %q", result.Output, "a.go")
	}
}

func TestBuiltinGrepFindsMatchingLine(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "f.txt"), []byte("line one\nTODO: fix\nline three"), 0o644)
	b := Builtin{WorkingDirectory: dir}

	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "gr1",
		Name:      "Grep",
		Input:     map[string]any{"pattern": "TODO"},
	})
	if result.IsError {
		t.Fatalf("Grep failed: %s", result.Output)
	}
	if result.Output != "f.txt:2:TODO: fix" {
		t.Errorf("Output = %q, want %q", result.Output, "f.txt:2:TODO: fix")
	}
}

type fakeStateWriter struct {
	todos     []session.TodoItem
	planBody  string
	writeErr  error
	planPath  string
}

func (f *fakeStateWriter) WriteTodos(sessionID string, items []session.TodoItem) error {
	f.todos = items
	return f.writeErr
}

func (f *fakeStateWriter) WritePlan(content string) (string, error) {
	f.planBody = content
	if f.writeErr != nil {
		return "", f.writeErr
	}
	return f.planPath, nil
}

func TestBuiltinTodoWritePersistsThroughStateWriter(t *testing.T) {
	state := &fakeStateWriter{}
	b := Builtin{WorkingDirectory: t.TempDir(), State: state, SessionID: "sess_1"}

	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "tw1",
		Name:      "TodoWrite",
		Input: map[string]any{
			"todos": []any{
				map[string]any{"content": "write tests", "status": "pending"},
			},
		},
	})
	if result.IsError {
		t.Fatalf("TodoWrite failed: %s", result.Output)
	}
	if len(state.todos) != 1 {
		t.Fatalf("expected 1 todo persisted, got %d", len(state.todos))
	}
	if state.todos[0].ActiveForm != "write tests..." {
		t.Errorf("ActiveForm = %q, want normalized default", state.todos[0].ActiveForm)
	}
}

func TestBuiltinTodoWriteWithoutStateErrors(t *testing.T) {
	b := Builtin{WorkingDirectory: t.TempDir()}
	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "tw1",
		Name:      "TodoWrite",
		Input:     map[string]any{"todos": []any{}},
	})
	if !result.IsError {
		t.Error("expected error without a configured State writer")
	}
}

func TestBuiltinExitPlanModeWritesPlan(t *testing.T) {
	state := &fakeStateWriter{planPath: "plans/calm-build-river.md"}
	b := Builtin{WorkingDirectory: t.TempDir(), State: state}

	result := b.Execute(context.Background(), ToolCallSpec{
		ToolUseID: "ep1",
		Name:      "ExitPlanMode",
		Input:     map[string]any{"plan": "# Plan\n\nDo the thing."},
	})
	if result.IsError {
		t.Fatalf("ExitPlanMode failed: %s", result.Output)
	}
	if state.planBody != "# Plan\n\nDo the thing." {
		t.Errorf("planBody = %q", state.planBody)
	}
	if result.Output != "Plan saved to plans/calm-build-river.md" {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestBuiltinUnknownToolErrors(t *testing.T) {
	b := Builtin{WorkingDirectory: t.TempDir()}
	result := b.Execute(context.Background(), ToolCallSpec{ToolUseID: "u1", Name: "Nonexistent"})
	if !result.IsError {
		t.Error("expected error for unknown tool")
	}
}
