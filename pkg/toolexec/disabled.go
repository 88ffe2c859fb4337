package toolexec

import "context"

// Disabled rejects every call with a fixed error, for runs where tool use
// should never happen (e.g. --tool-mode disabled).
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Execute(_ context.Context, call ToolCallSpec) ToolExecutionResult {
	return Error(call.ToolUseID, "tool execution is disabled")
}
