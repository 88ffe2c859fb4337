package toolexec

import "context"

// Mock returns the Result field attached to each ToolCallSpec verbatim.
// This is what scenario authors use for deterministic golden-file tests:
// the scenario itself dictates every tool's output.
type Mock struct{}

func (Mock) Name() string { return "mock" }

func (Mock) Execute(_ context.Context, call ToolCallSpec) ToolExecutionResult {
	if call.IsError {
		return Error(call.ToolUseID, call.Result)
	}
	return Success(call.ToolUseID, call.Result)
}
