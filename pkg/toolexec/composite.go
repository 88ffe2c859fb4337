package toolexec

import (
	"context"

	"claudeless/pkg/mcpclient"
)

// Composite wraps an optional MCP bridge plus a Builtin executor and asks
// each tool call first against MCP — user-configured tools take precedence
// — falling back to Builtin (spec.md §4.3).
type Composite struct {
	MCP     *mcpclient.Bridge
	Manager *mcpclient.Manager
	Builtin Executor
}

func (c Composite) Name() string { return "composite" }

func (c Composite) Execute(ctx context.Context, call ToolCallSpec) ToolExecutionResult {
	if c.MCP != nil && c.Manager != nil && c.Manager.HasTool(call.Name) {
		result, err := c.MCP.Call(ctx, call.Name, call.Input)
		if err != nil {
			return Error(call.ToolUseID, err.Error())
		}
		if result != nil && result.IsError {
			return Error(call.ToolUseID, mcpclient.ResultText(result))
		}
		return Success(call.ToolUseID, mcpclient.ResultText(result))
	}
	return c.Builtin.Execute(ctx, call)
}
