package toolexec

import (
	"context"
	"testing"

	"claudeless/pkg/mcpclient"
)

func TestCompositeFallsBackToBuiltinWhenMCPUnset(t *testing.T) {
	c := Composite{Builtin: Mock{}}
	result := c.Execute(context.Background(), ToolCallSpec{ToolUseID: "t1", Result: "from builtin"})
	if result.Output != "from builtin" {
		t.Errorf("Output = %q, want fallback to builtin", result.Output)
	}
}

func TestCompositeFallsBackWhenMCPDoesNotHaveTool(t *testing.T) {
	manager := mcpclient.NewManager(false)
	bridge := mcpclient.NewBridge(manager)
	defer bridge.Close()

	c := Composite{MCP: bridge, Manager: manager, Builtin: Mock{}}
	result := c.Execute(context.Background(), ToolCallSpec{ToolUseID: "t1", Name: "Read", Result: "from builtin"})
	if result.Output != "from builtin" {
		t.Errorf("Output = %q, want fallback to builtin when MCP doesn't route the tool", result.Output)
	}
}
