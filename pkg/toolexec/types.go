// Package toolexec implements the Tool Executor: a capability polymorphic
// over {execute, name} with four concrete variants (spec.md §4.3), built in
// the teacher's ToolHandler/RunToolLoop idiom (pkg/harness.ToolHandler).
package toolexec

import "context"

// ToolCallSpec is one scripted tool invocation attached to a matched
// response rule.
type ToolCallSpec struct {
	Name      string
	ToolUseID string
	Input     map[string]any
	// Result is the verbatim output a Mock executor returns for this call.
	Result string
	// IsError marks Result as an error payload rather than success output.
	IsError bool
}

// ToolExecutionResult is the outcome of executing one ToolCallSpec.
type ToolExecutionResult struct {
	ToolUseID string
	Output    string
	IsError   bool
}

// Error builds a ToolExecutionResult carrying message as error output. Any
// internal execution error is mapped through this constructor so downstream
// code never has to handle a tool panicking (spec.md §4.3 error mapping).
func Error(toolUseID, message string) ToolExecutionResult {
	return ToolExecutionResult{ToolUseID: toolUseID, Output: message, IsError: true}
}

// Success builds a ToolExecutionResult carrying output as successful result.
func Success(toolUseID, output string) ToolExecutionResult {
	return ToolExecutionResult{ToolUseID: toolUseID, Output: output}
}

// Executor is the capability every tool executor variant implements.
type Executor interface {
	Execute(ctx context.Context, call ToolCallSpec) ToolExecutionResult
	Name() string
}
