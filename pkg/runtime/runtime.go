// Package runtime implements the Turn Runtime: the orchestrator that ties
// the Matching Engine, Hook Executor, Tool Executor, State Writer, and
// Output Writer into one execute(prompt) call (spec.md §4.2).
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"claudeless/pkg/clock"
	"claudeless/pkg/hook"
	"claudeless/pkg/ids"
	"claudeless/pkg/output"
	"claudeless/pkg/scenario"
	"claudeless/pkg/session"
	"claudeless/pkg/state"
	"claudeless/pkg/toolexec"
)

// TurnResult is the value Execute returns: the observable outcome of one
// prompt→response turn.
type TurnResult struct {
	Text             string
	ToolOutputs      []toolexec.ToolExecutionResult
	HookContinuation string
	ExitCode         output.ExitCode
}

// Runtime owns the Scenario, State Writer, Tool Executor, and Clock for its
// lifetime, exclusively (spec.md §3 "Ownership summary").
type Runtime struct {
	Scenario   *scenario.Scenario
	Hooks      *hook.Registry
	Tools      toolexec.Executor
	State      *state.Writer
	Output     *output.Writer
	Clock      clock.Clock
	IDs        *ids.Generator
	Permission PermissionChecker
	Stderr     io.Writer

	SessionID     string
	ProjectPath   string
	PrintMode     bool
	ForcedFailure *scenario.FailureSpec
	DelayOverride *int

	turnCount    int
	conversation *session.Session
}

// Execute runs exactly one turn of the 9-step sequence (spec.md §4.2). It
// does not follow stop-hook continuations; callers that want the full
// chain should use Run.
func (r *Runtime) Execute(ctx context.Context, prompt string) (TurnResult, error) {
	// Step 1: match, else default_response, else synthesize empty text.
	match := r.Scenario.MatchDefaultOrNone(prompt)
	resp, failure, ok := r.Scenario.Resolve(match)
	if !ok {
		empty := scenario.ResponseSpec{}
		resp = &empty
	}
	if r.ForcedFailure != nil {
		failure = r.ForcedFailure
	}

	// Step 2: pre-delay.
	delayMs := resp.DelayMs
	if delayMs == 0 {
		delayMs = r.Scenario.Timing.ResponseDelayMs
	}
	if r.DelayOverride != nil {
		delayMs = *r.DelayOverride
	}
	if err := r.Clock.Sleep(ctx, msToDuration(delayMs)); err != nil {
		return TurnResult{}, err
	}

	// Step 3: emit failure, if specified, and end the turn.
	if failure != nil {
		return r.emitFailure(*failure), nil
	}

	// Steps 4-6: hooks + tool execution in declaration order.
	toolCalls, aborted, abortMsg := r.runToolCalls(ctx, resp.ToolCalls)
	if aborted {
		result := TurnResult{
			Text:     abortMsg,
			ExitCode: output.ExitError,
		}
		return result, nil
	}

	r.turnCount++

	// Step 7: record state.
	rec := state.TurnRecord{
		SessionID:       r.SessionID,
		ProjectPath:     r.ProjectPath,
		Prompt:          prompt,
		ResponseText:    resp.Text,
		RequestIDPrefix: r.Scenario.Identity.RequestIDPrefix,
		FirstInSession:  r.turnCount == 1,
		PrintMode:       r.PrintMode,
	}
	for _, tc := range toolCalls {
		rec.ToolCalls = append(rec.ToolCalls, state.ToolCallRecord{
			ToolUseID: tc.spec.ToolUseID,
			Name:      tc.spec.Name,
			Input:     tc.spec.Input,
			Output:    tc.result.Output,
			IsError:   tc.result.IsError,
		})
	}
	if r.conversation == nil {
		r.conversation = &session.Session{
			ID:          r.SessionID,
			ProjectPath: r.ProjectPath,
			CreatedAt:   r.Clock.Now(),
		}
	}
	turn := session.Turn{
		Prompt:    prompt,
		Response:  resp.Text,
		Timestamp: r.Clock.Now(),
	}
	for _, tc := range toolCalls {
		turn.ToolCalls = append(turn.ToolCalls, session.TurnToolCall{
			Tool:   tc.spec.Name,
			Input:  tc.spec.Input,
			Output: tc.result.Output,
		})
	}
	r.conversation.AppendTurn(turn)

	if r.State != nil {
		if err := r.State.RecordTurn(rec); err != nil {
			fmt.Fprintf(errOrDiscard(r.Stderr), "claudeless: state write failed: %v\n", err)
		}
		if r.ProjectPath != "" {
			firstPrompt := prompt
			if len(r.conversation.Turns) > 0 {
				firstPrompt = r.conversation.Turns[0].Prompt
			}
			_ = r.State.UpsertIndex(r.ProjectPath, r.SessionID, session.IndexEntry{
				FullPath:     r.ProjectPath,
				FileMtime:    r.conversation.LastActive,
				FirstPrompt:  firstPrompt,
				MessageCount: len(r.conversation.Turns),
				Created:      r.conversation.CreatedAt,
				Modified:     r.conversation.LastActive,
				ProjectPath:  r.ProjectPath,
			})
		}
	}

	outputs := make([]toolexec.ToolExecutionResult, 0, len(toolCalls))
	for _, tc := range toolCalls {
		outputs = append(outputs, tc.result)
	}

	result := TurnResult{
		Text:        resp.Text,
		ToolOutputs: outputs,
		ExitCode:    output.ExitSuccess,
	}

	// Step 9: fire the stop hook.
	stopRes := r.Hooks.Fire(ctx, hook.Stop, r.SessionID, nil)
	if stopRes.ContinuationPrompt != "" {
		result.HookContinuation = stopRes.ContinuationPrompt
	}

	return result, nil
}

// Run executes prompt and follows any stop-hook continuation_prompt chain
// to completion, returning every turn's result in order.
func (r *Runtime) Run(ctx context.Context, prompt string) ([]TurnResult, error) {
	var results []TurnResult
	next := prompt
	for {
		result, err := r.Execute(ctx, next)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if result.HookContinuation == "" {
			return results, nil
		}
		next = result.HookContinuation
	}
}

type executedCall struct {
	spec   toolexec.ToolCallSpec
	result toolexec.ToolExecutionResult
}

// runToolCalls fires pre_tool_execution hooks (steps 4), executes each call
// through the Tool Executor in declaration order (step 5), then fires
// post_tool_execution hooks with the actual output (step 6).
func (r *Runtime) runToolCalls(ctx context.Context, specs []scenario.ToolCallSpec) ([]executedCall, bool, string) {
	var out []executedCall
	for _, spec := range specs {
		toolUseID := r.IDs.ToolUseID()
		input := decodeInput(spec.Input)

		if r.Permission != nil && !r.Permission.Allow(spec.Tool) {
			out = append(out, executedCall{
				spec:   toolexec.ToolCallSpec{ToolUseID: toolUseID, Name: spec.Tool, Input: input},
				result: toolexec.Error(toolUseID, fmt.Sprintf("permission denied for tool %q", spec.Tool)),
			})
			continue
		}

		payload, _ := sjson.SetBytes([]byte(`{}`), "tool", spec.Tool)
		if inputJSON, err := json.Marshal(input); err == nil {
			payload, _ = sjson.SetRawBytes(payload, "input", inputJSON)
		}
		preResult := r.Hooks.Fire(ctx, hook.PreToolExecution, r.SessionID, payload)
		if preResult.Vetoed {
			return out, true, preResult.VetoMessage
		}
		if len(preResult.Payload) > 0 {
			if modified, ok := applyModifiedInput(preResult.Payload); ok {
				input = modified
			}
		}

		call := toolexec.ToolCallSpec{
			ToolUseID: toolUseID,
			Name:      spec.Tool,
			Input:     input,
			Result:    spec.Result,
		}
		result := r.Tools.Execute(ctx, call)

		postPayload, _ := sjson.SetBytes([]byte(`{}`), "tool", spec.Tool)
		postPayload, _ = sjson.SetBytes(postPayload, "output", result.Output)
		postPayload, _ = sjson.SetBytes(postPayload, "is_error", result.IsError)
		r.Hooks.Fire(ctx, hook.PostToolExecution, r.SessionID, postPayload)

		out = append(out, executedCall{spec: call, result: result})
	}
	return out, false, ""
}

func (r *Runtime) emitFailure(failure scenario.FailureSpec) TurnResult {
	message, exitCode := failureBytes(failure)
	_ = output.WriteFailureBytes(errOrDiscard(r.Stderr), message)
	return TurnResult{Text: message, ExitCode: exitCode}
}

func failureBytes(f scenario.FailureSpec) (string, output.ExitCode) {
	switch f.Kind {
	case scenario.FailureNetworkUnreachable:
		return "network unreachable", output.ExitError
	case scenario.FailureConnectionTimeout:
		return fmt.Sprintf("connection timed out after %dms", f.AfterMs), output.ExitError
	case scenario.FailureAuthError:
		return f.Message, output.ExitError
	case scenario.FailureRateLimit:
		return fmt.Sprintf("rate limited, retry after %ds", f.RetryAfter), output.ExitError
	case scenario.FailureOutOfCredits:
		return "out of credits", output.ExitError
	case scenario.FailurePartialResponse:
		return f.PartialText, output.ExitPartial
	case scenario.FailureMalformedJSON:
		return f.Raw, output.ExitPartial
	default:
		return "unknown failure", output.ExitError
	}
}

func decodeInput(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// applyModifiedInput extracts the "input" field from a hook's replacement
// payload using gjson; runToolCalls builds the original payload with sjson.
func applyModifiedInput(payload json.RawMessage) (map[string]any, bool) {
	raw := gjson.GetBytes(payload, "input").Raw
	if raw == "" {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false
	}
	return m, true
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func errOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
