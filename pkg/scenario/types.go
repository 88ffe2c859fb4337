// Package scenario models the declarative prompt→response script consumed
// by the matching engine: rules, multi-turn sequences, failure injection,
// and scripted tool calls.
package scenario

import (
	"encoding/json"
	"sync"
)

// PatternKind identifies how a Pattern's Value is interpreted.
type PatternKind string

const (
	PatternExact    PatternKind = "exact"
	PatternContains PatternKind = "contains"
	PatternRegex    PatternKind = "regex"
	PatternGlob     PatternKind = "glob"
	PatternAny      PatternKind = "any"
)

// Pattern is a compiled matcher: Kind/Value are the source fields, predicate
// is the compiled form built once at load time.
type Pattern struct {
	Kind  PatternKind `json:"kind" toml:"kind"`
	Value string      `json:"value,omitempty" toml:"value,omitempty"`

	predicate func(string) bool
}

// Matches reports whether prompt satisfies the compiled predicate. Patterns
// that failed to compile (should not happen post-Load) never match.
func (p *Pattern) Matches(prompt string) bool {
	if p == nil || p.predicate == nil {
		return false
	}
	return p.predicate(prompt)
}

// ToolCallSpec is one scripted tool call attached to a ResponseSpec.
type ToolCallSpec struct {
	Tool   string          `json:"tool" toml:"tool"`
	Input  json.RawMessage `json:"input,omitempty" toml:"input,omitempty"`
	Result string          `json:"result,omitempty" toml:"result,omitempty"`
}

// UsageSpec echoes token usage in a scripted response.
type UsageSpec struct {
	InputTokens  int `json:"input_tokens,omitempty" toml:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty" toml:"output_tokens,omitempty"`
}

// ResponseSpec is either a plain string (text-only reply) or a structured
// record. Both TOML and JSON forms are supported via custom unmarshaling.
type ResponseSpec struct {
	Text       string         `json:"text" toml:"text"`
	ToolCalls  []ToolCallSpec `json:"tool_calls,omitempty" toml:"tool_calls,omitempty"`
	Usage      *UsageSpec     `json:"usage,omitempty" toml:"usage,omitempty"`
	DelayMs    int            `json:"delay_ms,omitempty" toml:"delay_ms,omitempty"`
	StopReason string         `json:"stop_reason,omitempty" toml:"stop_reason,omitempty"`
}

// FailureKind tags the FailureSpec variant.
type FailureKind string

const (
	FailureNetworkUnreachable FailureKind = "network_unreachable"
	FailureConnectionTimeout  FailureKind = "connection_timeout"
	FailureAuthError          FailureKind = "auth_error"
	FailureRateLimit          FailureKind = "rate_limit"
	FailureOutOfCredits       FailureKind = "out_of_credits"
	FailurePartialResponse    FailureKind = "partial_response"
	FailureMalformedJSON      FailureKind = "malformed_json"
)

// FailureSpec is a tagged variant describing a scripted failure injection.
// Only the fields relevant to Kind are meaningful.
type FailureSpec struct {
	Kind FailureKind `json:"kind" toml:"kind"`

	AfterMs     int    `json:"after_ms,omitempty" toml:"after_ms,omitempty"`           // connection_timeout
	Message     string `json:"message,omitempty" toml:"message,omitempty"`             // auth_error
	RetryAfter  int    `json:"retry_after,omitempty" toml:"retry_after,omitempty"`     // rate_limit
	PartialText string `json:"partial_text,omitempty" toml:"partial_text,omitempty"`   // partial_response
	Raw         string `json:"raw,omitempty" toml:"raw,omitempty"`                     // malformed_json
}

// Turn is one follow-up step in a multi-turn ResponseRule.
type Turn struct {
	Expect   Pattern      `json:"expect" toml:"expect"`
	Response ResponseSpec `json:"response" toml:"response"`
	Failure  *FailureSpec `json:"failure,omitempty" toml:"failure,omitempty"`
}

// ResponseRule is one entry in Scenario.Responses.
type ResponseRule struct {
	Pattern    Pattern      `json:"pattern" toml:"pattern"`
	Response   ResponseSpec `json:"response" toml:"response"`
	Failure    *FailureSpec `json:"failure,omitempty" toml:"failure,omitempty"`
	MaxMatches *int         `json:"max_matches,omitempty" toml:"max_matches,omitempty"`
	Turns      []Turn       `json:"turns,omitempty" toml:"turns,omitempty"`

	matchCount int
}

// Identity carries fixed identifiers for deterministic captures.
type Identity struct {
	SessionID       string `json:"session_id,omitempty" toml:"session_id,omitempty"`
	RequestIDPrefix string `json:"request_id_prefix,omitempty" toml:"request_id_prefix,omitempty"`
}

// Timing carries the scenario-level delay/timeout defaults from spec.md §5.
type Timing struct {
	ResponseDelayMs int `json:"response_delay_ms,omitempty" toml:"response_delay_ms,omitempty"`
	HookTimeoutMs   int `json:"hook_timeout_ms,omitempty" toml:"hook_timeout_ms,omitempty"`
	McpTimeoutMs    int `json:"mcp_timeout_ms,omitempty" toml:"mcp_timeout_ms,omitempty"`
}

// Scenario is the immutable (post-load) declarative script driving the
// matching engine. Compiled matchers and per-rule usage counters live
// alongside the source fields but are never serialized.
type Scenario struct {
	Name              string          `json:"name,omitempty" toml:"name,omitempty"`
	DefaultModel      string          `json:"default_model,omitempty" toml:"default_model,omitempty"`
	UserName          string          `json:"user_name,omitempty" toml:"user_name,omitempty"`
	Trusted           bool            `json:"trusted,omitempty" toml:"trusted,omitempty"`
	WorkingDirectory  string          `json:"working_directory,omitempty" toml:"working_directory,omitempty"`
	PermissionMode    string          `json:"permission_mode,omitempty" toml:"permission_mode,omitempty"`
	ClaudeVersion     string          `json:"claude_version,omitempty" toml:"claude_version,omitempty"`
	ToolExecutionMode string          `json:"tool_execution_mode,omitempty" toml:"tool_execution_mode,omitempty"`
	Responses         []*ResponseRule `json:"responses,omitempty" toml:"responses,omitempty"`
	DefaultResponse   *ResponseSpec   `json:"default_response,omitempty" toml:"default_response,omitempty"`
	Identity          Identity        `json:"identity,omitempty" toml:"identity,omitempty"`
	Timing            Timing          `json:"timing,omitempty" toml:"timing,omitempty"`
	Tags              []string        `json:"tags,omitempty" toml:"tags,omitempty"`

	mu           sync.Mutex
	activeRule   int // -1 when no sequence is active
	activeCursor int
}
