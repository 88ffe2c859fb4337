// Package config resolves the simulator's environment variables and
// layered --settings documents. Every environment variable named in
// spec.md §6 gets its own accessor here rather than being read ad hoc
// throughout the codebase — the same discipline as the teacher's
// config.DefaultPath()/config.LoadFrom() single-entry-point style.
package config

import (
	"os"
	"strconv"
	"time"
)

// ConfigDir returns CLAUDELESS_CONFIG_DIR, or "" if unset.
func ConfigDir() string { return os.Getenv("CLAUDELESS_CONFIG_DIR") }

// StateDir returns CLAUDELESS_STATE_DIR, or "" if unset.
func StateDir() string { return os.Getenv("CLAUDELESS_STATE_DIR") }

// ClaudeConfigDir returns CLAUDE_CONFIG_DIR, or "" if unset.
func ClaudeConfigDir() string { return os.Getenv("CLAUDE_CONFIG_DIR") }

// Home returns HOME, or "" if unset.
func Home() string { return os.Getenv("HOME") }

// ResponseDelayMs returns CLAUDELESS_RESPONSE_DELAY_MS as a duration, or
// ok=false if unset or unparsable.
func ResponseDelayMs() (time.Duration, bool) { return durationMsEnv("CLAUDELESS_RESPONSE_DELAY_MS") }

// HookTimeoutMs returns CLAUDELESS_HOOK_TIMEOUT_MS as a duration.
func HookTimeoutMs() (time.Duration, bool) { return durationMsEnv("CLAUDELESS_HOOK_TIMEOUT_MS") }

// McpTimeoutMs returns CLAUDELESS_MCP_TIMEOUT_MS as a duration.
func McpTimeoutMs() (time.Duration, bool) { return durationMsEnv("CLAUDELESS_MCP_TIMEOUT_MS") }

// CompactDelayMs returns CLAUDELESS_COMPACT_DELAY_MS as a duration.
func CompactDelayMs() (time.Duration, bool) { return durationMsEnv("CLAUDELESS_COMPACT_DELAY_MS") }

// ExitHintTimeoutMs returns CLAUDELESS_EXIT_HINT_TIMEOUT_MS as a duration.
func ExitHintTimeoutMs() (time.Duration, bool) {
	return durationMsEnv("CLAUDELESS_EXIT_HINT_TIMEOUT_MS")
}

func durationMsEnv(name string) (time.Duration, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}

// StateRoot resolves the on-disk root directory for session/todo/plan
// state, in the env-driven order from spec.md §4.6:
// CLAUDELESS_CONFIG_DIR → CLAUDELESS_STATE_DIR → CLAUDE_CONFIG_DIR → the
// process temp dir. The simulator never writes to ~/.claude unless one of
// these explicitly points there.
func StateRoot() string {
	if v := ConfigDir(); v != "" {
		return v
	}
	if v := StateDir(); v != "" {
		return v
	}
	if v := ClaudeConfigDir(); v != "" {
		return v
	}
	return os.TempDir()
}
