package config

import "time"

// RunConfig is the resolved configuration a cmd/claudeless invocation
// builds from flags, environment variables, and layered --settings
// documents before constructing a runtime.Runtime. It is the "resolved
// Runtime handle" spec.md §1 says CLI parsing produces.
type RunConfig struct {
	Prompt            string
	Print             bool
	Model             string
	OutputFormat      string // "text", "json", "stream-json"
	MaxTokens         int
	SystemPrompt      string
	Continue          bool
	Resume            string
	PermissionMode    string // "default", "plan", "accept-edits", "bypass-permissions"
	AllowedTools      []string
	DisallowedTools   []string
	Cwd               string
	ScenarioPath      string
	CapturePath       string
	ForceFailure      string
	DelayMsOverride   *int
	McpConfigs        []string
	StrictMcpConfig   bool
	McpDebug          bool
	SettingsSources   []string
	ToolMode          string // "disabled", "mock", "live"
	StateRoot         string
	HookTimeout       time.Duration
	McpTimeout        time.Duration
}

// DefaultRunConfig returns the baseline configuration before flags and
// environment overrides are applied.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		OutputFormat: "text",
		ToolMode:     "mock",
		StateRoot:    StateRoot(),
		HookTimeout:  5 * time.Second,
		McpTimeout:   5 * time.Second,
	}
}

// ApplyEnv layers environment-variable overrides onto cfg for the values
// spec.md §6 says have dedicated env vars, without touching flag-sourced
// fields that were already explicitly set by the caller.
func (cfg *RunConfig) ApplyEnv() {
	if d, ok := HookTimeoutMs(); ok {
		cfg.HookTimeout = d
	}
	if d, ok := McpTimeoutMs(); ok {
		cfg.McpTimeout = d
	}
	if _, ok := ResponseDelayMs(); ok && cfg.DelayMsOverride == nil {
		d, _ := ResponseDelayMs()
		ms := int(d / time.Millisecond)
		cfg.DelayMsOverride = &ms
	}
}
