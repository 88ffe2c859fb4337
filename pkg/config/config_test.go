package config

import (
	"testing"
	"time"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()

	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, "text")
	}
	if cfg.ToolMode != "mock" {
		t.Errorf("ToolMode = %q, want %q", cfg.ToolMode, "mock")
	}
	if cfg.HookTimeout != 5*time.Second {
		t.Errorf("HookTimeout = %v, want %v", cfg.HookTimeout, 5*time.Second)
	}
	if cfg.McpTimeout != 5*time.Second {
		t.Errorf("McpTimeout = %v, want %v", cfg.McpTimeout, 5*time.Second)
	}
	if cfg.DelayMsOverride != nil {
		t.Errorf("DelayMsOverride = %v, want nil", cfg.DelayMsOverride)
	}
}

func TestApplyEnvOverridesTimeouts(t *testing.T) {
	t.Setenv("CLAUDELESS_HOOK_TIMEOUT_MS", "1500")
	t.Setenv("CLAUDELESS_MCP_TIMEOUT_MS", "2500")
	t.Setenv("CLAUDELESS_RESPONSE_DELAY_MS", "10")

	cfg := DefaultRunConfig()
	cfg.ApplyEnv()

	if cfg.HookTimeout != 1500*time.Millisecond {
		t.Errorf("HookTimeout = %v, want %v", cfg.HookTimeout, 1500*time.Millisecond)
	}
	if cfg.McpTimeout != 2500*time.Millisecond {
		t.Errorf("McpTimeout = %v, want %v", cfg.McpTimeout, 2500*time.Millisecond)
	}
	if cfg.DelayMsOverride == nil || *cfg.DelayMsOverride != 10 {
		t.Errorf("DelayMsOverride = %v, want 10", cfg.DelayMsOverride)
	}
}

func TestApplyEnvDoesNotOverrideExplicitDelay(t *testing.T) {
	t.Setenv("CLAUDELESS_RESPONSE_DELAY_MS", "999")

	cfg := DefaultRunConfig()
	explicit := 42
	cfg.DelayMsOverride = &explicit
	cfg.ApplyEnv()

	if *cfg.DelayMsOverride != 42 {
		t.Errorf("DelayMsOverride = %v, want 42 (explicit value preserved)", *cfg.DelayMsOverride)
	}
}
