// Command claudeless is a deterministic drop-in test double for the
// interactive `claude` CLI: it loads a scenario script, runs one or more
// turns through the Turn Runtime, and renders the result in the requested
// output format (spec.md §6).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"claudeless/pkg/clock"
	"claudeless/pkg/config"
	"claudeless/pkg/hook"
	"claudeless/pkg/ids"
	"claudeless/pkg/mcpclient"
	"claudeless/pkg/output"
	"claudeless/pkg/runtime"
	"claudeless/pkg/scenario"
	"claudeless/pkg/state"
	"claudeless/pkg/toolexec"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// repeatableFlag collects every occurrence of a flag given multiple times,
// the same idiom the teacher's cmd/godex uses for --tool/--tool-output.
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatableFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr))
		}
		fmt.Fprintln(os.Stderr, "claudeless:", err)
		os.Exit(1)
	}
}

type exitCodeError output.ExitCode

func (e exitCodeError) Error() string { return fmt.Sprintf("exit %d", int(e)) }

func run(args []string) error {
	fs := flag.NewFlagSet("claudeless", flag.ContinueOnError)

	cfg := config.DefaultRunConfig()

	var (
		print            bool
		model            string
		outputFormat     string
		maxTokens        int
		systemPrompt     string
		cont             bool
		resume           string
		permissionMode   string
		allowedTools     string
		disallowedTools  string
		cwd              string
		scenarioPath     string
		capturePath      string
		failureName      string
		delayMs          int
		mcpConfigs       repeatableFlag
		strictMcpConfig  bool
		mcpDebug         bool
		settingsSources  repeatableFlag
		toolMode         string
	)

	fs.BoolVar(&print, "print", false, "Non-interactive: emit one response and exit")
	fs.BoolVar(&print, "p", false, "Alias for --print")
	fs.StringVar(&model, "model", "", "Model identifier")
	fs.StringVar(&outputFormat, "output-format", cfg.OutputFormat, "Output encoder: text|json|stream-json")
	fs.IntVar(&maxTokens, "max-tokens", 0, "Advisory token cap, echoed in modelUsage")
	fs.StringVar(&systemPrompt, "system-prompt", "", "Prepended system context")
	fs.BoolVar(&cont, "continue", false, "Load most-recent session by last_active")
	fs.BoolVar(&cont, "c", false, "Alias for --continue")
	fs.StringVar(&resume, "resume", "", "Load session by id")
	fs.StringVar(&resume, "r", "", "Alias for --resume")
	fs.StringVar(&permissionMode, "permission-mode", cfg.PermissionMode, "default|plan|accept-edits|bypass-permissions")
	fs.StringVar(&allowedTools, "allowedTools", "", "Comma-separated allowed tool names")
	fs.StringVar(&disallowedTools, "disallowedTools", "", "Comma-separated disallowed tool names")
	fs.StringVar(&cwd, "cwd", "", "Override working directory")
	fs.StringVar(&scenarioPath, "scenario", "", "Path to scenario file")
	fs.StringVar(&capturePath, "capture", "", "Append-JSONL interaction log path")
	fs.StringVar(&failureName, "failure", "", "Force a failure variant, overriding the scenario")
	fs.IntVar(&delayMs, "delay-ms", -1, "Override response delay in milliseconds")
	fs.Var(&mcpConfigs, "mcp-config", "MCP server definitions (file-or-json, repeatable)")
	fs.BoolVar(&strictMcpConfig, "strict-mcp-config", false, "MCP spawn failure is fatal")
	fs.BoolVar(&mcpDebug, "mcp-debug", false, "Verbose MCP tracing on stderr")
	fs.Var(&settingsSources, "settings", "Additional settings document (file-or-json, repeatable)")
	fs.StringVar(&toolMode, "tool-mode", cfg.ToolMode, "disabled|mock|live")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Print = print
	cfg.Model = model
	cfg.OutputFormat = outputFormat
	cfg.MaxTokens = maxTokens
	cfg.SystemPrompt = systemPrompt
	cfg.Continue = cont
	cfg.Resume = resume
	cfg.PermissionMode = permissionMode
	cfg.Cwd = cwd
	cfg.ScenarioPath = scenarioPath
	cfg.CapturePath = capturePath
	cfg.ForceFailure = failureName
	cfg.McpConfigs = mcpConfigs
	cfg.StrictMcpConfig = strictMcpConfig
	cfg.McpDebug = mcpDebug
	cfg.SettingsSources = settingsSources
	cfg.ToolMode = toolMode
	if allowedTools != "" {
		cfg.AllowedTools = strings.Split(allowedTools, ",")
	}
	if disallowedTools != "" {
		cfg.DisallowedTools = strings.Split(disallowedTools, ",")
	}
	if delayMs >= 0 {
		cfg.DelayMsOverride = &delayMs
	}
	cfg.ApplyEnv()

	prompt := strings.Join(fs.Args(), " ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, cleanup, err := buildRuntime(ctx, &cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// --print (or any positional prompt) runs exactly once and exits;
	// otherwise fall back to a minimal line-mode REPL, standing in for the
	// interactive TUI this simulator never renders (spec.md §4.10).
	if cfg.Print || prompt != "" {
		return runOnePrompt(ctx, rt, &cfg, maxTokens, prompt)
	}
	return runREPL(ctx, rt, &cfg, maxTokens)
}

func runOnePrompt(ctx context.Context, rt *runtime.Runtime, cfg *config.RunConfig, maxTokens int, prompt string) error {
	start := rt.Clock.Now()
	results, err := rt.Run(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return exitCodeError(output.ExitInterrupted)
		}
		return err
	}
	durationMs := rt.Clock.Now().Sub(start).Milliseconds()

	if cfg.CapturePath != "" {
		if err := appendCapture(cfg.CapturePath, prompt, results); err != nil {
			fmt.Fprintf(os.Stderr, "claudeless: capture write failed: %v\n", err)
		}
	}

	final := results[len(results)-1]
	init := output.SystemInit{
		Tools:          builtinToolNames(),
		Agents:         []string{},
		SlashCommands:  []string{},
		Plugins:        []string{},
		Version:        Version,
		PermissionMode: cfg.PermissionMode,
		APIKeySource:   "none",
		OutputStyle:    "default",
	}
	result := output.Result{
		IsError:           final.ExitCode != output.ExitSuccess,
		NumTurns:          len(results),
		SessionID:         rt.SessionID,
		DurationMs:        durationMs,
		ModelUsage:        output.ModelUsage{OutputTokens: maxTokens},
		PermissionDenials: []string{},
		UUID:              rt.IDs.UUID(),
		Text:              final.Text,
	}
	if err := rt.Output.WriteResult(init, result); err != nil {
		return err
	}

	if final.ExitCode != output.ExitSuccess {
		return exitCodeError(final.ExitCode)
	}
	return nil
}

// runREPL reads one prompt per line from stdin until EOF, running each
// through the same Runtime and printing its text response. There is no
// single exit code to report: each line's outcome is its own printed
// result, matching how the interactive TUI would surface it turn by turn.
func runREPL(ctx context.Context, rt *runtime.Runtime, cfg *config.RunConfig, maxTokens int) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := runOnePrompt(ctx, rt, cfg, maxTokens, line); err != nil {
			var exitErr exitCodeError
			if !errors.As(err, &exitErr) {
				return err
			}
		}
		if ctx.Err() != nil {
			return exitCodeError(output.ExitInterrupted)
		}
	}
	return scanner.Err()
}

func builtinToolNames() []string {
	return []string{"Read", "Write", "Edit", "Glob", "Grep", "Bash", "TodoWrite", "ExitPlanMode"}
}

// buildRuntime wires every collaborator package into a single Runtime,
// the job spec.md §4.10 calls "out-of-scope collaborator interface"
// fulfilled by the CLI entrypoint.
func buildRuntime(ctx context.Context, cfg *config.RunConfig) (*runtime.Runtime, func(), error) {
	cwd := cfg.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve cwd: %w", err)
		}
		cwd = wd
	}

	sc, err := loadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, nil, err
	}

	settings, err := config.MergeSettings(cfg.SettingsSources...)
	if err != nil {
		return nil, nil, err
	}

	registry := hook.NewRegistry()
	config.RegisterHooksFromSettings(settings, registry, cfg.HookTimeout)

	idGen := ids.NewRandom()
	if sc.Identity.SessionID != "" {
		idGen = ids.NewDeterministic(sc.Identity.SessionID)
	}

	var clk clock.Clock = clock.Real{}
	stateWriter := state.NewWriter(cfg.StateRoot, idGen, clk)

	sessionID, err := resolveSessionID(cfg, stateWriter, idGen, cwd)
	if err != nil {
		return nil, nil, err
	}

	manager := mcpclient.NewManager(cfg.StrictMcpConfig)
	for _, raw := range cfg.McpConfigs {
		defs, err := parseMcpConfig(raw, cfg.McpTimeout)
		if err != nil {
			return nil, nil, err
		}
		for _, def := range defs {
			manager.Add(def)
		}
	}

	var bridge *mcpclient.Bridge
	cleanup := func() {}
	if cfg.ToolMode == "live" {
		if errs := manager.Initialize(ctx, "claudeless", Version); len(errs) > 0 {
			if cfg.StrictMcpConfig {
				return nil, nil, errs[0]
			}
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "claudeless: mcp: %v\n", e)
			}
		}
		bridge = mcpclient.NewBridge(manager)
		cleanup = func() {
			bridge.Close()
			manager.Shutdown()
		}
	}

	builtin := toolexec.Builtin{WorkingDirectory: cwd, State: stateWriter, SessionID: sessionID}
	var executor toolexec.Executor
	switch cfg.ToolMode {
	case "disabled":
		executor = toolexec.Disabled{}
	case "live":
		executor = toolexec.Composite{MCP: bridge, Manager: manager, Builtin: builtin}
	default:
		executor = toolexec.Mock{}
	}

	permChecker := runtime.NewPolicyChecker(runtime.PermissionMode(cfg.PermissionMode), cfg.AllowedTools, cfg.DisallowedTools)

	var forcedFailure *scenario.FailureSpec
	if cfg.ForceFailure != "" {
		forcedFailure, err = failureSpecFromName(cfg.ForceFailure)
		if err != nil {
			return nil, nil, err
		}
	}

	rt := &runtime.Runtime{
		Scenario:      sc,
		Hooks:         registry,
		Tools:         executor,
		State:         stateWriter,
		Output:        output.NewWriter(output.Format(cfg.OutputFormat), os.Stdout),
		Clock:         clk,
		IDs:           idGen,
		Permission:    permChecker,
		Stderr:        os.Stderr,
		SessionID:     sessionID,
		ProjectPath:   cwd,
		PrintMode:     cfg.Print,
		ForcedFailure: forcedFailure,
		DelayOverride: cfg.DelayMsOverride,
	}
	return rt, cleanup, nil
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return scenario.Load([]byte(`{}`), scenario.FormatJSON)
	}
	return scenario.LoadFile(path)
}

func resolveSessionID(cfg *config.RunConfig, w *state.Writer, idGen *ids.Generator, projectPath string) (string, error) {
	if cfg.Resume != "" {
		return cfg.Resume, nil
	}
	if cfg.Continue {
		idx, err := w.LoadIndex(projectPath)
		if err != nil {
			return "", err
		}
		var latestID string
		var latest time.Time
		for id, entry := range idx.Entries {
			if entry.Modified.After(latest) {
				latest = entry.Modified
				latestID = id
			}
		}
		if latestID != "" {
			return latestID, nil
		}
	}
	return idGen.SessionID(), nil
}

// parseMcpConfig accepts a "mcpServers" document (claudeless's .mcp.json
// convention, one entry per server: {command, args, env}) from either a
// file path or an inline JSON string.
func parseMcpConfig(source string, timeout time.Duration) ([]mcpclient.ServerDef, error) {
	settings, err := config.ParseSettingsSource(source)
	if err != nil {
		return nil, err
	}
	servers, ok := settings["mcpServers"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("mcp-config: missing mcpServers table in %s", source)
	}

	var defs []mcpclient.ServerDef
	for name, raw := range servers {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		def := mcpclient.ServerDef{Name: name, Timeout: timeout}
		if cmd, ok := m["command"].(string); ok {
			def.Command = cmd
		}
		if args, ok := m["args"].([]any); ok {
			for _, a := range args {
				if s, ok := a.(string); ok {
					def.Args = append(def.Args, s)
				}
			}
		}
		if env, ok := m["env"].(map[string]any); ok {
			def.Env = map[string]string{}
			for k, v := range env {
				if s, ok := v.(string); ok {
					def.Env[k] = s
				}
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func failureSpecFromName(name string) (*scenario.FailureSpec, error) {
	switch strings.ToLower(name) {
	case "network-unreachable", "network_unreachable":
		return &scenario.FailureSpec{Kind: scenario.FailureNetworkUnreachable}, nil
	case "connection-timeout", "connection_timeout":
		return &scenario.FailureSpec{Kind: scenario.FailureConnectionTimeout, AfterMs: 30000}, nil
	case "auth-error", "auth_error":
		return &scenario.FailureSpec{Kind: scenario.FailureAuthError, Message: "authentication failed"}, nil
	case "rate-limit", "rate_limit":
		return &scenario.FailureSpec{Kind: scenario.FailureRateLimit, RetryAfter: 30}, nil
	case "out-of-credits", "out_of_credits":
		return &scenario.FailureSpec{Kind: scenario.FailureOutOfCredits}, nil
	case "partial-response", "partial_response":
		return &scenario.FailureSpec{Kind: scenario.FailurePartialResponse, PartialText: "...response truncated"}, nil
	case "malformed-json", "malformed_json":
		return &scenario.FailureSpec{Kind: scenario.FailureMalformedJSON, Raw: "{not valid json"}, nil
	default:
		return nil, fmt.Errorf("--failure: unknown variant %q", name)
	}
}

// appendCapture appends one JSONL record per turn to path, regardless of
// --output-format: a side-channel interaction log distinct from stdout
// rendering (spec.md §6 "--capture <path>").
func appendCapture(path string, prompt string, results []runtime.TurnResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil && filepath.Dir(path) != "." {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	turnPrompt := prompt
	for _, r := range results {
		line := captureRecord{
			Prompt:   turnPrompt,
			Response: r.Text,
			ExitCode: int(r.ExitCode),
		}
		for _, out := range r.ToolOutputs {
			line.ToolOutputs = append(line.ToolOutputs, captureToolOutput{
				ToolUseID: out.ToolUseID,
				Output:    out.Output,
				IsError:   out.IsError,
			})
		}
		encoded, err := marshalCaptureLine(line)
		if err != nil {
			return err
		}
		if _, err := f.Write(encoded); err != nil {
			return err
		}
		turnPrompt = r.HookContinuation
	}
	return nil
}

type captureToolOutput struct {
	ToolUseID string `json:"tool_use_id"`
	Output    string `json:"output"`
	IsError   bool   `json:"is_error"`
}

type captureRecord struct {
	Prompt      string              `json:"prompt"`
	Response    string              `json:"response"`
	ToolOutputs []captureToolOutput `json:"tool_outputs,omitempty"`
	ExitCode    int                 `json:"exit_code"`
}

func marshalCaptureLine(r captureRecord) ([]byte, error) {
	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(encoded, '\n'), nil
}
