// Package mcpclient implements the MCP Client Layer: a thin state machine
// over mark3labs/mcp-go's stdio client transport, plus a Manager that
// fans a tool call out to the right configured server (spec.md §4.4).
package mcpclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// State is a client's position in the Connected -> Initialized -> Running
// -> Shutdown lifecycle.
type State int

const (
	// StateUnconnected is the zero value, before connect() is called.
	StateUnconnected State = iota
	StateConnected
	StateInitialized
	StateRunning
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateShutdown:
		return "shutdown"
	default:
		return "unconnected"
	}
}

// ServerDef configures one MCP server to spawn over stdio.
type ServerDef struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
	Timeout time.Duration
}

// Client wraps one mcp-go stdio client with the explicit state machine
// spec.md §4.4 requires: each transition is checked against the current
// state rather than trusting the underlying library to reject misuse.
type Client struct {
	def ServerDef

	mu      sync.Mutex
	state   State
	raw     *client.Client
	tools   []mcp.Tool
	toolSet map[string]bool
}

// New returns an unconnected Client for def.
func New(def ServerDef) *Client {
	if def.Timeout <= 0 {
		def.Timeout = 5 * time.Second
	}
	return &Client{def: def, state: StateUnconnected}
}

// State returns the client's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect spawns the child process and opens its stdio pipes, entering
// Connected. Calling Connect twice is an error.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUnconnected {
		return fmt.Errorf("mcpclient: %s: connect called in state %s", c.def.Name, c.state)
	}

	raw, err := client.NewStdioMCPClient(c.def.Command, envSlice(c.def.Env), c.def.Args...)
	if err != nil {
		return fmt.Errorf("mcpclient: %s: spawn: %w", c.def.Name, err)
	}

	c.raw = raw
	c.state = StateConnected
	return nil
}

// Initialize sends the initialize request and the initialized notification,
// entering Initialized. Requires Connected; double-init is an error.
func (c *Client) Initialize(ctx context.Context, clientName, clientVersion string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return fmt.Errorf("mcpclient: %s: initialize called in state %s", c.def.Name, c.state)
	}

	initCtx, cancel := context.WithTimeout(ctx, c.def.Timeout)
	defer cancel()

	req := mcp.InitializeRequest{}
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	req.Params.ProtocolVersion = "2024-11-05"

	if _, err := c.raw.Initialize(initCtx, req); err != nil {
		return fmt.Errorf("mcpclient: %s: initialize: %w", c.def.Name, err)
	}

	c.state = StateInitialized
	return nil
}

// ListTools requires Initialized and caches the result for HasTool lookups.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInitialized && c.state != StateRunning {
		return nil, fmt.Errorf("mcpclient: %s: list_tools called in state %s", c.def.Name, c.state)
	}

	listCtx, cancel := context.WithTimeout(ctx, c.def.Timeout)
	defer cancel()

	resp, err := c.raw.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcpclient: %s: list_tools: %w", c.def.Name, err)
	}

	c.tools = resp.Tools
	c.toolSet = make(map[string]bool, len(resp.Tools))
	for _, t := range resp.Tools {
		c.toolSet[t.Name] = true
	}
	c.state = StateRunning
	return resp.Tools, nil
}

// HasTool is a synchronous, lock-protected predicate over the cached tool
// list — safe to call from the synchronous ToolExecutor capability.
func (c *Client) HasTool(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toolSet[name]
}

// CallTool requires Initialized/Running and that name was present in the
// last ListTools result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	state := c.state
	known := c.toolSet[name]
	raw := c.raw
	c.mu.Unlock()

	if state != StateRunning && state != StateInitialized {
		return nil, fmt.Errorf("mcpclient: %s: call_tool called in state %s", c.def.Name, state)
	}
	if !known {
		return nil, fmt.Errorf("mcpclient: %s: unknown tool %q", c.def.Name, name)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.def.Timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := raw.CallTool(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: %s: call_tool %s: %w", c.def.Name, name, err)
	}
	return result, nil
}

// Shutdown closes the transport and enters Shutdown. Safe to call more
// than once.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateShutdown {
		return nil
	}
	var err error
	if c.raw != nil {
		err = c.raw.Close()
	}
	c.state = StateShutdown
	return err
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
