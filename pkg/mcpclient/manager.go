package mcpclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// Manager holds every configured MCP server, keyed by logical name, and
// maintains a tool-name -> server-name routing table populated during
// Initialize. It uses an RWMutex so HasTool (called synchronously from the
// Tool Executor's hot path) never blocks behind another reader.
type Manager struct {
	StrictMode bool

	mu      sync.RWMutex
	clients map[string]*Client
	routes  map[string]string // tool name -> server name
}

// NewManager returns an empty Manager. StrictMode turns any per-server
// connect/initialize/list_tools failure into a fatal error from Initialize;
// otherwise failures are collected and surfaced per-server while the rest
// of the servers still come up.
func NewManager(strictMode bool) *Manager {
	return &Manager{
		StrictMode: strictMode,
		clients:    map[string]*Client{},
		routes:     map[string]string{},
	}
}

// Add registers def under its Name. Intended for setup, before Initialize.
func (m *Manager) Add(def ServerDef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[def.Name] = New(def)
}

// ServerError pairs a server name with the error encountered initializing it.
type ServerError struct {
	Server string
	Err    error
}

func (e ServerError) Error() string { return fmt.Sprintf("mcpclient: %s: %v", e.Server, e.Err) }

// Initialize connects, initializes, and lists tools for every registered
// server, populating the routing table as each server's tools arrive.
// In strict mode the first failure aborts and is returned; otherwise all
// per-server failures are collected and returned together (nil if none).
func (m *Manager) Initialize(ctx context.Context, clientName, clientVersion string) []ServerError {
	m.mu.RLock()
	names := make([]string, 0, len(m.clients))
	clients := make([]*Client, 0, len(m.clients))
	for name, c := range m.clients {
		names = append(names, name)
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	var errs []ServerError
	for i, c := range clients {
		name := names[i]
		if err := c.Connect(ctx); err != nil {
			errs = append(errs, ServerError{Server: name, Err: err})
			if m.StrictMode {
				return errs
			}
			continue
		}
		if err := c.Initialize(ctx, clientName, clientVersion); err != nil {
			errs = append(errs, ServerError{Server: name, Err: err})
			if m.StrictMode {
				return errs
			}
			continue
		}
		tools, err := c.ListTools(ctx)
		if err != nil {
			errs = append(errs, ServerError{Server: name, Err: err})
			if m.StrictMode {
				return errs
			}
			continue
		}

		m.mu.Lock()
		for _, t := range tools {
			m.routes[t.Name] = name
		}
		m.mu.Unlock()
	}
	return errs
}

// HasTool reports whether any initialized server exposes name. Safe for
// concurrent use alongside Initialize/CallTool.
func (m *Manager) HasTool(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.routes[name]
	return ok
}

// CallTool routes name to its owning server and calls it there.
func (m *Manager) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	m.mu.RLock()
	server, ok := m.routes[name]
	var c *Client
	if ok {
		c = m.clients[server]
	}
	m.mu.RUnlock()

	if !ok || c == nil {
		return nil, fmt.Errorf("mcpclient: no server exposes tool %q", name)
	}
	return c.CallTool(ctx, name, args)
}

// Shutdown shuts down every client, collecting any errors.
func (m *Manager) Shutdown() []ServerError {
	m.mu.RLock()
	clients := make(map[string]*Client, len(m.clients))
	for k, v := range m.clients {
		clients[k] = v
	}
	m.mu.RUnlock()

	var errs []ServerError
	for name, c := range clients {
		if err := c.Shutdown(); err != nil {
			errs = append(errs, ServerError{Server: name, Err: err})
		}
	}
	return errs
}

// ResultText flattens an mcp.CallToolResult's text content blocks into a
// single string, the shape the Tool Executor needs to fold MCP output into
// a ToolExecutionResult.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var out string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += tc.Text
		}
	}
	return out
}
