package mcpclient

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Bridge is the reusable async runtime spec.md §4.4 requires between the
// synchronous Tool Executor capability and MCP's inherently asynchronous
// I/O: one long-lived goroutine per Bridge drains an unbuffered request
// channel and replies on a per-request response channel, so a synchronous
// caller just sends and blocks on its own reply channel.
type Bridge struct {
	manager *Manager
	reqs    chan bridgeRequest
	done    chan struct{}
}

type bridgeRequest struct {
	ctx    context.Context
	name   string
	args   map[string]any
	result chan<- bridgeResponse
}

type bridgeResponse struct {
	result *mcp.CallToolResult
	err    error
}

// NewBridge starts the run-loop goroutine bound to manager. Call Close to
// stop it.
func NewBridge(manager *Manager) *Bridge {
	b := &Bridge{
		manager: manager,
		reqs:    make(chan bridgeRequest),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bridge) run() {
	for {
		select {
		case req, ok := <-b.reqs:
			if !ok {
				return
			}
			result, err := b.manager.CallTool(req.ctx, req.name, req.args)
			req.result <- bridgeResponse{result: result, err: err}
		case <-b.done:
			return
		}
	}
}

// ErrBridgeClosed is returned by Call once Close has been invoked.
var ErrBridgeClosed = fmt.Errorf("mcpclient: bridge closed")

// Call submits a synchronous tool call to the run-loop and blocks for its
// reply, failing cleanly if the bridge has no live run-loop.
func (b *Bridge) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	select {
	case <-b.done:
		return nil, ErrBridgeClosed
	default:
	}

	reply := make(chan bridgeResponse, 1)
	select {
	case b.reqs <- bridgeRequest{ctx: ctx, name: name, args: args, result: reply}:
	case <-b.done:
		return nil, ErrBridgeClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the run-loop. Subsequent Call invocations return
// ErrBridgeClosed.
func (b *Bridge) Close() {
	close(b.done)
}
