package mcpclient

import (
	"context"
	"testing"
	"time"
)

func TestBridgeCallReturnsManagerError(t *testing.T) {
	m := NewManager(false)
	b := NewBridge(m)
	defer b.Close()

	_, err := b.Call(context.Background(), "nonexistent", nil)
	if err == nil {
		t.Error("expected error for unrouted tool call through the bridge")
	}
}

func TestBridgeCallAfterCloseFailsCleanly(t *testing.T) {
	m := NewManager(false)
	b := NewBridge(m)
	b.Close()

	_, err := b.Call(context.Background(), "nonexistent", nil)
	if err != ErrBridgeClosed {
		t.Errorf("err = %v, want ErrBridgeClosed", err)
	}
}

func TestBridgeCallRespectsContextCancellation(t *testing.T) {
	m := NewManager(false)
	b := NewBridge(m)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := b.Call(ctx, "whatever", nil)
	if err == nil {
		t.Error("expected context deadline error")
	}
}

func TestResultTextNilIsEmpty(t *testing.T) {
	if got := ResultText(nil); got != "" {
		t.Errorf("ResultText(nil) = %q, want empty", got)
	}
}
