package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteTextAddsTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Text, &buf)
	if err := w.WriteResult(SystemInit{}, Result{Text: "Hi!"}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if buf.String() != "Hi!\n" {
		t.Errorf("output = %q, want %q", buf.String(), "Hi!\n")
	}
}

func TestWriteJSONResultShape(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(JSON, &buf)
	result := Result{
		SessionID: "sess_1",
		NumTurns:  1,
		UUID:      "uuid-1",
		Text:      "Hi!",
	}
	if err := w.WriteResult(SystemInit{}, result); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{
		"type", "subtype", "is_error", "num_turns", "session_id",
		"total_cost_usd", "duration_ms", "duration_api_ms", "modelUsage",
		"permission_denials", "uuid", "result",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in json output", key)
		}
	}
	if decoded["type"] != "result" {
		t.Errorf("type = %v, want result", decoded["type"])
	}
	if decoded["result"] != "Hi!" {
		t.Errorf("result = %v, want Hi!", decoded["result"])
	}
}

func TestWriteJSONResultErrorSubtype(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(JSON, &buf)
	if err := w.WriteResult(SystemInit{}, Result{IsError: true, Text: "boom"}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(buf.Bytes(), &decoded)
	if decoded["subtype"] != "error" {
		t.Errorf("subtype = %v, want error", decoded["subtype"])
	}
}

func TestWriteStreamJSONEmitsThreeLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(StreamJSON, &buf)
	init := SystemInit{Version: "1.0.0", PermissionMode: "default"}
	if err := w.WriteResult(init, Result{Text: "Hi!", SessionID: "sess_1"}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}

	var initLine map[string]any
	json.Unmarshal([]byte(lines[0]), &initLine)
	if initLine["type"] != "system" || initLine["subtype"] != "init" {
		t.Errorf("first line = %v, want system.init", initLine)
	}

	var assistantLine map[string]any
	json.Unmarshal([]byte(lines[1]), &assistantLine)
	if assistantLine["type"] != "assistant" {
		t.Errorf("second line type = %v, want assistant", assistantLine["type"])
	}

	var resultLine map[string]any
	json.Unmarshal([]byte(lines[2]), &resultLine)
	if resultLine["type"] != "result" {
		t.Errorf("third line type = %v, want result", resultLine["type"])
	}
}

func TestWriteFailureBytesGoesToStderrTarget(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFailureBytes(&buf, "rate limit exceeded"); err != nil {
		t.Fatalf("WriteFailureBytes: %v", err)
	}
	if buf.String() != "rate limit exceeded\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestExitCodeValues(t *testing.T) {
	cases := map[ExitCode]int{
		ExitSuccess:     0,
		ExitError:       1,
		ExitPartial:     2,
		ExitInterrupted: 130,
	}
	for code, want := range cases {
		if int(code) != want {
			t.Errorf("code = %d, want %d", code, want)
		}
	}
}
