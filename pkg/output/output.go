// Package output implements the Output Writer: the three response encoders
// (text, json, stream-json) and the exit-code taxonomy (spec.md §4.7, §6).
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format selects which encoder Write uses.
type Format string

const (
	Text       Format = "text"
	JSON       Format = "json"
	StreamJSON Format = "stream-json"
)

// ExitCode is the process exit status taxonomy from spec.md §6.
type ExitCode int

const (
	ExitSuccess     ExitCode = 0
	ExitError       ExitCode = 1
	ExitPartial     ExitCode = 2
	ExitInterrupted ExitCode = 130
)

// ModelUsage mirrors the per-turn token accounting echoed in both the json
// and stream-json result payloads.
type ModelUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is everything the json and stream-json encoders need to render a
// turn's outcome.
type Result struct {
	IsError           bool       `json:"is_error"`
	NumTurns          int        `json:"num_turns"`
	SessionID         string     `json:"session_id"`
	TotalCostUSD      float64    `json:"total_cost_usd"`
	DurationMs        int64      `json:"duration_ms"`
	DurationAPIMs     int64      `json:"duration_api_ms"`
	ModelUsage        ModelUsage `json:"modelUsage"`
	PermissionDenials []string   `json:"permission_denials"`
	UUID              string     `json:"uuid"`
	Text              string     `json:"result"`
}

// jsonResultLine is the single-object json-format encoding.
type jsonResultLine struct {
	Type              string     `json:"type"`
	Subtype           string     `json:"subtype"`
	IsError           bool       `json:"is_error"`
	NumTurns          int        `json:"num_turns"`
	SessionID         string     `json:"session_id"`
	TotalCostUSD      float64    `json:"total_cost_usd"`
	DurationMs        int64      `json:"duration_ms"`
	DurationAPIMs     int64      `json:"duration_api_ms"`
	ModelUsage        ModelUsage `json:"modelUsage"`
	PermissionDenials []string   `json:"permission_denials"`
	UUID              string     `json:"uuid"`
	Result            string     `json:"result"`
}

// SystemInit is the first event of a stream-json run.
type SystemInit struct {
	Type           string   `json:"type"`
	Subtype        string   `json:"subtype"`
	Tools          []string `json:"tools"`
	Agents         []string `json:"agents"`
	SlashCommands  []string `json:"slash_commands"`
	Plugins        []string `json:"plugins"`
	Version        string   `json:"version"`
	PermissionMode string   `json:"permissionMode"`
	APIKeySource   string   `json:"apiKeySource"`
	OutputStyle    string   `json:"output_style"`
}

// AssistantEvent is one stream-json assistant message event.
type AssistantEvent struct {
	Type    string `json:"type"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

func newAssistantEvent(text string) AssistantEvent {
	var ev AssistantEvent
	ev.Type = "assistant"
	ev.Message.Role = "assistant"
	ev.Message.Content = text
	return ev
}

// Writer encodes turn results in the configured Format to an underlying
// io.Writer (ordinarily os.Stdout).
type Writer struct {
	Format Format
	Out    io.Writer
}

// NewWriter returns a Writer for format writing to out.
func NewWriter(format Format, out io.Writer) *Writer {
	return &Writer{Format: format, Out: out}
}

// WriteText emits the response text plus a trailing newline; it is the
// whole output of the text format.
func (w *Writer) WriteText(text string) error {
	_, err := fmt.Fprintf(w.Out, "%s\n", text)
	return err
}

// WriteResult renders the turn's outcome in the configured format. For text
// it writes result.Text; for json it writes the single object; for
// stream-json it writes a system.init event (init), an assistant event, and
// a terminal result event as three newline-delimited JSON values.
func (w *Writer) WriteResult(init SystemInit, result Result) error {
	switch w.Format {
	case JSON:
		return w.writeJSONResult(result)
	case StreamJSON:
		return w.writeStreamJSON(init, result)
	default:
		return w.WriteText(result.Text)
	}
}

func (w *Writer) writeJSONResult(result Result) error {
	line := jsonResultLine{
		Type:              "result",
		Subtype:           "success",
		IsError:           result.IsError,
		NumTurns:          result.NumTurns,
		SessionID:         result.SessionID,
		TotalCostUSD:      result.TotalCostUSD,
		DurationMs:        result.DurationMs,
		DurationAPIMs:     result.DurationAPIMs,
		ModelUsage:        result.ModelUsage,
		PermissionDenials: result.PermissionDenials,
		UUID:              result.UUID,
		Result:            result.Text,
	}
	if line.Subtype == "success" && result.IsError {
		line.Subtype = "error"
	}
	encoded, err := json.Marshal(line)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.Out, "%s\n", encoded)
	return err
}

func (w *Writer) writeStreamJSON(init SystemInit, result Result) error {
	init.Type = "system"
	init.Subtype = "init"
	if err := w.writeJSONLine(init); err != nil {
		return err
	}
	if err := w.writeJSONLine(newAssistantEvent(result.Text)); err != nil {
		return err
	}
	return w.writeJSONResult(result)
}

func (w *Writer) writeJSONLine(v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.Out, "%s\n", encoded)
	return err
}

// WriteFailureBytes writes a failure variant's deterministic bytes to the
// configured destination (spec.md §4.2 step 3); failures bypass format
// selection and always go to stderr as plain text.
func WriteFailureBytes(stderr io.Writer, message string) error {
	_, err := fmt.Fprintf(stderr, "%s\n", message)
	return err
}
