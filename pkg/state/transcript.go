package state

import (
	"strconv"
	"strings"
	"time"
)

// contentBlock is one block inside an assistant message's content array.
type contentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   any    `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// queueOperationLine is the first line claudeless writes in print mode
// (spec.md §9 open question: the real assistant sometimes emits this and
// sometimes file-history-snapshot in interactive mode; claudeless only
// reproduces the print-mode case, recorded as a deliberate divergence in
// DESIGN.md rather than guessed).
type queueOperationLine struct {
	Type      string    `json:"type"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

func newQueueOperationLine(now time.Time) queueOperationLine {
	return queueOperationLine{Type: "queue-operation", Operation: "enqueue", Timestamp: now}
}

type userLine struct {
	Type      string    `json:"type"`
	UUID      string    `json:"uuid"`
	ParentUUID string   `json:"parentUuid,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Message   struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

func newUserLine(uuid, prompt string, now time.Time) userLine {
	l := userLine{Type: "user", UUID: uuid, Timestamp: now}
	l.Message.Role = "user"
	l.Message.Content = prompt
	return l
}

type assistantLine struct {
	Type       string    `json:"type"`
	UUID       string    `json:"uuid"`
	ParentUUID string    `json:"parentUuid,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	StopReason string    `json:"stop_reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Message    struct {
		Role    string         `json:"role"`
		Content []contentBlock `json:"content"`
	} `json:"message"`
}

func newAssistantLine(uuid, parentUUID, requestID string, blocks []contentBlock, stopReason string, now time.Time) assistantLine {
	l := assistantLine{
		Type:       "assistant",
		UUID:       uuid,
		ParentUUID: parentUUID,
		RequestID:  requestID,
		StopReason: stopReason,
		Timestamp:  now,
	}
	l.Message.Role = "assistant"
	l.Message.Content = blocks
	return l
}

// toolResultLine is the user-role line carrying one tool call's result
// back, with the tool-specific toolUseResult convention (spec.md §9 open
// question: mirrored per reference fixtures rather than invented generically).
type toolResultLine struct {
	Type                     string    `json:"type"`
	UUID                     string    `json:"uuid"`
	ParentUUID               string    `json:"parentUuid,omitempty"`
	Timestamp                time.Time `json:"timestamp"`
	ToolUseResult            any       `json:"toolUseResult,omitempty"`
	SourceToolAssistantUUID  string    `json:"sourceToolAssistantUUID,omitempty"`
	Message                  struct {
		Role    string         `json:"role"`
		Content []contentBlock `json:"content"`
	} `json:"message"`
}

func newToolResultLine(uuid, parentUUID, assistantUUID string, toolUseResult any, block contentBlock, now time.Time) toolResultLine {
	l := toolResultLine{
		Type:                    "user",
		UUID:                    uuid,
		ParentUUID:              parentUUID,
		Timestamp:               now,
		ToolUseResult:           toolUseResult,
		SourceToolAssistantUUID: assistantUUID,
	}
	l.Message.Role = "user"
	l.Message.Content = []contentBlock{block}
	return l
}

// resultLine is the dual record allowing log extractors to scan for an
// exit-code substring without parsing the full transcript structure.
type resultLine struct {
	Type      string    `json:"type"`
	ToolUseID string    `json:"toolUseId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func newResultLine(toolUseID, content string, now time.Time) resultLine {
	return resultLine{Type: "result", ToolUseID: toolUseID, Content: content, Timestamp: now}
}

// toolUseResultFor builds the tool-specific toolUseResult payload. Unknown
// tools get a generic {output} shape.
func toolUseResultFor(toolName, input string, output string, isError bool) any {
	switch toolName {
	case "TodoWrite":
		return map[string]any{"oldTodos": []any{}, "newTodos": []any{}}
	case "Read":
		return map[string]any{"path": input, "lines": len(strings.Split(output, "\n"))}
	case "Bash":
		return map[string]any{"command": input, "exitCode": exitCodeFromBashOutput(output)}
	default:
		return map[string]any{"output": output, "is_error": isError}
	}
}

func exitCodeFromBashOutput(output string) int {
	const marker = "Exit code: "
	idx := strings.LastIndex(output, marker)
	if idx < 0 {
		return 0
	}
	rest := output[idx+len(marker):]
	end := len(rest)
	for i, c := range rest {
		if c < '0' || c > '9' {
			end = i
			break
		}
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}
