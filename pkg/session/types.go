// Package session models one live conversation: its turns, tool calls, and
// the sessions-index entry the state writer persists alongside it
// (spec.md §3 "Session").
package session

import "time"

// ContentBlock is a tagged content unit inside an assistant message,
// mirroring the Anthropic SDK's block vocabulary (text / tool_use /
// tool_result) that the teacher harness already imports types from.
type ContentBlock struct {
	Type      string `json:"type"` // "text", "tool_use", "tool_result"
	Text      string `json:"text,omitempty"`
	ToolUseID string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	Content   any    `json:"content,omitempty"` // tool_result content, string or array
	IsError   bool   `json:"is_error,omitempty"`
}

// TurnToolCall records one tool call executed during a Turn.
type TurnToolCall struct {
	Tool   string `json:"tool"`
	Input  any    `json:"input"`
	Output string `json:"output,omitempty"`
}

// Turn is one prompt/response cycle recorded in a Session.
type Turn struct {
	Seq       int            `json:"seq"`
	Prompt    string         `json:"prompt"`
	Response  string         `json:"response"`
	Timestamp time.Time      `json:"timestamp"`
	ToolCalls []TurnToolCall `json:"tool_calls,omitempty"`
}

// Session is one live conversation: a sequence of turns sharing an id and
// an on-disk transcript.
type Session struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	LastActive  time.Time      `json:"last_active"`
	ProjectPath string         `json:"project_path"`
	Turns       []Turn         `json:"turns"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// AppendTurn appends t to the session, enforcing the monotonic-seq
// invariant (spec.md §8 invariant 3) and bumping LastActive.
func (s *Session) AppendTurn(t Turn) {
	t.Seq = len(s.Turns)
	s.Turns = append(s.Turns, t)
	if t.Timestamp.After(s.LastActive) || s.LastActive.IsZero() {
		s.LastActive = t.Timestamp
	}
}

// IndexEntry is one entry in a project's sessions-index.json.
type IndexEntry struct {
	FullPath     string    `json:"full_path"`
	FileMtime    time.Time `json:"file_mtime"`
	FirstPrompt  string    `json:"first_prompt"`
	MessageCount int       `json:"message_count"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
	GitBranch    string    `json:"git_branch,omitempty"`
	ProjectPath  string    `json:"project_path"`
	IsSidechain  bool      `json:"is_sidechain"`
}

// Index is the on-disk sessions-index.json document, version-pinned to 1.
type Index struct {
	Version int                   `json:"version"`
	Entries map[string]IndexEntry `json:"entries"`
}

// NewIndex returns an empty, version-1 Index.
func NewIndex() *Index {
	return &Index{Version: 1, Entries: map[string]IndexEntry{}}
}

// Upsert inserts or replaces entry under sessionID; idempotent by id
// (spec.md §8 round-trip property).
func (idx *Index) Upsert(sessionID string, entry IndexEntry) {
	if idx.Entries == nil {
		idx.Entries = map[string]IndexEntry{}
	}
	idx.Entries[sessionID] = entry
}

// TodoStatus is one of the three lifecycle states a TodoItem can hold.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// TodoItem is one entry in a session's todo list.
type TodoItem struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Status     TodoStatus `json:"status"`
	ActiveForm string     `json:"activeForm"`
}

// NormalizeActiveForm fills ActiveForm with "{content}..." when unset,
// per spec.md §3's TodoItem invariant.
func (t *TodoItem) NormalizeActiveForm() {
	if t.ActiveForm == "" {
		t.ActiveForm = t.Content + "..."
	}
}

// Plan is a saved plan document.
type Plan struct {
	ID          string    `json:"id"` // "word-word-word"
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	ProjectPath string    `json:"project_path,omitempty"`
}
