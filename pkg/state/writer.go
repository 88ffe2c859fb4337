// Package state implements the State Writer: the component that persists
// session transcripts, the sessions index, todos, and plans to disk under a
// configurable root (spec.md §4.6).
package state

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"claudeless/pkg/clock"
	"claudeless/pkg/ids"
	"claudeless/pkg/session"
)

const (
	dirPerm      = 0o700
	dataFilePerm = 0o600
	settingsPerm = 0o644
)

// Writer is the exclusive write handle for one Runtime's on-disk state.
// State files are append-only and owned by no single in-memory struct;
// Writer only serializes concurrent callers per session (spec.md §3
// "Ownership summary", §5 "State-writer appends ... are strictly ordered").
type Writer struct {
	Root  string
	IDs   *ids.Generator
	Clock clock.Clock
	Rand  *rand.Rand

	mu         sync.Mutex
	sessionMus map[string]*sync.Mutex
	indexMus   map[string]*sync.Mutex
}

// NewWriter returns a Writer rooted at root, using ids and clk for identity
// and timestamps.
func NewWriter(root string, idGen *ids.Generator, clk clock.Clock) *Writer {
	return &Writer{
		Root:       root,
		IDs:        idGen,
		Clock:      clk,
		Rand:       rand.New(rand.NewSource(1)),
		sessionMus: map[string]*sync.Mutex{},
		indexMus:   map[string]*sync.Mutex{},
	}
}

func (w *Writer) lockFor(m map[string]*sync.Mutex, key string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	mu, ok := m[key]
	if !ok {
		mu = &sync.Mutex{}
		m[key] = mu
	}
	return mu
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return err
	}
	_ = os.Chmod(path, dirPerm)
	return nil
}

// ProjectDir returns the on-disk directory for projectPath's sessions.
func (w *Writer) ProjectDir(projectPath string) string {
	return filepath.Join(w.Root, "projects", session.ProjectDirName(projectPath))
}

func (w *Writer) transcriptPath(projectPath, sessionID string) string {
	return filepath.Join(w.ProjectDir(projectPath), sessionID+".jsonl")
}

func (w *Writer) appendLines(path string, lines ...any) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, dataFilePerm)
	if err != nil {
		return fmt.Errorf("state: open %s: %w", path, err)
	}
	defer f.Close()

	for _, line := range lines {
		encoded, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("state: encode line: %w", err)
		}
		if _, err := f.Write(append(encoded, '\n')); err != nil {
			return fmt.Errorf("state: write %s: %w", path, err)
		}
	}
	_ = os.Chmod(path, dataFilePerm)
	return nil
}

// ToolCallRecord is one executed tool call folded into a RecordTurn call.
type ToolCallRecord struct {
	ToolUseID string
	Name      string
	Input     any
	Output    string
	IsError   bool
}

// TurnRecord is everything RecordTurn needs to append the full JSONL
// sequence for one turn (spec.md §4.2 step 7).
type TurnRecord struct {
	SessionID        string
	ProjectPath      string
	Prompt           string
	ResponseText     string
	ToolCalls        []ToolCallRecord
	RequestIDPrefix  string
	FirstInSession   bool // emits the queue-operation line when true and printMode is true
	PrintMode        bool
}

// RecordTurn appends one turn's lines to the session transcript, following
// the exact line sequence and count spec.md §8 invariant 2 requires:
// 2 + 2*len(tool_calls) + (1 if any tool call, else 0), plus one leading
// queue-operation line when FirstInSession and PrintMode are both set.
func (w *Writer) RecordTurn(rec TurnRecord) error {
	mu := w.lockFor(w.sessionMus, rec.SessionID)
	mu.Lock()
	defer mu.Unlock()

	now := w.Clock.Now()
	path := w.transcriptPath(rec.ProjectPath, rec.SessionID)

	var lines []any
	if rec.FirstInSession && rec.PrintMode {
		lines = append(lines, newQueueOperationLine(now))
	}

	userUUID := w.IDs.UUID()
	lines = append(lines, newUserLine(userUUID, rec.Prompt, now))

	assistantUUID := w.IDs.UUID()
	requestID := w.IDs.RequestID(rec.RequestIDPrefix)

	blocks := []contentBlock{{Type: "text", Text: rec.ResponseText}}
	for _, tc := range rec.ToolCalls {
		blocks = append(blocks, contentBlock{
			Type:  "tool_use",
			ID:    tc.ToolUseID,
			Name:  tc.Name,
			Input: tc.Input,
		})
	}

	stopReason := "end_turn"
	if len(rec.ToolCalls) > 0 {
		stopReason = "tool_use"
	}
	lines = append(lines, newAssistantLine(assistantUUID, userUUID, requestID, blocks, stopReason, now))

	for _, tc := range rec.ToolCalls {
		inputStr := fmt.Sprintf("%v", tc.Input)
		if m, ok := tc.Input.(map[string]any); ok {
			for _, key := range []string{"file_path", "command"} {
				if s, ok := m[key].(string); ok {
					inputStr = s
				}
			}
		}
		toolUseResult := toolUseResultFor(tc.Name, inputStr, tc.Output, tc.IsError)

		resultUUID := w.IDs.UUID()
		lines = append(lines, newToolResultLine(
			resultUUID, assistantUUID, assistantUUID, toolUseResult,
			contentBlock{Type: "tool_result", ToolUseID: tc.ToolUseID, Content: tc.Output, IsError: tc.IsError},
			now,
		))
		lines = append(lines, newResultLine(tc.ToolUseID, tc.Output, now))
	}

	if len(rec.ToolCalls) > 0 {
		terminalUUID := w.IDs.UUID()
		lines = append(lines, newAssistantLine(terminalUUID, assistantUUID, requestID, nil, "end_turn", now))
	}

	return w.appendLines(path, lines...)
}

// WriteTodos persists items to todos/{sessionId}-agent-{sessionId}.json.
func (w *Writer) WriteTodos(sessionID string, items []session.TodoItem) error {
	if items == nil {
		items = []session.TodoItem{}
	}
	dir := filepath.Join(w.Root, "todos")
	if err := ensureDir(dir); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-agent-%s.json", sessionID, sessionID))
	encoded, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode todos: %w", err)
	}
	if err := os.WriteFile(path, encoded, dataFilePerm); err != nil {
		return fmt.Errorf("state: write todos: %w", err)
	}
	_ = os.Chmod(path, dataFilePerm)
	return nil
}

// maxPlanNameRetries is the collision-retry cap spec.md §8 names as an
// observable boundary behavior.
const maxPlanNameRetries = 10

// ErrPlanNameExhausted is returned when 10 random adjective-verb-noun
// candidates all collided with an existing file.
var ErrPlanNameExhausted = fmt.Errorf("state: exhausted plan name candidates")

// WritePlan persists content under plans/{adjective}-{verb}-{noun}.md,
// retrying on filename collision up to maxPlanNameRetries times.
func (w *Writer) WritePlan(content string) (string, error) {
	dir := filepath.Join(w.Root, "plans")
	if err := ensureDir(dir); err != nil {
		return "", fmt.Errorf("state: %w", err)
	}

	mu := w.lockFor(w.indexMus, "__plans__")
	mu.Lock()
	defer mu.Unlock()

	for i := 0; i < maxPlanNameRetries; i++ {
		name := w.randomPlanName()
		path := filepath.Join(dir, name+".md")
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("state: stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(content), dataFilePerm); err != nil {
			return "", fmt.Errorf("state: write plan: %w", err)
		}
		_ = os.Chmod(path, dataFilePerm)
		return filepath.Join("plans", name+".md"), nil
	}
	return "", ErrPlanNameExhausted
}

func (w *Writer) randomPlanName() string {
	adj := planAdjectives[w.Rand.Intn(len(planAdjectives))]
	verb := planVerbs[w.Rand.Intn(len(planVerbs))]
	noun := planNouns[w.Rand.Intn(len(planNouns))]
	return adj + "-" + verb + "-" + noun
}

// LoadIndex reads projectPath's sessions-index.json, returning an empty
// Index if it does not exist yet.
func (w *Writer) LoadIndex(projectPath string) (*session.Index, error) {
	path := filepath.Join(w.ProjectDir(projectPath), "sessions-index.json")

	mu := w.lockFor(w.indexMus, path)
	mu.Lock()
	defer mu.Unlock()

	idx := session.NewIndex()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("state: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", path, err)
	}
	return idx, nil
}

// UpsertIndex loads, merges, and rewrites projectPath's sessions-index.json
// with entry under sessionID (last-writer-wins, idempotent by id).
func (w *Writer) UpsertIndex(projectPath, sessionID string, entry session.IndexEntry) error {
	dir := w.ProjectDir(projectPath)
	if err := ensureDir(dir); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	path := filepath.Join(dir, "sessions-index.json")

	mu := w.lockFor(w.indexMus, path)
	mu.Lock()
	defer mu.Unlock()

	idx := session.NewIndex()
	if data, err := os.ReadFile(path); err == nil {
		if jsonErr := json.Unmarshal(data, idx); jsonErr != nil {
			return fmt.Errorf("state: parse %s: %w", path, jsonErr)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("state: read %s: %w", path, err)
	}

	idx.Upsert(sessionID, entry)

	encoded, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode index: %w", err)
	}
	if err := os.WriteFile(path, encoded, settingsPerm); err != nil {
		return fmt.Errorf("state: write %s: %w", path, err)
	}
	_ = os.Chmod(path, settingsPerm)
	return nil
}
