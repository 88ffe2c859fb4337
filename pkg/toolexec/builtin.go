package toolexec

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"claudeless/pkg/session"
)

// Builtin implements the assistant's real tool catalog against the
// filesystem rooted at WorkingDirectory. TodoWrite and ExitPlanMode are
// stateful: they persist through State, the State Writer handle.
type Builtin struct {
	WorkingDirectory string
	State            StateWriter
	SessionID        string
}

func (b Builtin) Name() string { return "builtin" }

func (b Builtin) Execute(ctx context.Context, call ToolCallSpec) ToolExecutionResult {
	var (
		out string
		err error
	)
	switch call.Name {
	case "Read":
		out, err = b.read(call.Input)
	case "Write":
		out, err = b.write(call.Input)
	case "Edit":
		out, err = b.edit(call.Input)
	case "Glob":
		out, err = b.glob(call.Input)
	case "Grep":
		out, err = b.grep(call.Input)
	case "Bash":
		out, err = b.bash(ctx, call.Input)
	case "TodoWrite":
		out, err = b.todoWrite(call.Input)
	case "ExitPlanMode":
		out, err = b.exitPlanMode(call.Input)
	default:
		err = fmt.Errorf("unknown builtin tool %q", call.Name)
	}

	if err != nil {
		return Error(call.ToolUseID, err.Error())
	}
	return Success(call.ToolUseID, out)
}

func (b Builtin) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.WorkingDirectory, p)
}

func (b Builtin) read(input map[string]any) (string, error) {
	path, _ := input["file_path"].(string)
	if path == "" {
		return "", fmt.Errorf("Read: file_path is required")
	}
	data, err := os.ReadFile(b.resolve(path))
	if err != nil {
		return "", fmt.Errorf("Read: %w", err)
	}
	return string(data), nil
}

func (b Builtin) write(input map[string]any) (string, error) {
	path, _ := input["file_path"].(string)
	content, _ := input["content"].(string)
	if path == "" {
		return "", fmt.Errorf("Write: file_path is required")
	}
	full := b.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("Write: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("Write: %w", err)
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
}

func (b Builtin) edit(input map[string]any) (string, error) {
	path, _ := input["file_path"].(string)
	oldStr, _ := input["old_string"].(string)
	newStr, _ := input["new_string"].(string)
	if path == "" || oldStr == "" {
		return "", fmt.Errorf("Edit: file_path and old_string are required")
	}
	full := b.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("Edit: %w", err)
	}
	if !strings.Contains(string(data), oldStr) {
		return "", fmt.Errorf("Edit: old_string not found in %s", path)
	}
	updated := strings.Replace(string(data), oldStr, newStr, 1)
	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return "", fmt.Errorf("Edit: %w", err)
	}
	return fmt.Sprintf("Edited %s", path), nil
}

func (b Builtin) glob(input map[string]any) (string, error) {
	pattern, _ := input["pattern"].(string)
	if pattern == "" {
		return "", fmt.Errorf("Glob: pattern is required")
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return "", fmt.Errorf("Glob: %w", err)
	}

	root := b.WorkingDirectory
	if dir, ok := input["path"].(string); ok && dir != "" {
		root = b.resolve(dir)
	}

	var matches []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if g.Match(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Glob: %w", err)
	}
	return strings.Join(matches, "\n"), nil
}

func (b Builtin) grep(input map[string]any) (string, error) {
	pattern, _ := input["pattern"].(string)
	if pattern == "" {
		return "", fmt.Errorf("Grep: pattern is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("Grep: %w", err)
	}

	root := b.WorkingDirectory
	if dir, ok := input["path"].(string); ok && dir != "" {
		root = b.resolve(dir)
	}

	var lines []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()
		rel, _ := filepath.Rel(root, path)
		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			if re.MatchString(scanner.Text()) {
				lines = append(lines, fmt.Sprintf("%s:%d:%s", filepath.ToSlash(rel), lineNo, scanner.Text()))
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Grep: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func (b Builtin) bash(ctx context.Context, input map[string]any) (string, error) {
	command, _ := input["command"].(string)
	if command == "" {
		return "", fmt.Errorf("Bash: command is required")
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = b.WorkingDirectory
	out, runErr := cmd.CombinedOutput()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return "", fmt.Errorf("Bash: %w", runErr)
		}
	}
	return fmt.Sprintf("%s\n\nExit code: %d", strings.TrimRight(string(out), "\n"), exitCode), nil
}

func (b Builtin) todoWrite(input map[string]any) (string, error) {
	if b.State == nil {
		return "", fmt.Errorf("TodoWrite: no state writer configured")
	}
	raw, ok := input["todos"]
	if !ok {
		return "", fmt.Errorf("TodoWrite: todos is required")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("TodoWrite: %w", err)
	}
	var items []session.TodoItem
	if err := json.Unmarshal(encoded, &items); err != nil {
		return "", fmt.Errorf("TodoWrite: %w", err)
	}
	for i := range items {
		items[i].NormalizeActiveForm()
	}
	if err := b.State.WriteTodos(b.SessionID, items); err != nil {
		return "", fmt.Errorf("TodoWrite: %w", err)
	}
	return fmt.Sprintf("Updated %d todos", len(items)), nil
}

func (b Builtin) exitPlanMode(input map[string]any) (string, error) {
	if b.State == nil {
		return "", fmt.Errorf("ExitPlanMode: no state writer configured")
	}
	plan, _ := input["plan"].(string)
	if plan == "" {
		return "", fmt.Errorf("ExitPlanMode: plan is required")
	}
	path, err := b.State.WritePlan(plan)
	if err != nil {
		return "", fmt.Errorf("ExitPlanMode: %w", err)
	}
	return fmt.Sprintf("Plan saved to %s", path), nil
}
