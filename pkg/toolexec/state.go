package toolexec

import "claudeless/pkg/session"

// StateWriter is the subset of the State Writer that stateful builtins
// (TodoWrite, ExitPlanMode) need to persist their side effects. Defined
// here rather than imported from pkg/state to keep toolexec's dependency
// graph one-directional; pkg/state's writer satisfies this interface.
type StateWriter interface {
	WriteTodos(sessionID string, items []session.TodoItem) error
	WritePlan(content string) (path string, err error)
}
