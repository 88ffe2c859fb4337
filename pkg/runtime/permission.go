package runtime

// PermissionMode selects the policy a non-interactive PermissionChecker
// applies when a tool call requires a decision (spec.md §4.2).
type PermissionMode string

const (
	PermissionDefault     PermissionMode = "default"
	PermissionPlan        PermissionMode = "plan"
	PermissionAcceptEdits PermissionMode = "accept-edits"
	PermissionBypass      PermissionMode = "bypass-permissions"
)

// PermissionChecker is the capability set the Runtime consults before a
// tool call that requires a permission decision. The TUI implements the
// interactive variant; non-TUI modes implement a permission_mode-driven
// policy (PolicyChecker below).
type PermissionChecker interface {
	// Allow reports whether toolName may proceed.
	Allow(toolName string) bool
}

// PolicyChecker implements PermissionChecker from a static PermissionMode,
// the non-interactive policy every print-mode run uses.
type PolicyChecker struct {
	Mode            PermissionMode
	AllowedTools    map[string]bool
	DisallowedTools map[string]bool
}

// NewPolicyChecker builds a PolicyChecker from allow/deny tool name lists
// (already split; the CLI splits its comma-separated flags).
func NewPolicyChecker(mode PermissionMode, allowed, disallowed []string) *PolicyChecker {
	c := &PolicyChecker{Mode: mode, AllowedTools: map[string]bool{}, DisallowedTools: map[string]bool{}}
	for _, t := range allowed {
		c.AllowedTools[t] = true
	}
	for _, t := range disallowed {
		c.DisallowedTools[t] = true
	}
	return c
}

func (c *PolicyChecker) Allow(toolName string) bool {
	if c.DisallowedTools[toolName] {
		return false
	}
	if c.Mode == PermissionBypass {
		return true
	}
	if c.Mode == PermissionAcceptEdits && isEditTool(toolName) {
		return true
	}
	if len(c.AllowedTools) > 0 {
		return c.AllowedTools[toolName]
	}
	return c.Mode != PermissionPlan
}

func isEditTool(name string) bool {
	switch name {
	case "Write", "Edit":
		return true
	default:
		return false
	}
}
