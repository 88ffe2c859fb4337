package config

import (
	"time"

	"claudeless/pkg/hook"
)

// RegisterHooksFromSettings reads the "hooks" table out of a merged
// Settings document and registers each entry against registry. The shape
// mirrors settings.json's hooks table: a map from event name to a list of
// {command, timeout_ms, blocking} objects, registered in array order so
// Registry.Fire's "registration order" guarantee reflects the settings
// file's own ordering.
func RegisterHooksFromSettings(settings Settings, registry *hook.Registry, defaultTimeout time.Duration) {
	raw, ok := settings["hooks"].(map[string]any)
	if !ok {
		return
	}
	for eventName, entries := range raw {
		list, ok := entries.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			spec := hook.Spec{Timeout: defaultTimeout}
			if cmd, ok := m["command"].(string); ok {
				spec.Path = cmd
			}
			if blocking, ok := m["blocking"].(bool); ok {
				spec.Blocking = blocking
			}
			if ms, ok := m["timeout_ms"].(float64); ok && ms > 0 {
				spec.Timeout = time.Duration(ms) * time.Millisecond
			}
			if spec.Path == "" {
				continue
			}
			registry.Register(hook.Event(eventName), spec)
		}
	}
}
