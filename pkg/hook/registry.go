package hook

import (
	"context"
	"encoding/json"
)

// Registry holds hooks grouped by event, firing them in registration order
// (spec.md §4.5 "Order"). It assigns deterministic ordering for testability.
type Registry struct {
	byEvent map[Event][]Spec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byEvent: map[Event][]Spec{}}
}

// Register appends spec to ev's hook chain, preserving call order.
func (r *Registry) Register(ev Event, spec Spec) {
	r.byEvent[ev] = append(r.byEvent[ev], spec)
}

// FireResult summarizes the outcome of firing a chain of hooks for one event.
type FireResult struct {
	// Vetoed is true when a blocking hook returned proceed:false.
	Vetoed bool
	// VetoMessage carries the vetoing hook's Error field, if any.
	VetoMessage string
	// Payload is the event payload after all modified_payload rewrites.
	Payload json.RawMessage
	// ContinuationPrompt is set by a stop-hook response, if any.
	ContinuationPrompt string
}

// Fire runs every hook registered for ev in order, threading
// modified_payload rewrites downstream. The next hook starts only after the
// previous one returns or times out (spec.md §5 ordering guarantee). A
// timed-out or erroring non-blocking hook is skipped; a timed-out or
// erroring blocking hook vetoes the chain.
func (r *Registry) Fire(ctx context.Context, ev Event, sessionID string, payload json.RawMessage) FireResult {
	result := FireResult{Payload: payload}
	for _, spec := range r.byEvent[ev] {
		resp, err := Run(ctx, spec, Request{Event: string(ev), SessionID: sessionID, Payload: result.Payload})
		if err != nil {
			if spec.Blocking {
				result.Vetoed = true
				result.VetoMessage = err.Error()
				return result
			}
			continue
		}
		if !resp.ShouldProceed() {
			if spec.Blocking {
				result.Vetoed = true
				result.VetoMessage = resp.Error
				return result
			}
			continue
		}
		if len(resp.ModifiedPayload) > 0 {
			result.Payload = resp.ModifiedPayload
		}
		if resp.ContinuationPrompt != "" {
			result.ContinuationPrompt = resp.ContinuationPrompt
		}
	}
	return result
}
