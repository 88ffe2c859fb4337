package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts either a bare string (text-only response) or a
// strict-keyed object, matching spec.md §3's "ResponseSpec is either a
// plain string or a structured record".
func (r *ResponseSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Text = s
		return nil
	}

	type alias ResponseSpec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var a alias
	if err := dec.Decode(&a); err != nil {
		return fmt.Errorf("response: %w", err)
	}
	*r = ResponseSpec(a)
	return nil
}

// UnmarshalTOML decodes a generic TOML value, either a bare string or a
// table, into r, mirroring the JSON form above. Load does not call it: it
// converts TOML sources to JSON and decodes them through UnmarshalJSON.
func (r *ResponseSpec) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		r.Text = v
		return nil
	case map[string]any:
		return decodeResponseTable(v, r)
	default:
		return fmt.Errorf("response: unsupported TOML value %T", value)
	}
}

func decodeResponseTable(m map[string]any, r *ResponseSpec) error {
	known := map[string]bool{
		"text": true, "tool_calls": true, "usage": true, "delay_ms": true, "stop_reason": true,
	}
	for k := range m {
		if !known[k] {
			return &LoadError{Kind: ErrUnknownField, Field: "response." + k, Reason: "unknown field"}
		}
	}
	if v, ok := m["text"].(string); ok {
		r.Text = v
	}
	if v, ok := m["delay_ms"]; ok {
		r.DelayMs = toInt(v)
	}
	if v, ok := m["stop_reason"].(string); ok {
		r.StopReason = v
	}
	if v, ok := m["usage"].(map[string]any); ok {
		u := &UsageSpec{}
		if it, ok := v["input_tokens"]; ok {
			u.InputTokens = toInt(it)
		}
		if ot, ok := v["output_tokens"]; ok {
			u.OutputTokens = toInt(ot)
		}
		r.Usage = u
	}
	if raw, ok := m["tool_calls"].([]any); ok {
		for _, item := range raw {
			tc, ok := item.(map[string]any)
			if !ok {
				return &LoadError{Kind: ErrParse, Field: "response.tool_calls", Reason: "expected table"}
			}
			spec := ToolCallSpec{}
			if name, ok := tc["tool"].(string); ok {
				spec.Tool = name
			}
			if result, ok := tc["result"].(string); ok {
				spec.Result = result
			}
			if input, ok := tc["input"]; ok {
				b, err := json.Marshal(input)
				if err != nil {
					return fmt.Errorf("response.tool_calls.input: %w", err)
				}
				spec.Input = b
			}
			r.ToolCalls = append(r.ToolCalls, spec)
		}
	}
	return nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// UnmarshalTOML decodes a generic TOML value into p: either the kind string
// (e.g. `pattern = "any"`) or a table with kind/value, matching the JSON
// form. Load does not call it; TOML patterns reach UnmarshalJSON instead.
func (p *Pattern) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		p.Kind = PatternKind(v)
		return nil
	case map[string]any:
		known := map[string]bool{"kind": true, "value": true}
		for k := range v {
			if !known[k] {
				return &LoadError{Kind: ErrUnknownField, Field: "pattern." + k, Reason: "unknown field"}
			}
		}
		if kind, ok := v["kind"].(string); ok {
			p.Kind = PatternKind(kind)
		}
		if val, ok := v["value"].(string); ok {
			p.Value = val
		}
		return nil
	default:
		return fmt.Errorf("pattern: unsupported TOML value %T", value)
	}
}

// UnmarshalJSON lets a Pattern be written inline as its kind string or as a
// strict-keyed object.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Kind = PatternKind(s)
		return nil
	}
	type alias Pattern
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var a alias
	if err := dec.Decode(&a); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	*p = Pattern(a)
	return nil
}
