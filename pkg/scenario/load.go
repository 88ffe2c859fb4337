package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Format identifies the scenario source encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// LoadFile reads a scenario from path, selecting TOML or JSON by extension
// (".toml" vs ".json"); any other extension is a ParseError.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return Load(data, FormatTOML)
	case ".json":
		return Load(data, FormatJSON)
	default:
		return nil, &LoadError{Kind: ErrParse, Reason: fmt.Sprintf("unsupported scenario extension %q", ext)}
	}
}

// Load parses and validates source in the given format, strict-keyed
// (unknown fields are rejected), compiles every pattern exactly once, and
// returns an immutable Scenario ready for matching.
func Load(source []byte, format Format) (*Scenario, error) {
	var s Scenario
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(source))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, &LoadError{Kind: ErrParse, Reason: err.Error()}
		}
	case FormatTOML:
		// TOML is decoded into generic values and then run through the same
		// strict JSON decoding as FormatJSON, so responses and patterns accept
		// their bare-string and table forms alike.
		var generic map[string]any
		if err := toml.Unmarshal(source, &generic); err != nil {
			return nil, &LoadError{Kind: ErrParse, Reason: err.Error()}
		}
		asJSON, err := json.Marshal(generic)
		if err != nil {
			return nil, &LoadError{Kind: ErrParse, Reason: err.Error()}
		}
		dec := json.NewDecoder(bytes.NewReader(asJSON))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, &LoadError{Kind: ErrParse, Reason: err.Error()}
		}
	default:
		return nil, &LoadError{Kind: ErrParse, Reason: fmt.Sprintf("unknown format %q", format)}
	}

	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// compile validates and compiles every pattern in the scenario, and resets
// runtime cursor state. Called once after decoding.
func (s *Scenario) compile() error {
	s.activeRule = -1
	s.activeCursor = 0

	for i, rule := range s.Responses {
		if err := rule.Pattern.compile(fmt.Sprintf("responses[%d].pattern", i)); err != nil {
			return err
		}
		for j := range rule.Turns {
			t := &rule.Turns[j]
			if err := t.Expect.compile(fmt.Sprintf("responses[%d].turns[%d].expect", i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}
