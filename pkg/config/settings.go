package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is a layered, free-form settings document built from one or more
// --settings sources. Later sources override earlier ones key-by-key,
// recursively for nested objects (spec.md §6 "--settings ... later
// overrides earlier"). Sources are decoded into plain maps and merged map by
// map; no yaml.Node tree is kept.
type Settings map[string]any

// ParseSettingsSource accepts either a path to a JSON/YAML file or an
// inline JSON object string (godex's "<file-or-json>" convention, reused
// verbatim for --settings and --mcp-config) and returns its decoded map.
func ParseSettingsSource(source string) (Settings, error) {
	trimmed := strings.TrimSpace(source)
	if strings.HasPrefix(trimmed, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return nil, fmt.Errorf("settings: parse inline JSON: %w", err)
		}
		return Settings(m), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", source, err)
	}
	var m map[string]any
	if strings.HasSuffix(strings.ToLower(source), ".json") {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("settings: parse %s: %w", source, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("settings: parse %s: %w", source, err)
		}
	}
	return Settings(m), nil
}

// MergeSettings layers each source over an empty base in order, later
// sources overriding earlier ones.
func MergeSettings(sources ...string) (Settings, error) {
	merged := Settings{}
	for _, src := range sources {
		layer, err := ParseSettingsSource(src)
		if err != nil {
			return nil, err
		}
		merged = mergeMaps(merged, layer)
	}
	return merged, nil
}

func mergeMaps(base, overlay map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	for k, v := range overlay {
		if existing, ok := base[k]; ok {
			existingMap, existingIsMap := existing.(map[string]any)
			overlayMap, overlayIsMap := v.(map[string]any)
			if existingIsMap && overlayIsMap {
				base[k] = mergeMaps(existingMap, overlayMap)
				continue
			}
		}
		base[k] = v
	}
	return base
}
