package state

import (
	"encoding/json"
	"fmt"
)

// MergeOverDefaults lays a save blob over a fresh default tree so that
// fields added after the save was written keep their default values.
// Objects merge recursively; arrays and scalars from the save replace
// the default wholesale.
func MergeOverDefaults(defaults GameData, blob []byte) (GameData, error) {
	var saved map[string]any
	if err := json.Unmarshal(blob, &saved); err != nil {
		return defaults, fmt.Errorf("decode save: %w", err)
	}

	base, err := toMap(defaults)
	if err != nil {
		return defaults, err
	}

	merged := deepMerge(base, saved)

	raw, err := json.Marshal(merged)
	if err != nil {
		return defaults, fmt.Errorf("re-encode merged save: %w", err)
	}
	var out GameData
	if err := json.Unmarshal(raw, &out); err != nil {
		return defaults, fmt.Errorf("decode merged save: %w", err)
	}
	return out, nil
}

func toMap(d GameData) (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	return m, nil
}

func deepMerge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if overMap, ok := v.(map[string]any); ok {
			if baseMap, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(baseMap, overMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}
