package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// LoadFile reads map definitions from a JSON document of the shape
// {"map_id": {...}, ...} and returns them in a stable order.
func LoadFile(path string) ([]*MapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	return ParseConfigs(data)
}

// ParseConfigs decodes a JSON object keyed by map identifier.
func ParseConfigs(data []byte) ([]*MapConfig, error) {
	var raw map[string]*MapConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode map definitions: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	configs := make([]*MapConfig, 0, len(raw))
	for _, id := range ids {
		cfg := raw[id]
		cfg.ID = id
		configs = append(configs, cfg)
	}
	return configs, nil
}
