package paramdb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a parameter database from a YAML file. Nested mappings
// flatten into dotted keys, so
//
//	ecal:
//	  gain: 0.4
//
// resolves as "ecal.gain". Only numeric leaves are kept; string or other
// leaves are skipped.
func LoadYAML(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter database: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML parameter database content.
func ParseYAML(data []byte) (Static, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse parameter database: %w", err)
	}
	db := make(Static)
	flatten("", root, db)
	return db, nil
}

func flatten(prefix string, node map[string]any, db Static) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, db)
		case int:
			db[key] = float64(val)
		case int64:
			db[key] = float64(val)
		case float64:
			db[key] = val
		case bool:
			if val {
				db[key] = 1
			} else {
				db[key] = 0
			}
		}
	}
}
