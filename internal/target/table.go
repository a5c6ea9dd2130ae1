package target

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTable reads an ID to Target D mapping from a JSON or YAML file.
func LoadTable(path string) (map[string]float64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target table %s: %w", path, err)
	}

	table := make(map[string]float64)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &table)
	default:
		err = json.Unmarshal(content, &table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse target table %s: %w", path, err)
	}

	return table, nil
}
