package grammar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML grammar description and builds a validated Grammar.
func Parse(data []byte) (*Grammar, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("grammar: failed to parse yaml: %w", err)
	}
	return New(cfg)
}

// Load reads a YAML grammar file from disk.
func Load(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grammar: failed to read %s: %w", path, err)
	}
	return Parse(data)
}
