package hydrate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadDocument loads a YAML or JSON file into a generic mapping.
func ReadDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hydrate: read %q: %w", path, err)
	}
	return ParseDocument(path, raw)
}

// ParseDocument decodes raw as YAML. JSON documents are valid YAML and parse
// the same way. An empty document yields an empty mapping.
func ParseDocument(name string, raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("hydrate: parse %q: %w", name, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// List returns doc[key] as a list. A missing key yields nil.
func List(doc map[string]any, key string) ([]any, error) {
	value, ok := doc[key]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("hydrate: %q must be a list, got %T", key, value)
	}
	return items, nil
}
