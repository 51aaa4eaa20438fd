// Package blueprints parses blueprint documents into augment blueprints.
//
// A blueprint document lists fields by handle, each with a field definition
// whose type and default are lifted out and whose remaining settings become
// the declaration config:
//
//	title: Article
//	fields:
//	  - handle: title
//	    field: {type: text}
//	  - handle: related
//	    field: {type: entries, max_items: 1}
//
// Fields may also be grouped in sections, which are flattened in order.
// JSON documents of the same shape are accepted.
package blueprints

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	augment "github.com/goliatone/go-augment"
)

var ErrEmptyDocument = errors.New("blueprints: document is empty")

type document struct {
	Title    string       `yaml:"title"`
	Fields   []fieldEntry `yaml:"fields"`
	Sections []section    `yaml:"sections"`
}

type section struct {
	Display string       `yaml:"display"`
	Fields  []fieldEntry `yaml:"fields"`
}

type fieldEntry struct {
	Handle string         `yaml:"handle"`
	Field  map[string]any `yaml:"field"`
}

// Parse decodes raw into a blueprint registered under handle.
func Parse(handle string, raw []byte) (*augment.Blueprint, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("blueprints: parse %q: %w", handle, err)
	}
	entries := append([]fieldEntry{}, doc.Fields...)
	for _, sec := range doc.Sections {
		entries = append(entries, sec.Fields...)
	}
	if doc.Title == "" && len(entries) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyDocument, handle)
	}

	fields := make([]augment.FieldDeclaration, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, declaration(entry))
	}
	bp, err := augment.NewBlueprint(handle, fields...)
	if err != nil {
		return nil, fmt.Errorf("blueprints: %w", err)
	}
	bp.Title = doc.Title
	if bp.Title == "" {
		bp.Title = handle
	}
	return bp, nil
}

func declaration(entry fieldEntry) augment.FieldDeclaration {
	decl := augment.FieldDeclaration{Handle: entry.Handle}
	config := map[string]any{}
	for key, value := range entry.Field {
		switch key {
		case "type":
			name, _ := value.(string)
			decl.Type = augment.ParseFieldType(name)
		case "default":
			decl.Default = value
		default:
			config[key] = value
		}
	}
	if len(config) > 0 {
		decl.Config = config
	}
	return decl
}

// ParseFile reads path and parses it under its base name without extension.
func ParseFile(path string) (*augment.Blueprint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blueprints: read %q: %w", path, err)
	}
	return Parse(HandleFromPath(path), raw)
}

// HandleFromPath derives a blueprint handle from a file name.
func HandleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var extensions = map[string]struct{}{".yaml": {}, ".yml": {}, ".json": {}}

// LoadDir parses every blueprint document directly under dir, in file name
// order. Two files yielding the same handle are rejected.
func LoadDir(dir string) (*augment.MapRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("blueprints: read dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	registry, err := augment.NewMapRegistry()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		bp, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(bp); err != nil {
			return nil, fmt.Errorf("blueprints: %s: %w", name, err)
		}
	}
	return registry, nil
}
