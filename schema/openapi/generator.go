package openapi

import (
	"fmt"
	"strings"
	"unicode"

	augment "github.com/goliatone/go-augment"
)

const userComponent = "User"

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an augment.SchemaGenerator that describes the
// resolved shape of a blueprint's records as an OpenAPI document.
func NewGenerator(opts ...GeneratorOption) augment.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

func (g generator) Generate(input augment.SchemaInput) (augment.SchemaDocument, error) {
	if input.Blueprint == nil {
		return augment.SchemaDocument{}, fmt.Errorf("openapi: blueprint is required")
	}
	rootName := g.config.rootComponent
	if rootName == "" {
		rootName = componentName(input.Blueprint.Handle)
	}
	if rootName == userComponent {
		return augment.SchemaDocument{}, fmt.Errorf("openapi: component name %q is reserved", rootName)
	}

	components := map[string]any{}
	properties := map[string]any{}
	usesUsers := false

	declared := map[string]struct{}{}
	for _, field := range input.Blueprint.Fields() {
		declared[field.Handle] = struct{}{}
		schema := fieldSchema(field)
		if field.Type == augment.FieldTypeUsers {
			usesUsers = true
		}
		if prop, ok := input.Computed.Lookup(field.Handle); ok {
			markComputed(schema, prop.Kind)
		}
		properties[field.Handle] = schema
	}
	for _, name := range input.Computed.Names() {
		if _, ok := declared[name]; ok {
			continue
		}
		prop, _ := input.Computed.Lookup(name)
		schema := computedSchema(name)
		if name == augment.KeyUpdatedBy {
			usesUsers = true
		}
		markComputed(schema, prop.Kind)
		properties[name] = schema
	}

	record := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if title := strings.TrimSpace(input.Blueprint.Title); title != "" {
		record["title"] = title
	}
	if _, ok := properties[augment.KeyID]; ok {
		record["required"] = []string{augment.KeyID}
	}
	components[rootName] = record
	if usesUsers {
		components[userComponent] = userSchema()
	}

	doc, err := newOpenAPIDocumentBuilder(g.config, rootName, components).build()
	if err != nil {
		return augment.SchemaDocument{}, err
	}
	return augment.SchemaDocument{
		Format:   augment.SchemaFormatOpenAPI,
		Document: doc,
	}, nil
}

// fieldSchema describes the augmented value of a declared field.
func fieldSchema(field augment.FieldDeclaration) map[string]any {
	single := false
	if n, ok := field.ConfigInt("max_items"); ok && n == 1 {
		single = true
	}

	var schema map[string]any
	switch field.Type {
	case augment.FieldTypeText, augment.FieldTypeTextarea:
		schema = map[string]any{"type": "string"}
	case augment.FieldTypeToggle:
		schema = map[string]any{"type": "boolean"}
	case augment.FieldTypeInteger:
		schema = map[string]any{"type": "integer"}
	case augment.FieldTypeFloat:
		schema = map[string]any{"type": "number"}
	case augment.FieldTypeDate:
		schema = map[string]any{"type": "string", "format": "date-time"}
	case augment.FieldTypeList:
		schema = map[string]any{"type": "array", "items": map[string]any{}}
	case augment.FieldTypeEntries:
		if single {
			schema = map[string]any{"type": "object"}
		} else {
			schema = map[string]any{"type": "array", "items": map[string]any{"type": "object"}}
		}
	case augment.FieldTypeUsers:
		if single {
			schema = componentRef(userComponent)
		} else {
			schema = map[string]any{"type": "array", "items": componentRef(userComponent)}
		}
	case augment.FieldTypeFormula:
		schema = map[string]any{"readOnly": true}
		if expr := field.ConfigString(augment.FormulaExpressionKey); expr != "" {
			schema["x-augment-formula"] = expr
		}
	default:
		schema = map[string]any{}
	}

	if _, isRef := schema["$ref"]; !isRef {
		schema["nullable"] = true
		if field.Default != nil {
			schema["default"] = field.Default
		}
	}
	schema["x-augment-type"] = field.Type.String()
	return schema
}

// computedSchema describes the built-in computed properties. Unknown names
// are left untyped.
func computedSchema(name string) map[string]any {
	switch name {
	case augment.KeyID, augment.KeySlug:
		return map[string]any{"type": "string"}
	case augment.KeyURI, augment.KeyURL:
		return map[string]any{"type": "string", "nullable": true}
	case augment.KeyEditURL, augment.KeyPermalink, augment.KeyAmpURL, augment.KeyAPIURL:
		return map[string]any{"type": "string", "format": "uri", "nullable": true}
	case augment.KeyPublished, augment.KeyPrivate, augment.KeyIsEntry:
		return map[string]any{"type": "boolean"}
	case augment.KeyDate, augment.KeyLastModified, augment.KeyUpdatedAt:
		return map[string]any{"type": "string", "format": "date-time", "nullable": true}
	case augment.KeyOrder:
		return map[string]any{"type": "integer", "nullable": true}
	case augment.KeyCollection, augment.KeyMount, augment.KeyParent:
		return map[string]any{"type": "object", "nullable": true}
	case augment.KeyUpdatedBy:
		return componentRef(userComponent)
	case augment.KeyAuthors:
		return map[string]any{"type": "array", "items": map[string]any{}}
	default:
		return map[string]any{}
	}
}

func markComputed(schema map[string]any, kind augment.ComputedKind) {
	if _, isRef := schema["$ref"]; isRef {
		return
	}
	schema["x-augment-computed"] = kind.String()
	if kind == augment.ComputedStrict {
		schema["readOnly"] = true
	}
}

func userSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]any{
			"id":    map[string]any{"type": "string"},
			"name":  map[string]any{"type": "string"},
			"email": map[string]any{"type": "string", "format": "email"},
		},
	}
}

// componentName turns a handle such as "blog_post" into "BlogPost".
func componentName(handle string) string {
	var b strings.Builder
	upper := true
	for _, r := range handle {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Record"
	}
	return b.String()
}
