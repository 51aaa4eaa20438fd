package openapi

import (
	"encoding/json"
	"errors"
	"testing"

	augment "github.com/goliatone/go-augment"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Custom Service", "2.0.0", WithInfoDescription("custom schema")),
		WithOperation("/articles/{id}", "GET", "getArticle", WithOperationSummary("Fetch article")),
		WithContentType("application/vnd.api+json"),
		WithResponse("404", "Not found"),
		WithRootComponent("Article"),
	)

	internal, ok := custom.(generator)
	if !ok {
		t.Fatalf("expected generator implementation, got %T", custom)
	}

	if got := internal.config.openAPIVersion; got != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", got)
	}
	if got := internal.config.info.Title; got != "Custom Service" {
		t.Fatalf("expected info title Custom Service, got %q", got)
	}
	if got := internal.config.info.Description; got != "custom schema" {
		t.Fatalf("expected info description custom schema, got %q", got)
	}
	if got := internal.config.operation.Method; got != "get" {
		t.Fatalf("expected method get, got %q", got)
	}
	if got := internal.config.operation.OperationID; got != "getArticle" {
		t.Fatalf("expected operation id getArticle, got %q", got)
	}
	if got := internal.config.operation.Summary; got != "Fetch article" {
		t.Fatalf("expected operation summary Fetch article, got %q", got)
	}
	if got := internal.config.contentType; got != "application/vnd.api+json" {
		t.Fatalf("expected custom content type, got %q", got)
	}
	if got := internal.config.responses["404"].Description; got != "Not found" {
		t.Fatalf("expected response description Not found, got %q", got)
	}
	if _, exists := internal.config.responses["200"]; !exists {
		t.Fatalf("expected default 200 response to remain configured")
	}
	if got := internal.config.rootComponent; got != "Article" {
		t.Fatalf("expected root component Article, got %q", got)
	}
}

func TestNewGeneratorIgnoresEmptyOptions(t *testing.T) {
	internal := NewGenerator(
		nil,
		WithOpenAPIVersion(""),
		WithInfo("", ""),
		WithContentType(""),
		WithResponse("", "ignored"),
	).(generator)

	defaults := defaultGeneratorConfig()
	if internal.config.openAPIVersion != defaults.openAPIVersion {
		t.Fatalf("expected default version, got %q", internal.config.openAPIVersion)
	}
	if internal.config.info.Title != defaults.info.Title {
		t.Fatalf("expected default title, got %q", internal.config.info.Title)
	}
	if internal.config.contentType != defaults.contentType {
		t.Fatalf("expected default content type, got %q", internal.config.contentType)
	}
	if len(internal.config.responses) != 1 {
		t.Fatalf("expected only the default response, got %v", internal.config.responses)
	}
}

func articleBlueprint() *augment.Blueprint {
	return augment.MustBlueprint("blog_post",
		augment.FieldDeclaration{Handle: "title", Type: augment.FieldTypeText},
		augment.FieldDeclaration{Handle: "featured", Type: augment.FieldTypeToggle, Default: false},
		augment.FieldDeclaration{Handle: "views", Type: augment.FieldTypeInteger},
		augment.FieldDeclaration{Handle: "rating", Type: augment.FieldTypeFloat},
		augment.FieldDeclaration{Handle: "date", Type: augment.FieldTypeDate},
		augment.FieldDeclaration{Handle: "tags", Type: augment.FieldTypeList},
		augment.FieldDeclaration{Handle: "related", Type: augment.FieldTypeEntries},
		augment.FieldDeclaration{Handle: "hero", Type: augment.FieldTypeEntries, Config: map[string]any{"max_items": 1}},
		augment.FieldDeclaration{Handle: "reviewers", Type: augment.FieldTypeUsers},
		augment.FieldDeclaration{Handle: "score", Type: augment.FieldTypeFormula, Config: map[string]any{"expression": "views * rating"}},
		augment.FieldDeclaration{Handle: "embed", Type: augment.FieldTypeUnknown},
	)
}

func generate(t *testing.T, gen augment.SchemaGenerator, input augment.SchemaInput) map[string]any {
	t.Helper()
	doc, err := gen.Generate(input)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Format != augment.SchemaFormatOpenAPI {
		t.Fatalf("expected openapi format, got %q", doc.Format)
	}
	// round trip through JSON so assertions see what a client would
	raw, err := json.Marshal(doc.Document)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func component(t *testing.T, doc map[string]any, name string) map[string]any {
	t.Helper()
	components, _ := doc["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)
	schema, ok := schemas[name].(map[string]any)
	if !ok {
		t.Fatalf("component %q missing from %v", name, schemas)
	}
	return schema
}

func property(t *testing.T, schema map[string]any, name string) map[string]any {
	t.Helper()
	props, _ := schema["properties"].(map[string]any)
	prop, ok := props[name].(map[string]any)
	if !ok {
		t.Fatalf("property %q missing", name)
	}
	return prop
}

func TestGenerateFieldTypes(t *testing.T) {
	doc := generate(t, NewGenerator(), augment.SchemaInput{Blueprint: articleBlueprint()})

	if doc["openapi"] != "3.0.3" {
		t.Fatalf("unexpected version %v", doc["openapi"])
	}
	record := component(t, doc, "BlogPost")
	if record["type"] != "object" {
		t.Fatalf("expected object root, got %v", record["type"])
	}

	cases := map[string]struct {
		typ    any
		format any
	}{
		"title":    {typ: "string"},
		"featured": {typ: "boolean"},
		"views":    {typ: "integer"},
		"rating":   {typ: "number"},
		"date":     {typ: "string", format: "date-time"},
		"tags":     {typ: "array"},
		"related":  {typ: "array"},
		"hero":     {typ: "object"},
	}
	for name, want := range cases {
		prop := property(t, record, name)
		if prop["type"] != want.typ {
			t.Fatalf("%s: expected type %v, got %v", name, want.typ, prop["type"])
		}
		if prop["format"] != want.format {
			t.Fatalf("%s: expected format %v, got %v", name, want.format, prop["format"])
		}
		if prop["nullable"] != true {
			t.Fatalf("%s: expected nullable", name)
		}
	}

	if got := property(t, record, "featured")["default"]; got != false {
		t.Fatalf("expected featured default false, got %v", got)
	}

	reviewers := property(t, record, "reviewers")
	items, _ := reviewers["items"].(map[string]any)
	if items["$ref"] != "#/components/schemas/User" {
		t.Fatalf("expected user reference, got %v", reviewers)
	}
	component(t, doc, "User")

	score := property(t, record, "score")
	if score["readOnly"] != true || score["x-augment-formula"] != "views * rating" {
		t.Fatalf("unexpected formula schema %v", score)
	}
	if _, typed := property(t, record, "embed")["type"]; typed {
		t.Fatalf("expected unknown field to be untyped")
	}
	if got := property(t, record, "embed")["x-augment-type"]; got != "unknown" {
		t.Fatalf("expected x-augment-type unknown, got %v", got)
	}
}

func TestGenerateComputedProperties(t *testing.T) {
	input := augment.SchemaInput{
		Blueprint: articleBlueprint(),
		Computed:  augment.DefaultComputedRegistry(),
	}
	doc := generate(t, NewGenerator(), input)
	record := component(t, doc, "BlogPost")

	permalink := property(t, record, augment.KeyPermalink)
	if permalink["format"] != "uri" || permalink["readOnly"] != true {
		t.Fatalf("unexpected permalink schema %v", permalink)
	}
	if permalink["x-augment-computed"] != "strict" {
		t.Fatalf("expected strict marker, got %v", permalink["x-augment-computed"])
	}

	// date is declared by the blueprint and computed; the field wins the
	// type and the computed kind is still reported
	date := property(t, record, augment.KeyDate)
	if date["x-augment-type"] != "date" || date["x-augment-computed"] == nil {
		t.Fatalf("unexpected date schema %v", date)
	}

	mount := property(t, record, augment.KeyMount)
	if mount["x-augment-computed"] != "overridable" {
		t.Fatalf("expected overridable mount, got %v", mount)
	}
	if _, readOnly := mount["readOnly"]; readOnly {
		t.Fatalf("overridable properties must stay writable")
	}

	required, _ := record["required"].([]any)
	if len(required) != 1 || required[0] != augment.KeyID {
		t.Fatalf("expected id to be required, got %v", record["required"])
	}
}

func TestGenerateDocumentPaths(t *testing.T) {
	gen := NewGenerator(
		WithOperation("/posts/{id}", "", "", WithOperationSummary("Fetch post")),
		WithResponse("404", "Missing"),
	)
	doc := generate(t, gen, augment.SchemaInput{Blueprint: articleBlueprint()})

	paths, _ := doc["paths"].(map[string]any)
	item, _ := paths["/posts/{id}"].(map[string]any)
	op, _ := item["get"].(map[string]any)
	if op == nil {
		t.Fatalf("expected get operation, got %v", paths)
	}
	if op["operationId"] != "get:/posts/{id}" {
		t.Fatalf("unexpected operationId %v", op["operationId"])
	}
	if op["summary"] != "Fetch post" {
		t.Fatalf("unexpected summary %v", op["summary"])
	}
	params, _ := op["parameters"].([]any)
	if len(params) != 1 {
		t.Fatalf("expected id path parameter, got %v", op["parameters"])
	}

	responses, _ := op["responses"].(map[string]any)
	ok, _ := responses["200"].(map[string]any)
	content, _ := ok["content"].(map[string]any)
	media, _ := content["application/json"].(map[string]any)
	schema, _ := media["schema"].(map[string]any)
	if schema["$ref"] != "#/components/schemas/BlogPost" {
		t.Fatalf("expected record reference, got %v", ok)
	}
	missing, _ := responses["404"].(map[string]any)
	if _, hasContent := missing["content"]; hasContent {
		t.Fatalf("error responses carry no record schema")
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := NewGenerator().Generate(augment.SchemaInput{}); err == nil {
		t.Fatalf("expected error without blueprint")
	}
	_, err := NewGenerator(WithRootComponent("User")).Generate(augment.SchemaInput{Blueprint: articleBlueprint()})
	if err == nil {
		t.Fatalf("expected reserved component name to fail")
	}
}

func TestComponentName(t *testing.T) {
	cases := map[string]string{
		"article":   "Article",
		"blog_post": "BlogPost",
		"news-item": "NewsItem",
		"":          "Record",
		"__":        "Record",
	}
	for handle, want := range cases {
		if got := componentName(handle); got != want {
			t.Fatalf("componentName(%q) = %q, want %q", handle, got, want)
		}
	}
}

func TestValidateDocument(t *testing.T) {
	if err := validateDocument(nil); err == nil {
		t.Fatalf("expected nil document to fail")
	}
	doc := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": "x", "version": "1"},
		"paths":   map[string]any{"records": map[string]any{"get": map[string]any{}}},
	}
	if err := validateDocument(doc); err == nil {
		t.Fatalf("expected relative path to fail")
	}
}

func TestResolverSchemaWithOpenAPIGenerator(t *testing.T) {
	registry, err := augment.NewMapRegistry(articleBlueprint())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	resolver := augment.NewResolver(augment.WithSchemaRegistry(registry))

	doc, err := resolver.Schema("blog_post", NewGenerator())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if doc.Format != augment.SchemaFormatOpenAPI {
		t.Fatalf("unexpected format %q", doc.Format)
	}

	if _, err := resolver.Schema("missing", NewGenerator()); !errors.Is(err, augment.ErrBlueprintNotFound) {
		t.Fatalf("expected ErrBlueprintNotFound, got %v", err)
	}
}
