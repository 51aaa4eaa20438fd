package augment

import (
	"errors"
	"testing"
)

func TestDescriptorsListFieldsThenComputed(t *testing.T) {
	computed, err := NewComputedRegistry(
		Strict("slug", constant("s")),
		Overridable("authors", constant(nil)),
		Strict("word_count", constant(0)),
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	bp := MustBlueprint("article",
		FieldDeclaration{Handle: "title", Type: FieldTypeText},
		FieldDeclaration{Handle: "authors", Type: FieldTypeUsers},
		FieldDeclaration{Handle: "status", Type: FieldTypeText, Default: "draft"},
	)

	got := Descriptors(SchemaInput{Blueprint: bp, Computed: computed})
	want := []FieldDescriptor{
		{Path: "title", Type: "text"},
		{Path: "authors", Type: "users", Computed: "overridable"},
		{Path: "status", Type: "text", Default: "draft"},
		{Path: "slug", Type: "unknown", Computed: "strict"},
		{Path: "word_count", Type: "unknown", Computed: "strict"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d descriptors, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("descriptor %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResolverSchema(t *testing.T) {
	registry, err := NewMapRegistry(MustBlueprint("article", FieldDeclaration{Handle: "title", Type: FieldTypeText}))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	resolver := NewResolver(WithSchemaRegistry(registry))

	doc, err := resolver.Schema("article", nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if doc.Format != SchemaFormatDescriptors {
		t.Fatalf("unexpected format %q", doc.Format)
	}
	descriptors, ok := doc.Document.([]FieldDescriptor)
	if !ok || len(descriptors) == 0 || descriptors[0].Path != "title" {
		t.Fatalf("unexpected document %#v", doc.Document)
	}

	if _, err := resolver.Schema("page", nil); !errors.Is(err, ErrBlueprintNotFound) {
		t.Fatalf("expected blueprint not found, got %v", err)
	}
	if _, err := NewResolver().Schema("article", nil); !errors.Is(err, ErrBlueprintNotFound) {
		t.Fatalf("expected blueprint not found without registry, got %v", err)
	}
}
