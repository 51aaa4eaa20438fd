package activity

import (
	"errors"
	"testing"
)

func TestBuildRecordUpdatedEventIncludesChanges(t *testing.T) {
	meta := map[string]any{"source": "import"}
	input := RecordEventInput{
		ActorID:     " actor ",
		RecordID:    " entry-1 ",
		ContainerID: "blog",
		BlueprintID: "article",
		Changes:     []string{"title", "tags"},
		Metadata:    meta,
		Channel:     "augment",
	}

	event := BuildRecordUpdatedEvent(input)

	if event.Verb != VerbRecordUpdated {
		t.Fatalf("expected verb %s got %s", VerbRecordUpdated, event.Verb)
	}
	if event.ObjectType != ObjectTypeRecord || event.ObjectID != "entry-1" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["container_id"] != "blog" || event.Metadata["blueprint_id"] != "article" {
		t.Fatalf("expected container and blueprint metadata, got %+v", event.Metadata)
	}
	changes, ok := event.Metadata["changes"].([]string)
	if !ok || len(changes) != 2 {
		t.Fatalf("expected changes metadata, got %v", event.Metadata["changes"])
	}
	changes[0] = "mutated"
	if input.Changes[0] != "title" {
		t.Fatalf("expected input changes untouched")
	}
	if event.Metadata["source"] != "import" {
		t.Fatalf("expected metadata passthrough")
	}
	event.Metadata["source"] = "changed"
	if meta["source"] != "import" {
		t.Fatalf("expected input metadata untouched")
	}
}

func TestBuildIntegrityFailedEventCarriesError(t *testing.T) {
	event := BuildIntegrityFailedEvent(RecordEventInput{
		RecordID: "a",
		Key:      "title",
		Err:      errors.New("origin chain cycle"),
		Layer:    LayerContext{Name: "origin:b", Priority: 399, SnapshotID: "b"},
	})
	if event.Verb != VerbIntegrityFailed {
		t.Fatalf("unexpected verb %s", event.Verb)
	}
	if event.Metadata["error"] != "origin chain cycle" {
		t.Fatalf("expected error metadata, got %v", event.Metadata["error"])
	}
	if event.Metadata["key"] != "title" || event.Metadata["layer_name"] != "origin:b" || event.Metadata["layer_priority"] != 399 {
		t.Fatalf("unexpected metadata %+v", event.Metadata)
	}
}

func TestBuildRecordEventFallbackObjectID(t *testing.T) {
	if event := BuildRecordDeletedEvent(RecordEventInput{}); event.ObjectID != ObjectTypeRecord {
		t.Fatalf("expected fallback object id, got %q", event.ObjectID)
	}
	event := BuildRecordCreatedEvent(RecordEventInput{Layer: LayerContext{SnapshotID: "snap-1"}})
	if event.ObjectID != "snap-1" {
		t.Fatalf("expected snapshot id fallback, got %q", event.ObjectID)
	}
	if event.Metadata["snapshot_id"] != "snap-1" {
		t.Fatalf("expected snapshot metadata, got %+v", event.Metadata)
	}
}
