package activity

import (
	"strings"
	"time"
)

const (
	VerbRecordCreated   = "record.created"
	VerbRecordUpdated   = "record.updated"
	VerbRecordDeleted   = "record.deleted"
	VerbIntegrityFailed = "augment.integrity.failed"

	ObjectTypeRecord = "record"
)

// LayerContext identifies the data layer involved in an event.
type LayerContext struct {
	Name       string
	Label      string
	Priority   int
	SnapshotID string
}

// RecordEventInput describes the common fields of record lifecycle events.
type RecordEventInput struct {
	ActorID     string
	UserID      string
	TenantID    string
	RecordID    string
	ContainerID string
	BlueprintID string
	Channel     string
	Key         string
	Changes     []string
	OldValue    any
	NewValue    any
	Layer       LayerContext
	Err         error
	Metadata    map[string]any
	OccurredAt  time.Time
}

// BuildRecordCreatedEvent describes a record persisted for the first time.
func BuildRecordCreatedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbRecordCreated, input)
}

// BuildRecordUpdatedEvent describes a change to a stored record. Changes
// lists the data keys that differ.
func BuildRecordUpdatedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbRecordUpdated, input)
}

// BuildRecordDeletedEvent describes a removed record.
func BuildRecordDeletedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbRecordDeleted, input)
}

// BuildIntegrityFailedEvent describes a resolution aborted by inconsistent
// stored data, such as an origin cycle.
func BuildIntegrityFailedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbIntegrityFailed, input)
}

func buildRecordEvent(verb string, input RecordEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if v := strings.TrimSpace(input.ContainerID); v != "" {
		set("container_id", v)
	}
	if v := strings.TrimSpace(input.BlueprintID); v != "" {
		set("blueprint_id", v)
	}
	if v := strings.TrimSpace(input.Key); v != "" {
		set("key", v)
	}
	if len(input.Changes) > 0 {
		set("changes", append([]string{}, input.Changes...))
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if input.Layer.Name != "" {
		set("layer_name", input.Layer.Name)
		set("layer_priority", input.Layer.Priority)
		if input.Layer.Label != "" {
			set("layer_label", input.Layer.Label)
		}
	}
	if input.Layer.SnapshotID != "" {
		set("snapshot_id", input.Layer.SnapshotID)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	objectID := strings.TrimSpace(input.RecordID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Layer.SnapshotID)
	}
	if objectID == "" {
		objectID = ObjectTypeRecord
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeRecord,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
