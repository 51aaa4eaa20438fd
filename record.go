package augment

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-augment/layering"
)

// Record is a single content item. Structural attributes are exported fields;
// stored data and runtime supplements sit behind accessors so that an explicit
// nil can be told apart from an absent key.
type Record struct {
	ID          string
	ContainerID string
	Slug        string
	OriginID    string
	BlueprintID string
	Published   bool
	Date        *time.Time
	Order       *int
	ModifiedAt  time.Time

	data        map[string]any
	supplements map[string]any
}

// NewRecord builds a published record with empty stored data.
func NewRecord(id, containerID string) *Record {
	return &Record{
		ID:          id,
		ContainerID: containerID,
		Published:   true,
		data:        map[string]any{},
	}
}

// Get returns the stored value for key. ok reports presence, so a key set to
// nil returns (nil, true).
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	value, ok := r.data[key]
	return value, ok
}

// Has reports whether key is present in the stored data.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value under key. A nil value is stored as an explicit null.
func (r *Record) Set(key string, value any) *Record {
	if r.data == nil {
		r.data = map[string]any{}
	}
	r.data[key] = value
	return r
}

// Remove deletes key from the stored data.
func (r *Record) Remove(key string) *Record {
	delete(r.data, key)
	return r
}

// Data returns a deep copy of the stored data.
func (r *Record) Data() map[string]any {
	if r == nil || r.data == nil {
		return map[string]any{}
	}
	return layering.Clone(r.data)
}

// SetData replaces the stored data with a copy of data.
func (r *Record) SetData(data map[string]any) *Record {
	r.data = layering.Clone(data)
	if r.data == nil {
		r.data = map[string]any{}
	}
	return r
}

// Supplement returns a transient value set for the current request.
func (r *Record) Supplement(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	value, ok := r.supplements[key]
	return value, ok
}

// SetSupplement stores a transient override. Supplements are never persisted
// and take precedence over every stored layer.
func (r *Record) SetSupplement(key string, value any) *Record {
	if r.supplements == nil {
		r.supplements = map[string]any{}
	}
	r.supplements[key] = value
	return r
}

// Supplements returns a copy of the transient overrides.
func (r *Record) Supplements() map[string]any {
	if r == nil || r.supplements == nil {
		return map[string]any{}
	}
	return layering.Clone(r.supplements)
}

// Clone returns a detached copy of the record, supplements included.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Date != nil {
		date := *r.Date
		out.Date = &date
	}
	if r.Order != nil {
		order := *r.Order
		out.Order = &order
	}
	out.data = layering.Clone(r.data)
	out.supplements = layering.Clone(r.supplements)
	return &out
}

// snapshot exposes the live data map to the layer stack without copying.
func (r *Record) snapshot() map[string]any {
	if r == nil {
		return nil
	}
	return r.data
}

func (r *Record) supplementSnapshot() map[string]any {
	if r == nil {
		return nil
	}
	return r.supplements
}

type recordPayload struct {
	ID          string         `json:"id"`
	ContainerID string         `json:"container,omitempty"`
	Slug        string         `json:"slug,omitempty"`
	OriginID    string         `json:"origin,omitempty"`
	BlueprintID string         `json:"blueprint,omitempty"`
	Published   *bool          `json:"published,omitempty"`
	Date        *time.Time     `json:"date,omitempty"`
	Order       *int           `json:"order,omitempty"`
	ModifiedAt  *time.Time     `json:"modified_at,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// MarshalJSON encodes the persisted shape of the record. Supplements are
// transient and left out.
func (r *Record) MarshalJSON() ([]byte, error) {
	published := r.Published
	payload := recordPayload{
		ID:          r.ID,
		ContainerID: r.ContainerID,
		Slug:        r.Slug,
		OriginID:    r.OriginID,
		BlueprintID: r.BlueprintID,
		Published:   &published,
		Date:        r.Date,
		Order:       r.Order,
		Data:        r.data,
	}
	if !r.ModifiedAt.IsZero() {
		modified := r.ModifiedAt
		payload.ModifiedAt = &modified
	}
	return json.Marshal(payload)
}

// UnmarshalJSON decodes the persisted shape. A missing published flag means
// the record is published.
func (r *Record) UnmarshalJSON(raw []byte) error {
	var payload recordPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	*r = Record{
		ID:          payload.ID,
		ContainerID: payload.ContainerID,
		Slug:        payload.Slug,
		OriginID:    payload.OriginID,
		BlueprintID: payload.BlueprintID,
		Published:   true,
		Date:        payload.Date,
		Order:       payload.Order,
		data:        payload.Data,
	}
	if payload.Published != nil {
		r.Published = *payload.Published
	}
	if payload.ModifiedAt != nil {
		r.ModifiedAt = *payload.ModifiedAt
	}
	if r.data == nil {
		r.data = map[string]any{}
	}
	return nil
}
