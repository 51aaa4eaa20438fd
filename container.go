package augment

import (
	"time"

	"github.com/goliatone/go-augment/layering"
)

// DateBehavior controls how dated records outside the present are exposed.
type DateBehavior string

const (
	DateBehaviorPublic   DateBehavior = "public"
	DateBehaviorPrivate  DateBehavior = "private"
	DateBehaviorUnlisted DateBehavior = "unlisted"
)

// Container groups records and owns the cascade shared by all of them.
type Container struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title,omitempty"`
	Route              string         `json:"route,omitempty"`
	Ampable            bool           `json:"ampable,omitempty"`
	MountID            string         `json:"mount,omitempty"`
	DefaultBlueprint   string         `json:"blueprint,omitempty"`
	FutureDateBehavior DateBehavior   `json:"future_date_behavior,omitempty"`
	PastDateBehavior   DateBehavior   `json:"past_date_behavior,omitempty"`
	Cascade            map[string]any `json:"cascade,omitempty"`
}

// NewContainer builds a container with public date behaviour.
func NewContainer(id string) *Container {
	return &Container{
		ID:                 id,
		FutureDateBehavior: DateBehaviorPublic,
		PastDateBehavior:   DateBehaviorPublic,
	}
}

// CascadeValue returns the shared default for key.
func (c *Container) CascadeValue(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.Cascade[key]
	return value, ok
}

// CascadeData returns a copy of the cascade mapping.
func (c *Container) CascadeData() map[string]any {
	if c == nil || c.Cascade == nil {
		return map[string]any{}
	}
	return layering.Clone(c.Cascade)
}

// Clone returns a detached copy of the container.
func (c *Container) Clone() *Container {
	if c == nil {
		return nil
	}
	out := *c
	out.Cascade = layering.Clone(c.Cascade)
	return &out
}

// Private reports whether record is hidden by this container's date rules at
// the instant now. Undated records are never private.
func (c *Container) Private(record *Record, now time.Time) bool {
	if c == nil || record == nil || record.Date == nil {
		return false
	}
	if record.Date.After(now) {
		return c.FutureDateBehavior == DateBehaviorPrivate
	}
	return c.PastDateBehavior == DateBehaviorPrivate
}
