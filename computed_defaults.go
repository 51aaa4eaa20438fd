package augment

import (
	"context"
	"time"
)

// Keys of the built-in computed properties.
const (
	KeyID           = "id"
	KeySlug         = "slug"
	KeyURI          = "uri"
	KeyURL          = "url"
	KeyEditURL      = "edit_url"
	KeyPermalink    = "permalink"
	KeyAmpURL       = "amp_url"
	KeyAPIURL       = "api_url"
	KeyPublished    = "published"
	KeyPrivate      = "private"
	KeyDate         = "date"
	KeyOrder        = "order"
	KeyIsEntry      = "is_entry"
	KeyCollection   = "collection"
	KeyMount        = "mount"
	KeyLastModified = "last_modified"
	KeyUpdatedAt    = "updated_at"
	KeyUpdatedBy    = "updated_by"
	KeyParent       = "parent"
	KeyAuthors      = "authors"
	KeyAuthor       = "author"
)

var defaultComputed = mustComputedRegistry(defaultComputedProperties()...)

// DefaultComputedRegistry returns the built-in computed properties. The
// registry is immutable; use Extend to add to it.
func DefaultComputedRegistry() *ComputedRegistry {
	return defaultComputed
}

func mustComputedRegistry(props ...ComputedProperty) *ComputedRegistry {
	registry, err := NewComputedRegistry(props...)
	if err != nil {
		panic(err)
	}
	return registry
}

func defaultComputedProperties() []ComputedProperty {
	return []ComputedProperty{
		Strict(KeyID, func(_ context.Context, c ComputeContext) (any, error) {
			return c.Record.ID, nil
		}),
		Strict(KeySlug, func(_ context.Context, c ComputeContext) (any, error) {
			return nilIfEmpty(c.Record.Slug), nil
		}),
		Strict(KeyURI, urlProperty(URLBuilder.URI)),
		Strict(KeyURL, urlProperty(URLBuilder.URL)),
		Strict(KeyEditURL, urlProperty(URLBuilder.EditURL)),
		Strict(KeyPermalink, urlProperty(URLBuilder.Permalink)),
		Strict(KeyAmpURL, computeAmpURL),
		Strict(KeyAPIURL, urlProperty(URLBuilder.APIURL)),
		Strict(KeyPublished, func(_ context.Context, c ComputeContext) (any, error) {
			return c.Record.Published, nil
		}),
		Strict(KeyPrivate, func(_ context.Context, c ComputeContext) (any, error) {
			return c.Container.Private(c.Record, c.Now), nil
		}),
		Strict(KeyDate, func(_ context.Context, c ComputeContext) (any, error) {
			if c.Record.Date == nil {
				return nil, nil
			}
			return *c.Record.Date, nil
		}),
		Strict(KeyOrder, func(_ context.Context, c ComputeContext) (any, error) {
			if c.Record.Order == nil {
				return nil, nil
			}
			return *c.Record.Order, nil
		}),
		Strict(KeyIsEntry, func(context.Context, ComputeContext) (any, error) {
			return true, nil
		}),
		Strict(KeyCollection, func(_ context.Context, c ComputeContext) (any, error) {
			if c.Container == nil {
				return nil, nil
			}
			return c.Container, nil
		}),
		Overridable(KeyMount, computeMount),
		Strict(KeyLastModified, computeLastModified),
		Strict(KeyUpdatedAt, computeLastModified),
		Strict(KeyUpdatedBy, computeUpdatedBy),
		Strict(KeyParent, computeParent),
		Overridable(KeyAuthors, computeAuthors),
	}
}

func urlProperty(build func(URLBuilder, *Record, *Container) (string, error)) ComputeFunc {
	return func(_ context.Context, c ComputeContext) (any, error) {
		urls := c.URLs()
		if urls == nil {
			return nil, nil
		}
		value, err := build(urls, c.Record, c.Container)
		if err != nil {
			return nil, err
		}
		return nilIfEmpty(value), nil
	}
}

func computeAmpURL(_ context.Context, c ComputeContext) (any, error) {
	if !c.AmpEnabled() || c.Container == nil || !c.Container.Ampable {
		return nil, nil
	}
	builder, ok := c.URLs().(AmpURLBuilder)
	if !ok {
		return nil, nil
	}
	value, err := builder.AmpURL(c.Record, c.Container)
	if err != nil {
		return nil, err
	}
	return nilIfEmpty(value), nil
}

func computeMount(ctx context.Context, c ComputeContext) (any, error) {
	store := c.Store()
	if store == nil || c.Record.ID == "" {
		return nil, nil
	}
	container, ok, err := store.FindMountedContainer(ctx, c.Record.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return container, nil
}

// computeLastModified prefers the stored updated_at timestamp and falls back
// to the record's modification time.
func computeLastModified(_ context.Context, c ComputeContext) (any, error) {
	if raw, ok := c.Record.Get(KeyUpdatedAt); ok && raw != nil {
		if ts, ok := toTime(raw); ok {
			return ts, nil
		}
	}
	if c.Record.ModifiedAt.IsZero() {
		return nil, nil
	}
	return c.Record.ModifiedAt.UTC(), nil
}

func computeUpdatedBy(ctx context.Context, c ComputeContext) (any, error) {
	raw, ok := c.Record.Get(KeyUpdatedBy)
	if !ok || raw == nil {
		return nil, nil
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return nil, nil
	}
	users := c.Users()
	if users == nil {
		return nil, nil
	}
	user, found, err := users.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return user, nil
}

func computeParent(ctx context.Context, c ComputeContext) (any, error) {
	structure := c.Structure()
	if structure == nil {
		return nil, nil
	}
	parent, found, err := structure.Parent(ctx, c.Record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return parent, nil
}

// computeAuthors derives the authors list from a singular author value: a
// string becomes a one element list, a list passes through, anything absent
// becomes empty.
func computeAuthors(ctx context.Context, c ComputeContext) (any, error) {
	author, found, err := c.Lookup(ctx, KeyAuthor)
	if err != nil {
		return nil, err
	}
	if !found || author == nil {
		return []any{}, nil
	}
	return normalizeSequence(author), nil
}

func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (r *Resolver) now() time.Time {
	if r != nil && r.cfg.clock != nil {
		return r.cfg.clock()
	}
	return time.Now()
}
