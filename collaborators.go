package augment

import "context"

// Store loads and persists records and containers.
type Store interface {
	Load(ctx context.Context, id string) (*Record, bool, error)
	Save(ctx context.Context, record *Record) error
	FindContainer(ctx context.Context, id string) (*Container, bool, error)
	// FindMountedContainer returns the container whose mount point is the
	// record with recordID.
	FindMountedContainer(ctx context.Context, recordID string) (*Container, bool, error)
}

// URLBuilder derives the addresses of a record. An empty string means the
// address does not exist and resolves to nil.
type URLBuilder interface {
	URI(record *Record, container *Container) (string, error)
	URL(record *Record, container *Container) (string, error)
	EditURL(record *Record, container *Container) (string, error)
	Permalink(record *Record, container *Container) (string, error)
	APIURL(record *Record, container *Container) (string, error)
}

// AmpURLBuilder is implemented by URL builders that can address AMP pages.
type AmpURLBuilder interface {
	AmpURL(record *Record, container *Container) (string, error)
}

// UserRef is a resolved user.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UserLookup resolves user identifiers.
type UserLookup interface {
	Find(ctx context.Context, id string) (*UserRef, bool, error)
}

// Structure exposes a tree ordering of records.
type Structure interface {
	Parent(ctx context.Context, record *Record) (*Record, bool, error)
}
