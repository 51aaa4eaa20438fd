package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/pkg/activity"
)

var (
	ErrRecordNotFound    = errors.New("store: record not found")
	ErrRecordRequired    = errors.New("store: record is required")
	ErrContainerRequired = errors.New("store: container id is required")
	ErrRecordExists      = errors.New("store: record already exists")
)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithEmitter sends record lifecycle events to emitter.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(s *MemoryStore) {
		s.emitter = emitter
	}
}

// WithClock overrides the time source used for ModifiedAt and events.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the identifier assigned to records saved without
// one. Defaults to random UUIDs.
func WithIDGenerator(next func() string) Option {
	return func(s *MemoryStore) {
		if next != nil {
			s.newID = next
		}
	}
}

// MemoryStore is an in-memory augment.Store and augment.UserLookup safe for
// concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]*augment.Record
	containers map[string]*augment.Container
	users      map[string]augment.UserRef

	emitter *activity.Emitter
	now     func() time.Time
	newID   func() string
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		records:    map[string]*augment.Record{},
		containers: map[string]*augment.Container{},
		users:      map[string]augment.UserRef{},
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (*augment.Record, bool, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

// Save stores a copy of record. A record without an ID is assigned one, and
// ModifiedAt is stamped with the store clock.
func (s *MemoryStore) Save(_ context.Context, record *augment.Record) error {
	if record == nil {
		return ErrRecordRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(record)
	return nil
}

func (s *MemoryStore) saveLocked(record *augment.Record) {
	if strings.TrimSpace(record.ID) == "" {
		record.ID = s.newID()
	}
	record.ModifiedAt = s.now().UTC()
	s.records[record.ID] = record.Clone()
}

// Create saves a new record and emits record.created. Saving over an
// existing ID fails with ErrRecordExists.
func (s *MemoryStore) Create(ctx context.Context, record *augment.Record) (*augment.Record, error) {
	if record == nil {
		return nil, ErrRecordRequired
	}
	created := record.Clone()

	s.mu.Lock()
	if created.ID != "" {
		if _, exists := s.records[created.ID]; exists {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrRecordExists, created.ID)
		}
	}
	s.saveLocked(created)
	s.mu.Unlock()

	s.emit(ctx, activity.BuildRecordCreatedEvent(s.eventInput(ctx, created, created.ID)))
	return created.Clone(), nil
}

// Mutator edits a record in place.
type Mutator func(*augment.Record) error

// Mutate loads the record with id, applies fn to a copy and saves the result.
// Nothing is saved when fn fails. A record.updated event lists the data keys
// that changed.
func (s *MemoryStore) Mutate(ctx context.Context, id string, fn Mutator) (*augment.Record, error) {
	if fn == nil {
		return nil, fmt.Errorf("store: mutator is required")
	}

	s.mu.Lock()
	current, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	next.ID = id
	changes := changedKeys(current.Data(), next.Data())
	s.saveLocked(next)
	s.mu.Unlock()

	input := s.eventInput(ctx, next, id)
	input.Changes = changes
	s.emit(ctx, activity.BuildRecordUpdatedEvent(input))
	return next.Clone(), nil
}

// Delete removes the record with id and emits record.deleted.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	record, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	delete(s.records, id)
	s.mu.Unlock()

	s.emit(ctx, activity.BuildRecordDeletedEvent(s.eventInput(ctx, record, id)))
	return nil
}

// RecordIDs lists stored record IDs in sorted order.
func (s *MemoryStore) RecordIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PutContainer stores a copy of container, replacing any with the same ID.
func (s *MemoryStore) PutContainer(container *augment.Container) error {
	if container == nil || strings.TrimSpace(container.ID) == "" {
		return ErrContainerRequired
	}
	s.mu.Lock()
	s.containers[container.ID] = container.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindContainer(_ context.Context, id string) (*augment.Container, bool, error) {
	s.mu.RLock()
	container, ok := s.containers[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return container.Clone(), true, nil
}

// FindMountedContainer returns the container mounted on recordID. When
// several are, the lowest container ID wins.
func (s *MemoryStore) FindMountedContainer(_ context.Context, recordID string) (*augment.Container, bool, error) {
	if recordID == "" {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *augment.Container
	for _, container := range s.containers {
		if container.MountID != recordID {
			continue
		}
		if found == nil || container.ID < found.ID {
			found = container
		}
	}
	if found == nil {
		return nil, false, nil
	}
	return found.Clone(), true, nil
}

// PutUser registers a user for Find.
func (s *MemoryStore) PutUser(user augment.UserRef) error {
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("store: user id is required")
	}
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*augment.UserRef, bool, error) {
	s.mu.RLock()
	user, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return &user, true, nil
}

func (s *MemoryStore) eventInput(ctx context.Context, record *augment.Record, id string) activity.RecordEventInput {
	return activity.RecordEventInput{
		ActorID:     ActorFromContext(ctx),
		RecordID:    id,
		ContainerID: record.ContainerID,
		BlueprintID: record.BlueprintID,
		OccurredAt:  s.now().UTC(),
	}
}

// emit notifies the emitter. The write already happened, so hook failures
// are not reported to the caller.
func (s *MemoryStore) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	_ = s.emitter.Emit(ctx, event)
}

func changedKeys(before, after map[string]any) []string {
	var changes []string
	for key, value := range after {
		old, ok := before[key]
		if !ok || !reflect.DeepEqual(old, value) {
			changes = append(changes, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			changes = append(changes, key)
		}
	}
	sort.Strings(changes)
	return changes
}

type actorKey struct{}

// ContextWithActor returns a context whose writes are attributed to actorID.
func ContextWithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor set by ContextWithActor, or "".
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

var (
	_ augment.Store      = (*MemoryStore)(nil)
	_ augment.UserLookup = (*MemoryStore)(nil)
)
