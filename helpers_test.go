package augment

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"
)

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("unable to resolve caller for fixture %q", name)
	}
	path := filepath.Join(filepath.Dir(file), "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", path, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", path, err)
	}
	return out
}

type blueprintFixture struct {
	Handle string             `json:"handle"`
	Fields []FieldDeclaration `json:"fields"`
}

type storeFixture struct {
	Containers []*Container        `json:"containers"`
	Blueprints []blueprintFixture  `json:"blueprints"`
	Records    []*Record           `json:"records"`
	Users      map[string]*UserRef `json:"users"`
}

func (fx storeFixture) store() *fakeStore {
	store := newFakeStore()
	for _, container := range fx.Containers {
		store.containers[container.ID] = container
	}
	for _, record := range fx.Records {
		store.records[record.ID] = record
	}
	return store
}

func (fx storeFixture) registry(t *testing.T) *MapRegistry {
	t.Helper()
	registry, err := NewMapRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	for _, bf := range fx.Blueprints {
		bp, err := NewBlueprint(bf.Handle, bf.Fields...)
		if err != nil {
			t.Fatalf("blueprint %q: %v", bf.Handle, err)
		}
		if err := registry.Register(bp); err != nil {
			t.Fatalf("register %q: %v", bf.Handle, err)
		}
	}
	return registry
}

type fakeStore struct {
	mu         sync.Mutex
	records    map[string]*Record
	containers map[string]*Container
	loadErr    error
	loads      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:    map[string]*Record{},
		containers: map[string]*Container{},
	}
}

func (s *fakeStore) Load(_ context.Context, id string) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, id)
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	record, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (s *fakeStore) Save(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *fakeStore) FindContainer(_ context.Context, id string) (*Container, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	container, ok := s.containers[id]
	if !ok {
		return nil, false, nil
	}
	return container.Clone(), true, nil
}

func (s *fakeStore) FindMountedContainer(_ context.Context, recordID string) (*Container, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, container := range s.containers {
		if container.MountID == recordID {
			return container.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func (s *fakeStore) record(t *testing.T, id string) *Record {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		t.Fatalf("fixture record %q missing", id)
	}
	return record.Clone()
}

type fakeUsers map[string]*UserRef

func (u fakeUsers) Find(_ context.Context, id string) (*UserRef, bool, error) {
	user, ok := u[id]
	return user, ok, nil
}

// pathURLs builds addresses from the container route prefix and slug.
type pathURLs struct {
	amp bool
}

func (pathURLs) URI(record *Record, container *Container) (string, error) {
	if container == nil || record.Slug == "" {
		return "", nil
	}
	return "/" + container.ID + "/" + record.Slug, nil
}

func (u pathURLs) URL(record *Record, container *Container) (string, error) {
	return u.URI(record, container)
}

func (pathURLs) EditURL(record *Record, container *Container) (string, error) {
	return "/cp/" + record.ID + "/edit", nil
}

func (u pathURLs) Permalink(record *Record, container *Container) (string, error) {
	uri, err := u.URI(record, container)
	if err != nil || uri == "" {
		return "", err
	}
	return "http://localhost" + uri, nil
}

func (pathURLs) APIURL(record *Record, _ *Container) (string, error) {
	return "/api/" + record.ID, nil
}

type ampURLs struct {
	pathURLs
}

func (u ampURLs) AmpURL(record *Record, container *Container) (string, error) {
	uri, err := u.URI(record, container)
	if err != nil || uri == "" {
		return "", err
	}
	return "http://localhost/amp" + uri, nil
}

type stubStructure map[string]*Record

func (s stubStructure) Parent(_ context.Context, record *Record) (*Record, bool, error) {
	parent, ok := s[record.ID]
	return parent, ok, nil
}

// sameValue compares times by instant and everything else deeply.
func sameValue(got, want any) bool {
	if wantTime, ok := want.(time.Time); ok {
		gotTime, ok := got.(time.Time)
		return ok && gotTime.Equal(wantTime)
	}
	return reflect.DeepEqual(got, want)
}
