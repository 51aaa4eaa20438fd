package store

import (
	"fmt"
	"time"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/internal/hydrate"
)

// Fixture is a data document holding containers, records and users:
//
//	containers:
//	  - id: blog
//	    blueprint: article
//	    cascade: {theme: light}
//	records:
//	  - id: intro
//	    container: blog
//	    origin: base
//	    date: 2024-03-05
//	    data: {title: Intro}
//	users:
//	  - {id: u1, name: Ada}
type Fixture struct {
	Containers []*augment.Container
	Records    []*augment.Record
	Users      []augment.UserRef
}

// LoadFixture reads a YAML or JSON data document.
func LoadFixture(path string) (*Fixture, error) {
	doc, err := hydrate.ReadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return DecodeFixture(path, doc)
}

// DecodeFixture converts a parsed data document. name is used in errors.
func DecodeFixture(name string, doc map[string]any) (*Fixture, error) {
	fx := &Fixture{}

	containers, err := decodeSection(name, doc, "containers",
		hydrate.NewDecoder(
			hydrate.WithPreHook[augment.Container](hydrate.RequireKeys("id")),
		))
	if err != nil {
		return nil, err
	}
	for i := range containers {
		container := containers[i]
		if container.FutureDateBehavior == "" {
			container.FutureDateBehavior = augment.DateBehaviorPublic
		}
		if container.PastDateBehavior == "" {
			container.PastDateBehavior = augment.DateBehaviorPublic
		}
		fx.Containers = append(fx.Containers, &container)
	}

	records, err := decodeSection(name, doc, "records",
		hydrate.NewDecoder(
			hydrate.WithPreHook[augment.Record](hydrate.RequireKeys("id")),
			hydrate.WithPreHook[augment.Record](normalizeDates("date", "modified_at")),
		))
	if err != nil {
		return nil, err
	}
	for i := range records {
		fx.Records = append(fx.Records, &records[i])
	}

	fx.Users, err = decodeSection(name, doc, "users",
		hydrate.NewDecoder(
			hydrate.WithPreHook[augment.UserRef](hydrate.RequireKeys("id")),
		))
	if err != nil {
		return nil, err
	}
	return fx, nil
}

// Seed loads every container, record and user of fx into s. Records keep
// their fixture IDs and emit no events.
func (s *MemoryStore) Seed(fx *Fixture) error {
	if fx == nil {
		return nil
	}
	for _, container := range fx.Containers {
		if err := s.PutContainer(container); err != nil {
			return err
		}
	}
	for _, user := range fx.Users {
		if err := s.PutUser(user); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range fx.Records {
		if record == nil {
			continue
		}
		stored := record.Clone()
		if stored.ModifiedAt.IsZero() {
			stored.ModifiedAt = s.now().UTC()
		}
		s.records[stored.ID] = stored
	}
	return nil
}

func decodeSection[T any](name string, doc map[string]any, key string, decoder *hydrate.Decoder[T]) ([]T, error) {
	items, err := hydrate.List(doc, key)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", name, err)
	}
	out, err := decoder.DecodeList(hydrate.Source{Path: name, Kind: key}, items)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return out, nil
}

// normalizeDates rewrites the accepted stored date forms to RFC 3339 so they
// decode into time fields.
func normalizeDates(keys ...string) hydrate.PreHook {
	return func(_ hydrate.Source, payload map[string]any) (map[string]any, error) {
		for _, key := range keys {
			raw, ok := payload[key].(string)
			if !ok || raw == "" {
				continue
			}
			parsed, err := augment.ParseDate(raw)
			if err != nil {
				return nil, err
			}
			payload[key] = parsed.Format(time.RFC3339Nano)
		}
		return payload, nil
	}
}
