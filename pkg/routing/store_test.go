package routing_test

import (
	"context"

	augment "github.com/goliatone/go-augment"
)

type singleContainerStore struct {
	container *augment.Container
}

func (s *singleContainerStore) Load(context.Context, string) (*augment.Record, bool, error) {
	return nil, false, nil
}

func (s *singleContainerStore) Save(context.Context, *augment.Record) error { return nil }

func (s *singleContainerStore) FindContainer(_ context.Context, id string) (*augment.Container, bool, error) {
	if s.container == nil || s.container.ID != id {
		return nil, false, nil
	}
	return s.container.Clone(), true, nil
}

func (s *singleContainerStore) FindMountedContainer(context.Context, string) (*augment.Container, bool, error) {
	return nil, false, nil
}
