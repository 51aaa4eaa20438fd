// Package store provides in-memory implementations of the augment
// collaborators a resolver needs: record and container storage, and user
// lookup.
//
// MemoryStore keeps detached copies of everything it holds. Records handed
// out by Load can be modified freely without affecting stored state; changes
// become visible only through Save, Create or Mutate.
//
// Data flow:
//
//	LoadFixture -> MemoryStore.Seed -> augment.NewResolver(augment.WithStore(s), augment.WithUserLookup(s))
//
// Lifecycle events (record.created, record.updated, record.deleted) are sent
// to the activity emitter configured with WithEmitter.
package store
