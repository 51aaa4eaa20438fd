package augment

import (
	"fmt"
	"math"
)

const (
	ScopeSupplement = "supplement"
	ScopeData       = "data"
	ScopeOrigin     = "origin"
	ScopeCascade    = "cascade"
	ScopeDefaults   = "defaults"
	ScopeComputed   = "computed"
)

const (
	// Layer priorities used by the data stack. Higher numbers win. Origin
	// layers count down from ScopePriorityOrigin, nearest ancestor first.
	ScopePriorityComputed   = 600
	ScopePrioritySupplement = 500
	ScopePriorityData       = 400
	ScopePriorityOrigin     = 399
	ScopePriorityCascade    = 200
	ScopePriorityDefaults   = 100

	// MaxOriginDepthLimit keeps origin priorities above the cascade layer.
	MaxOriginDepthLimit = ScopePriorityOrigin - ScopePriorityCascade - 1

	minPriority = math.MinInt
)

// buildDataStack assembles the non-computed precedence chain for record.
// origins are ordered nearest first.
func buildDataStack(record *Record, origins []*Record, container *Container, blueprint *Blueprint) (*Stack, error) {
	layers := []Layer{
		NewLayer(
			NewScope(ScopeSupplement, ScopePrioritySupplement, WithScopeLabel("Supplements")),
			record.supplementSnapshot(),
			WithSnapshotID(record.ID),
		),
		NewLayer(
			NewScope(ScopeData, ScopePriorityData, WithScopeLabel("Record Data")),
			record.snapshot(),
			WithSnapshotID(record.ID),
		),
	}
	for depth, origin := range origins {
		layers = append(layers, NewLayer(originScope(depth, origin.ID), origin.snapshot(), WithSnapshotID(origin.ID)))
	}
	if container != nil {
		layers = append(layers, NewLayer(
			NewScope(ScopeCascade, ScopePriorityCascade, WithScopeLabel("Container Cascade")),
			container.Cascade,
			WithSnapshotID(container.ID),
		))
	}
	if blueprint != nil {
		layers = append(layers, NewLayer(
			NewScope(ScopeDefaults, ScopePriorityDefaults, WithScopeLabel("Schema Defaults")),
			blueprint.Defaults(),
			WithSnapshotID(blueprint.Handle),
		))
	}
	return NewStack(layers...)
}

func originScope(depth int, id string) Scope {
	return NewScope(
		fmt.Sprintf("%s:%s", ScopeOrigin, id),
		ScopePriorityOrigin-depth,
		WithScopeLabel(fmt.Sprintf("Origin %s", id)),
		WithScopeMetadata(map[string]any{"record_id": id, "depth": depth + 1}),
	)
}

func computedScope(name string, kind ComputedKind) Scope {
	return NewScope(
		ScopeComputed,
		ScopePriorityComputed,
		WithScopeLabel("Computed"),
		WithScopeMetadata(map[string]any{"property": name, "kind": kind.String()}),
	)
}
