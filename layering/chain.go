package layering

import (
	"errors"
	"fmt"
)

var (
	// ErrChainCycle indicates a chain revisited an identifier, including the
	// identifier the walk started from.
	ErrChainCycle = errors.New("layering: chain cycle detected")
	// ErrChainTooDeep indicates a chain kept going past the configured bound.
	ErrChainTooDeep = errors.New("layering: chain exceeds maximum depth")
)

// CycleError names the identifier that closed a cycle.
type CycleError struct {
	ID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %q", ErrChainCycle, e.ID)
}

func (e *CycleError) Unwrap() error {
	return ErrChainCycle
}

// Link is one resolved hop of a chain.
type Link[T any] struct {
	ID   string
	Node T
}

// LoadFunc resolves id into its node plus the identifier of the next hop. An
// empty next identifier ends the chain; ok=false means id could not be found,
// which also ends the chain.
type LoadFunc[T any] func(id string) (node T, next string, ok bool, err error)

// WalkChain follows a parent chain starting at firstID, ordered nearest to
// farthest. startID is the identifier of the node owning the chain; meeting it
// again is reported as a cycle. A maxDepth of zero or less disables the depth
// bound, but cycles are always detected.
func WalkChain[T any](startID, firstID string, maxDepth int, load LoadFunc[T]) ([]Link[T], error) {
	if firstID == "" {
		return nil, nil
	}
	if load == nil {
		return nil, fmt.Errorf("layering: chain loader is required")
	}

	seen := map[string]struct{}{}
	if startID != "" {
		seen[startID] = struct{}{}
	}

	var links []Link[T]
	for id := firstID; id != ""; {
		if _, ok := seen[id]; ok {
			return links, &CycleError{ID: id}
		}
		if maxDepth > 0 && len(links) >= maxDepth {
			return links, fmt.Errorf("%w: %d", ErrChainTooDeep, maxDepth)
		}
		seen[id] = struct{}{}

		node, next, ok, err := load(id)
		if err != nil {
			return links, err
		}
		if !ok {
			return links, nil
		}
		links = append(links, Link[T]{ID: id, Node: node})
		id = next
	}
	return links, nil
}
