package augment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-augment/layering"
)

// Scope names one precedence bucket in the data stack (supplement, data, an
// origin record, cascade, defaults). Higher priority values win.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

// Layer pairs a scope with the key/value snapshot it contributes.
type Layer struct {
	Scope      Scope
	Snapshot   map[string]any
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID records the identifier of the object that supplied the
// snapshot (record id, container id, blueprint handle).
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer. The snapshot is referenced, not copied: layers
// are short lived views over records owned by the caller.
func NewLayer(scope Scope, snapshot map[string]any, opts ...LayerOption) Layer {
	layer := Layer{
		Scope:    scope.clone(),
		Snapshot: snapshot,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

var (
	ErrScopeNameRequired  = errors.New("augment: scope name must be provided")
	ErrDuplicateScopeName = errors.New("augment: scope names must be unique")
	ErrPriorityOrder      = errors.New("augment: scope priorities must be strictly ordered")
)

// Stack is an ordered view of layers, strongest first.
type Stack struct {
	layers []Layer
}

// NewStack validates and sorts layers so that the highest priority is first.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		layer.Scope = layer.Scope.clone()
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns the layers strongest first. Snapshots are shared.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = s.layers[i]
		out[i].Scope = s.layers[i].Scope.clone()
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Lookup returns the value of key from the strongest layer holding it. An
// explicit nil counts as found.
func (s *Stack) Lookup(key string) (any, Provenance, bool) {
	return s.lookupAbove(key, minPriority)
}

// lookupAbove only consults layers whose priority is strictly greater than
// floor.
func (s *Stack) lookupAbove(key string, floor int) (any, Provenance, bool) {
	if s == nil {
		return nil, Provenance{}, false
	}
	for _, layer := range s.layers {
		if layer.Scope.Priority <= floor {
			break
		}
		value, ok := layer.Snapshot[key]
		if !ok {
			continue
		}
		return value, layer.provenance(key, value, true), true
	}
	return nil, Provenance{}, false
}

// Trace reports every layer's contribution to key, strongest first.
func (s *Stack) Trace(key string) Trace {
	return s.traceAbove(key, minPriority)
}

func (s *Stack) traceAbove(key string, floor int) Trace {
	trace := Trace{Path: key}
	if s == nil {
		return trace
	}
	for _, layer := range s.layers {
		if layer.Scope.Priority <= floor {
			break
		}
		value, ok := layer.Snapshot[key]
		trace.Layers = append(trace.Layers, layer.provenance(key, value, ok))
	}
	return trace
}

// Flatten merges every layer into one detached mapping, strongest wins.
func (s *Stack) Flatten() map[string]any {
	if s == nil || len(s.layers) == 0 {
		return map[string]any{}
	}
	snapshots := make([]map[string]any, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Snapshot
	}
	merged := layering.MergeLayers(snapshots...)
	if merged == nil {
		return map[string]any{}
	}
	return merged
}

func (l Layer) provenance(key string, value any, found bool) Provenance {
	p := Provenance{
		Scope:      l.Scope.clone(),
		SnapshotID: l.SnapshotID,
		Path:       key,
		Found:      found,
	}
	if found {
		p.Value = layering.Clone(value)
	}
	return p
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
