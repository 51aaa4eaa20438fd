package augment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-augment/layering"
)

// Resolver answers "what is the value of key for this record" by walking
// computed properties, supplements, stored data, the origin chain, the
// container cascade and schema defaults, in that order.
type Resolver struct {
	cfg resolverConfig

	mu         sync.Mutex
	evaluators map[string]Evaluator
}

// NewResolver builds a resolver from opts.
func NewResolver(opts ...Option) *Resolver {
	cfg := applyOptions(opts)
	evaluators := make(map[string]Evaluator, len(cfg.evaluators))
	for engine, e := range cfg.evaluators {
		evaluators[engine] = e
	}
	return &Resolver{cfg: cfg, evaluators: evaluators}
}

// Computed returns the computed property registry in use.
func (r *Resolver) Computed() *ComputedRegistry {
	return r.cfg.computed
}

// Resolve returns the value of key for record. A key nothing supplies
// resolves to a Value whose raw form is nil.
func (r *Resolver) Resolve(ctx context.Context, record *Record, key string) (*Value, error) {
	value, _, err := r.resolve(ctx, record, key, false)
	return value, err
}

// ResolveWithTrace is Resolve plus the per-layer provenance of the result.
func (r *Resolver) ResolveWithTrace(ctx context.Context, record *Record, key string) (*Value, Trace, error) {
	return r.resolve(ctx, record, key, true)
}

// ResolveAll resolves keys against one shared view of record. With no keys it
// resolves every key reported by Keys.
func (r *Resolver) ResolveAll(ctx context.Context, record *Record, keys ...string) (Values, error) {
	s, err := r.open(ctx, record)
	if err != nil {
		return nil, wrapResolutionError(recordID(record), "", err)
	}
	if len(keys) == 0 {
		keys = r.keys(s)
	}
	out := make(Values, len(keys))
	for _, key := range keys {
		value, _, err := r.resolveKey(ctx, s, key, false)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// Keys lists the blueprint fields followed by the computed properties not
// already declared, in declaration then registration order.
func (r *Resolver) Keys(ctx context.Context, record *Record) ([]string, error) {
	s, err := r.open(ctx, record)
	if err != nil {
		return nil, wrapResolutionError(recordID(record), "", err)
	}
	return r.keys(s), nil
}

func (r *Resolver) keys(s *session) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, handle := range s.blueprint.Handles() {
		seen[handle] = struct{}{}
		out = append(out, handle)
	}
	for _, name := range r.cfg.computed.Names() {
		if _, ok := seen[name]; ok {
			continue
		}
		out = append(out, name)
	}
	return out
}

func (r *Resolver) resolve(ctx context.Context, record *Record, key string, withTrace bool) (*Value, Trace, error) {
	s, err := r.open(ctx, record)
	if err != nil {
		err = wrapResolutionError(recordID(record), key, err)
		r.resolutionLogger().LogResolution(ResolutionLogEvent{RecordID: recordID(record), Key: key, Err: err})
		return nil, Trace{Path: key}, err
	}
	return r.resolveKey(ctx, s, key, withTrace)
}

func (r *Resolver) resolveKey(ctx context.Context, s *session, key string, withTrace bool) (*Value, Trace, error) {
	start := time.Now()
	value, trace, layer, err := r.lookup(ctx, s, key, withTrace)
	if err != nil {
		err = wrapResolutionError(s.record.ID, key, err)
		if errors.Is(err, ErrDataIntegrity) {
			r.emitIntegrityFailure(ctx, s.record, key, err)
		}
	}
	r.resolutionLogger().LogResolution(ResolutionLogEvent{
		RecordID: s.record.ID,
		Key:      key,
		Layer:    layer,
		Found:    err == nil && layer != "",
		Computed: layer == ScopeComputed,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, trace, err
	}
	return value, trace, nil
}

// lookup applies the precedence order for key and reports the winning layer
// name ("" when nothing supplied a value).
func (r *Resolver) lookup(ctx context.Context, s *session, key string, withTrace bool) (*Value, Trace, string, error) {
	field := s.field(key)
	trace := Trace{Path: key}

	if prop, ok := r.cfg.computed.Lookup(key); ok {
		if prop.Kind == ComputedOverridable {
			stack, err := s.dataStack(ctx)
			if err != nil {
				return nil, trace, "", err
			}
			// Overridable properties yield to any stored value but not to a
			// schema default.
			raw, prov, found := stack.lookupAbove(key, ScopePriorityDefaults)
			if withTrace {
				trace = stack.traceAbove(key, ScopePriorityDefaults)
			}
			if found {
				return r.newValue(raw, field, s.record), trace, prov.Scope.Name, nil
			}
		}
		raw, err := prop.Compute(ctx, s.computeContext())
		if err != nil {
			return nil, trace, "", err
		}
		if withTrace {
			trace.Layers = append([]Provenance{{
				Scope: computedScope(prop.Name, prop.Kind),
				Path:  key,
				Value: layering.Clone(raw),
				Found: true,
			}}, trace.Layers...)
		}
		return r.newValue(raw, field, s.record), trace, ScopeComputed, nil
	}

	stack, err := s.dataStack(ctx)
	if err != nil {
		return nil, trace, "", err
	}
	raw, prov, found := stack.Lookup(key)
	if withTrace {
		trace = stack.Trace(key)
	}
	if !found {
		return r.newValue(nil, field, s.record), trace, "", nil
	}
	return r.newValue(raw, field, s.record), trace, prov.Scope.Name, nil
}

// session caches the collaborators of one record for the duration of a
// Resolve or ResolveAll call.
type session struct {
	resolver  *Resolver
	record    *Record
	container *Container
	blueprint *Blueprint

	stackOnce sync.Once
	stack     *Stack
	stackErr  error
}

func (r *Resolver) open(ctx context.Context, record *Record) (*session, error) {
	if record == nil {
		return nil, ErrRecordRequired
	}
	s := &session{resolver: r, record: record}
	if record.ContainerID != "" && r.cfg.store != nil {
		container, found, err := r.cfg.store.FindContainer(ctx, record.ContainerID)
		if err != nil {
			return nil, err
		}
		if found {
			s.container = container
		}
	}
	blueprint, err := r.blueprintFor(record, s.container)
	if err != nil {
		return nil, err
	}
	s.blueprint = blueprint
	return s, nil
}

// blueprintFor picks the record's blueprint, falling back to the container
// default. No handle at all means the record is schemaless.
func (r *Resolver) blueprintFor(record *Record, container *Container) (*Blueprint, error) {
	handle := record.BlueprintID
	if handle == "" && container != nil {
		handle = container.DefaultBlueprint
	}
	if handle == "" {
		return nil, nil
	}
	if r.cfg.schemas == nil {
		return nil, fmt.Errorf("%w: %q: no schema registry configured", ErrBlueprintNotFound, handle)
	}
	blueprint, ok := r.cfg.schemas.Blueprint(handle)
	if !ok || blueprint == nil {
		return nil, fmt.Errorf("%w: %q", ErrBlueprintNotFound, handle)
	}
	return blueprint, nil
}

func (s *session) field(key string) *FieldDeclaration {
	field, ok := s.blueprint.Field(key)
	if !ok {
		return nil
	}
	return &field
}

func (s *session) computeContext() ComputeContext {
	return ComputeContext{
		Record:    s.record,
		Container: s.container,
		Now:       s.resolver.now(),
		resolver:  s.resolver,
		session:   s,
	}
}

// dataStack builds the layer stack once per session. The whole origin chain
// is walked eagerly so a cycle is reported no matter which key is asked for.
func (s *session) dataStack(ctx context.Context) (*Stack, error) {
	s.stackOnce.Do(func() {
		origins, err := s.resolver.originChain(ctx, s.record)
		if err != nil {
			s.stackErr = err
			return
		}
		s.stack, s.stackErr = buildDataStack(s.record, origins, s.container, s.blueprint)
	})
	return s.stack, s.stackErr
}

// originChain loads the ancestors of record, nearest first.
func (r *Resolver) originChain(ctx context.Context, record *Record) ([]*Record, error) {
	if record.OriginID == "" || r.cfg.store == nil {
		return nil, nil
	}
	links, err := layering.WalkChain(record.ID, record.OriginID, r.cfg.maxOriginDepth,
		func(id string) (*Record, string, bool, error) {
			origin, found, err := r.cfg.store.Load(ctx, id)
			if err != nil || !found || origin == nil {
				return nil, "", false, err
			}
			return origin, origin.OriginID, true, nil
		})
	switch {
	case errors.Is(err, layering.ErrChainCycle):
		return nil, fmt.Errorf("%w: %w", ErrOriginCycle, err)
	case errors.Is(err, layering.ErrChainTooDeep):
		return nil, fmt.Errorf("%w: %w", ErrOriginTooDeep, err)
	case err != nil:
		return nil, err
	}
	origins := make([]*Record, len(links))
	for i, link := range links {
		origins[i] = link.Node
	}
	return origins, nil
}

func recordID(record *Record) string {
	if record == nil {
		return ""
	}
	return record.ID
}
