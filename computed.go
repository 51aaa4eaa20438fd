package augment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ComputedKind selects how a computed property interacts with stored data.
type ComputedKind int

const (
	// ComputedStrict properties ignore stored data entirely.
	ComputedStrict ComputedKind = iota + 1
	// ComputedOverridable properties yield to any stored, cascaded or
	// supplemented value and only compute as a fallback.
	ComputedOverridable
)

func (k ComputedKind) String() string {
	switch k {
	case ComputedStrict:
		return "strict"
	case ComputedOverridable:
		return "overridable"
	default:
		return "unknown"
	}
}

// ComputeFunc derives a property value.
type ComputeFunc func(ctx context.Context, c ComputeContext) (any, error)

// ComputedProperty is a named derived value.
type ComputedProperty struct {
	Name    string
	Kind    ComputedKind
	Compute ComputeFunc
}

// Strict declares a property that always computes.
func Strict(name string, fn ComputeFunc) ComputedProperty {
	return ComputedProperty{Name: name, Kind: ComputedStrict, Compute: fn}
}

// Overridable declares a property that stored data can replace.
func Overridable(name string, fn ComputeFunc) ComputedProperty {
	return ComputedProperty{Name: name, Kind: ComputedOverridable, Compute: fn}
}

// ComputedRegistry is an immutable, ordered set of computed properties.
type ComputedRegistry struct {
	props map[string]ComputedProperty
	order []string
}

// NewComputedRegistry validates props. Names must be unique and every
// property needs a compute function.
func NewComputedRegistry(props ...ComputedProperty) (*ComputedRegistry, error) {
	registry := &ComputedRegistry{props: make(map[string]ComputedProperty, len(props))}
	for _, prop := range props {
		if err := registry.add(prop, false); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *ComputedRegistry) add(prop ComputedProperty, replace bool) error {
	prop.Name = strings.TrimSpace(prop.Name)
	if prop.Name == "" {
		return ErrComputedNameMissing
	}
	if prop.Compute == nil {
		return fmt.Errorf("%w: computed property %q has no compute function", ErrConfiguration, prop.Name)
	}
	if prop.Kind != ComputedStrict && prop.Kind != ComputedOverridable {
		return fmt.Errorf("%w: computed property %q has unknown kind", ErrConfiguration, prop.Name)
	}
	if _, exists := r.props[prop.Name]; exists {
		if !replace {
			return fmt.Errorf("%w: %q", ErrDuplicateComputed, prop.Name)
		}
	} else {
		r.order = append(r.order, prop.Name)
	}
	r.props[prop.Name] = prop
	return nil
}

// Extend returns a new registry holding r's properties plus props. A property
// in props replaces one of the same name.
func (r *ComputedRegistry) Extend(props ...ComputedProperty) (*ComputedRegistry, error) {
	out := &ComputedRegistry{props: map[string]ComputedProperty{}}
	if r != nil {
		for _, name := range r.order {
			out.props[name] = r.props[name]
			out.order = append(out.order, name)
		}
	}
	for _, prop := range props {
		if err := out.add(prop, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Lookup returns the property registered under name.
func (r *ComputedRegistry) Lookup(name string) (ComputedProperty, bool) {
	if r == nil {
		return ComputedProperty{}, false
	}
	prop, ok := r.props[name]
	return prop, ok
}

// Names lists the registered properties in registration order.
func (r *ComputedRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// ComputeContext is the input handed to a ComputeFunc.
type ComputeContext struct {
	Record    *Record
	Container *Container
	Now       time.Time

	resolver *Resolver
	session  *session
}

// Lookup searches the data chain (supplements, data, origins, cascade, schema
// defaults) for key without consulting computed properties.
func (c ComputeContext) Lookup(ctx context.Context, key string) (any, bool, error) {
	if c.session == nil {
		value, ok := c.Record.Get(key)
		return value, ok, nil
	}
	stack, err := c.session.dataStack(ctx)
	if err != nil {
		return nil, false, err
	}
	value, _, ok := stack.Lookup(key)
	return value, ok, nil
}

// Store returns the configured store, or nil.
func (c ComputeContext) Store() Store {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.cfg.store
}

// URLs returns the configured URL builder, or nil.
func (c ComputeContext) URLs() URLBuilder {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.cfg.urls
}

// Users returns the configured user lookup, or nil.
func (c ComputeContext) Users() UserLookup {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.cfg.users
}

// Structure returns the configured structure, or nil.
func (c ComputeContext) Structure() Structure {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.cfg.structure
}

// AmpEnabled reports whether AMP output is enabled globally.
func (c ComputeContext) AmpEnabled() bool {
	return c.resolver != nil && c.resolver.cfg.amp
}
