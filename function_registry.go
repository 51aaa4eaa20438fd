package augment

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrFunctionNotFound  = fmt.Errorf("%w: formula function not registered", ErrConfiguration)
	ErrDuplicateFunction = fmt.Errorf("%w: formula function already registered", ErrConfiguration)
)

// Function is a helper formulas can call by name. Names are case-insensitive.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers exposed to formula engines. It is safe
// for concurrent use.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: map[string]Function{}}
}

func functionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds fn under name. A name may only be registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := functionKey(name)
	switch {
	case key == "":
		return fmt.Errorf("%w: function name must be provided", ErrConfiguration)
	case fn == nil:
		return fmt.Errorf("%w: function %q is nil", ErrConfiguration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = map[string]Function{}
	}
	if _, taken := r.funcs[key]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateFunction, name)
	}
	r.funcs[key] = fn
	return nil
}

// Lookup returns the function registered under name.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[functionKey(name)]
	return fn, ok
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn(args...)
}

// Names lists the registered (lower-cased) names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Clone returns an independent registry with the same functions.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	clone := NewFunctionRegistry()
	clone.Merge(r)
	return clone
}

// Merge adds every function of other whose name is still free, so functions
// already in r shadow those of other.
func (r *FunctionRegistry) Merge(other *FunctionRegistry) {
	if r == nil || other == nil || r == other {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = make(map[string]Function, len(other.funcs))
	}
	for name, fn := range other.funcs {
		if _, taken := r.funcs[name]; !taken {
			r.funcs[name] = fn
		}
	}
}

// WithFunctionRegistry exposes the functions of registry to every formula.
// The registry is copied; later registrations are not seen.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *resolverConfig) {
		if registry == nil {
			return
		}
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		cfg.functions.Merge(registry)
	}
}

// WithCustomFunction exposes fn to every formula under name. Invalid or
// duplicate registrations are ignored.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *resolverConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
