package augment

import (
	"time"

	"github.com/goliatone/go-augment/pkg/activity"
)

// DefaultMaxOriginDepth bounds origin chain walks unless overridden.
const DefaultMaxOriginDepth = 8

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	store          Store
	schemas        SchemaRegistry
	urls           URLBuilder
	users          UserLookup
	structure      Structure
	computed       *ComputedRegistry
	maxOriginDepth int
	amp            bool
	clock          func() time.Time

	evaluators      map[string]Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          ResolutionLogger
	evaluatorLogger EvaluatorLogger
	activityHooks   activity.Hooks
}

func applyOptions(opts []Option) resolverConfig {
	cfg := resolverConfig{
		computed:       DefaultComputedRegistry(),
		maxOriginDepth: DefaultMaxOriginDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithStore configures the record and container store.
func WithStore(store Store) Option {
	return func(cfg *resolverConfig) {
		cfg.store = store
	}
}

// WithSchemaRegistry configures blueprint lookup.
func WithSchemaRegistry(registry SchemaRegistry) Option {
	return func(cfg *resolverConfig) {
		cfg.schemas = registry
	}
}

// WithURLBuilder configures address derivation for the URL properties.
func WithURLBuilder(builder URLBuilder) Option {
	return func(cfg *resolverConfig) {
		cfg.urls = builder
	}
}

// WithUserLookup configures user resolution.
func WithUserLookup(users UserLookup) Option {
	return func(cfg *resolverConfig) {
		cfg.users = users
	}
}

// WithStructure configures the tree used by the parent property.
func WithStructure(structure Structure) Option {
	return func(cfg *resolverConfig) {
		cfg.structure = structure
	}
}

// WithComputedRegistry replaces the computed property set. A nil registry
// keeps the built-in properties.
func WithComputedRegistry(registry *ComputedRegistry) Option {
	return func(cfg *resolverConfig) {
		if registry == nil {
			return
		}
		cfg.computed = registry
	}
}

// WithMaxOriginDepth bounds how many origin hops a lookup may follow. Values
// are clamped to [1, MaxOriginDepthLimit].
func WithMaxOriginDepth(depth int) Option {
	return func(cfg *resolverConfig) {
		switch {
		case depth < 1:
			cfg.maxOriginDepth = 1
		case depth > MaxOriginDepthLimit:
			cfg.maxOriginDepth = MaxOriginDepthLimit
		default:
			cfg.maxOriginDepth = depth
		}
	}
}

// WithAmp toggles AMP address generation.
func WithAmp(enabled bool) Option {
	return func(cfg *resolverConfig) {
		cfg.amp = enabled
	}
}

// WithClock overrides the time source used by date-sensitive properties.
func WithClock(clock func() time.Time) Option {
	return func(cfg *resolverConfig) {
		cfg.clock = clock
	}
}

// WithEvaluator registers e under engine for formula fields.
func WithEvaluator(engine string, e Evaluator) Option {
	return func(cfg *resolverConfig) {
		if engine == "" || e == nil {
			return
		}
		if cfg.evaluators == nil {
			cfg.evaluators = map[string]Evaluator{}
		}
		cfg.evaluators[engine] = e
	}
}
