package augment

import "time"

// ResolutionLogEvent describes one key lookup.
type ResolutionLogEvent struct {
	RecordID string
	Key      string
	// Layer names the scope that supplied the value: a data layer name,
	// "computed", or empty when nothing was found.
	Layer    string
	Found    bool
	Computed bool
	Duration time.Duration
	Err      error
}

// ResolutionLogger records resolution events.
type ResolutionLogger interface {
	LogResolution(ResolutionLogEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionLogEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionLogEvent) {
	if f != nil {
		f(event)
	}
}

// MultiResolutionLogger fans events out to every non-nil logger.
func MultiResolutionLogger(loggers ...ResolutionLogger) ResolutionLogger {
	filtered := make([]ResolutionLogger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			filtered = append(filtered, logger)
		}
	}
	return ResolutionLoggerFunc(func(event ResolutionLogEvent) {
		for _, logger := range filtered {
			logger.LogResolution(event)
		}
	})
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionLogEvent) {}

// WithResolutionLogger attaches a resolution logger to the resolver.
func WithResolutionLogger(logger ResolutionLogger) Option {
	return func(cfg *resolverConfig) {
		if logger == nil {
			cfg.logger = noopResolutionLogger{}
			return
		}
		cfg.logger = logger
	}
}

func (r *Resolver) resolutionLogger() ResolutionLogger {
	if r == nil || r.cfg.logger == nil {
		return noopResolutionLogger{}
	}
	return r.cfg.logger
}
