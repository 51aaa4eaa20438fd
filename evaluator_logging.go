package augment

import "time"

// EvaluatorLogEvent describes a formula evaluation attempt.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Field    string
	RecordID string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger to the resolver.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *resolverConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}

func (r *Resolver) evaluatorLogger() EvaluatorLogger {
	if r == nil || r.cfg.evaluatorLogger == nil {
		return noopEvaluatorLogger{}
	}
	return r.cfg.evaluatorLogger
}
