//go:build !js_eval

package augment

// NewJSEvaluator returns nil unless built with the js_eval tag; formula
// fields using the js engine then fail with ErrNoEvaluator.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
