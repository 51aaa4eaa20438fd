package augment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Formula engines.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Formula field configuration keys.
const (
	FormulaExpressionKey = "expression"
	FormulaEngineKey     = "engine"
	FormulaArgsKey       = "args"
)

var ErrNoEvaluator = errors.New("augment: evaluator not configured")

// evaluateFormula runs the field's expression against the record's merged
// data chain. The environment also carries id, slug and the field's own raw
// value as "value".
func (r *Resolver) evaluateFormula(ctx context.Context, v *Value) (any, error) {
	expression := v.field.ConfigString(FormulaExpressionKey)
	engine := v.field.ConfigString(FormulaEngineKey)
	if engine == "" {
		engine = EngineExpr
	}
	site := formulaSite{Engine: engine, Expr: expression, RecordID: recordID(v.record), Field: v.field.Handle}
	if expression == "" {
		return nil, site.wrap(fmt.Errorf("%w: formula has no expression", ErrConfiguration))
	}
	evaluator, err := r.evaluator(engine)
	if err != nil {
		return nil, site.wrap(err)
	}
	snapshot, err := r.formulaSnapshot(ctx, v)
	if err != nil {
		return nil, err
	}
	now := r.now()
	fctx := FormulaContext{
		Snapshot: snapshot,
		Now:      &now,
		Field:    v.field.Handle,
		RecordID: recordID(v.record),
		Metadata: map[string]any{"field_type": v.field.Type.String()},
	}
	if args, ok := v.field.Config[FormulaArgsKey].(map[string]any); ok {
		fctx.Args = args
	}
	fctx = fctx.withDefaults()

	start := time.Now()
	value, evalErr := evaluator.Evaluate(fctx, expression)
	duration := time.Since(start)
	evalErr = site.wrap(evalErr)
	r.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expression,
		Field:    fctx.fieldLabel(),
		RecordID: fctx.RecordID,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (r *Resolver) formulaSnapshot(ctx context.Context, v *Value) (map[string]any, error) {
	snapshot := map[string]any{}
	if v.record != nil && r != nil {
		s, err := r.open(ctx, v.record)
		if err != nil {
			return nil, wrapResolutionError(v.record.ID, v.field.Handle, err)
		}
		stack, err := s.dataStack(ctx)
		if err != nil {
			return nil, wrapResolutionError(v.record.ID, v.field.Handle, err)
		}
		snapshot = stack.Flatten()
		snapshot[KeyID] = v.record.ID
		snapshot[KeySlug] = v.record.Slug
	}
	snapshot["value"] = v.raw
	return snapshot, nil
}

// evaluator returns the evaluator for engine, building the default expr, cel
// or js evaluator on first use.
func (r *Resolver) evaluator(engine string) (Evaluator, error) {
	if r == nil {
		return nil, ErrNoEvaluator
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.evaluators[engine]; ok {
		return e, nil
	}
	functions := r.functionRegistry()
	var e Evaluator
	switch engine {
	case EngineExpr:
		e = NewExprEvaluator(ExprWithProgramCache(r.cfg.programCache), ExprWithFunctionRegistry(functions))
	case EngineCEL:
		e = NewCELEvaluator(CELWithProgramCache(r.cfg.programCache), CELWithFunctionRegistry(functions))
	case EngineJS:
		e = NewJSEvaluator(JSWithProgramCache(r.cfg.programCache), JSWithFunctionRegistry(functions))
	}
	if e == nil {
		return nil, fmt.Errorf("%w: engine %q", ErrNoEvaluator, engine)
	}
	if r.evaluators == nil {
		r.evaluators = map[string]Evaluator{}
	}
	r.evaluators[engine] = e
	return e, nil
}

// functionRegistry merges user functions over the built-in helpers.
func (r *Resolver) functionRegistry() *FunctionRegistry {
	registry := r.cfg.functions.Clone()
	if registry == nil {
		registry = NewFunctionRegistry()
	}
	registry.Merge(BuiltinFunctions())
	return registry
}
