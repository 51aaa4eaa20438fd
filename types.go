package augment

import "time"

// FormulaContext carries the inputs of one formula evaluation. Snapshot is
// exposed to expressions as top level variables.
type FormulaContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Field    string
	RecordID string
}

func (ctx FormulaContext) withDefaultNow() FormulaContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx FormulaContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx FormulaContext) withDefaultMaps() FormulaContext {
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx FormulaContext) withDefaults() FormulaContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx FormulaContext) fieldLabel() string {
	if ctx.Field != "" {
		return ctx.Field
	}
	return "unknown"
}

// recordBinding is exposed to expressions as "record".
func (ctx FormulaContext) recordBinding() map[string]any {
	return map[string]any{
		"id":    ctx.RecordID,
		"field": ctx.Field,
	}
}

// Evaluator executes formula expressions.
type Evaluator interface {
	Evaluate(ctx FormulaContext, expr string) (any, error)
	Compile(expr string) (CompiledFormula, error)
}

// CompiledFormula is a reusable expression program.
type CompiledFormula interface {
	Evaluate(ctx FormulaContext) (any, error)
}
