package augment

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a formula that failed to compile or run. RecordID
// and Field locate the formula; they are empty for failures that happen
// before a record is known, such as compiling a shared program.
type EvaluationError struct {
	RecordID string
	Field    string
	Engine   string
	Expr     string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("augment: formula")
	if e.RecordID != "" {
		fmt.Fprintf(&b, " record=%s", e.RecordID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%s", e.Field)
	}
	fmt.Fprintf(&b, " engine=%s", e.Engine)
	if e.Expr == "" {
		b.WriteString(" expr=<empty>")
	} else {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// formulaSite identifies where a formula error happened.
type formulaSite struct {
	Engine   string
	Expr     string
	RecordID string
	Field    string
}

// siteOf locates a run of expression under ctx.
func siteOf(engine, expression string, ctx FormulaContext) formulaSite {
	return formulaSite{
		Engine:   engine,
		Expr:     expression,
		RecordID: ctx.RecordID,
		Field:    ctx.fieldLabel(),
	}
}

// wrap returns err as an *EvaluationError. An existing EvaluationError keeps
// what it already knows and gains the missing location details.
func (s formulaSite) wrap(err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		fill(&evalErr.Engine, s.Engine)
		fill(&evalErr.Expr, s.Expr)
		fill(&evalErr.RecordID, s.RecordID)
		fill(&evalErr.Field, s.Field)
		return evalErr
	}
	return &EvaluationError{
		RecordID: s.RecordID,
		Field:    s.Field,
		Engine:   s.Engine,
		Expr:     s.Expr,
		Err:      err,
	}
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// wrapEvaluatorError prefixes engine setup failures that carry no formula.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "augment:") {
		return err
	}
	return fmt.Errorf("augment: %s evaluator: %w", engine, err)
}
