package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-settings/format"
)

// EvaluationError reports a failure of an expression-backed custom format,
// either while compiling its parameter string or while formatting a value.
type EvaluationError struct {
	Engine string
	Expr   string
	Kind   format.Kind
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: %s format %s kind=%s: %v", e.Engine, describeExpression(e.Expr), e.Kind, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "settings:") {
		return err
	}
	return fmt.Errorf("settings: %s format: %w", engine, err)
}

// wrapEvaluationError attaches engine metadata to err, filling only the
// fields an existing *EvaluationError leaves empty.
func wrapEvaluationError(engine, expr string, kind format.Kind, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Kind == format.KindUnknown {
			evalErr.Kind = kind
		}
		return evalErr
	}
	return &EvaluationError{Engine: engine, Expr: expr, Kind: kind, Err: err}
}
