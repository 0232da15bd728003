package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-settings/format"
)

// ErrEmptyExpression reports an "@name" reference without parameters on an
// expression-backed factory.
var ErrEmptyExpression = errors.New("settings: format expression must not be empty")

// formatVariables is the variable set every expression engine sees: the value
// being formatted plus the environment the formatter was created for. Times
// are converted to the environment zone first.
func formatVariables(value any, env format.Env) map[string]any {
	zone := ""
	if env.TimeZone != nil {
		zone = env.TimeZone.String()
		if t, ok := value.(time.Time); ok {
			value = t.In(env.TimeZone)
		}
	}
	return map[string]any{
		"value":  value,
		"locale": env.Locale.String(),
		"zone":   zone,
		"kind":   env.Kind.String(),
	}
}

func stringify(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// expressionFormatter runs a compiled program for each value.
type expressionFormatter struct {
	engine string
	expr   string
	env    format.Env
	run    func(vars map[string]any) (any, error)
}

func (f *expressionFormatter) Format(value any) (string, error) {
	out, err := f.run(formatVariables(value, f.env))
	if err != nil {
		return "", wrapEvaluationError(f.engine, f.expr, f.env.Kind, err)
	}
	return stringify(out), nil
}
