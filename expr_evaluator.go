package settings

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-settings/format"
)

const exprEngine = "expr"

// ExprFormatOption configures an expr-backed format factory.
type ExprFormatOption func(*exprFormatFactory)

// ExprWithProgramCache wires a ProgramCache into the expr factory.
func ExprWithProgramCache(cache ProgramCache) ExprFormatOption {
	return func(f *exprFormatFactory) {
		f.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr factory.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprFormatOption {
	return func(f *exprFormatFactory) {
		if registry == nil {
			return
		}
		f.registry = registry.Clone()
	}
}

// exprFormatFactory treats the parameter string of "@name params" as an expr
// expression over value, locale, zone and kind.
type exprFormatFactory struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprFormatFactory constructs a custom format factory backed by
// expr-lang/expr. With it registered as "eur", the specifier
// "@eur string(value) + ' EUR'" formats numbers with that expression.
// Registered functions are callable by name or via call(name, ...).
func NewExprFormatFactory(opts ...ExprFormatOption) format.Factory {
	f := &exprFormatFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *exprFormatFactory) Engine() string { return exprEngine }

func (f *exprFormatFactory) NewFormatter(params string, env format.Env) (format.Formatter, error) {
	expression := strings.TrimSpace(params)
	if expression == "" {
		return nil, wrapEngineError(exprEngine, ErrEmptyExpression)
	}
	program, err := f.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(exprEngine, expression, env.Kind, err)
	}
	return &expressionFormatter{
		engine: exprEngine,
		expr:   expression,
		env:    env,
		run: func(vars map[string]any) (any, error) {
			return exprlang.Run(program, vars)
		},
	}, nil
}

func (f *exprFormatFactory) loadOrCompile(expression string) (*exprvm.Program, error) {
	key := cacheKey(exprEngine, expression)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if f.registry != nil {
		options = append(options, exprlang.Function("call", f.callFunction))
		for _, name := range f.registry.Names() {
			options = append(options, exprlang.Function(name, f.registryFunction(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Set(key, program)
	}
	return program, nil
}

func (f *exprFormatFactory) callFunction(arguments ...any) (any, error) {
	if len(arguments) == 0 {
		return nil, fmt.Errorf("settings: call requires a function name")
	}
	name, ok := arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("settings: call name must be a string, got %T", arguments[0])
	}
	return f.registry.Call(name, arguments[1:]...)
}

func (f *exprFormatFactory) registryFunction(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return f.registry.Call(name, arguments...)
	}
}
