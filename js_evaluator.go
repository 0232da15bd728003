//go:build js_eval

package settings

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/goliatone/go-settings/format"
)

const jsEngine = "js"

type jsFormatFactory struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSFormatFactory constructs a custom format factory whose parameter
// string is a JavaScript expression, run by goja, over value, locale, zone
// and kind. Each Format call uses a fresh runtime.
func NewJSFormatFactory(opts ...JSFormatOption) format.Factory {
	cfg := applyJSFormatOptions(opts)
	return &jsFormatFactory{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (f *jsFormatFactory) Engine() string { return jsEngine }

func (f *jsFormatFactory) NewFormatter(params string, env format.Env) (format.Formatter, error) {
	expression := strings.TrimSpace(params)
	if expression == "" {
		return nil, wrapEngineError(jsEngine, ErrEmptyExpression)
	}
	program, err := f.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(jsEngine, expression, env.Kind, err)
	}
	return &expressionFormatter{
		engine: jsEngine,
		expr:   expression,
		env:    env,
		run: func(vars map[string]any) (any, error) {
			return f.run(vars, program)
		},
	}, nil
}

func (f *jsFormatFactory) loadOrCompile(expression string) (*goja.Program, error) {
	key := cacheKey(jsEngine, expression)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Set(key, program)
	}
	return program, nil
}

func (f *jsFormatFactory) run(vars map[string]any, program *goja.Program) (any, error) {
	vm := goja.New()
	for key, value := range vars {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	if f.registry != nil {
		if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
			return f.registry.Call(name, arguments...)
		}); err != nil {
			return nil, err
		}
		for _, name := range f.registry.Names() {
			fn := name
			if err := vm.Set(fn, func(arguments ...any) (any, error) {
				return f.registry.Call(fn, arguments...)
			}); err != nil {
				return nil, err
			}
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsFormatsAvailable() bool {
	return true
}
