package settings

import (
	"fmt"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/goliatone/go-settings/format"
)

const celEngine = "cel"

// maxCELArity bounds the overloads declared per registered function.
const maxCELArity = 3

// CELFormatOption configures a CEL-backed format factory.
type CELFormatOption func(*celFormatFactory)

// CELWithProgramCache wires a ProgramCache into the CEL factory.
func CELWithProgramCache(cache ProgramCache) CELFormatOption {
	return func(f *celFormatFactory) {
		f.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL factory.
// Registered functions accept up to three arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELFormatOption {
	return func(f *celFormatFactory) {
		if registry == nil {
			return
		}
		f.registry = registry.Clone()
	}
}

type celFormatFactory struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELFormatFactory constructs a custom format factory whose parameter
// string is a CEL expression over value, locale, zone and kind.
func NewCELFormatFactory(opts ...CELFormatOption) format.Factory {
	f := &celFormatFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *celFormatFactory) Engine() string { return celEngine }

func (f *celFormatFactory) NewFormatter(params string, env format.Env) (format.Formatter, error) {
	expression := strings.TrimSpace(params)
	if expression == "" {
		return nil, wrapEngineError(celEngine, ErrEmptyExpression)
	}
	program, err := f.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(celEngine, expression, env.Kind, err)
	}
	return &expressionFormatter{
		engine: celEngine,
		expr:   expression,
		env:    env,
		run: func(vars map[string]any) (any, error) {
			out, _, err := program.Eval(vars)
			if err != nil {
				return nil, err
			}
			return out.Value(), nil
		},
	}, nil
}

func (f *celFormatFactory) loadOrCompile(expression string) (celgo.Program, error) {
	key := cacheKey(celEngine, expression)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	env, err := f.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Set(key, program)
	}
	return program, nil
}

func (f *celFormatFactory) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("locale", celgo.StringType),
		celgo.Variable("zone", celgo.StringType),
		celgo.Variable("kind", celgo.StringType),
	}
	if f.registry != nil {
		opts = append(opts, celgo.Function("call", f.overloads("call", true)...))
		for _, name := range f.registry.Names() {
			opts = append(opts, celgo.Function(name, f.overloads(name, false)...))
		}
	}
	return celgo.NewEnv(opts...)
}

// overloads declares name for zero to maxCELArity dynamic arguments. The call
// helper takes the function name as an extra leading string argument.
func (f *celFormatFactory) overloads(name string, dispatch bool) []celgo.FunctionOpt {
	var out []celgo.FunctionOpt
	for arity := 0; arity <= maxCELArity; arity++ {
		args := make([]*celgo.Type, 0, arity+1)
		if dispatch {
			args = append(args, celgo.StringType)
		}
		for i := 0; i < arity; i++ {
			args = append(args, celgo.DynType)
		}
		if len(args) == 0 && dispatch {
			continue
		}
		id := fmt.Sprintf("settings_%s_%d", name, len(args))
		out = append(out, celgo.Overload(id, args, celgo.DynType, f.binding(name, dispatch, len(args))))
	}
	return out
}

func (f *celFormatFactory) binding(name string, dispatch bool, arity int) celgo.OverloadOpt {
	call := func(values ...ref.Val) ref.Val {
		target := name
		if dispatch {
			fn, ok := values[0].Value().(string)
			if !ok {
				return types.NewErr("settings: call name must be a string")
			}
			target, values = fn, values[1:]
		}
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		result, err := f.registry.Call(target, args...)
		if err != nil {
			return types.NewErrFromString(err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
	switch arity {
	case 1:
		return celgo.UnaryBinding(func(v ref.Val) ref.Val { return call(v) })
	case 2:
		return celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val { return call(lhs, rhs) })
	default:
		return celgo.FunctionBinding(call)
	}
}
