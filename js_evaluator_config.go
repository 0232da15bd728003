package settings

type jsFormatConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSFormatOption configures the JavaScript format factory.
type JSFormatOption func(*jsFormatConfig)

// JSWithProgramCache applies a ProgramCache to the JavaScript factory.
func JSWithProgramCache(cache ProgramCache) JSFormatOption {
	return func(cfg *jsFormatConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JavaScript factory.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSFormatOption {
	return func(cfg *jsFormatConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSFormatOptions(opts []JSFormatOption) jsFormatConfig {
	cfg := jsFormatConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// JSFormatsAvailable reports whether the binary was built with the js_eval
// tag, which NewJSFormatFactory requires.
func JSFormatsAvailable() bool { return jsFormatsAvailable() }
