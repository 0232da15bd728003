package settings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
	"github.com/goliatone/go-settings/pkg/activity"
)

// DefaultsScopeName is the scope name reported for values supplied by
// Defaults.
const DefaultsScopeName = "defaults"

// Defaults is the root of every settings chain. Every setting holds a value,
// so resolution that reaches Defaults always succeeds. Create it with
// NewDefaults; it is immutable afterwards.
type Defaults struct {
	view

	id     string
	values rootValues

	logger                         *slog.Logger
	formatLogger                   FormatLogger
	emitter                        *activity.Emitter
	customDateFormatsAlwaysEnabled bool
}

// DefaultsOption configures NewDefaults.
type DefaultsOption func(*Defaults)

// NewDefaults returns a root scope carrying the built-in defaults, adjusted by
// opts.
func NewDefaults(opts ...DefaultsOption) *Defaults {
	d := &Defaults{
		id: uuid.NewString(),
		values: rootValues{
			locale:                  language.AmericanEnglish,
			timeZone:                time.Local,
			numberFormat:            format.NumberBuiltin,
			customNumberFormats:     map[string]format.Factory{},
			booleanFormat:           "true,false",
			customDateFormats:       map[string]format.Factory{},
			exceptionHandler:        DebugHandler,
			arithmeticEngine:        BigDecimalArithmetic,
			objectWrapper:           DefaultObjectWrapper,
			newBuiltinClassResolver: UnrestrictedResolver,
			autoFlush:               true,
			showErrorTips:           true,
			logTemplateExceptions:   true,
			autoImports:             []AutoImport{},
			autoIncludes:            []string{},
			customAttributes:        map[string]any{},
		},
		logger:                         slog.New(slog.DiscardHandler),
		formatLogger:                   noopFormatLogger{},
		customDateFormatsAlwaysEnabled: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.view = view{c: chain{root: d}}
	warnHazardousNames(d.logger, DefaultsScopeName, SettingCustomNumberFormats, d.values.customNumberFormats)
	warnHazardousNames(d.logger, DefaultsScopeName, SettingCustomDateFormats, d.values.customDateFormats)
	return d
}

func (d *Defaults) source() Source {
	return Source{ScopeID: d.id, ScopeName: DefaultsScopeName, Default: true}
}

// ID returns the unique identifier assigned at construction.
func (d *Defaults) ID() string { return d.id }

// Name returns DefaultsScopeName.
func (d *Defaults) Name() string { return DefaultsScopeName }

// Logger returns the logger shared by every scope of the chain.
func (d *Defaults) Logger() *slog.Logger { return d.logger }

func (d *Defaults) link() chain { return chain{root: d} }

func (d *Defaults) emit(ctx context.Context, event activity.Event) {
	if d == nil || !d.emitter.Enabled() {
		return
	}
	if err := d.emitter.Emit(ctx, event); err != nil {
		d.logger.Warn("settings: activity hook failed", "verb", event.Verb, "error", err)
	}
}

func withRoot[T any](f field[T], v T) DefaultsOption {
	return func(d *Defaults) {
		*f.root(&d.values) = f.copyOf(v)
	}
}

func WithLocale(tag language.Tag) DefaultsOption { return withRoot(localeField, tag) }

// WithTimeZone sets the output time zone. nil means time.Local.
func WithTimeZone(loc *time.Location) DefaultsOption {
	if loc == nil {
		loc = time.Local
	}
	return withRoot(timeZoneField, loc)
}

// WithSQLDateAndTimeTimeZone sets the zone for date-only and time-only values
// without a zone concept. nil means "use the time zone".
func WithSQLDateAndTimeTimeZone(loc *time.Location) DefaultsOption {
	return withRoot(sqlDateAndTimeTimeZoneField, loc)
}

func WithNumberFormat(spec string) DefaultsOption { return withRoot(numberFormatField, spec) }
func WithBooleanFormat(spec string) DefaultsOption { return withRoot(booleanFormatField, spec) }
func WithTimeFormat(spec string) DefaultsOption { return withRoot(timeFormatField, spec) }
func WithDateFormat(spec string) DefaultsOption { return withRoot(dateFormatField, spec) }
func WithDateTimeFormat(spec string) DefaultsOption { return withRoot(dateTimeFormatField, spec) }

func WithCustomNumberFormats(factories map[string]format.Factory) DefaultsOption {
	return withRoot(customNumberFormatsField, nonNilMap(factories))
}

func WithCustomDateFormats(factories map[string]format.Factory) DefaultsOption {
	return withRoot(customDateFormatsField, nonNilMap(factories))
}

func WithExceptionHandler(h ExceptionHandler) DefaultsOption {
	if h == nil {
		h = DebugHandler
	}
	return withRoot(exceptionHandlerField, h)
}

func WithArithmeticEngine(e ArithmeticEngine) DefaultsOption {
	if e == nil {
		e = BigDecimalArithmetic
	}
	return withRoot(arithmeticEngineField, e)
}

func WithObjectWrapper(w ObjectWrapper) DefaultsOption {
	if w == nil {
		w = DefaultObjectWrapper
	}
	return withRoot(objectWrapperField, w)
}

func WithOutputEncoding(cs Charset) DefaultsOption { return withRoot(outputEncodingField, cs) }

func WithURLEscapingCharset(cs Charset) DefaultsOption {
	return withRoot(urlEscapingCharsetField, cs)
}

func WithNewBuiltinClassResolver(r ClassResolver) DefaultsOption {
	if r == nil {
		r = UnrestrictedResolver
	}
	return withRoot(newBuiltinClassResolverField, r)
}

func WithAPIBuiltinEnabled(enabled bool) DefaultsOption {
	return withRoot(apiBuiltinEnabledField, enabled)
}

func WithAutoFlush(enabled bool) DefaultsOption { return withRoot(autoFlushField, enabled) }

func WithShowErrorTips(enabled bool) DefaultsOption { return withRoot(showErrorTipsField, enabled) }

func WithLogTemplateExceptions(enabled bool) DefaultsOption {
	return withRoot(logTemplateExceptionsField, enabled)
}

func WithLazyImports(enabled bool) DefaultsOption { return withRoot(lazyImportsField, enabled) }

// WithLazyAutoImports sets the auto-import laziness override; nil defers to
// lazy_imports.
func WithLazyAutoImports(enabled *bool) DefaultsOption {
	return withRoot(lazyAutoImportsField, enabled)
}

func WithAutoImports(imports ...AutoImport) DefaultsOption {
	return withRoot(autoImportsField, normalizeAutoImports(imports))
}

func WithAutoIncludes(templates ...string) DefaultsOption {
	if templates == nil {
		templates = []string{}
	}
	return withRoot(autoIncludesField, templates)
}

func WithCustomAttributes(attrs map[string]any) DefaultsOption {
	return withRoot(customAttributesField, nonNilMap(attrs))
}

// WithLogger sets the logger used by every scope of the chain. nil discards.
func WithLogger(logger *slog.Logger) DefaultsOption {
	return func(d *Defaults) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		d.logger = logger
	}
}

// WithFormatLogger records custom formatter creation and evaluation.
func WithFormatLogger(logger FormatLogger) DefaultsOption {
	return func(d *Defaults) {
		if logger == nil {
			logger = noopFormatLogger{}
		}
		d.formatLogger = logger
	}
}

// WithActivityHooks emits scope publication, directive planning and import
// failure events to hooks.
func WithActivityHooks(hooks activity.Hooks, cfg activity.Config) DefaultsOption {
	return func(d *Defaults) {
		d.emitter = activity.NewEmitter(hooks, cfg)
	}
}

// WithCustomDateFormatsAlwaysEnabled controls whether "@name" date/time
// specifiers are accepted unconditionally. When false they are accepted only
// if some scope of the chain registers a custom format. Default true.
func WithCustomDateFormatsAlwaysEnabled(enabled bool) DefaultsOption {
	return func(d *Defaults) {
		d.customDateFormatsAlwaysEnabled = enabled
	}
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

// normalizeAutoImports drops later duplicates of an alias by replacing the
// earlier entry's template in place.
func normalizeAutoImports(imports []AutoImport) []AutoImport {
	out := make([]AutoImport, 0, len(imports))
	index := make(map[string]int, len(imports))
	for _, imp := range imports {
		if i, ok := index[imp.Alias]; ok {
			out[i].Template = imp.Template
			continue
		}
		index[imp.Alias] = len(out)
		out = append(out, imp)
	}
	return out
}
