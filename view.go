package settings

import (
	"time"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
)

// ProcessingConfiguration is the read contract shared by Defaults and every
// Scope. Getters return the effective value after inheritance; IsXSet methods
// report only whether the receiver itself holds the setting. Getters for maps
// and slices return copies.
type ProcessingConfiguration interface {
	Locale() language.Tag
	IsLocaleSet() bool
	TimeZone() *time.Location
	IsTimeZoneSet() bool
	SQLDateAndTimeTimeZone() *time.Location
	IsSQLDateAndTimeTimeZoneSet() bool

	NumberFormat() string
	IsNumberFormatSet() bool
	CustomNumberFormats() map[string]format.Factory
	IsCustomNumberFormatsSet() bool
	CustomNumberFormat(name string) format.Factory
	BooleanFormat() string
	IsBooleanFormatSet() bool
	TimeFormat() string
	IsTimeFormatSet() bool
	DateFormat() string
	IsDateFormatSet() bool
	DateTimeFormat() string
	IsDateTimeFormatSet() bool
	CustomDateFormats() map[string]format.Factory
	IsCustomDateFormatsSet() bool
	CustomDateFormat(name string) format.Factory

	TemplateExceptionHandler() ExceptionHandler
	IsTemplateExceptionHandlerSet() bool
	ArithmeticEngine() ArithmeticEngine
	IsArithmeticEngineSet() bool
	ObjectWrapper() ObjectWrapper
	IsObjectWrapperSet() bool
	OutputEncoding() Charset
	IsOutputEncodingSet() bool
	URLEscapingCharset() Charset
	IsURLEscapingCharsetSet() bool
	NewBuiltinClassResolver() ClassResolver
	IsNewBuiltinClassResolverSet() bool

	APIBuiltinEnabled() bool
	IsAPIBuiltinEnabledSet() bool
	AutoFlush() bool
	IsAutoFlushSet() bool
	ShowErrorTips() bool
	IsShowErrorTipsSet() bool
	LogTemplateExceptions() bool
	IsLogTemplateExceptionsSet() bool
	LazyImports() bool
	IsLazyImportsSet() bool
	LazyAutoImports() *bool
	IsLazyAutoImportsSet() bool
	AutoImports() []AutoImport
	IsAutoImportsSet() bool
	AutoIncludes() []string
	IsAutoIncludesSet() bool

	CustomAttributes() map[string]any
	IsCustomAttributesSet() bool
	CustomAttribute(key string) (any, bool)
	EffectiveCustomAttributes() map[string]any

	Resolve(s Setting) (any, Source, error)
	ResolveWithTrace(s Setting) (any, Trace, error)
	IsSet(s Setting) bool

	BindFormat(kind format.Kind, spec string) (BoundFormat, error)
	EffectiveFormat(kind format.Kind) (BoundFormat, error)
}

// view implements ProcessingConfiguration over a chain. Defaults and Scope
// embed it.
type view struct {
	c chain
}

func get[T any](v view, f field[T]) T {
	value, _ := f.resolve(v.c)
	return f.copyOf(value)
}

// isLocal is true on Defaults, which holds every setting.
func isLocal[T any](v view, f field[T]) bool {
	if v.c.leaf == nil {
		return true
	}
	return f.local(&v.c.leaf.values).IsSet()
}

func (v view) Locale() language.Tag { return get(v, localeField) }
func (v view) IsLocaleSet() bool { return isLocal(v, localeField) }
func (v view) TimeZone() *time.Location { return get(v, timeZoneField) }
func (v view) IsTimeZoneSet() bool { return isLocal(v, timeZoneField) }

func (v view) SQLDateAndTimeTimeZone() *time.Location {
	return get(v, sqlDateAndTimeTimeZoneField)
}

func (v view) IsSQLDateAndTimeTimeZoneSet() bool {
	return isLocal(v, sqlDateAndTimeTimeZoneField)
}

func (v view) NumberFormat() string { return get(v, numberFormatField) }
func (v view) IsNumberFormatSet() bool { return isLocal(v, numberFormatField) }

// CustomNumberFormats returns the nearest registry as a whole. It does not
// merge ancestor registries; use CustomNumberFormat for per-name lookup.
func (v view) CustomNumberFormats() map[string]format.Factory {
	return get(v, customNumberFormatsField)
}

func (v view) IsCustomNumberFormatsSet() bool { return isLocal(v, customNumberFormatsField) }
func (v view) BooleanFormat() string { return get(v, booleanFormatField) }
func (v view) IsBooleanFormatSet() bool { return isLocal(v, booleanFormatField) }
func (v view) TimeFormat() string { return get(v, timeFormatField) }
func (v view) IsTimeFormatSet() bool { return isLocal(v, timeFormatField) }
func (v view) DateFormat() string { return get(v, dateFormatField) }
func (v view) IsDateFormatSet() bool { return isLocal(v, dateFormatField) }
func (v view) DateTimeFormat() string { return get(v, dateTimeFormatField) }
func (v view) IsDateTimeFormatSet() bool { return isLocal(v, dateTimeFormatField) }

func (v view) CustomDateFormats() map[string]format.Factory {
	return get(v, customDateFormatsField)
}

func (v view) IsCustomDateFormatsSet() bool { return isLocal(v, customDateFormatsField) }

func (v view) TemplateExceptionHandler() ExceptionHandler { return get(v, exceptionHandlerField) }
func (v view) IsTemplateExceptionHandlerSet() bool { return isLocal(v, exceptionHandlerField) }
func (v view) ArithmeticEngine() ArithmeticEngine { return get(v, arithmeticEngineField) }
func (v view) IsArithmeticEngineSet() bool { return isLocal(v, arithmeticEngineField) }
func (v view) ObjectWrapper() ObjectWrapper { return get(v, objectWrapperField) }
func (v view) IsObjectWrapperSet() bool { return isLocal(v, objectWrapperField) }
func (v view) OutputEncoding() Charset { return get(v, outputEncodingField) }
func (v view) IsOutputEncodingSet() bool { return isLocal(v, outputEncodingField) }
func (v view) URLEscapingCharset() Charset { return get(v, urlEscapingCharsetField) }
func (v view) IsURLEscapingCharsetSet() bool { return isLocal(v, urlEscapingCharsetField) }

func (v view) NewBuiltinClassResolver() ClassResolver {
	return get(v, newBuiltinClassResolverField)
}

func (v view) IsNewBuiltinClassResolverSet() bool {
	return isLocal(v, newBuiltinClassResolverField)
}

func (v view) APIBuiltinEnabled() bool { return get(v, apiBuiltinEnabledField) }
func (v view) IsAPIBuiltinEnabledSet() bool { return isLocal(v, apiBuiltinEnabledField) }
func (v view) AutoFlush() bool { return get(v, autoFlushField) }
func (v view) IsAutoFlushSet() bool { return isLocal(v, autoFlushField) }
func (v view) ShowErrorTips() bool { return get(v, showErrorTipsField) }
func (v view) IsShowErrorTipsSet() bool { return isLocal(v, showErrorTipsField) }
func (v view) LogTemplateExceptions() bool { return get(v, logTemplateExceptionsField) }
func (v view) IsLogTemplateExceptionsSet() bool { return isLocal(v, logTemplateExceptionsField) }
func (v view) LazyImports() bool { return get(v, lazyImportsField) }
func (v view) IsLazyImportsSet() bool { return isLocal(v, lazyImportsField) }
func (v view) LazyAutoImports() *bool { return get(v, lazyAutoImportsField) }
func (v view) IsLazyAutoImportsSet() bool { return isLocal(v, lazyAutoImportsField) }

// AutoImports returns the nearest scope's auto-imports only. PlanDirectives
// combines the whole chain.
func (v view) AutoImports() []AutoImport { return get(v, autoImportsField) }
func (v view) IsAutoImportsSet() bool { return isLocal(v, autoImportsField) }

// AutoIncludes returns the nearest scope's auto-includes only.
func (v view) AutoIncludes() []string { return get(v, autoIncludesField) }
func (v view) IsAutoIncludesSet() bool { return isLocal(v, autoIncludesField) }

// CustomAttributes returns the nearest attribute map as a whole.
func (v view) CustomAttributes() map[string]any { return get(v, customAttributesField) }
func (v view) IsCustomAttributesSet() bool { return isLocal(v, customAttributesField) }
