package settings

import (
	"time"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
)

// AutoImport is one alias → template entry of the auto_imports setting.
type AutoImport struct {
	Alias    string `json:"alias" yaml:"alias"`
	Template string `json:"template" yaml:"template"`
}

// values holds the locally set slots of a Scope.
type values struct {
	locale                  Value[language.Tag]
	timeZone                Value[*time.Location]
	sqlDateAndTimeTimeZone  Value[*time.Location]
	numberFormat            Value[string]
	customNumberFormats     Value[map[string]format.Factory]
	booleanFormat           Value[string]
	timeFormat              Value[string]
	dateFormat              Value[string]
	dateTimeFormat          Value[string]
	customDateFormats       Value[map[string]format.Factory]
	exceptionHandler        Value[ExceptionHandler]
	arithmeticEngine        Value[ArithmeticEngine]
	objectWrapper           Value[ObjectWrapper]
	outputEncoding          Value[Charset]
	urlEscapingCharset      Value[Charset]
	newBuiltinClassResolver Value[ClassResolver]
	apiBuiltinEnabled       Value[bool]
	autoFlush               Value[bool]
	showErrorTips           Value[bool]
	logTemplateExceptions   Value[bool]
	lazyImports             Value[bool]
	lazyAutoImports         Value[*bool]
	autoImports             Value[[]AutoImport]
	autoIncludes            Value[[]string]
	customAttributes        Value[map[string]any]
}

// rootValues holds the values of Defaults. There is no unset state here, so
// resolution always terminates with a value.
type rootValues struct {
	locale                  language.Tag
	timeZone                *time.Location
	sqlDateAndTimeTimeZone  *time.Location
	numberFormat            string
	customNumberFormats     map[string]format.Factory
	booleanFormat           string
	timeFormat              string
	dateFormat              string
	dateTimeFormat          string
	customDateFormats       map[string]format.Factory
	exceptionHandler        ExceptionHandler
	arithmeticEngine        ArithmeticEngine
	objectWrapper           ObjectWrapper
	outputEncoding          Charset
	urlEscapingCharset      Charset
	newBuiltinClassResolver ClassResolver
	apiBuiltinEnabled       bool
	autoFlush               bool
	showErrorTips           bool
	logTemplateExceptions   bool
	lazyImports             bool
	lazyAutoImports         *bool
	autoImports             []AutoImport
	autoIncludes            []string
	customAttributes        map[string]any
}

// field binds a Setting to its slot in values and rootValues.
type field[T any] struct {
	id    Setting
	local func(*values) *Value[T]
	root  func(*rootValues) *T
	clone func(T) T
}

func (f field[T]) copyOf(v T) T {
	if f.clone == nil {
		return v
	}
	return f.clone(v)
}

// resolve walks the chain from its leaf and returns the first set value.
func (f field[T]) resolve(c chain) (T, Source) {
	for s := c.leaf; s != nil; s = s.parent {
		if v, ok := f.local(&s.values).Get(); ok {
			return v, s.source()
		}
	}
	return *f.root(&c.root.values), c.root.source()
}

// anyField is the type-erased view used by Resolve and the string setters.
type anyField interface {
	setting() Setting
	resolveAny(c chain) (any, Source)
	localAny(v *values) (any, bool)
	rootAny(r *rootValues) any
	isSetIn(v *values) bool
	unset(v *values)
	freeze(v *values)
}

func (f field[T]) setting() Setting { return f.id }

func (f field[T]) resolveAny(c chain) (any, Source) {
	v, src := f.resolve(c)
	return f.copyOf(v), src
}

func (f field[T]) localAny(v *values) (any, bool) {
	value, ok := f.local(v).Get()
	if !ok {
		return nil, false
	}
	return f.copyOf(value), true
}

func (f field[T]) rootAny(r *rootValues) any { return f.copyOf(*f.root(r)) }

func (f field[T]) isSetIn(v *values) bool { return f.local(v).IsSet() }

func (f field[T]) unset(v *values) { *f.local(v) = Unset[T]() }

// freeze replaces a set aggregate with a private copy.
func (f field[T]) freeze(v *values) {
	slot := f.local(v)
	if value, ok := slot.Get(); ok {
		*slot = Set(f.copyOf(value))
	}
}

var (
	localeField = field[language.Tag]{
		id:    SettingLocale,
		local: func(v *values) *Value[language.Tag] { return &v.locale },
		root:  func(r *rootValues) *language.Tag { return &r.locale },
	}
	timeZoneField = field[*time.Location]{
		id:    SettingTimeZone,
		local: func(v *values) *Value[*time.Location] { return &v.timeZone },
		root:  func(r *rootValues) **time.Location { return &r.timeZone },
	}
	sqlDateAndTimeTimeZoneField = field[*time.Location]{
		id:    SettingSQLDateAndTimeTimeZone,
		local: func(v *values) *Value[*time.Location] { return &v.sqlDateAndTimeTimeZone },
		root:  func(r *rootValues) **time.Location { return &r.sqlDateAndTimeTimeZone },
	}
	numberFormatField = field[string]{
		id:    SettingNumberFormat,
		local: func(v *values) *Value[string] { return &v.numberFormat },
		root:  func(r *rootValues) *string { return &r.numberFormat },
	}
	customNumberFormatsField = field[map[string]format.Factory]{
		id:    SettingCustomNumberFormats,
		local: func(v *values) *Value[map[string]format.Factory] { return &v.customNumberFormats },
		root:  func(r *rootValues) *map[string]format.Factory { return &r.customNumberFormats },
		clone: cloneMap[format.Factory],
	}
	booleanFormatField = field[string]{
		id:    SettingBooleanFormat,
		local: func(v *values) *Value[string] { return &v.booleanFormat },
		root:  func(r *rootValues) *string { return &r.booleanFormat },
	}
	timeFormatField = field[string]{
		id:    SettingTimeFormat,
		local: func(v *values) *Value[string] { return &v.timeFormat },
		root:  func(r *rootValues) *string { return &r.timeFormat },
	}
	dateFormatField = field[string]{
		id:    SettingDateFormat,
		local: func(v *values) *Value[string] { return &v.dateFormat },
		root:  func(r *rootValues) *string { return &r.dateFormat },
	}
	dateTimeFormatField = field[string]{
		id:    SettingDateTimeFormat,
		local: func(v *values) *Value[string] { return &v.dateTimeFormat },
		root:  func(r *rootValues) *string { return &r.dateTimeFormat },
	}
	customDateFormatsField = field[map[string]format.Factory]{
		id:    SettingCustomDateFormats,
		local: func(v *values) *Value[map[string]format.Factory] { return &v.customDateFormats },
		root:  func(r *rootValues) *map[string]format.Factory { return &r.customDateFormats },
		clone: cloneMap[format.Factory],
	}
	exceptionHandlerField = field[ExceptionHandler]{
		id:    SettingTemplateExceptionHandler,
		local: func(v *values) *Value[ExceptionHandler] { return &v.exceptionHandler },
		root:  func(r *rootValues) *ExceptionHandler { return &r.exceptionHandler },
	}
	arithmeticEngineField = field[ArithmeticEngine]{
		id:    SettingArithmeticEngine,
		local: func(v *values) *Value[ArithmeticEngine] { return &v.arithmeticEngine },
		root:  func(r *rootValues) *ArithmeticEngine { return &r.arithmeticEngine },
	}
	objectWrapperField = field[ObjectWrapper]{
		id:    SettingObjectWrapper,
		local: func(v *values) *Value[ObjectWrapper] { return &v.objectWrapper },
		root:  func(r *rootValues) *ObjectWrapper { return &r.objectWrapper },
	}
	outputEncodingField = field[Charset]{
		id:    SettingOutputEncoding,
		local: func(v *values) *Value[Charset] { return &v.outputEncoding },
		root:  func(r *rootValues) *Charset { return &r.outputEncoding },
	}
	urlEscapingCharsetField = field[Charset]{
		id:    SettingURLEscapingCharset,
		local: func(v *values) *Value[Charset] { return &v.urlEscapingCharset },
		root:  func(r *rootValues) *Charset { return &r.urlEscapingCharset },
	}
	newBuiltinClassResolverField = field[ClassResolver]{
		id:    SettingNewBuiltinClassResolver,
		local: func(v *values) *Value[ClassResolver] { return &v.newBuiltinClassResolver },
		root:  func(r *rootValues) *ClassResolver { return &r.newBuiltinClassResolver },
	}
	apiBuiltinEnabledField = field[bool]{
		id:    SettingAPIBuiltinEnabled,
		local: func(v *values) *Value[bool] { return &v.apiBuiltinEnabled },
		root:  func(r *rootValues) *bool { return &r.apiBuiltinEnabled },
	}
	autoFlushField = field[bool]{
		id:    SettingAutoFlush,
		local: func(v *values) *Value[bool] { return &v.autoFlush },
		root:  func(r *rootValues) *bool { return &r.autoFlush },
	}
	showErrorTipsField = field[bool]{
		id:    SettingShowErrorTips,
		local: func(v *values) *Value[bool] { return &v.showErrorTips },
		root:  func(r *rootValues) *bool { return &r.showErrorTips },
	}
	logTemplateExceptionsField = field[bool]{
		id:    SettingLogTemplateExceptions,
		local: func(v *values) *Value[bool] { return &v.logTemplateExceptions },
		root:  func(r *rootValues) *bool { return &r.logTemplateExceptions },
	}
	lazyImportsField = field[bool]{
		id:    SettingLazyImports,
		local: func(v *values) *Value[bool] { return &v.lazyImports },
		root:  func(r *rootValues) *bool { return &r.lazyImports },
	}
	lazyAutoImportsField = field[*bool]{
		id:    SettingLazyAutoImports,
		local: func(v *values) *Value[*bool] { return &v.lazyAutoImports },
		root:  func(r *rootValues) **bool { return &r.lazyAutoImports },
		clone: cloneBoolPtr,
	}
	autoImportsField = field[[]AutoImport]{
		id:    SettingAutoImports,
		local: func(v *values) *Value[[]AutoImport] { return &v.autoImports },
		root:  func(r *rootValues) *[]AutoImport { return &r.autoImports },
		clone: cloneSlice[AutoImport],
	}
	autoIncludesField = field[[]string]{
		id:    SettingAutoIncludes,
		local: func(v *values) *Value[[]string] { return &v.autoIncludes },
		root:  func(r *rootValues) *[]string { return &r.autoIncludes },
		clone: cloneSlice[string],
	}
	customAttributesField = field[map[string]any]{
		id:    SettingCustomAttributes,
		local: func(v *values) *Value[map[string]any] { return &v.customAttributes },
		root:  func(r *rootValues) *map[string]any { return &r.customAttributes },
		clone: cloneMap[any],
	}
)

var fieldsBySetting = map[Setting]anyField{}

func init() {
	for _, f := range []anyField{
		localeField,
		timeZoneField,
		sqlDateAndTimeTimeZoneField,
		numberFormatField,
		customNumberFormatsField,
		booleanFormatField,
		timeFormatField,
		dateFormatField,
		dateTimeFormatField,
		customDateFormatsField,
		exceptionHandlerField,
		arithmeticEngineField,
		objectWrapperField,
		outputEncodingField,
		urlEscapingCharsetField,
		newBuiltinClassResolverField,
		apiBuiltinEnabledField,
		autoFlushField,
		showErrorTipsField,
		logTemplateExceptionsField,
		lazyImportsField,
		lazyAutoImportsField,
		autoImportsField,
		autoIncludesField,
		customAttributesField,
	} {
		fieldsBySetting[f.setting()] = f
	}
}

func lookupField(s Setting) (anyField, bool) {
	f, ok := fieldsBySetting[s]
	return f, ok
}

func cloneMap[V any](origin map[string]V) map[string]V {
	if origin == nil {
		return nil
	}
	out := make(map[string]V, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}

func cloneSlice[V any](origin []V) []V {
	if origin == nil {
		return nil
	}
	return append([]V(nil), origin...)
}

func cloneBoolPtr(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}
