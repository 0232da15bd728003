package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
	"github.com/goliatone/go-settings/pkg/activity"
)

// Source identifies the scope that supplied a resolved value.
type Source struct {
	ScopeID   string `json:"scope_id"`
	ScopeName string `json:"scope_name"`
	Default   bool   `json:"default,omitempty"`
}

func (s Source) String() string {
	if s.Default {
		return DefaultsScopeName
	}
	return s.ScopeName
}

// chain is a resolution path: zero or more scopes ending at a Defaults root.
// A nil leaf means the chain is the root alone.
type chain struct {
	leaf *Scope
	root *Defaults
}

// scopes returns the non-root scopes leaf first.
func (c chain) scopes() []*Scope {
	var out []*Scope
	for s := c.leaf; s != nil; s = s.parent {
		out = append(out, s)
	}
	return out
}

// Parent is a scope that can be inherited from: a *Defaults or a *Scope.
type Parent interface {
	ProcessingConfiguration
	ID() string
	Name() string
	link() chain
}

// Scope is one published, immutable level of a settings chain. Build scopes
// with NewBuilder; a Scope is safe for concurrent reads.
type Scope struct {
	view

	id     string
	name   string
	parent *Scope
	root   *Defaults
	values values
}

func (s *Scope) source() Source {
	return Source{ScopeID: s.id, ScopeName: s.name}
}

func (s *Scope) link() chain {
	if s == nil {
		return chain{}
	}
	return chain{leaf: s, root: s.root}
}

// ID returns the identifier assigned when the scope was built.
func (s *Scope) ID() string { return s.id }

// Name returns the scope name given to NewBuilder.
func (s *Scope) Name() string { return s.name }

// Parent returns the scope this one inherits from.
func (s *Scope) Parent() Parent {
	if s.parent != nil {
		return s.parent
	}
	return s.root
}

// Defaults returns the root of the chain.
func (s *Scope) Defaults() *Defaults { return s.root }

// Builder stages the local values of a new Scope. Setters copy aggregates, so
// later changes to the caller's maps and slices do not leak into the scope.
// A Builder is not safe for concurrent use.
type Builder struct {
	name   string
	parent Parent
	values values
	errs   []error
}

// NewBuilder starts a scope named name that inherits from parent.
func NewBuilder(name string, parent Parent) *Builder {
	return &Builder{name: name, parent: parent}
}

// Extend starts a child scope of s.
func (s *Scope) Extend(name string) *Builder { return NewBuilder(name, s) }

// Extend starts a child scope of d.
func (d *Defaults) Extend(name string) *Builder { return NewBuilder(name, d) }

func setLocal[T any](b *Builder, f field[T], v T) *Builder {
	*f.local(&b.values) = Set(f.copyOf(v))
	return b
}

func (b *Builder) SetLocale(tag language.Tag) *Builder { return setLocal(b, localeField, tag) }

// SetTimeZone sets the output zone. nil is stored as time.Local.
func (b *Builder) SetTimeZone(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return setLocal(b, timeZoneField, loc)
}

// SetSQLDateAndTimeTimeZone sets the zone for date-only and time-only values.
// nil is a set value meaning "use the time zone".
func (b *Builder) SetSQLDateAndTimeTimeZone(loc *time.Location) *Builder {
	return setLocal(b, sqlDateAndTimeTimeZoneField, loc)
}

func (b *Builder) SetNumberFormat(spec string) *Builder {
	return setLocal(b, numberFormatField, spec)
}

func (b *Builder) SetBooleanFormat(spec string) *Builder {
	return setLocal(b, booleanFormatField, spec)
}

func (b *Builder) SetTimeFormat(spec string) *Builder { return setLocal(b, timeFormatField, spec) }

func (b *Builder) SetDateFormat(spec string) *Builder { return setLocal(b, dateFormatField, spec) }

func (b *Builder) SetDateTimeFormat(spec string) *Builder {
	return setLocal(b, dateTimeFormatField, spec)
}

// SetCustomNumberFormats replaces this scope's number format registry. It
// shadows nothing: names missing here are still looked up in ancestors.
func (b *Builder) SetCustomNumberFormats(factories map[string]format.Factory) *Builder {
	return setLocal(b, customNumberFormatsField, nonNilMap(factories))
}

// SetCustomDateFormats replaces this scope's date format registry.
func (b *Builder) SetCustomDateFormats(factories map[string]format.Factory) *Builder {
	return setLocal(b, customDateFormatsField, nonNilMap(factories))
}

// AddCustomNumberFormat registers one factory in this scope's registry.
func (b *Builder) AddCustomNumberFormat(name string, factory format.Factory) *Builder {
	return addEntry(b, customNumberFormatsField, name, factory)
}

// AddCustomDateFormat registers one factory in this scope's registry.
func (b *Builder) AddCustomDateFormat(name string, factory format.Factory) *Builder {
	return addEntry(b, customDateFormatsField, name, factory)
}

func (b *Builder) SetTemplateExceptionHandler(h ExceptionHandler) *Builder {
	return setLocal(b, exceptionHandlerField, h)
}

func (b *Builder) SetArithmeticEngine(e ArithmeticEngine) *Builder {
	return setLocal(b, arithmeticEngineField, e)
}

func (b *Builder) SetObjectWrapper(w ObjectWrapper) *Builder {
	return setLocal(b, objectWrapperField, w)
}

func (b *Builder) SetOutputEncoding(cs Charset) *Builder {
	return setLocal(b, outputEncodingField, cs)
}

func (b *Builder) SetURLEscapingCharset(cs Charset) *Builder {
	return setLocal(b, urlEscapingCharsetField, cs)
}

func (b *Builder) SetNewBuiltinClassResolver(r ClassResolver) *Builder {
	return setLocal(b, newBuiltinClassResolverField, r)
}

func (b *Builder) SetAPIBuiltinEnabled(enabled bool) *Builder {
	return setLocal(b, apiBuiltinEnabledField, enabled)
}

func (b *Builder) SetAutoFlush(enabled bool) *Builder {
	return setLocal(b, autoFlushField, enabled)
}

func (b *Builder) SetShowErrorTips(enabled bool) *Builder {
	return setLocal(b, showErrorTipsField, enabled)
}

func (b *Builder) SetLogTemplateExceptions(enabled bool) *Builder {
	return setLocal(b, logTemplateExceptionsField, enabled)
}

func (b *Builder) SetLazyImports(enabled bool) *Builder {
	return setLocal(b, lazyImportsField, enabled)
}

// SetLazyAutoImports sets the override. nil is a set value that defers to
// lazy_imports.
func (b *Builder) SetLazyAutoImports(enabled *bool) *Builder {
	return setLocal(b, lazyAutoImportsField, enabled)
}

// SetAutoImports replaces this scope's auto-imports. A repeated alias keeps
// its first position and takes the last template.
func (b *Builder) SetAutoImports(imports ...AutoImport) *Builder {
	return setLocal(b, autoImportsField, normalizeAutoImports(imports))
}

// AddAutoImport appends alias to this scope's auto-imports, or replaces its
// template in place when the alias is already present locally.
func (b *Builder) AddAutoImport(alias, template string) *Builder {
	current, _ := b.values.autoImports.Get()
	next := append(cloneSlice(current), AutoImport{Alias: alias, Template: template})
	return setLocal(b, autoImportsField, normalizeAutoImports(next))
}

// SetAutoIncludes replaces this scope's auto-includes.
func (b *Builder) SetAutoIncludes(templates ...string) *Builder {
	if templates == nil {
		templates = []string{}
	}
	return setLocal(b, autoIncludesField, templates)
}

// AddAutoInclude appends template to this scope's auto-includes.
func (b *Builder) AddAutoInclude(template string) *Builder {
	current, _ := b.values.autoIncludes.Get()
	return setLocal(b, autoIncludesField, append(cloneSlice(current), template))
}

// SetCustomAttributes replaces this scope's attribute map.
func (b *Builder) SetCustomAttributes(attrs map[string]any) *Builder {
	return setLocal(b, customAttributesField, nonNilMap(attrs))
}

// SetCustomAttribute stores one attribute in this scope's map.
func (b *Builder) SetCustomAttribute(key string, value any) *Builder {
	return addEntry(b, customAttributesField, key, value)
}

// RemoveCustomAttribute deletes key from this scope's map, if set. Ancestors
// are unaffected, so the key may still resolve through the chain.
func (b *Builder) RemoveCustomAttribute(key string) *Builder {
	current, ok := b.values.customAttributes.Get()
	if !ok {
		return b
	}
	next := cloneMap(current)
	delete(next, key)
	b.values.customAttributes = Set(next)
	return b
}

func addEntry[V any](b *Builder, f field[map[string]V], key string, value V) *Builder {
	current, _ := f.local(&b.values).Get()
	next := cloneMap(current)
	if next == nil {
		next = map[string]V{}
	}
	next[key] = value
	*f.local(&b.values) = Set(next)
	return b
}

// Unset returns setting s to the inherited state.
func (b *Builder) Unset(s Setting) *Builder {
	f, ok := lookupField(s)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownSetting, s))
		return b
	}
	f.unset(&b.values)
	return b
}

// Build publishes the staged values as an immutable Scope.
func (b *Builder) Build() (*Scope, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a context for activity hooks.
func (b *Builder) BuildContext(ctx context.Context) (*Scope, error) {
	if b.parent == nil {
		return nil, ErrParentRequired
	}
	link := b.parent.link()
	if link.root == nil {
		return nil, ErrParentRequired
	}
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	if err := b.validateFactories(); err != nil {
		return nil, err
	}

	s := &Scope{
		id:     uuid.NewString(),
		name:   b.name,
		parent: link.leaf,
		root:   link.root,
		values: b.values,
	}
	for _, f := range fieldsBySetting {
		f.freeze(&s.values)
	}
	s.view = view{c: s.link()}

	s.warnHazardousNames()
	s.root.emit(ctx, activity.BuildScopePublishedEvent(activity.ScopeEventInput{
		ScopeID:    s.id,
		ScopeName:  s.name,
		ParentID:   s.Parent().ID(),
		LocalCount: s.localCount(),
	}))
	return s, nil
}

func (b *Builder) validateFactories() error {
	check := func(setting Setting, factories map[string]format.Factory) error {
		for name, factory := range factories {
			if factory == nil {
				return &SettingError{Setting: setting.String(), Value: name, Err: ErrNilFactory}
			}
		}
		return nil
	}
	if m, ok := b.values.customNumberFormats.Get(); ok {
		if err := check(SettingCustomNumberFormats, m); err != nil {
			return err
		}
	}
	if m, ok := b.values.customDateFormats.Get(); ok {
		if err := check(SettingCustomDateFormats, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scope) warnHazardousNames() {
	if m, ok := s.values.customNumberFormats.Get(); ok {
		warnHazardousNames(s.root.logger, s.name, SettingCustomNumberFormats, m)
	}
	if m, ok := s.values.customDateFormats.Get(); ok {
		warnHazardousNames(s.root.logger, s.name, SettingCustomDateFormats, m)
	}
}

// warnHazardousNames logs custom format names that "@name" specifiers cannot
// reference.
func warnHazardousNames(logger *slog.Logger, scope string, setting Setting, factories map[string]format.Factory) {
	names := make([]string, 0, len(factories))
	for name := range factories {
		if !format.IsValidCustomFormatName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		logger.Warn("settings: custom format name is not referable from a format specifier",
			"scope", scope, "setting", setting.String(), "name", name)
	}
}

func (s *Scope) localCount() int {
	n := 0
	for _, f := range fieldsBySetting {
		if f.isSetIn(&s.values) {
			n++
		}
	}
	return n
}
