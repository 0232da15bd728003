package settings

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
)

// BoundFormat is a validated format specifier together with the environment
// it renders in. Formatter is set only for custom references; the other
// descriptor variants are rendered by the caller's format capability.
type BoundFormat struct {
	Kind       format.Kind
	Spec       string
	Descriptor format.Descriptor
	Locale     language.Tag
	TimeZone   *time.Location
	Formatter  format.Formatter
}

// IsCustom reports whether the format is backed by a custom factory.
func (b BoundFormat) IsCustom() bool { return b.Formatter != nil }

// BindFormat parses spec for kind and resolves any "@name" reference through
// the chain. Parse and lookup errors are returned as is: a *format.SyntaxError,
// a *format.OptionConflictError or a *CustomFormatNotFoundError.
func (v view) BindFormat(kind format.Kind, spec string) (BoundFormat, error) {
	enabled := kind == format.KindNumber || v.c.customDateFormatsEnabled()
	desc, err := format.Parse(kind, spec, format.WithCustomFormats(enabled))
	if err != nil {
		return BoundFormat{}, err
	}
	bound := BoundFormat{
		Kind:       kind,
		Spec:       spec,
		Descriptor: desc,
		Locale:     v.Locale(),
		TimeZone:   v.zoneFor(kind),
	}
	ref, ok := desc.(format.CustomReference)
	if !ok {
		return bound, nil
	}

	var factory format.Factory
	if kind.IsTemporal() {
		factory = v.CustomDateFormat(ref.Name)
	} else {
		factory = v.CustomNumberFormat(ref.Name)
	}
	if factory == nil {
		return BoundFormat{}, &CustomFormatNotFoundError{Name: ref.Name, Kind: kind}
	}

	start := time.Now()
	formatter, err := factory.NewFormatter(ref.Params, format.Env{
		Kind:     kind,
		Locale:   bound.Locale,
		TimeZone: bound.TimeZone,
	})
	v.c.root.formatLogger.LogFormat(FormatLogEvent{
		Engine:   engineName(factory),
		Name:     ref.Name,
		Params:   ref.Params,
		Kind:     kind,
		Scope:    v.scopeName(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return BoundFormat{}, fmt.Errorf("settings: custom format %q: %w", ref.Name, err)
	}
	if formatter == nil {
		return BoundFormat{}, fmt.Errorf("settings: custom format %q returned no formatter", ref.Name)
	}
	bound.Formatter = formatter
	return bound, nil
}

// EffectiveFormat binds the resolved format setting for kind.
func (v view) EffectiveFormat(kind format.Kind) (BoundFormat, error) {
	var spec string
	switch kind {
	case format.KindNumber:
		spec = v.NumberFormat()
	case format.KindBoolean:
		spec = v.BooleanFormat()
	case format.KindTime:
		spec = v.TimeFormat()
	case format.KindDate:
		spec = v.DateFormat()
	case format.KindDateTime:
		spec = v.DateTimeFormat()
	default:
		return BoundFormat{}, fmt.Errorf("settings: no format setting for kind %s", kind)
	}
	return v.BindFormat(kind, spec)
}

// zoneFor picks the zone values of kind are formatted in. Date-only and
// time-only values use sql_date_and_time_time_zone when it is set to a zone.
func (v view) zoneFor(kind format.Kind) *time.Location {
	if kind == format.KindDate || kind == format.KindTime {
		if sql := v.SQLDateAndTimeTimeZone(); sql != nil {
			return sql
		}
	}
	return v.TimeZone()
}

func (v view) scopeName() string {
	if v.c.leaf != nil {
		return v.c.leaf.name
	}
	return DefaultsScopeName
}

// engineName reports the expression engine behind a factory, if any.
func engineName(factory format.Factory) string {
	if named, ok := factory.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return fmt.Sprintf("%T", factory)
}
