// Package format parses format specifier strings (the values of the
// number_format, boolean_format, time_format, date_format and datetime_format
// settings) into validated descriptors.
//
// Parsing is pure: it never consults a settings chain. Resolving a
// CustomReference to a factory and rendering values are the caller's job.
package format

import (
	"strings"
)

// Kind identifies which setting a specifier belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumber
	KindBoolean
	KindTime
	KindDate
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name into a Kind. Returns KindUnknown for
// unrecognised values.
func ParseKind(value string) Kind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "number":
		return KindNumber
	case "boolean", "bool":
		return KindBoolean
	case "time":
		return KindTime
	case "date":
		return KindDate
	case "datetime", "date_time", "datetimes":
		return KindDateTime
	default:
		return KindUnknown
	}
}

// IsTemporal reports whether the kind is one of the date/time kinds.
func (k Kind) IsTemporal() bool {
	return k == KindTime || k == KindDate || k == KindDateTime
}

// Descriptor is the parsed form of a format specifier. The concrete types are
// Builtin, LocalePattern, Structured, CustomReference and BooleanPair.
type Descriptor interface {
	// Target returns the kind of setting the descriptor was parsed for.
	Target() Kind
	// String returns the canonical specifier. Parsing it again with the same
	// kind yields an equal descriptor.
	String() string

	descriptor()
}

// Length is a locale-dependent date or time length.
type Length int

const (
	LengthNone Length = iota
	LengthShort
	LengthMedium
	LengthLong
	LengthFull
)

func (l Length) String() string {
	switch l {
	case LengthShort:
		return "short"
	case LengthMedium:
		return "medium"
	case LengthLong:
		return "long"
	case LengthFull:
		return "full"
	default:
		return ""
	}
}

func parseLength(word string) Length {
	switch word {
	case "short":
		return LengthShort
	case "medium":
		return LengthMedium
	case "long":
		return LengthLong
	case "full":
		return LengthFull
	default:
		return LengthNone
	}
}

// Reserved built-in number format names.
const (
	NumberBuiltin   = "number"
	CurrencyBuiltin = "currency"
	PercentBuiltin  = "percent"
	ComputerBuiltin = "computer"
	// BooleanComputer is the boolean specifier selecting "true"/"false"
	// computer-language output.
	BooleanComputer = "c"
)

// Builtin names a locale built-in format. Number formats use Name; date-only
// formats use DateLength, time-only formats TimeLength, and date-time formats
// both lengths.
type Builtin struct {
	Kind       Kind
	Name       string
	DateLength Length
	TimeLength Length
}

func (b Builtin) Target() Kind { return b.Kind }

func (b Builtin) String() string {
	switch b.Kind {
	case KindDate:
		return b.DateLength.String()
	case KindTime:
		return b.TimeLength.String()
	case KindDateTime:
		return b.DateLength.String() + "_" + b.TimeLength.String()
	default:
		return b.Name
	}
}

func (Builtin) descriptor() {}

// LocalePattern is a raw platform pattern. Number patterns may carry extended
// options written after ";;".
type LocalePattern struct {
	Kind    Kind
	Pattern string
	Options NumberOptions
}

func (p LocalePattern) Target() Kind { return p.Kind }

func (p LocalePattern) String() string {
	if p.Kind != KindNumber || p.Options.IsZero() {
		return p.Pattern
	}
	return p.Pattern + ";; " + p.Options.String()
}

func (LocalePattern) descriptor() {}

// Standard identifies a structured date/time format family.
type Standard int

const (
	StandardNone Standard = iota
	StandardXS
	StandardISO
)

func (s Standard) String() string {
	switch s {
	case StandardXS:
		return "xs"
	case StandardISO:
		return "iso"
	default:
		return ""
	}
}

// Structured is an "xs" (XML Schema) or "iso" (ISO 8601) format with options.
type Structured struct {
	Kind     Kind
	Standard Standard
	Options  DateTimeOptions
}

func (s Structured) Target() Kind { return s.Kind }

func (s Structured) String() string {
	tokens := s.Options.tokens()
	if len(tokens) == 0 {
		return s.Standard.String()
	}
	return s.Standard.String() + " " + strings.Join(tokens, " ")
}

func (Structured) descriptor() {}

// CustomReference refers to a custom format factory registered by Name.
// Params is handed to the factory unexamined.
type CustomReference struct {
	Kind   Kind
	Name   string
	Params string
}

func (c CustomReference) Target() Kind { return c.Kind }

func (c CustomReference) String() string {
	if c.Params == "" {
		return "@" + c.Name
	}
	return "@" + c.Name + " " + c.Params
}

func (CustomReference) descriptor() {}

// BooleanPair holds the texts printed for true and false.
type BooleanPair struct {
	True  string
	False string
}

func (BooleanPair) Target() Kind { return KindBoolean }

func (b BooleanPair) String() string { return b.True + "," + b.False }

func (BooleanPair) descriptor() {}
