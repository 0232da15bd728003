package format

import "time"

// Accuracy controls the smallest unit a structured format prints.
type Accuracy int

const (
	// AccuracyDefault prints up to milliseconds with trailing zeros trimmed.
	AccuracyDefault Accuracy = iota
	AccuracyHours
	AccuracyMinutes
	AccuracySeconds
	AccuracyMillis
)

func (a Accuracy) token() string {
	switch a {
	case AccuracyHours:
		return "h"
	case AccuracyMinutes:
		return "m"
	case AccuracySeconds:
		return "s"
	case AccuracyMillis:
		return "ms"
	default:
		return ""
	}
}

// ZoneVisibility controls whether the zone offset is printed.
type ZoneVisibility int

const (
	ZoneVisibilityDefault ZoneVisibility = iota
	ZoneVisibilityForce
	ZoneVisibilityNever
)

func (v ZoneVisibility) token() string {
	switch v {
	case ZoneVisibilityForce:
		return "fz"
	case ZoneVisibilityNever:
		return "nz"
	default:
		return ""
	}
}

// ZoneSource controls which zone values are rendered in.
type ZoneSource int

const (
	ZoneSourceDefault ZoneSource = iota
	// ZoneSourceUTC uses UTC except for zoneless date-only/time-only values.
	ZoneSourceUTC
	// ZoneSourceForceUTC uses UTC for every value.
	ZoneSourceForceUTC
)

func (s ZoneSource) token() string {
	switch s {
	case ZoneSourceUTC:
		return "u"
	case ZoneSourceForceUTC:
		return "fu"
	default:
		return ""
	}
}

// DateTimeOptions holds the options of a Structured format. Each field is one
// mutually exclusive category; the zero value means "absent".
type DateTimeOptions struct {
	Accuracy       Accuracy
	ZoneVisibility ZoneVisibility
	ZoneSource     ZoneSource
}

func (o DateTimeOptions) tokens() []string {
	var out []string
	for _, tok := range []string{o.Accuracy.token(), o.ZoneVisibility.token(), o.ZoneSource.token()} {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ForParsing returns the options that apply when a string is parsed back into
// a value. Only the zone source survives; accuracy and zone visibility affect
// formatting alone.
func (o DateTimeOptions) ForParsing() DateTimeOptions {
	return DateTimeOptions{ZoneSource: o.ZoneSource}
}

// ValueType describes the temporal value being formatted.
type ValueType int

const (
	ValueDateTime ValueType = iota
	ValueDate
	ValueTime
)

// ShowsZone reports whether the zone offset is printed for a value. zoneless
// marks date-only or time-only values that have no time zone concept (SQL
// DATE and TIME columns). ISO 8601 never prints an offset on a date.
func (o DateTimeOptions) ShowsZone(std Standard, value ValueType, zoneless bool) bool {
	if std == StandardISO && value == ValueDate {
		return false
	}
	switch o.ZoneVisibility {
	case ZoneVisibilityForce:
		return true
	case ZoneVisibilityNever:
		return false
	default:
		return !zoneless
	}
}

// FormatZone picks the zone a value is rendered in. zone is the configured
// output zone; sqlZone is the dedicated zone for zoneless values, nil when
// unset.
func (o DateTimeOptions) FormatZone(zoneless bool, zone, sqlZone *time.Location) *time.Location {
	switch o.ZoneSource {
	case ZoneSourceForceUTC:
		return time.UTC
	case ZoneSourceUTC:
		if zoneless {
			return configuredZone(zoneless, zone, sqlZone)
		}
		return time.UTC
	default:
		return configuredZone(zoneless, zone, sqlZone)
	}
}

// ParseZone picks the zone assumed when an input string has no explicit
// offset. It follows the same zone source rules as FormatZone.
func (o DateTimeOptions) ParseZone(zoneless bool, zone, sqlZone *time.Location) *time.Location {
	return o.ForParsing().FormatZone(zoneless, zone, sqlZone)
}

func configuredZone(zoneless bool, zone, sqlZone *time.Location) *time.Location {
	if zoneless && sqlZone != nil {
		return sqlZone
	}
	if zone == nil {
		return time.Local
	}
	return zone
}

type optionCategory int

const (
	categoryAccuracy optionCategory = iota
	categoryZoneVisibility
	categoryZoneSource
)

func (c optionCategory) String() string {
	switch c {
	case categoryAccuracy:
		return "accuracy"
	case categoryZoneVisibility:
		return "time zone visibility"
	default:
		return "time zone"
	}
}

func classifyToken(tok string) (optionCategory, func(*DateTimeOptions), bool) {
	switch tok {
	case "h":
		return categoryAccuracy, func(o *DateTimeOptions) { o.Accuracy = AccuracyHours }, true
	case "m":
		return categoryAccuracy, func(o *DateTimeOptions) { o.Accuracy = AccuracyMinutes }, true
	case "s":
		return categoryAccuracy, func(o *DateTimeOptions) { o.Accuracy = AccuracySeconds }, true
	case "ms":
		return categoryAccuracy, func(o *DateTimeOptions) { o.Accuracy = AccuracyMillis }, true
	case "fz":
		return categoryZoneVisibility, func(o *DateTimeOptions) { o.ZoneVisibility = ZoneVisibilityForce }, true
	case "nz":
		return categoryZoneVisibility, func(o *DateTimeOptions) { o.ZoneVisibility = ZoneVisibilityNever }, true
	case "u":
		return categoryZoneSource, func(o *DateTimeOptions) { o.ZoneSource = ZoneSourceUTC }, true
	case "fu":
		return categoryZoneSource, func(o *DateTimeOptions) { o.ZoneSource = ZoneSourceForceUTC }, true
	default:
		return 0, nil, false
	}
}

func parseDateTimeOptions(kind Kind, spec string, std Standard, rest string) (DateTimeOptions, error) {
	var opts DateTimeOptions
	seen := map[optionCategory]string{}
	for _, tok := range splitOptionTokens(rest) {
		category, apply, ok := classifyToken(tok)
		if !ok {
			return DateTimeOptions{}, syntaxError(kind, spec, tok, "unknown option")
		}
		if std == StandardXS && (tok == "h" || tok == "m") {
			return DateTimeOptions{}, syntaxError(kind, spec, tok, `accuracy option not allowed for "xs"`)
		}
		if previous, dup := seen[category]; dup {
			return DateTimeOptions{}, &OptionConflictError{
				Spec:     spec,
				Category: category.String(),
				First:    previous,
				Second:   tok,
			}
		}
		seen[category] = tok
		apply(&opts)
	}
	return opts, nil
}

func splitOptionTokens(rest string) []string {
	var tokens []string
	start := -1
	for i := 0; i <= len(rest); i++ {
		if i == len(rest) || rest[i] == ' ' || rest[i] == '_' {
			if start >= 0 {
				tokens = append(tokens, rest[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return tokens
}
