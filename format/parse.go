package format

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	customDateFormats bool
}

// WithCustomFormats toggles whether "@name" date/time specifiers are accepted.
// Number specifiers always accept them. The default is true.
func WithCustomFormats(enabled bool) ParseOption {
	return func(cfg *parseConfig) {
		cfg.customDateFormats = enabled
	}
}

// Parse converts spec into a Descriptor for the given kind.
func Parse(kind Kind, spec string, opts ...ParseOption) (Descriptor, error) {
	cfg := parseConfig{customDateFormats: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	switch kind {
	case KindNumber:
		return parseNumber(spec)
	case KindBoolean:
		return parseBoolean(spec)
	case KindTime, KindDate, KindDateTime:
		return parseTemporal(kind, spec, cfg)
	default:
		return nil, syntaxError(kind, spec, "", "unknown format kind")
	}
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(kind Kind, spec string, opts ...ParseOption) Descriptor {
	d, err := Parse(kind, spec, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func parseNumber(spec string) (Descriptor, error) {
	switch spec {
	case NumberBuiltin, CurrencyBuiltin, PercentBuiltin, ComputerBuiltin:
		return Builtin{Kind: KindNumber, Name: spec}, nil
	}
	if ref, ok, err := parseCustomReference(KindNumber, spec); ok || err != nil {
		return ref, err
	}
	pattern, rawOptions, extended := splitExtendedPattern(spec)
	if err := validateDecimalPattern(spec, pattern); err != nil {
		return nil, err
	}
	desc := LocalePattern{Kind: KindNumber, Pattern: pattern}
	if extended {
		options, err := parseNumberOptions(spec, rawOptions)
		if err != nil {
			return nil, err
		}
		desc.Options = options
		desc.Pattern = strings.TrimRight(pattern, " ")
	}
	return desc, nil
}

func parseBoolean(spec string) (Descriptor, error) {
	if spec == BooleanComputer {
		return Builtin{Kind: KindBoolean, Name: BooleanComputer}, nil
	}
	idx := strings.IndexByte(spec, ',')
	if idx < 0 {
		return nil, syntaxError(KindBoolean, spec, spec, `expected "trueText,falseText"`)
	}
	if strings.IndexByte(spec[idx+1:], ',') >= 0 {
		return nil, syntaxError(KindBoolean, spec, ",", "more than one comma")
	}
	return BooleanPair{True: spec[:idx], False: spec[idx+1:]}, nil
}

func parseTemporal(kind Kind, spec string, cfg parseConfig) (Descriptor, error) {
	if spec == "" {
		return defaultTemporal(kind), nil
	}
	if strings.HasPrefix(spec, "@") && startsWithLetter(spec[1:]) {
		if !cfg.customDateFormats {
			return nil, &SyntaxError{Kind: kind, Spec: spec, Token: spec, Reason: "custom formats are not enabled", Err: ErrCustomFormatsDisabled}
		}
		ref, _, err := parseCustomReference(kind, spec)
		return ref, err
	}
	for _, std := range []Standard{StandardXS, StandardISO} {
		name := std.String()
		if !strings.HasPrefix(spec, name) {
			continue
		}
		rest := spec[len(name):]
		if rest != "" && rest[0] != ' ' && rest[0] != '_' {
			return nil, syntaxError(kind, spec, spec, "expected a space or \"_\" after \""+name+"\"")
		}
		options, err := parseDateTimeOptions(kind, spec, std, rest)
		if err != nil {
			return nil, err
		}
		return Structured{Kind: kind, Standard: std, Options: options}, nil
	}
	if desc, ok, err := parseLengths(kind, spec); ok || err != nil {
		return desc, err
	}
	if err := validateDatePattern(kind, spec); err != nil {
		return nil, err
	}
	return LocalePattern{Kind: kind, Pattern: spec}, nil
}

func defaultTemporal(kind Kind) Descriptor {
	switch kind {
	case KindDate:
		return Builtin{Kind: kind, DateLength: LengthMedium}
	case KindTime:
		return Builtin{Kind: kind, TimeLength: LengthMedium}
	default:
		return Builtin{Kind: kind, DateLength: LengthMedium, TimeLength: LengthMedium}
	}
}

// parseLengths handles lengthWord["_"lengthWord]. ok is false when spec is not
// made of length words at all, so the caller falls through to patterns.
func parseLengths(kind Kind, spec string) (Descriptor, bool, error) {
	first, second, hasSecond := strings.Cut(spec, "_")
	firstLen := parseLength(first)
	if firstLen == LengthNone {
		return nil, false, nil
	}
	if !hasSecond {
		switch kind {
		case KindDate:
			return Builtin{Kind: kind, DateLength: firstLen}, true, nil
		case KindTime:
			return Builtin{Kind: kind, TimeLength: firstLen}, true, nil
		default:
			return Builtin{Kind: kind, DateLength: firstLen, TimeLength: firstLen}, true, nil
		}
	}
	secondLen := parseLength(second)
	if secondLen == LengthNone {
		return nil, false, nil
	}
	if kind != KindDateTime {
		return nil, true, syntaxError(kind, spec, second, "separate date and time lengths are only allowed for date-time formats")
	}
	return Builtin{Kind: kind, DateLength: firstLen, TimeLength: secondLen}, true, nil
}

const datePatternLetters = "GyYMLwWDdFEuaHkKhmsSzZX"

func validateDatePattern(kind Kind, spec string) error {
	inQuote := false
	for _, r := range spec {
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if r < utf8.RuneSelf && ((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) && !strings.ContainsRune(datePatternLetters, r) {
			return syntaxError(kind, spec, string(r), "illegal pattern letter")
		}
	}
	if inQuote {
		return syntaxError(kind, spec, "'", "unterminated quote in date pattern")
	}
	return nil
}

// parseCustomReference handles "@name" and "@name params". ok is false when
// spec is not a custom reference.
func parseCustomReference(kind Kind, spec string) (Descriptor, bool, error) {
	if !strings.HasPrefix(spec, "@") || !startsWithLetter(spec[1:]) {
		return nil, false, nil
	}
	body := spec[1:]
	end := strings.IndexFunc(body, unicode.IsSpace)
	if end < 0 {
		return CustomReference{Kind: kind, Name: body}, true, nil
	}
	name := body[:end]
	params := strings.TrimLeftFunc(body[end:], unicode.IsSpace)
	return CustomReference{Kind: kind, Name: name, Params: params}, true, nil
}

func startsWithLetter(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsLetter(r)
}

// IsValidCustomFormatName reports whether name is [Letter][Letter|Digit]*.
// Other names still resolve but are awkward or impossible to reference from
// templates.
func IsValidCustomFormatName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 {
			if !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
