package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RoundingMode selects how a decimal pattern rounds.
type RoundingMode string

const (
	RoundingUp          RoundingMode = "up"
	RoundingDown        RoundingMode = "down"
	RoundingCeiling     RoundingMode = "ceiling"
	RoundingFloor       RoundingMode = "floor"
	RoundingHalfDown    RoundingMode = "halfDown"
	RoundingHalfEven    RoundingMode = "halfEven"
	RoundingHalfUp      RoundingMode = "halfUp"
	RoundingUnnecessary RoundingMode = "unnecessary"
)

var roundingModes = map[string]RoundingMode{
	string(RoundingUp):          RoundingUp,
	string(RoundingDown):        RoundingDown,
	string(RoundingCeiling):     RoundingCeiling,
	string(RoundingFloor):       RoundingFloor,
	string(RoundingHalfDown):    RoundingHalfDown,
	string(RoundingHalfEven):    RoundingHalfEven,
	string(RoundingHalfUp):      RoundingHalfUp,
	string(RoundingUnnecessary): RoundingUnnecessary,
}

// NumberOptions is the side table of an extended decimal pattern, written as
// space separated key=value pairs after ";;". Unset fields are zero.
type NumberOptions struct {
	RoundingMode             RoundingMode
	Multiplier               int
	DecimalSeparator         rune
	MonetaryDecimalSeparator rune
	GroupingSeparator        rune
	ExponentSeparator        string
	MinusSign                rune
	Infinity                 string
	NaN                      string
	Percent                  rune
	PerMill                  rune
	ZeroDigit                rune
	CurrencyCode             string
	CurrencySymbol           string
}

// IsZero reports whether no option is set.
func (o NumberOptions) IsZero() bool {
	return o == NumberOptions{}
}

// String renders the options in canonical key order.
func (o NumberOptions) String() string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, key+"="+quoteOption(value))
	}
	addRune := func(key string, r rune) {
		if r != 0 {
			add(key, string(r))
		}
	}
	if o.RoundingMode != "" {
		add("roundingMode", string(o.RoundingMode))
	}
	if o.Multiplier != 0 {
		add("multiplier", strconv.Itoa(o.Multiplier))
	}
	addRune("decimalSeparator", o.DecimalSeparator)
	addRune("monetaryDecimalSeparator", o.MonetaryDecimalSeparator)
	addRune("groupingSeparator", o.GroupingSeparator)
	if o.ExponentSeparator != "" {
		add("exponentSeparator", o.ExponentSeparator)
	}
	addRune("minusSign", o.MinusSign)
	if o.Infinity != "" {
		add("infinity", o.Infinity)
	}
	if o.NaN != "" {
		add("nan", o.NaN)
	}
	addRune("percent", o.Percent)
	addRune("perMill", o.PerMill)
	addRune("zeroDigit", o.ZeroDigit)
	if o.CurrencyCode != "" {
		add("currencyCode", o.CurrencyCode)
	}
	if o.CurrencySymbol != "" {
		add("currencySymbol", o.CurrencySymbol)
	}
	return strings.Join(parts, " ")
}

// quoteOption renders value so splitOptionPairs reads it back unchanged.
// Values are quoted only when empty, when they hold whitespace, or when they
// start with a quote. A parsed value never needs both quote characters, so
// the other quote is always free to delimit it.
func quoteOption(value string) string {
	if value != "" && value[0] != '\'' && value[0] != '"' && !strings.ContainsFunc(value, isSpaceRune) {
		return value
	}
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	return `"` + value + `"`
}

func parseNumberOptions(spec, raw string) (NumberOptions, error) {
	var opts NumberOptions
	pairs, err := splitOptionPairs(spec, raw)
	if err != nil {
		return NumberOptions{}, err
	}
	seen := make(map[string]struct{}, len(pairs))
	for _, pair := range pairs {
		key := pair[0]
		value := pair[1]
		if key == "multipier" {
			// Misspelling accepted by older configurations.
			key = "multiplier"
		}
		if _, dup := seen[key]; dup {
			return NumberOptions{}, syntaxError(KindNumber, spec, key, "option specified more than once")
		}
		seen[key] = struct{}{}

		single := func() (rune, error) {
			if utf8.RuneCountInString(value) != 1 {
				return 0, syntaxError(KindNumber, spec, key, "value must be exactly one character")
			}
			r, _ := utf8.DecodeRuneInString(value)
			return r, nil
		}

		switch key {
		case "roundingMode":
			mode, ok := roundingModes[value]
			if !ok {
				return NumberOptions{}, syntaxError(KindNumber, spec, value, "unknown rounding mode")
			}
			opts.RoundingMode = mode
		case "multiplier":
			n, convErr := strconv.Atoi(value)
			if convErr != nil || n == 0 {
				return NumberOptions{}, syntaxError(KindNumber, spec, value, "multiplier must be a non-zero integer")
			}
			opts.Multiplier = n
		case "decimalSeparator":
			if opts.DecimalSeparator, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "monetaryDecimalSeparator":
			if opts.MonetaryDecimalSeparator, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "groupingSeparator":
			if opts.GroupingSeparator, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "exponentSeparator":
			opts.ExponentSeparator = value
		case "minusSign":
			if opts.MinusSign, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "infinity":
			opts.Infinity = value
		case "nan":
			opts.NaN = value
		case "percent":
			if opts.Percent, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "perMill":
			if opts.PerMill, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "zeroDigit":
			if opts.ZeroDigit, err = single(); err != nil {
				return NumberOptions{}, err
			}
		case "currencyCode":
			if len(value) != 3 || strings.ToUpper(value) != value {
				return NumberOptions{}, syntaxError(KindNumber, spec, value, "currency code must be three upper case letters")
			}
			opts.CurrencyCode = value
		case "currencySymbol":
			opts.CurrencySymbol = value
		default:
			return NumberOptions{}, syntaxError(KindNumber, spec, key, "unsupported option")
		}
	}
	return opts, nil
}

// splitOptionPairs tokenizes `key=value key2='quoted value'`.
func splitOptionPairs(spec, raw string) ([][2]string, error) {
	var pairs [][2]string
	i := 0
	for i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) {
			break
		}
		start := i
		for i < len(raw) && raw[i] != '=' && !isSpace(raw[i]) {
			i++
		}
		key := raw[start:i]
		if i >= len(raw) || raw[i] != '=' {
			return nil, syntaxError(KindNumber, spec, key, `expected "=" after option name`)
		}
		if key == "" {
			return nil, syntaxError(KindNumber, spec, "=", "missing option name")
		}
		i++
		var value string
		if i < len(raw) && (raw[i] == '\'' || raw[i] == '"') {
			quote := raw[i]
			end := strings.IndexByte(raw[i+1:], quote)
			if end < 0 {
				return nil, syntaxError(KindNumber, spec, raw[i:], "unterminated quoted value")
			}
			value = raw[i+1 : i+1+end]
			i += end + 2
			if i < len(raw) && !isSpace(raw[i]) {
				return nil, syntaxError(KindNumber, spec, string(raw[i]), "expected space after quoted value")
			}
		} else {
			vstart := i
			for i < len(raw) && !isSpace(raw[i]) {
				i++
			}
			value = raw[vstart:i]
			if value == "" {
				return nil, syntaxError(KindNumber, spec, key, "missing option value")
			}
		}
		pairs = append(pairs, [2]string{key, value})
	}
	if len(pairs) == 0 {
		return nil, syntaxError(KindNumber, spec, ";;", "no options after \";;\"")
	}
	return pairs, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isSpaceRune(r rune) bool {
	return r < utf8.RuneSelf && isSpace(byte(r))
}

// validateDecimalPattern performs the structural checks that do not need a
// locale: at least one digit placeholder and at most one ';' separating the
// positive and negative sub-patterns, with quoted literals skipped.
func validateDecimalPattern(spec, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return syntaxError(KindNumber, spec, "", "empty decimal pattern")
	}
	inQuote := false
	digits := 0
	semicolons := 0
	for _, r := range pattern {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case inQuote:
		case r == '0' || r == '#':
			digits++
		case r == ';':
			semicolons++
		}
	}
	if inQuote {
		return syntaxError(KindNumber, spec, "'", "unterminated quote in decimal pattern")
	}
	if semicolons > 1 {
		return syntaxError(KindNumber, spec, ";", "too many sub-patterns")
	}
	if digits == 0 {
		return syntaxError(KindNumber, spec, pattern, fmt.Sprintf("decimal pattern needs a %q or %q placeholder", "0", "#"))
	}
	return nil
}

// splitExtendedPattern finds the first ";;" outside quotes.
func splitExtendedPattern(spec string) (pattern, options string, extended bool) {
	inQuote := false
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote && i+1 < len(spec) && spec[i+1] == ';' {
				return spec[:i], spec[i+2:], true
			}
		}
	}
	return spec, "", false
}
