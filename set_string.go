package settings

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
)

// SetString assigns a setting from its textual form, as found in properties
// files or command lines. name accepts snake_case or camelCase. Conversions:
//
//   - locale: a BCP 47 tag; "en_US" is accepted as "en-US"
//   - time_zone: an IANA zone name or "local"
//   - sql_date_and_time_time_zone: as time_zone, or "null" for none
//   - boolean settings: true/false, yes/no, y/n, t/f
//   - lazy_auto_imports: a boolean or "null"
//   - collaborators: one of the built-in names
//   - charsets: a WHATWG encoding label, empty for unknown
//   - auto_imports: "lib/a.ftl" as a, "lib/b.ftl" as b
//   - auto_includes: "a.ftl", "b.ftl"
//
// Custom format registries and custom attributes have no string form.
// Format specifiers are stored unvalidated; they are parsed when bound.
func (b *Builder) SetString(name, value string) error {
	s := ParseSetting(name)
	if s == SettingUnknown {
		return &SettingError{Setting: name, Value: value, Err: unknownSetting(name)}
	}
	if err := b.setString(s, value); err != nil {
		return &SettingError{Setting: s.String(), Value: value, Err: err}
	}
	return nil
}

func (b *Builder) setString(s Setting, raw string) error {
	value := strings.TrimSpace(raw)
	switch s {
	case SettingLocale:
		tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
		if err != nil {
			return err
		}
		b.SetLocale(tag)
	case SettingTimeZone:
		loc, err := parseZone(value)
		if err != nil {
			return err
		}
		b.SetTimeZone(loc)
	case SettingSQLDateAndTimeTimeZone:
		if isNull(value) {
			b.SetSQLDateAndTimeTimeZone(nil)
			return nil
		}
		loc, err := parseZone(value)
		if err != nil {
			return err
		}
		b.SetSQLDateAndTimeTimeZone(loc)
	case SettingNumberFormat:
		b.SetNumberFormat(raw)
	case SettingBooleanFormat:
		b.SetBooleanFormat(raw)
	case SettingTimeFormat:
		b.SetTimeFormat(raw)
	case SettingDateFormat:
		b.SetDateFormat(raw)
	case SettingDateTimeFormat:
		b.SetDateTimeFormat(raw)
	case SettingTemplateExceptionHandler:
		h, ok := exceptionHandlersByName[normalizeName(value)]
		if !ok {
			return fmt.Errorf("unknown exception handler (want one of %s)", strings.Join(sortedKeys(exceptionHandlersByName), ", "))
		}
		b.SetTemplateExceptionHandler(h)
	case SettingArithmeticEngine:
		e, ok := arithmeticEnginesByName[normalizeName(value)]
		if !ok {
			return fmt.Errorf("unknown arithmetic engine (want one of %s)", strings.Join(sortedKeys(arithmeticEnginesByName), ", "))
		}
		b.SetArithmeticEngine(e)
	case SettingObjectWrapper:
		if normalizeName(value) != "default" {
			return fmt.Errorf("unknown object wrapper (want default)")
		}
		b.SetObjectWrapper(DefaultObjectWrapper)
	case SettingOutputEncoding, SettingURLEscapingCharset:
		cs, err := ParseCharset(value)
		if err != nil {
			return err
		}
		if s == SettingOutputEncoding {
			b.SetOutputEncoding(cs)
		} else {
			b.SetURLEscapingCharset(cs)
		}
	case SettingNewBuiltinClassResolver:
		r, ok := classResolversByName[normalizeName(value)]
		if !ok {
			return fmt.Errorf("unknown class resolver (want one of %s)", strings.Join(sortedKeys(classResolversByName), ", "))
		}
		b.SetNewBuiltinClassResolver(r)
	case SettingAPIBuiltinEnabled, SettingAutoFlush, SettingShowErrorTips,
		SettingLogTemplateExceptions, SettingLazyImports:
		v, err := parseYesNo(value)
		if err != nil {
			return err
		}
		setBool(b, s, v)
	case SettingLazyAutoImports:
		if isNull(value) {
			b.SetLazyAutoImports(nil)
			return nil
		}
		v, err := parseYesNo(value)
		if err != nil {
			return err
		}
		b.SetLazyAutoImports(&v)
	case SettingAutoImports:
		imports, err := parseAutoImports(value)
		if err != nil {
			return err
		}
		b.SetAutoImports(imports...)
	case SettingAutoIncludes:
		includes, err := parseStringList(value)
		if err != nil {
			return err
		}
		b.SetAutoIncludes(includes...)
	default:
		return ErrNotStringSettable
	}
	return nil
}

func setBool(b *Builder, s Setting, v bool) {
	switch s {
	case SettingAPIBuiltinEnabled:
		b.SetAPIBuiltinEnabled(v)
	case SettingAutoFlush:
		b.SetAutoFlush(v)
	case SettingShowErrorTips:
		b.SetShowErrorTips(v)
	case SettingLogTemplateExceptions:
		b.SetLogTemplateExceptions(v)
	case SettingLazyImports:
		b.SetLazyImports(v)
	}
}

func parseZone(value string) (*time.Location, error) {
	switch strings.ToLower(value) {
	case "", "local", "default":
		return time.Local, nil
	case "utc", "gmt":
		return time.UTC, nil
	}
	return time.LoadLocation(value)
}

func isNull(value string) bool {
	return value == "" || strings.EqualFold(value, "null")
}

func normalizeName(value string) string {
	return strings.ReplaceAll(strings.ToLower(value), "-", "_")
}

func parseYesNo(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "t":
		return true, nil
	case "false", "no", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean")
}

// parseAutoImports reads `"template" as alias` entries separated by commas.
func parseAutoImports(value string) ([]AutoImport, error) {
	var out []AutoImport
	lx := listLexer{input: value}
	for !lx.done() {
		template, err := lx.quoted()
		if err != nil {
			return nil, err
		}
		if word := lx.word(); !strings.EqualFold(word, "as") {
			return nil, fmt.Errorf("expected \"as\" after %q at offset %d", template, lx.pos)
		}
		alias := lx.word()
		if alias == "" {
			return nil, fmt.Errorf("missing alias for %q", template)
		}
		out = append(out, AutoImport{Alias: alias, Template: template})
		if err := lx.separator(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseStringList reads quoted strings separated by commas.
func parseStringList(value string) ([]string, error) {
	out := []string{}
	lx := listLexer{input: value}
	for !lx.done() {
		item, err := lx.quoted()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
		if err := lx.separator(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type listLexer struct {
	input string
	pos   int
}

func (l *listLexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *listLexer) done() bool {
	l.skipSpace()
	return l.pos >= len(l.input)
}

func (l *listLexer) quoted() (string, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return "", fmt.Errorf("expected a quoted string at end of input")
	}
	quote := l.input[l.pos]
	if quote != '"' && quote != '\'' {
		return "", fmt.Errorf("expected a quoted string at offset %d", l.pos)
	}
	end := strings.IndexByte(l.input[l.pos+1:], quote)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at offset %d", l.pos)
	}
	s := l.input[l.pos+1 : l.pos+1+end]
	l.pos += end + 2
	return s, nil
}

func (l *listLexer) word() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.input) {
		c := rune(l.input[l.pos])
		if c == ',' || unicode.IsSpace(c) {
			break
		}
		l.pos++
	}
	return l.input[start:l.pos]
}

func (l *listLexer) separator() error {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return nil
	}
	if l.input[l.pos] != ',' {
		return fmt.Errorf("expected \",\" at offset %d", l.pos)
	}
	l.pos++
	if l.done() {
		return fmt.Errorf("trailing \",\"")
	}
	return nil
}
