package settings

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Setting identifies one recognized processing setting.
type Setting int

const (
	SettingUnknown Setting = iota
	SettingLocale
	SettingTimeZone
	SettingSQLDateAndTimeTimeZone
	SettingNumberFormat
	SettingCustomNumberFormats
	SettingBooleanFormat
	SettingTimeFormat
	SettingDateFormat
	SettingDateTimeFormat
	SettingCustomDateFormats
	SettingTemplateExceptionHandler
	SettingArithmeticEngine
	SettingObjectWrapper
	SettingOutputEncoding
	SettingURLEscapingCharset
	SettingNewBuiltinClassResolver
	SettingAPIBuiltinEnabled
	SettingAutoFlush
	SettingShowErrorTips
	SettingLogTemplateExceptions
	SettingLazyImports
	SettingLazyAutoImports
	SettingAutoImports
	SettingAutoIncludes
	SettingCustomAttributes

	settingCount
)

var settingNames = [...]string{
	SettingUnknown:                  "unknown",
	SettingLocale:                   "locale",
	SettingTimeZone:                 "time_zone",
	SettingSQLDateAndTimeTimeZone:   "sql_date_and_time_time_zone",
	SettingNumberFormat:             "number_format",
	SettingCustomNumberFormats:      "custom_number_formats",
	SettingBooleanFormat:            "boolean_format",
	SettingTimeFormat:               "time_format",
	SettingDateFormat:               "date_format",
	SettingDateTimeFormat:           "datetime_format",
	SettingCustomDateFormats:        "custom_date_formats",
	SettingTemplateExceptionHandler: "template_exception_handler",
	SettingArithmeticEngine:         "arithmetic_engine",
	SettingObjectWrapper:            "object_wrapper",
	SettingOutputEncoding:           "output_encoding",
	SettingURLEscapingCharset:       "url_escaping_charset",
	SettingNewBuiltinClassResolver:  "new_builtin_class_resolver",
	SettingAPIBuiltinEnabled:        "api_builtin_enabled",
	SettingAutoFlush:                "auto_flush",
	SettingShowErrorTips:            "show_error_tips",
	SettingLogTemplateExceptions:    "log_template_exceptions",
	SettingLazyImports:              "lazy_imports",
	SettingLazyAutoImports:          "lazy_auto_imports",
	SettingAutoImports:              "auto_imports",
	SettingAutoIncludes:             "auto_includes",
	SettingCustomAttributes:         "custom_attributes",
}

func (s Setting) String() string {
	if s < 0 || s >= settingCount {
		return fmt.Sprintf("setting(%d)", int(s))
	}
	return settingNames[s]
}

// AllSettings lists every recognized setting in declaration order.
func AllSettings() []Setting {
	out := make([]Setting, 0, settingCount-1)
	for s := SettingLocale; s < settingCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseSetting accepts the snake_case name ("number_format") or its camelCase
// spelling ("numberFormat"). Returns SettingUnknown for anything else.
func ParseSetting(name string) Setting {
	key := normalizeSettingName(name)
	for s := SettingLocale; s < settingCount; s++ {
		if normalizeSettingName(settingNames[s]) == key {
			return s
		}
	}
	if key == "sqldatetimetimezone" {
		return SettingSQLDateAndTimeTimeZone
	}
	return SettingUnknown
}

func normalizeSettingName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "_", "")
	return strings.ToLower(name)
}

// SuggestSetting returns the recognized setting name closest to name, or ""
// when nothing is within a few edits.
func SuggestSetting(name string) string {
	key := normalizeSettingName(name)
	if key == "" {
		return ""
	}
	best, bestDistance := "", 4
	for s := SettingLocale; s < settingCount; s++ {
		d := levenshtein.ComputeDistance(key, normalizeSettingName(settingNames[s]))
		if d < bestDistance {
			best, bestDistance = settingNames[s], d
		}
	}
	return best
}

// unknownSetting wraps ErrUnknownSetting with a suggestion when one exists.
func unknownSetting(name string) error {
	if hint := SuggestSetting(name); hint != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownSetting, name, hint)
	}
	return fmt.Errorf("%w %q", ErrUnknownSetting, name)
}
