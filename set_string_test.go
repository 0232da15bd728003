package settings

import (
	"errors"
	"slices"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestSetStringConversions(t *testing.T) {
	b := NewDefaults().Extend("props")
	assignments := [][2]string{
		{"locale", "pt_BR"},
		{"timeZone", "UTC"},
		{"sql_date_and_time_time_zone", "null"},
		{"template_exception_handler", "html-debug"},
		{"arithmetic_engine", "conservative"},
		{"object_wrapper", "default"},
		{"output_encoding", "latin1"},
		{"new_builtin_class_resolver", "allows_nothing"},
		{"auto_flush", "n"},
		{"lazy_auto_imports", "yes"},
		{"auto_imports", `"lib/a.ftl" as a, 'lib/b.ftl' AS b`},
		{"auto_includes", `"header.ftl", "footer.ftl"`},
		{"number_format", " 0.## "},
	}
	for _, kv := range assignments {
		if err := b.SetString(kv[0], kv[1]); err != nil {
			t.Fatalf("set %s=%q: %v", kv[0], kv[1], err)
		}
	}
	scope := mustBuild(t, b)

	if scope.Locale() != language.MustParse("pt-BR") {
		t.Fatalf("unexpected locale %s", scope.Locale())
	}
	if scope.TimeZone() != time.UTC {
		t.Fatalf("unexpected zone %s", scope.TimeZone())
	}
	if !scope.IsSQLDateAndTimeTimeZoneSet() || scope.SQLDateAndTimeTimeZone() != nil {
		t.Fatalf("expected explicit nil SQL zone")
	}
	if scope.TemplateExceptionHandler() != HTMLDebugHandler || scope.ArithmeticEngine() != ConservativeArithmetic {
		t.Fatalf("unexpected collaborators")
	}
	if scope.NewBuiltinClassResolver() != AllowsNothingResolver {
		t.Fatalf("unexpected class resolver")
	}
	if scope.OutputEncoding().String() != "windows-1252" {
		t.Fatalf("expected latin1 to map to windows-1252, got %s", scope.OutputEncoding())
	}
	if scope.AutoFlush() {
		t.Fatalf("expected auto_flush=false")
	}
	if lazy := scope.LazyAutoImports(); lazy == nil || !*lazy {
		t.Fatalf("expected lazy_auto_imports=true")
	}
	want := []AutoImport{{Alias: "a", Template: "lib/a.ftl"}, {Alias: "b", Template: "lib/b.ftl"}}
	if got := scope.AutoImports(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := scope.AutoIncludes(); !slices.Equal(got, []string{"header.ftl", "footer.ftl"}) {
		t.Fatalf("unexpected includes %v", got)
	}
	if scope.NumberFormat() != " 0.## " {
		t.Fatalf("format specifiers are stored verbatim, got %q", scope.NumberFormat())
	}
}

func TestSetStringErrors(t *testing.T) {
	tests := []struct {
		name, value string
		want        error
	}{
		{name: "no_such_setting", value: "x", want: ErrUnknownSetting},
		{name: "custom_attributes", value: "x", want: ErrNotStringSettable},
		{name: "custom_number_formats", value: "x", want: ErrNotStringSettable},
		{name: "auto_flush", value: "maybe"},
		{name: "locale", value: "not a locale!"},
		{name: "time_zone", value: "Nowhere/Special"},
		{name: "arithmetic_engine", value: "abacus"},
		{name: "output_encoding", value: "klingon"},
		{name: "auto_imports", value: `"a.ftl" a`},
		{name: "auto_imports", value: `"a.ftl" as`},
		{name: "auto_includes", value: `"a.ftl",`},
		{name: "auto_includes", value: `"a.ftl`},
		{name: "auto_includes", value: `a.ftl`},
	}
	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			err := NewDefaults().Extend("x").SetString(tt.name, tt.value)
			var settingErr *SettingError
			if !errors.As(err, &settingErr) {
				t.Fatalf("expected SettingError, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSetStringEmptyLists(t *testing.T) {
	b := NewDefaults(WithAutoIncludes("a.ftl")).Extend("x")
	if err := b.SetString("auto_includes", "  "); err != nil {
		t.Fatalf("set: %v", err)
	}
	scope := mustBuild(t, b)
	if !scope.IsAutoIncludesSet() || len(scope.AutoIncludes()) != 0 {
		t.Fatalf("expected empty local include list")
	}
}
