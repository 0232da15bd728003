package settings

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
	"github.com/goliatone/go-settings/pkg/activity"
)

func mustBuild(t *testing.T, b *Builder) *Scope {
	t.Helper()
	s, err := b.Build()
	if err != nil {
		t.Fatalf("build %s: %v", b.name, err)
	}
	return s
}

func TestDefaultsHoldEverySetting(t *testing.T) {
	root := NewDefaults()
	for _, s := range AllSettings() {
		if !root.IsSet(s) {
			t.Fatalf("expected defaults to hold %s", s)
		}
		if _, src, err := root.Resolve(s); err != nil || !src.Default {
			t.Fatalf("resolve %s: src=%+v err=%v", s, src, err)
		}
	}
	if root.Locale() != language.AmericanEnglish {
		t.Fatalf("expected en-US default locale, got %s", root.Locale())
	}
	if root.NumberFormat() != "number" || root.BooleanFormat() != "true,false" {
		t.Fatalf("unexpected default formats %q %q", root.NumberFormat(), root.BooleanFormat())
	}
	if root.SQLDateAndTimeTimeZone() != nil || root.LazyAutoImports() != nil {
		t.Fatalf("expected nil SQL zone and lazy_auto_imports by default")
	}
}

func TestUnsetSettingInheritsFromParent(t *testing.T) {
	root := NewDefaults(WithNumberFormat("0.00"))
	mid := mustBuild(t, root.Extend("tenant").SetLocale(language.German))
	leaf := mustBuild(t, mid.Extend("request").SetAutoFlush(false))

	for _, s := range AllSettings() {
		if leaf.IsSet(s) {
			continue
		}
		got, _, _ := leaf.Resolve(s)
		want, _, _ := mid.Resolve(s)
		if DescribeValue(got) != DescribeValue(want) {
			t.Fatalf("%s: leaf %v differs from parent %v", s, got, want)
		}
	}
	if leaf.Locale() != language.German {
		t.Fatalf("expected inherited locale de, got %s", leaf.Locale())
	}
	if _, src, _ := leaf.Resolve(SettingLocale); src.ScopeName != "tenant" || src.ScopeID != mid.ID() {
		t.Fatalf("expected locale sourced from tenant, got %+v", src)
	}
	if _, src, _ := leaf.Resolve(SettingNumberFormat); !src.Default {
		t.Fatalf("expected number format from defaults, got %+v", src)
	}
	if !leaf.IsAutoFlushSet() || leaf.AutoFlush() {
		t.Fatalf("expected local auto_flush=false")
	}
	if leaf.IsLocaleSet() {
		t.Fatalf("IsLocaleSet must not consult ancestors")
	}
}

func TestExplicitZeroValuesShadowParent(t *testing.T) {
	root := NewDefaults(WithSQLDateAndTimeTimeZone(time.UTC), WithAutoIncludes("header.ftl"))
	scope := mustBuild(t, root.Extend("child").
		SetSQLDateAndTimeTimeZone(nil).
		SetAutoIncludes().
		SetNumberFormat(""))

	if scope.SQLDateAndTimeTimeZone() != nil {
		t.Fatalf("explicit nil SQL zone must shadow UTC")
	}
	if got := scope.AutoIncludes(); len(got) != 0 {
		t.Fatalf("expected empty local includes, got %v", got)
	}
	if !scope.IsNumberFormatSet() || scope.NumberFormat() != "" {
		t.Fatalf("expected empty number format to be set locally")
	}
}

func TestBuilderUnsetRestoresInheritance(t *testing.T) {
	root := NewDefaults()
	scope := mustBuild(t, root.Extend("child").SetShowErrorTips(false).Unset(SettingShowErrorTips))
	if scope.IsShowErrorTipsSet() || scope.ShowErrorTips() != root.ShowErrorTips() {
		t.Fatalf("expected show_error_tips inherited after Unset")
	}
}

func TestScopesAreImmutableSnapshots(t *testing.T) {
	attrs := map[string]any{"team": "payments"}
	includes := []string{"a.ftl"}
	b := NewDefaults().Extend("child").SetCustomAttributes(attrs).SetAutoIncludes(includes...)
	scope := mustBuild(t, b)

	attrs["team"] = "changed"
	includes[0] = "changed.ftl"
	b.SetCustomAttribute("team", "after-build")

	if v, _ := scope.CustomAttribute("team"); v != "payments" {
		t.Fatalf("scope observed caller mutation: %v", v)
	}
	if got := scope.AutoIncludes(); got[0] != "a.ftl" {
		t.Fatalf("scope observed caller slice mutation: %v", got)
	}
	got := scope.CustomAttributes()
	got["team"] = "mutated"
	if v, _ := scope.CustomAttribute("team"); v != "payments" {
		t.Fatalf("getter leaked internal map")
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := NewBuilder("orphan", nil).Build(); !errors.Is(err, ErrParentRequired) {
		t.Fatalf("expected ErrParentRequired, got %v", err)
	}
	var missing *Scope
	if _, err := NewBuilder("orphan", missing).Build(); !errors.Is(err, ErrParentRequired) {
		t.Fatalf("expected ErrParentRequired for a nil *Scope parent, got %v", err)
	}
	var noRoot *Defaults
	if _, err := NewBuilder("orphan", noRoot).Build(); !errors.Is(err, ErrParentRequired) {
		t.Fatalf("expected ErrParentRequired for a nil *Defaults parent, got %v", err)
	}

	_, err := NewDefaults().Extend("bad").AddCustomNumberFormat("price", nil).Build()
	var settingErr *SettingError
	if !errors.As(err, &settingErr) || !errors.Is(err, ErrNilFactory) {
		t.Fatalf("expected nil factory SettingError, got %v", err)
	}
	if settingErr.Value != "price" {
		t.Fatalf("expected offending name, got %q", settingErr.Value)
	}

	if _, err := NewDefaults().Extend("bad").Unset(Setting(999)).Build(); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestScopeIdentity(t *testing.T) {
	root := NewDefaults()
	a := mustBuild(t, root.Extend("a"))
	b := mustBuild(t, a.Extend("b"))
	if a.ID() == "" || a.ID() == b.ID() || a.ID() == root.ID() {
		t.Fatalf("expected distinct ids: %s %s %s", root.ID(), a.ID(), b.ID())
	}
	if b.Parent().ID() != a.ID() || a.Parent().ID() != root.ID() {
		t.Fatalf("unexpected parent links")
	}
	if b.Defaults() != root {
		t.Fatalf("expected shared root")
	}
}

func TestBuildEmitsScopePublished(t *testing.T) {
	capture := &activity.CaptureHook{}
	root := NewDefaults(WithActivityHooks(activity.Hooks{capture}, activity.Config{
		Enabled:  true,
		Identity: activity.Identity{TenantID: "acme"},
	}))

	scope, err := root.Extend("tenant").SetLocale(language.French).SetAutoFlush(false).BuildContext(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != activity.VerbScopePublished || event.ObjectID != scope.ID() || event.Channel != "settings" || event.TenantID != "acme" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["local_settings"] != 2 || event.Metadata["parent_id"] != root.ID() {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestBuildSurvivesFailingHook(t *testing.T) {
	capture := &activity.CaptureHook{Err: errors.New("sink down")}
	root := NewDefaults(WithActivityHooks(activity.Hooks{capture}, activity.Config{Enabled: true}))
	if _, err := root.Extend("x").Build(); err != nil {
		t.Fatalf("hook failures must not fail Build: %v", err)
	}
}

func TestCustomFormatRegistriesDoNotMerge(t *testing.T) {
	upper := format.FactoryFunc(func(string, format.Env) (format.Formatter, error) { return nil, nil })
	lower := format.FactoryFunc(func(string, format.Env) (format.Formatter, error) { return nil, nil })

	root := NewDefaults()
	parent := mustBuild(t, root.Extend("parent").AddCustomNumberFormat("price", upper).AddCustomNumberFormat("qty", upper))
	child := mustBuild(t, parent.Extend("child").AddCustomNumberFormat("price", lower))

	if got := child.CustomNumberFormats(); len(got) != 1 {
		t.Fatalf("expected only the local registry, got %v", sortedKeys(got))
	}
	if child.CustomNumberFormat("qty") == nil {
		t.Fatalf("expected qty found through the parent")
	}
	if child.CustomNumberFormat("missing") != nil {
		t.Fatalf("expected nil for an unregistered name")
	}
}

func TestCustomAttributes(t *testing.T) {
	root := NewDefaults(WithCustomAttributes(map[string]any{"env": "prod", "team": "core"}))
	parent := mustBuild(t, root.Extend("tenant").SetCustomAttribute("team", "payments").SetCustomAttribute("region", "eu"))
	child := mustBuild(t, parent.Extend("request").SetCustomAttribute("region", nil))

	if v, ok := child.CustomAttribute("region"); !ok || v != nil {
		t.Fatalf("expected explicit nil region, got %v %v", v, ok)
	}
	if v, _ := child.CustomAttribute("team"); v != "payments" {
		t.Fatalf("expected team from tenant, got %v", v)
	}
	if _, ok := child.CustomAttribute("missing"); ok {
		t.Fatalf("expected missing attribute")
	}
	effective := child.EffectiveCustomAttributes()
	if effective["env"] != "prod" || effective["team"] != "payments" || effective["region"] != nil || len(effective) != 3 {
		t.Fatalf("unexpected effective attributes: %v", effective)
	}

	removed := mustBuild(t, parent.Extend("r").SetCustomAttributes(map[string]any{"a": 1}).RemoveCustomAttribute("a"))
	if _, ok := removed.CustomAttribute("a"); ok {
		t.Fatalf("expected attribute removed")
	}
}

func TestHazardousCustomFormatNamesAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	factory := format.FactoryFunc(func(string, format.Env) (format.Formatter, error) { return nil, nil })

	root := NewDefaults(
		WithLogger(logger),
		WithCustomNumberFormats(map[string]format.Factory{"root_fmt": factory, "rootfmt": factory}),
		WithCustomDateFormats(map[string]format.Factory{"9days": factory}),
	)
	mustBuild(t, root.Extend("shop").AddCustomNumberFormat("child_fmt", factory).AddCustomNumberFormat("ok2", factory))

	out := logs.String()
	for _, want := range []string{
		"name=root_fmt", "setting=custom_number_formats",
		"name=9days", "setting=custom_date_formats",
		"name=child_fmt", "scope=shop",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in warnings:\n%s", want, out)
		}
	}
	if strings.Contains(out, "name=rootfmt") || strings.Contains(out, "name=ok2") {
		t.Fatalf("valid names must not be reported:\n%s", out)
	}
	if got := strings.Count(out, "level=WARN"); got != 3 {
		t.Fatalf("expected 3 warnings, got %d:\n%s", got, out)
	}
}
