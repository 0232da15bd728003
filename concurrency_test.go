package settings

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
)

func TestSharedChainConcurrentReads(t *testing.T) {
	cache := NewMemoryProgramCache()
	root := NewDefaults(
		WithCustomAttributes(map[string]any{"team": "core"}),
		WithCustomNumberFormats(map[string]format.Factory{"eur": NewExprFormatFactory(ExprWithProgramCache(cache))}),
	)
	tenant := mustBuild(t, root.Extend("tenant").
		SetLocale(language.German).
		SetLazyImports(true).
		AddAutoImport("lib", "lib.ftl").
		SetAutoIncludes("header.ftl"))
	request := mustBuild(t, tenant.Extend("request").SetCustomAttribute("request_id", "r-1"))

	loader := newStubLoader("lib.ftl", "header.ftl")
	env, err := Execute(context.Background(), request, loader, io.Discard)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	lib, _ := env.Namespace("lib")

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- readChain(request, lib, float64(i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent read: %v", err)
		}
	}

	if cache.Len() != 1 {
		t.Fatalf("expected one compiled program shared by all workers, got %d", cache.Len())
	}
	loads := 0
	for _, name := range loader.loads {
		if name == "lib.ftl" {
			loads++
		}
	}
	if loads != 1 {
		t.Fatalf("expected the lazy namespace to load once, got %d", loads)
	}
}

func readChain(scope *Scope, lib *Namespace, n float64) error {
	value, src, err := scope.Resolve(SettingLocale)
	if err != nil || value != language.German || src.ScopeName != "tenant" {
		return fmt.Errorf("resolve locale: %v %v %v", value, src, err)
	}
	if v, ok := scope.CustomAttribute("team"); !ok || v != "core" {
		return fmt.Errorf("inherited attribute: %v %v", v, ok)
	}
	if v, ok := scope.CustomAttribute("request_id"); !ok || v != "r-1" {
		return fmt.Errorf("local attribute: %v %v", v, ok)
	}
	plan := PlanDirectives(scope)
	if imports := plan.Imports(); len(imports) != 1 || !imports[0].Lazy {
		return fmt.Errorf("plan: %+v", plan)
	}
	bound, err := scope.BindFormat(format.KindNumber, `@eur string(value) + " " + locale`)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	out, err := bound.Formatter.Format(n)
	if want := fmt.Sprintf("%v de", n); err != nil || out != want {
		return fmt.Errorf("format: got %q %v, want %q", out, err, want)
	}
	if v, ok, err := lib.Get(context.Background(), "name"); err != nil || !ok || v != "lib.ftl" {
		return fmt.Errorf("namespace: %v %v %v", v, ok, err)
	}
	return nil
}
