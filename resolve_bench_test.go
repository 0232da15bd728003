package settings

import (
	"fmt"
	"testing"

	"github.com/goliatone/go-settings/format"
)

func benchmarkChain(b *testing.B, depth int) *Scope {
	b.Helper()
	root := NewDefaults()
	var parent Parent = root
	var leaf *Scope
	for i := 0; i < depth; i++ {
		name := fmt.Sprintf("scope_%d", i)
		builder := NewBuilder(name, parent).SetCustomAttribute(name, i)
		if i == 0 {
			builder.SetNumberFormat("0.00").AddCustomNumberFormat("price", NewExprFormatFactory())
		}
		scope, err := builder.Build()
		if err != nil {
			b.Fatalf("build: %v", err)
		}
		parent, leaf = scope, scope
	}
	return leaf
}

func BenchmarkResolveWithTrace(b *testing.B) {
	leaf := benchmarkChain(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := leaf.ResolveWithTrace(SettingNumberFormat); err != nil {
			b.Fatalf("resolve: %v", err)
		}
	}
}

func BenchmarkCustomNumberFormatLookup(b *testing.B) {
	leaf := benchmarkChain(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if leaf.CustomNumberFormat("price") == nil {
			b.Fatalf("expected price format")
		}
	}
}

func BenchmarkBindFormatCached(b *testing.B) {
	root := NewDefaults()
	cache := NewMemoryProgramCache()
	scope, err := root.Extend("shop").
		AddCustomNumberFormat("eur", NewExprFormatFactory(ExprWithProgramCache(cache))).
		Build()
	if err != nil {
		b.Fatalf("build: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := scope.BindFormat(format.KindNumber, `@eur string(value)`); err != nil {
			b.Fatalf("bind: %v", err)
		}
	}
}

func BenchmarkPlanDirectives(b *testing.B) {
	leaf := benchmarkChain(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PlanDirectives(leaf)
	}
}
