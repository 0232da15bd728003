package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/pkg/activity"
)

type stubTemplate struct {
	name    string
	exports map[string]any
	err     error
}

func (t *stubTemplate) Namespace(_ context.Context, locale language.Tag) (map[string]any, error) {
	if t.err != nil {
		return nil, t.err
	}
	out := map[string]any{"locale": locale.String()}
	for k, v := range t.exports {
		out[k] = v
	}
	return out, nil
}

func (t *stubTemplate) Render(_ context.Context, _ *Environment, out io.Writer) error {
	if t.err != nil {
		return t.err
	}
	_, err := fmt.Fprintf(out, "[%s]", t.name)
	return err
}

type stubLoader struct {
	mu        sync.Mutex
	templates map[string]*stubTemplate
	loads     []string
}

func newStubLoader(names ...string) *stubLoader {
	l := &stubLoader{templates: map[string]*stubTemplate{}}
	for _, name := range names {
		l.templates[name] = &stubTemplate{name: name, exports: map[string]any{"name": name}}
	}
	return l
}

func (l *stubLoader) LoadTemplate(_ context.Context, name string, _ language.Tag) (Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, name)
	t, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}

type flushBuffer struct {
	bytes.Buffer
	flushed int
}

func (b *flushBuffer) Flush() error {
	b.flushed++
	return nil
}

func TestExecuteRunsImportsThenIncludes(t *testing.T) {
	loader := newStubLoader("lib.ftl", "header.ftl", "footer.ftl")
	root := NewDefaults(WithAutoImports(AutoImport{Alias: "lib", Template: "lib.ftl"}))
	scope := mustBuild(t, root.Extend("page").SetAutoIncludes("header.ftl", "footer.ftl"))

	out := &flushBuffer{}
	env, err := Execute(context.Background(), scope, loader, out)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.String() != "[header.ftl][footer.ftl]" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if strings.Join(loader.loads, ",") != "lib.ftl,header.ftl,footer.ftl" {
		t.Fatalf("unexpected load order %v", loader.loads)
	}
	ns, ok := env.Namespace("lib")
	if !ok || !ns.Initialized() || ns.Lazy {
		t.Fatalf("expected eager initialised namespace")
	}
	if v, ok, err := ns.Get(context.Background(), "name"); err != nil || !ok || v != "lib.ftl" {
		t.Fatalf("unexpected namespace value %v %v %v", v, ok, err)
	}
	if out.flushed != 1 {
		t.Fatalf("expected auto_flush to flush once, got %d", out.flushed)
	}
}

func TestExecuteLazyImportFailsOnFirstAccess(t *testing.T) {
	capture := &activity.CaptureHook{}
	loader := newStubLoader("ok.ftl")
	root := NewDefaults(WithActivityHooks(activity.Hooks{activity.VerbFilter{
		Verbs: []string{activity.VerbImportFailed},
		Hook:  capture,
	}}, activity.Config{Enabled: true}))
	scope := mustBuild(t, root.Extend("page").
		SetLazyImports(true).
		SetLocale(language.German).
		AddAutoImport("good", "ok.ftl").
		AddAutoImport("bad", "missing.ftl"))

	env, err := Execute(context.Background(), scope, loader, io.Discard)
	if err != nil {
		t.Fatalf("lazy imports must not fail Execute: %v", err)
	}
	if len(loader.loads) != 0 {
		t.Fatalf("expected no loads before access, got %v", loader.loads)
	}

	bad, _ := env.Namespace("bad")
	_, _, err = bad.Get(context.Background(), "anything")
	var importErr *ImportError
	if !errors.As(err, &importErr) || !importErr.Lazy || importErr.Template != "missing.ftl" {
		t.Fatalf("expected lazy ImportError, got %v", err)
	}
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound cause, got %v", err)
	}
	if _, _, again := bad.Get(context.Background(), "anything"); again != err {
		t.Fatalf("expected the same error on repeated access")
	}
	if len(capture.Events) != 1 || capture.Events[0].ObjectID != "bad" {
		t.Fatalf("expected one import failure event, got %+v", capture.Events)
	}

	good, _ := env.Namespace("good")
	values, err := good.Values(context.Background())
	if err != nil || values["locale"] != "de" {
		t.Fatalf("expected namespace initialised with captured locale, got %v %v", values, err)
	}
}

func TestExecuteEagerImportFailureIsReturned(t *testing.T) {
	root := NewDefaults(WithAutoImports(AutoImport{Alias: "lib", Template: "missing.ftl"}))
	_, err := Execute(context.Background(), root, newStubLoader(), io.Discard)
	var importErr *ImportError
	if !errors.As(err, &importErr) || importErr.Lazy {
		t.Fatalf("expected eager ImportError, got %v", err)
	}
}

func TestExecuteIncludeFailuresUseExceptionHandler(t *testing.T) {
	loader := newStubLoader("a.ftl", "c.ftl")
	var handled []error
	handler := ExceptionHandlerFunc(func(err error, out io.Writer) error {
		handled = append(handled, err)
		fmt.Fprint(out, "<skipped>")
		return nil
	})
	root := NewDefaults(WithExceptionHandler(handler), WithAutoIncludes("a.ftl", "b.ftl", "c.ftl"))

	var out bytes.Buffer
	if _, err := Execute(context.Background(), root, loader, &out); err != nil {
		t.Fatalf("handler suppressed the error, got %v", err)
	}
	if out.String() != "[a.ftl]<skipped>[c.ftl]" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if len(handled) != 1 || !errors.Is(handled[0], ErrTemplateNotFound) {
		t.Fatalf("unexpected handled errors %v", handled)
	}

	scope := mustBuild(t, root.Extend("strict").SetTemplateExceptionHandler(RethrowHandler))
	out.Reset()
	if _, err := Execute(context.Background(), scope, loader, &out); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected rethrown include error, got %v", err)
	}
	if out.String() != "[a.ftl]" {
		t.Fatalf("expected execution to stop at the failing include, got %q", out.String())
	}
}

func TestExecuteRequiresLoader(t *testing.T) {
	if _, err := Execute(context.Background(), NewDefaults(), nil, io.Discard); err == nil {
		t.Fatalf("expected error for nil loader")
	}
	if _, err := Execute(context.Background(), nil, newStubLoader(), io.Discard); !errors.Is(err, ErrParentRequired) {
		t.Fatalf("expected ErrParentRequired, got %v", err)
	}
}

func TestLazyImportRetriesAfterCancellation(t *testing.T) {
	capture := &activity.CaptureHook{}
	stub := newStubLoader("ok.ftl")
	loader := TemplateLoaderFunc(func(ctx context.Context, name string, locale language.Tag) (Template, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return stub.LoadTemplate(ctx, name, locale)
	})
	root := NewDefaults(
		WithLazyImports(true),
		WithAutoImports(AutoImport{Alias: "a", Template: "ok.ftl"}),
		WithActivityHooks(activity.Hooks{capture}, activity.Config{Enabled: true, Verbs: []string{activity.VerbImportFailed}}),
	)
	env, err := Execute(context.Background(), root, loader, io.Discard)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	ns, _ := env.Namespace("a")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ns.Get(cancelled, "name")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var importErr *ImportError
	if errors.As(err, &importErr) || ns.Initialized() {
		t.Fatalf("cancellation must not settle the namespace: %v", err)
	}

	v, ok, err := ns.Get(context.Background(), "name")
	if err != nil || !ok || v != "ok.ftl" {
		t.Fatalf("expected load after cancellation, got %v %v %v", v, ok, err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("cancellation must not be reported as an import failure, got %+v", capture.Events)
	}
}

func TestExecuteForwardsPlanOptions(t *testing.T) {
	root := NewDefaults(WithAutoIncludes("header.ftl", "nav.ftl"))
	scope := mustBuild(t, root.Extend("page").SetAutoIncludes("header.ftl"))

	var out bytes.Buffer
	env, err := Execute(context.Background(), scope, newStubLoader("header.ftl", "nav.ftl"), &out,
		WithPlanOptions(WithIncludeDeduplication(true)))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.String() != "[nav.ftl][header.ftl]" {
		t.Fatalf("expected last occurrence kept, got %q", out.String())
	}
	if len(env.Plan.Includes()) != 2 {
		t.Fatalf("expected deduplicated plan, got %+v", env.Plan.Includes())
	}

	out.Reset()
	if _, err := Execute(context.Background(), scope, newStubLoader("header.ftl", "nav.ftl"), &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.String() != "[header.ftl][nav.ftl][header.ftl]" {
		t.Fatalf("expected every include without the option, got %q", out.String())
	}
}
