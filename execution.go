package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/pkg/activity"
)

// ErrTemplateNotFound is returned by loaders for unknown template names.
var ErrTemplateNotFound = errors.New("settings: template not found")

// TemplateLoader resolves template names. Loading and template I/O belong to
// the caller; Execute only decides what to load, in which order and when.
type TemplateLoader interface {
	LoadTemplate(ctx context.Context, name string, locale language.Tag) (Template, error)
}

// TemplateLoaderFunc adapts a function to TemplateLoader.
type TemplateLoaderFunc func(ctx context.Context, name string, locale language.Tag) (Template, error)

// LoadTemplate implements TemplateLoader.
func (f TemplateLoaderFunc) LoadTemplate(ctx context.Context, name string, locale language.Tag) (Template, error) {
	return f(ctx, name, locale)
}

// Template is a loaded template as seen by the directive executor.
type Template interface {
	// Namespace runs the template as a library and returns what it exports.
	Namespace(ctx context.Context, locale language.Tag) (map[string]any, error)
	// Render writes the template output to out.
	Render(ctx context.Context, env *Environment, out io.Writer) error
}

// Namespace is the result of one auto-import. Lazy namespaces load and
// initialise on first access, using the locale captured when the plan was
// made; failures surface from that access as *ImportError.
type Namespace struct {
	Alias    string
	Template string
	Lazy     bool
	Locale   language.Tag

	loader TemplateLoader
	report func(ctx context.Context, err *ImportError)

	loading sync.Mutex
	values  map[string]any
	err     error
	done    bool
	mu      sync.RWMutex
}

func (n *Namespace) init(ctx context.Context) error {
	if done, err := n.state(); done {
		return err
	}
	n.loading.Lock()
	defer n.loading.Unlock()
	if done, err := n.state(); done {
		return err
	}

	values, err := n.load(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Cancellation belongs to the caller; a later access may still load.
		return err
	}
	var ierr *ImportError
	if err != nil {
		ierr = &ImportError{Alias: n.Alias, Template: n.Template, Lazy: n.Lazy, Err: err}
	}
	n.mu.Lock()
	n.values, n.done = values, true
	if ierr != nil {
		n.err = ierr
	}
	n.mu.Unlock()
	if ierr != nil {
		if n.report != nil {
			n.report(ctx, ierr)
		}
		return ierr
	}
	return nil
}

func (n *Namespace) state() (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.done, n.err
}

func (n *Namespace) load(ctx context.Context) (map[string]any, error) {
	t, err := n.loader.LoadTemplate(ctx, n.Template, n.Locale)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, n.Template)
	}
	values, err := t.Namespace(ctx, n.Locale)
	if err != nil {
		return nil, err
	}
	return cloneMap(values), nil
}

// Initialized reports whether the namespace has been loaded, successfully or
// not.
func (n *Namespace) Initialized() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.done
}

// Get returns the exported variable name, initialising the namespace first
// if needed.
func (n *Namespace) Get(ctx context.Context, name string) (any, bool, error) {
	if err := n.init(ctx); err != nil {
		return nil, false, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	value, ok := n.values[name]
	return value, ok, nil
}

// Values returns a copy of every exported variable.
func (n *Namespace) Values(ctx context.Context) (map[string]any, error) {
	if err := n.init(ctx); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return cloneMap(n.values), nil
}

// Environment is the state of one execution after its directives ran.
type Environment struct {
	Config Parent
	Plan   DirectiveList

	namespaces []*Namespace
	byAlias    map[string]*Namespace
}

// Namespace returns the auto-imported namespace bound to alias.
func (e *Environment) Namespace(alias string) (*Namespace, bool) {
	ns, ok := e.byAlias[alias]
	return ns, ok
}

// Namespaces returns the auto-imported namespaces in plan order.
func (e *Environment) Namespaces() []*Namespace {
	return append([]*Namespace(nil), e.namespaces...)
}

// ExecuteOption configures Execute.
type ExecuteOption func(*executeConfig)

type executeConfig struct {
	plan []PlanOption
}

// WithPlanOptions forwards options to PlanDirectives.
func WithPlanOptions(opts ...PlanOption) ExecuteOption {
	return func(cfg *executeConfig) {
		cfg.plan = append(cfg.plan, opts...)
	}
}

type flusher interface {
	Flush() error
}

// Execute plans the directives of cfg and runs them: imports first, then
// includes. Eager imports initialise immediately and their failures are
// returned. Lazy imports only register a Namespace. Include failures go to
// the resolved template exception handler; the error it returns, if any,
// stops execution. When auto_flush is on, out is flushed if it can be.
func Execute(ctx context.Context, cfg Parent, loader TemplateLoader, out io.Writer, opts ...ExecuteOption) (*Environment, error) {
	if cfg == nil {
		return nil, ErrParentRequired
	}
	if loader == nil {
		return nil, errors.New("settings: template loader is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ec := executeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&ec)
		}
	}

	root := cfg.link().root
	plan := PlanDirectives(cfg, append([]PlanOption{WithPlanContext(ctx)}, ec.plan...)...)
	env := &Environment{Config: cfg, Plan: plan, byAlias: map[string]*Namespace{}}

	report := func(ctx context.Context, err *ImportError) {
		if cfg.LogTemplateExceptions() {
			root.logger.Error("settings: auto-import failed",
				"alias", err.Alias, "template", err.Template, "lazy", err.Lazy, "error", err.Err)
		}
		root.emit(ctx, activity.BuildImportFailedEvent(activity.ImportEventInput{
			ScopeID:  cfg.ID(),
			Alias:    err.Alias,
			Template: err.Template,
			Lazy:     err.Lazy,
			Err:      err.Err,
		}))
	}

	for _, d := range plan.Imports() {
		ns := &Namespace{
			Alias:    d.Alias,
			Template: d.Template,
			Lazy:     d.Lazy,
			Locale:   plan.Locale,
			loader:   loader,
			report:   report,
		}
		env.namespaces = append(env.namespaces, ns)
		env.byAlias[ns.Alias] = ns
		if ns.Lazy {
			continue
		}
		if err := ns.init(ctx); err != nil {
			return env, err
		}
	}

	for _, d := range plan.Includes() {
		if err := ctx.Err(); err != nil {
			return env, err
		}
		if err := include(ctx, env, loader, d.Template, plan.Locale, out); err != nil {
			if cfg.LogTemplateExceptions() {
				root.logger.Error("settings: auto-include failed", "template", d.Template, "error", err)
			}
			handler := cfg.TemplateExceptionHandler()
			if handler == nil {
				return env, err
			}
			if herr := handler.HandleTemplateError(err, out); herr != nil {
				return env, herr
			}
		}
	}

	if cfg.AutoFlush() {
		if f, ok := out.(flusher); ok {
			if err := f.Flush(); err != nil {
				return env, fmt.Errorf("settings: flush output: %w", err)
			}
		}
	}
	return env, nil
}

func include(ctx context.Context, env *Environment, loader TemplateLoader, name string, locale language.Tag, out io.Writer) error {
	t, err := loader.LoadTemplate(ctx, name, locale)
	if err != nil {
		return fmt.Errorf("settings: auto-include %q: %w", name, err)
	}
	if t == nil {
		return fmt.Errorf("settings: auto-include %q: %w", name, ErrTemplateNotFound)
	}
	if err := t.Render(ctx, env, out); err != nil {
		return fmt.Errorf("settings: auto-include %q: %w", name, err)
	}
	return nil
}
