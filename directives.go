package settings

import (
	"context"

	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/pkg/activity"
)

// DirectiveKind distinguishes auto-imports from auto-includes.
type DirectiveKind int

const (
	DirectiveImport DirectiveKind = iota + 1
	DirectiveInclude
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveImport:
		return "import"
	case DirectiveInclude:
		return "include"
	default:
		return "unknown"
	}
}

// Directive is one auto-import or auto-include to run before a template.
// Alias and Lazy apply to imports only.
type Directive struct {
	Kind     DirectiveKind `json:"kind"`
	Template string        `json:"template"`
	Alias    string        `json:"alias,omitempty"`
	Lazy     bool          `json:"lazy,omitempty"`
}

// DirectiveList is the ordered plan of auto-imports followed by
// auto-includes for one execution. Locale is the locale in effect where the
// imports were declared; lazy imports initialise with it.
type DirectiveList struct {
	Directives []Directive  `json:"directives"`
	Locale     language.Tag `json:"-"`
}

// Imports returns the import directives in order.
func (l DirectiveList) Imports() []Directive { return l.filter(DirectiveImport) }

// Includes returns the include directives in order.
func (l DirectiveList) Includes() []Directive { return l.filter(DirectiveInclude) }

func (l DirectiveList) filter(kind DirectiveKind) []Directive {
	var out []Directive
	for _, d := range l.Directives {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// PlanOption configures PlanDirectives.
type PlanOption func(*planConfig)

type planConfig struct {
	dedupeIncludes bool
	ctx            context.Context
}

// WithIncludeDeduplication keeps only the last occurrence of each
// auto-included template, so the most specific scope decides its position.
// Off by default: every include of every scope is kept in order.
func WithIncludeDeduplication(enabled bool) PlanOption {
	return func(cfg *planConfig) {
		cfg.dedupeIncludes = enabled
	}
}

// WithPlanContext sets the context passed to activity hooks.
func WithPlanContext(ctx context.Context) PlanOption {
	return func(cfg *planConfig) {
		if ctx != nil {
			cfg.ctx = ctx
		}
	}
}

// PlanDirectives computes the auto-imports and auto-includes of the whole
// chain ending at cfg. Ancestors come first. A scope that repeats an alias
// replaces its template but keeps the position where the alias first
// appeared. Includes are appended scope by scope. The plan is computed fresh
// on every call and never cached.
func PlanDirectives(cfg Parent, opts ...PlanOption) DirectiveList {
	pc := planConfig{ctx: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(&pc)
		}
	}
	c := cfg.link()

	links := make([]*values, 0, 4)
	scopes := c.scopes()
	for i := len(scopes) - 1; i >= 0; i-- {
		links = append(links, &scopes[i].values)
	}

	var imports []AutoImport
	index := map[string]int{}
	addImports := func(entries []AutoImport) {
		for _, imp := range entries {
			if i, ok := index[imp.Alias]; ok {
				imports[i].Template = imp.Template
				continue
			}
			index[imp.Alias] = len(imports)
			imports = append(imports, imp)
		}
	}
	var includes []string

	addImports(c.root.values.autoImports)
	includes = append(includes, c.root.values.autoIncludes...)
	for _, v := range links {
		if entries, ok := v.autoImports.Get(); ok {
			addImports(entries)
		}
		if entries, ok := v.autoIncludes.Get(); ok {
			includes = append(includes, entries...)
		}
	}
	if pc.dedupeIncludes {
		includes = keepLastOccurrence(includes)
	}

	lazy := cfg.LazyImports()
	if override := cfg.LazyAutoImports(); override != nil {
		lazy = *override
	}

	list := DirectiveList{
		Directives: make([]Directive, 0, len(imports)+len(includes)),
		Locale:     cfg.Locale(),
	}
	for _, imp := range imports {
		list.Directives = append(list.Directives, Directive{
			Kind:     DirectiveImport,
			Template: imp.Template,
			Alias:    imp.Alias,
			Lazy:     lazy,
		})
	}
	for _, template := range includes {
		list.Directives = append(list.Directives, Directive{Kind: DirectiveInclude, Template: template})
	}

	c.root.emit(pc.ctx, activity.BuildDirectivesPlannedEvent(activity.DirectivesEventInput{
		ScopeID:   cfg.ID(),
		ScopeName: cfg.Name(),
		Imports:   len(imports),
		Includes:  len(includes),
		Lazy:      lazy,
	}))
	return list
}

func keepLastOccurrence(templates []string) []string {
	last := make(map[string]int, len(templates))
	for i, t := range templates {
		last[t] = i
	}
	out := make([]string, 0, len(last))
	for i, t := range templates {
		if last[t] == i {
			out = append(out, t)
		}
	}
	return out
}
