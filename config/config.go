// Package config loads settings scopes from YAML, JSON or JSONC documents.
//
// A document names the scope and lists its local settings:
//
//	name: tenant
//	settings:
//	  locale: de-DE
//	  number_format: "#,##0.00"
//	  auto_imports:
//	    lib: lib/utils.ftl
//	    ui: lib/ui.ftl
//	  auto_includes: [header.ftl]
//	  custom_number_formats:
//	    price: expr
//	  custom_attributes:
//	    team: payments
//
// Mapping order is kept, so auto_imports are declared in document order.
// Custom format entries name a factory from the catalog given to the loader.
// A null value unsets the setting, except for sql_date_and_time_time_zone and
// lazy_auto_imports, where null is a value of its own.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/format"
)

// Syntax selects the document syntax.
type Syntax int

const (
	// SyntaxAuto picks JSONC for .json and .jsonc files and YAML otherwise.
	SyntaxAuto Syntax = iota
	SyntaxYAML
	SyntaxJSONC
)

// ErrUnknownFactory reports a custom format entry naming no catalog factory.
var ErrUnknownFactory = errors.New("config: unknown format factory")

// Error locates a problem in a settings document.
type Error struct {
	Path    string
	Line    int
	Setting string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("config: ")
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(":")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "%d:", e.Line)
	}
	if sb.Len() > len("config: ") {
		sb.WriteString(" ")
	}
	if e.Setting != "" {
		sb.WriteString(e.Setting)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures a load.
type Option func(*loader)

// WithCatalog makes factories available to custom format entries by name.
func WithCatalog(catalog map[string]format.Factory) Option {
	return func(l *loader) {
		for name, factory := range catalog {
			l.catalog[name] = factory
		}
	}
}

// WithSyntax forces the document syntax.
func WithSyntax(syntax Syntax) Option {
	return func(l *loader) {
		l.syntax = syntax
	}
}

// WithContext sets the context passed to scope activity hooks.
func WithContext(ctx context.Context) Option {
	return func(l *loader) {
		if ctx != nil {
			l.ctx = ctx
		}
	}
}

// WithDefaultName names scopes whose document has no name.
func WithDefaultName(name string) Option {
	return func(l *loader) {
		l.defaultName = name
	}
}

type loader struct {
	catalog     map[string]format.Factory
	syntax      Syntax
	ctx         context.Context
	defaultName string
	path        string
}

func newLoader(opts []Option) *loader {
	l := &loader{
		catalog: map[string]format.Factory{},
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load builds a scope from data on top of parent.
func Load(data []byte, parent settings.Parent, opts ...Option) (*settings.Scope, error) {
	return newLoader(opts).load(data, parent)
}

// LoadFile reads path and builds a scope from it on top of parent. Unnamed
// documents are named after the file.
func LoadFile(path string, parent settings.Parent, opts ...Option) (*settings.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	l := newLoader(opts)
	l.path = path
	if l.defaultName == "" {
		l.defaultName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if l.syntax == SyntaxAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonc":
			l.syntax = SyntaxJSONC
		default:
			l.syntax = SyntaxYAML
		}
	}
	return l.load(data, parent)
}

// LoadChain loads each file as a child of the previous one, starting at
// root, and returns the innermost scope. With no paths it returns root.
func LoadChain(paths []string, root settings.Parent, opts ...Option) (settings.Parent, error) {
	current := root
	for _, path := range paths {
		scope, err := LoadFile(path, current, opts...)
		if err != nil {
			return nil, err
		}
		current = scope
	}
	return current, nil
}

type document struct {
	Name     string    `yaml:"name"`
	Settings yaml.Node `yaml:"settings"`
}

func (l *loader) load(data []byte, parent settings.Parent) (*settings.Scope, error) {
	if l.syntax == SyntaxJSONC {
		data = jsonc.ToJSON(data)
	}
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, l.wrap(0, "", err)
	}
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = l.defaultName
	}

	b := settings.NewBuilder(name, parent)
	node := &doc.Settings
	switch node.Kind {
	case 0:
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if err := l.apply(b, node.Content[i], node.Content[i+1]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, l.wrap(node.Line, "settings", fmt.Errorf("expected a mapping"))
	}

	scope, err := b.BuildContext(l.ctx)
	if err != nil {
		return nil, l.wrap(0, "", err)
	}
	return scope, nil
}

func (l *loader) apply(b *settings.Builder, key, value *yaml.Node) error {
	s := settings.ParseSetting(key.Value)
	if s == settings.SettingUnknown {
		err := settings.ErrUnknownSetting
		if hint := settings.SuggestSetting(key.Value); hint != "" {
			err = fmt.Errorf("%w (did you mean %q?)", settings.ErrUnknownSetting, hint)
		}
		return l.wrap(key.Line, key.Value, err)
	}
	if isNull(value) {
		switch s {
		case settings.SettingSQLDateAndTimeTimeZone:
			b.SetSQLDateAndTimeTimeZone(nil)
		case settings.SettingLazyAutoImports:
			b.SetLazyAutoImports(nil)
		default:
			b.Unset(s)
		}
		return nil
	}

	var err error
	switch s {
	case settings.SettingAutoImports:
		err = l.applyImports(b, value)
	case settings.SettingAutoIncludes:
		var includes []string
		if err = value.Decode(&includes); err == nil {
			b.SetAutoIncludes(includes...)
		}
	case settings.SettingCustomNumberFormats, settings.SettingCustomDateFormats:
		err = l.applyFactories(b, s, value)
	case settings.SettingCustomAttributes:
		var attrs map[string]any
		if err = value.Decode(&attrs); err == nil {
			b.SetCustomAttributes(attrs)
		}
	default:
		if value.Kind != yaml.ScalarNode {
			err = fmt.Errorf("expected a scalar value")
			break
		}
		err = b.SetString(s.String(), value.Value)
	}
	if err != nil {
		return l.wrap(value.Line, s.String(), err)
	}
	return nil
}

// applyImports accepts a mapping of alias to template, or a sequence of
// {alias, template} entries.
func (l *loader) applyImports(b *settings.Builder, value *yaml.Node) error {
	imports := []settings.AutoImport{}
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			alias, template := value.Content[i], value.Content[i+1]
			if template.Kind != yaml.ScalarNode {
				return fmt.Errorf("template for alias %q must be a string", alias.Value)
			}
			imports = append(imports, settings.AutoImport{Alias: alias.Value, Template: template.Value})
		}
	case yaml.SequenceNode:
		if err := value.Decode(&imports); err != nil {
			return err
		}
	case yaml.ScalarNode:
		return b.SetString(settings.SettingAutoImports.String(), value.Value)
	default:
		return fmt.Errorf("expected a mapping or a sequence")
	}
	b.SetAutoImports(imports...)
	return nil
}

func (l *loader) applyFactories(b *settings.Builder, s settings.Setting, value *yaml.Node) error {
	var names map[string]string
	if err := value.Decode(&names); err != nil {
		return err
	}
	factories := make(map[string]format.Factory, len(names))
	for name, factoryName := range names {
		factory, ok := l.catalog[factoryName]
		if !ok || factory == nil {
			return fmt.Errorf("%w %q for custom format %q", ErrUnknownFactory, factoryName, name)
		}
		factories[name] = factory
	}
	if s == settings.SettingCustomNumberFormats {
		b.SetCustomNumberFormats(factories)
	} else {
		b.SetCustomDateFormats(factories)
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func (l *loader) wrap(line int, setting string, err error) error {
	return &Error{Path: l.path, Line: line, Setting: setting, Err: err}
}
