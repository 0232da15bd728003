// settingsctl inspects settings chains loaded from configuration files.
//
// Each --config file becomes one scope, inheriting from the previous file and
// ultimately from the built-in defaults. Commands:
//
//	resolve  print effective values and the scope that supplied them
//	trace    print how every link of the chain contributes to one setting
//	plan     print the auto-import and auto-include directives
//	parse    validate a format specifier without a chain
//	format   bind a specifier against the chain and render a value
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/config"
	"github.com/goliatone/go-settings/format"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	name    string
	summary string
	run     func(args []string, stdout, stderr io.Writer) error
}

func commands() []command {
	return []command{
		{name: "resolve", summary: "print effective values and their source scope", run: runResolve},
		{name: "trace", summary: "print the provenance of one setting as JSON", run: runTrace},
		{name: "plan", summary: "print auto-import and auto-include directives", run: runPlan},
		{name: "parse", summary: "validate a format specifier", run: runParse},
		{name: "format", summary: "render a value with a bound format", run: runFormat},
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	for _, cmd := range commands() {
		if cmd.name == args[0] {
			return cmd.run(args[1:], stdout, stderr)
		}
	}
	printUsage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:\n  settingsctl <command> [flags]\n\nCommands:")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
}

// chainFlags are shared by every command that needs a settings chain.
type chainFlags struct {
	configs []string
	verbose bool
}

func (c *chainFlags) AddFlags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&c.configs, "config", "c", nil, "settings file, repeat to add child scopes (YAML, JSON or JSONC)")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "log debug records to stderr")
}

func (c *chainFlags) load(stderr io.Writer) (settings.Parent, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	root := settings.NewDefaults(
		settings.WithLogger(logger),
		settings.WithFormatLogger(settings.FormatLoggerFunc(func(event settings.FormatLogEvent) {
			logger.Debug("custom format bound",
				"engine", event.Engine,
				"name", event.Name,
				"kind", event.Kind.String(),
				"scope", event.Scope,
				"duration", event.Duration,
				"error", event.Err,
			)
		})),
	)
	return config.LoadChain(c.configs, root, config.WithCatalog(catalog()))
}

// catalog lists the expression factories configuration files may reference.
func catalog() map[string]format.Factory {
	out := map[string]format.Factory{
		"expr": settings.NewExprFormatFactory(),
		"cel":  settings.NewCELFormatFactory(),
	}
	if settings.JSFormatsAvailable() {
		out["js"] = settings.NewJSFormatFactory()
	}
	return out
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("settingsctl "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runResolve(args []string, stdout, stderr io.Writer) error {
	var chainOpts chainFlags
	fs := newFlagSet("resolve", stderr)
	chainOpts.AddFlags(fs)
	localOnly := fs.Bool("local", false, "only print settings set in the innermost scope")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := chainOpts.load(stderr)
	if err != nil {
		return err
	}

	ids := settings.AllSettings()
	if names := fs.Args(); len(names) > 0 {
		ids = ids[:0]
		for _, name := range names {
			s, err := parseSettingArg(name)
			if err != nil {
				return err
			}
			ids = append(ids, s)
		}
	}
	for _, s := range ids {
		if *localOnly && !cfg.IsSet(s) {
			continue
		}
		value, src, err := cfg.Resolve(s)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s = %s (%s)\n", s, settings.DescribeValue(value), src)
	}
	return nil
}

func parseSettingArg(name string) (settings.Setting, error) {
	s := settings.ParseSetting(name)
	if s != settings.SettingUnknown {
		return s, nil
	}
	if hint := settings.SuggestSetting(name); hint != "" {
		return s, fmt.Errorf("%w: %s (did you mean %s?)", settings.ErrUnknownSetting, name, hint)
	}
	return s, fmt.Errorf("%w: %s", settings.ErrUnknownSetting, name)
}

func runTrace(args []string, stdout, stderr io.Writer) error {
	var chainOpts chainFlags
	fs := newFlagSet("trace", stderr)
	chainOpts.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("trace takes exactly one setting name")
	}
	cfg, err := chainOpts.load(stderr)
	if err != nil {
		return err
	}
	s, err := parseSettingArg(fs.Arg(0))
	if err != nil {
		return err
	}
	_, trace, err := cfg.ResolveWithTrace(s)
	if err != nil {
		return err
	}
	payload, err := trace.ToJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(payload))
	return nil
}

func runPlan(args []string, stdout, stderr io.Writer) error {
	var chainOpts chainFlags
	fs := newFlagSet("plan", stderr)
	chainOpts.AddFlags(fs)
	dedup := fs.Bool("dedup-includes", false, "keep only the last occurrence of repeated includes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := chainOpts.load(stderr)
	if err != nil {
		return err
	}
	plan := settings.PlanDirectives(cfg, settings.WithIncludeDeduplication(*dedup))
	fmt.Fprintf(stdout, "locale %s\n", plan.Locale)
	for _, d := range plan.Directives {
		switch d.Kind {
		case settings.DirectiveImport:
			mode := "eager"
			if d.Lazy {
				mode = "lazy"
			}
			fmt.Fprintf(stdout, "import %q as %s (%s)\n", d.Template, d.Alias, mode)
		case settings.DirectiveInclude:
			fmt.Fprintf(stdout, "include %q\n", d.Template)
		}
	}
	return nil
}

func runParse(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("parse", stderr)
	kindName := fs.StringP("kind", "k", "number", "specifier kind: number, boolean, time, date or datetime")
	custom := fs.Bool("custom", true, "accept @name references for date kinds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("parse takes exactly one specifier")
	}
	kind := format.ParseKind(*kindName)
	desc, err := format.Parse(kind, fs.Arg(0), format.WithCustomFormats(*custom))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %T %s\n", kind, desc, desc)
	return nil
}

func runFormat(args []string, stdout, stderr io.Writer) error {
	var chainOpts chainFlags
	fs := newFlagSet("format", stderr)
	chainOpts.AddFlags(fs)
	kindName := fs.StringP("kind", "k", "number", "value kind: number, boolean, time, date or datetime")
	spec := fs.StringP("spec", "s", "", "format specifier, defaults to the effective setting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("format takes exactly one value")
	}
	cfg, err := chainOpts.load(stderr)
	if err != nil {
		return err
	}

	kind := format.ParseKind(*kindName)
	var bound settings.BoundFormat
	if *spec == "" {
		bound, err = cfg.EffectiveFormat(kind)
	} else {
		bound, err = cfg.BindFormat(kind, *spec)
	}
	if err != nil {
		return err
	}
	if !bound.IsCustom() {
		fmt.Fprintf(stdout, "%s (%s, %s)\n", bound.Descriptor, bound.Locale, bound.TimeZone)
		return nil
	}
	value, err := parseValue(kind, fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := bound.Formatter.Format(value)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func parseValue(kind format.Kind, raw string) (any, error) {
	switch {
	case kind == format.KindNumber:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case kind == format.KindBoolean:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case kind.IsTemporal():
		return time.Parse(time.RFC3339, strings.TrimSpace(raw))
	}
	return raw, nil
}
