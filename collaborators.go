package settings

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// The types in this file are the external collaborators a setting can point
// at. The settings core stores and resolves them; it does not implement
// template error display, arithmetic, object wrapping or class loading.

// ExceptionHandler decides what happens when template processing fails.
// Returning nil suppresses the error; returning an error propagates it.
type ExceptionHandler interface {
	HandleTemplateError(err error, out io.Writer) error
}

// ExceptionHandlerFunc adapts a function to ExceptionHandler.
type ExceptionHandlerFunc func(err error, out io.Writer) error

// HandleTemplateError implements ExceptionHandler.
func (f ExceptionHandlerFunc) HandleTemplateError(err error, out io.Writer) error {
	return f(err, out)
}

type namedHandler struct {
	name string
	fn   func(err error, out io.Writer) error
}

func (h *namedHandler) HandleTemplateError(err error, out io.Writer) error { return h.fn(err, out) }
func (h *namedHandler) String() string { return h.name }

var (
	// RethrowHandler propagates the error without printing anything.
	RethrowHandler ExceptionHandler = &namedHandler{name: "rethrow", fn: func(err error, _ io.Writer) error {
		return err
	}}
	// DebugHandler prints the error to the output, then propagates it.
	DebugHandler ExceptionHandler = &namedHandler{name: "debug", fn: func(err error, out io.Writer) error {
		if out != nil {
			fmt.Fprintf(out, "\nTEMPLATE ERROR: %v\n", err)
		}
		return err
	}}
	// HTMLDebugHandler prints an escaped, HTML-visible error, then propagates it.
	HTMLDebugHandler ExceptionHandler = &namedHandler{name: "html_debug", fn: func(err error, out io.Writer) error {
		if out != nil {
			fmt.Fprintf(out, "\n<pre style=\"color:red\">TEMPLATE ERROR: %s</pre>\n", html.EscapeString(err.Error()))
		}
		return err
	}}
	// IgnoreHandler suppresses the error.
	IgnoreHandler ExceptionHandler = &namedHandler{name: "ignore", fn: func(error, io.Writer) error {
		return nil
	}}
)

// ArithmeticEngine is an opaque arithmetic strategy identified by name.
type ArithmeticEngine interface {
	ArithmeticEngineName() string
}

type namedEngine string

func (e namedEngine) ArithmeticEngineName() string { return string(e) }
func (e namedEngine) String() string { return string(e) }

var (
	BigDecimalArithmetic   ArithmeticEngine = namedEngine("bigdecimal")
	ConservativeArithmetic ArithmeticEngine = namedEngine("conservative")
)

// ObjectWrapper converts host values into the template value model.
type ObjectWrapper interface {
	Wrap(value any) (any, error)
}

// ObjectWrapperFunc adapts a function to ObjectWrapper.
type ObjectWrapperFunc func(value any) (any, error)

// Wrap implements ObjectWrapper.
func (f ObjectWrapperFunc) Wrap(value any) (any, error) { return f(value) }

type identityWrapper struct{}

func (identityWrapper) Wrap(value any) (any, error) { return value, nil }
func (identityWrapper) String() string { return "default" }

// DefaultObjectWrapper returns values unchanged.
var DefaultObjectWrapper ObjectWrapper = identityWrapper{}

// ErrClassNotAllowed is returned by a ClassResolver that refuses a name.
var ErrClassNotAllowed = errors.New("settings: class instantiation not allowed")

// ClassResolver authorizes dynamic instantiation requests from templates.
type ClassResolver interface {
	ResolveClass(name string) error
}

// ClassResolverFunc adapts a function to ClassResolver.
type ClassResolverFunc func(name string) error

// ResolveClass implements ClassResolver.
func (f ClassResolverFunc) ResolveClass(name string) error { return f(name) }

type namedResolver struct {
	name  string
	allow bool
}

func (r namedResolver) ResolveClass(class string) error {
	if r.allow {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrClassNotAllowed, class)
}

func (r namedResolver) String() string { return r.name }

var (
	UnrestrictedResolver  ClassResolver = namedResolver{name: "unrestricted", allow: true}
	AllowsNothingResolver ClassResolver = namedResolver{name: "allows_nothing"}
)

// Charset is a named character encoding. The zero Charset means "unknown".
type Charset struct {
	name string
	enc  encoding.Encoding
}

// ParseCharset looks up an encoding by its WHATWG label ("utf-8", "latin1",
// "windows-1252", ...). The empty string yields the zero Charset.
func ParseCharset(label string) (Charset, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Charset{}, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return Charset{}, fmt.Errorf("settings: unknown charset %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}
	return Charset{name: name, enc: enc}, nil
}

// MustCharset is like ParseCharset but panics on error.
func MustCharset(label string) Charset {
	cs, err := ParseCharset(label)
	if err != nil {
		panic(err)
	}
	return cs
}

// Name returns the canonical name, or "" when unknown.
func (c Charset) Name() string { return c.name }

// Encoding returns the encoding, or nil when unknown.
func (c Charset) Encoding() encoding.Encoding { return c.enc }

// IsZero reports whether the charset is unknown.
func (c Charset) IsZero() bool { return c.name == "" }

func (c Charset) String() string {
	if c.IsZero() {
		return "<unknown>"
	}
	return c.name
}

var exceptionHandlersByName = map[string]ExceptionHandler{
	"rethrow":    RethrowHandler,
	"debug":      DebugHandler,
	"html_debug": HTMLDebugHandler,
	"ignore":     IgnoreHandler,
}

var arithmeticEnginesByName = map[string]ArithmeticEngine{
	"bigdecimal":   BigDecimalArithmetic,
	"conservative": ConservativeArithmetic,
}

var classResolversByName = map[string]ClassResolver{
	"unrestricted":   UnrestrictedResolver,
	"allows_nothing": AllowsNothingResolver,
}
