package format

import (
	"time"

	"golang.org/x/text/language"
)

// Formatter renders a value with a format that was already configured.
// Implementations must be safe for concurrent use.
type Formatter interface {
	Format(value any) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(value any) (string, error)

// Format implements Formatter.
func (f FormatterFunc) Format(value any) (string, error) {
	return f(value)
}

// Env is the environment a custom formatter is created for.
type Env struct {
	Kind     Kind
	Locale   language.Tag
	TimeZone *time.Location
}

// Factory creates formatters for a registered custom format name. The params
// string is the remainder of the "@name params" specifier; its syntax belongs
// to the factory.
type Factory interface {
	NewFormatter(params string, env Env) (Formatter, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(params string, env Env) (Formatter, error)

// NewFormatter implements Factory.
func (f FactoryFunc) NewFormatter(params string, env Env) (Formatter, error) {
	return f(params, env)
}
