package settings

import (
	"time"

	"github.com/goliatone/go-settings/format"
)

// FormatLogEvent describes one custom formatter creation or evaluation.
type FormatLogEvent struct {
	Engine   string
	Name     string
	Params   string
	Kind     format.Kind
	Scope    string
	Duration time.Duration
	Err      error
}

// FormatLogger records custom format events.
type FormatLogger interface {
	LogFormat(FormatLogEvent)
}

// FormatLoggerFunc adapts a function to FormatLogger.
type FormatLoggerFunc func(FormatLogEvent)

// LogFormat implements FormatLogger.
func (f FormatLoggerFunc) LogFormat(event FormatLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopFormatLogger struct{}

func (noopFormatLogger) LogFormat(FormatLogEvent) {}
