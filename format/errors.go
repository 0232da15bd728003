package format

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("format: invalid specifier")
	// ErrOptionConflict is matched by every *OptionConflictError.
	ErrOptionConflict = errors.New("format: conflicting options")
	// ErrCustomFormatsDisabled reports an "@name" date/time specifier while
	// custom date formats are not enabled.
	ErrCustomFormatsDisabled = errors.New("format: custom date formats are not enabled")
)

// SyntaxError reports a malformed specifier and the offending token.
type SyntaxError struct {
	Kind   Kind
	Spec   string
	Token  string
	Reason string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("format: invalid %s format %q", e.Kind, e.Spec)
	if e.Token != "" {
		msg += fmt.Sprintf(" at %q", e.Token)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return e.Err
	}
	return ErrSyntax
}

// Is lets errors.Is(err, ErrSyntax) match even when Err carries a more
// specific cause.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// OptionConflictError reports two options of the same mutually exclusive
// category.
type OptionConflictError struct {
	Spec     string
	Category string
	First    string
	Second   string
}

func (e *OptionConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("format: %q: %s options %q and %q are mutually exclusive", e.Spec, e.Category, e.First, e.Second)
}

func (e *OptionConflictError) Unwrap() error {
	return ErrOptionConflict
}

func syntaxError(kind Kind, spec, token, reason string) error {
	return &SyntaxError{Kind: kind, Spec: spec, Token: token, Reason: reason}
}
