package settings

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-settings/format"
)

var (
	// ErrUnknownSetting reports a setting id or name that is not recognized.
	ErrUnknownSetting = errors.New("settings: unknown setting")
	// ErrParentRequired reports a Builder without a parent chain.
	ErrParentRequired = errors.New("settings: scope requires a parent")
	// ErrNilFactory reports a custom format registered without a factory.
	ErrNilFactory = errors.New("settings: custom format factory is nil")
	// ErrNotStringSettable reports a setting that has no string form.
	ErrNotStringSettable = errors.New("settings: setting cannot be assigned from a string")
	// ErrCustomFormatNotFound is matched by *CustomFormatNotFoundError.
	ErrCustomFormatNotFound = errors.New("settings: custom format not found")
)

// CustomFormatNotFoundError reports an "@name" reference that no link of the
// chain registers.
type CustomFormatNotFoundError struct {
	Name string
	Kind format.Kind
}

func (e *CustomFormatNotFoundError) Error() string {
	registry := "custom_number_formats"
	if e.Kind.IsTemporal() {
		registry = "custom_date_formats"
	}
	return fmt.Sprintf("settings: no custom %s format %q is defined in %s of any scope", e.Kind, e.Name, registry)
}

func (e *CustomFormatNotFoundError) Unwrap() error { return ErrCustomFormatNotFound }

// SettingError reports a setting value that could not be applied.
type SettingError struct {
	Setting string
	Value   string
	Err     error
}

func (e *SettingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: invalid value %q for %s: %v", e.Value, e.Setting, e.Err)
}

func (e *SettingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ImportError reports an auto-import whose template could not be loaded or
// initialised. For lazy imports it surfaces at first namespace access.
type ImportError struct {
	Alias    string
	Template string
	Lazy     bool
	Err      error
}

func (e *ImportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	mode := "eager"
	if e.Lazy {
		mode = "lazy"
	}
	return fmt.Sprintf("settings: %s auto-import %q as %s failed: %v", mode, e.Template, e.Alias, e.Err)
}

func (e *ImportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
