package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
)

var (
	// ErrFunctionNotFound reports a call to a helper no registry holds.
	ErrFunctionNotFound = errors.New("settings: format function not registered")
	// ErrInvalidFunction reports a helper that cannot be registered.
	ErrInvalidFunction = errors.New("settings: invalid format function")
)

// reservedNames are bound by every expression factory and cannot be
// shadowed by helpers.
var reservedNames = []string{"value", "locale", "zone", "kind", "call"}

// Function is a helper callable from expression-backed custom formats.
type Function func(args ...any) (any, error)

// FunctionRegistry holds helpers keyed by lower-cased name. Factories take a
// Clone when configured, so later registrations leave existing formatters
// unchanged.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// Register adds fn under name. Names must be identifiers, unique ignoring
// case, and must not collide with the variables formats see.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("%w: %q is nil", ErrInvalidFunction, name)
	}
	key := strings.ToLower(name)
	if !isIdentifier(key) {
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidFunction, name)
	}
	if slices.Contains(reservedNames, key) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidFunction, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("%w: %q already registered", ErrInvalidFunction, name)
	}
	r.functions[key] = fn
	return nil
}

// MustRegister is Register that panics on error.
func (r *FunctionRegistry) MustRegister(name string, fn Function) *FunctionRegistry {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return r
}

// Clone returns a snapshot of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FunctionRegistry{functions: cloneMap(r.functions)}
}

// Call runs the helper registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn(args...)
}

// Names returns the registered names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.functions)
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, ch := range name {
		switch {
		case ch == '_' || unicode.IsLetter(ch):
		case i > 0 && unicode.IsDigit(ch):
		default:
			return false
		}
	}
	return true
}
