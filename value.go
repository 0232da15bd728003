package settings

// Value is a tri-state setting slot: either unset, or set to a value (which may
// itself be a zero value or nil). Scopes store Values; only Defaults stores
// plain values.
type Value[T any] struct {
	value T
	set   bool
}

// Set returns a Value holding v.
func Set[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// Unset returns an empty Value.
func Unset[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the held value and whether it is set.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.set
}

// IsSet reports whether a value is held.
func (v Value[T]) IsSet() bool {
	return v.set
}

// OrElse returns the held value, or fallback when unset.
func (v Value[T]) OrElse(fallback T) T {
	if v.set {
		return v.value
	}
	return fallback
}
