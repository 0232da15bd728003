package settings

import (
	"fmt"

	"github.com/goliatone/go-settings/format"
)

// Resolve returns the effective value of s and the scope that supplied it. It
// fails only for an unrecognized setting; resolution against a chain always
// ends at Defaults, which holds every setting.
func (v view) Resolve(s Setting) (any, Source, error) {
	f, ok := lookupField(s)
	if !ok {
		return nil, Source{}, fmt.Errorf("%w: %s", ErrUnknownSetting, s)
	}
	value, src := f.resolveAny(v.c)
	return value, src, nil
}

// ResolveWithTrace is Resolve plus the state of s at every link of the chain,
// leaf first.
func (v view) ResolveWithTrace(s Setting) (any, Trace, error) {
	f, ok := lookupField(s)
	if !ok {
		return nil, Trace{}, fmt.Errorf("%w: %s", ErrUnknownSetting, s)
	}
	trace := Trace{Setting: s.String()}
	var (
		result any
		found  bool
	)
	for _, scope := range v.c.scopes() {
		value, set := f.localAny(&scope.values)
		trace.Layers = append(trace.Layers, newProvenance(scope.source(), value, set))
		if set && !found {
			result, found = value, true
		}
	}
	rootValue := f.rootAny(&v.c.root.values)
	trace.Layers = append(trace.Layers, newProvenance(v.c.root.source(), rootValue, true))
	if !found {
		result = rootValue
	}
	return result, trace, nil
}

// IsSet reports whether the receiver itself holds s. It never consults
// ancestors. Always true on Defaults.
func (v view) IsSet(s Setting) bool {
	f, ok := lookupField(s)
	if !ok {
		return false
	}
	if v.c.leaf == nil {
		return true
	}
	return f.isSetIn(&v.c.leaf.values)
}

// CustomNumberFormat finds name in the nearest registry that defines it. Each
// scope's own registry is consulted in turn, so a child registry never hides
// names it does not define. Returns nil when no link defines name.
func (v view) CustomNumberFormat(name string) format.Factory {
	factory, _ := lookupEntry(v.c, customNumberFormatsField, name)
	return factory
}

// CustomDateFormat is CustomNumberFormat for date/time registries.
func (v view) CustomDateFormat(name string) format.Factory {
	factory, _ := lookupEntry(v.c, customDateFormatsField, name)
	return factory
}

// CustomAttribute finds key in the nearest attribute map that defines it.
func (v view) CustomAttribute(key string) (any, bool) {
	return lookupEntry(v.c, customAttributesField, key)
}

// EffectiveCustomAttributes returns every attribute visible from the
// receiver, nearer scopes winning.
func (v view) EffectiveCustomAttributes() map[string]any {
	out := cloneMap(v.c.root.values.customAttributes)
	if out == nil {
		out = map[string]any{}
	}
	scopes := v.c.scopes()
	for i := len(scopes) - 1; i >= 0; i-- {
		attrs, ok := scopes[i].values.customAttributes.Get()
		if !ok {
			continue
		}
		for key, value := range attrs {
			out[key] = value
		}
	}
	return out
}

// lookupEntry searches key scope by scope, then in the root map.
func lookupEntry[V any](c chain, f field[map[string]V], key string) (V, bool) {
	for s := c.leaf; s != nil; s = s.parent {
		m, ok := f.local(&s.values).Get()
		if !ok {
			continue
		}
		if value, ok := m[key]; ok {
			return value, true
		}
	}
	value, ok := (*f.root(&c.root.values))[key]
	return value, ok
}

// hasCustomFormats reports whether any link registers a custom format.
func (c chain) hasCustomFormats() bool {
	if len(c.root.values.customNumberFormats) > 0 || len(c.root.values.customDateFormats) > 0 {
		return true
	}
	for s := c.leaf; s != nil; s = s.parent {
		if m, ok := s.values.customNumberFormats.Get(); ok && len(m) > 0 {
			return true
		}
		if m, ok := s.values.customDateFormats.Get(); ok && len(m) > 0 {
			return true
		}
	}
	return false
}

// customDateFormatsEnabled gates "@name" date/time specifiers.
func (c chain) customDateFormatsEnabled() bool {
	return c.root.customDateFormatsAlwaysEnabled || c.hasCustomFormats()
}
