package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/text/language"

	"github.com/goliatone/go-settings/format"
)

// Trace captures how each link of a chain contributed to a resolved setting.
type Trace struct {
	Setting string       `json:"setting"`
	Layers  []Provenance `json:"layers"`
}

// Provenance is the state of the traced setting at one link. Value holds the
// raw value and is not serialised; Display is its printable form.
type Provenance struct {
	Source  Source `json:"source"`
	Value   any    `json:"-"`
	Display string `json:"display,omitempty"`
	Found   bool   `json:"found"`
}

func newProvenance(src Source, value any, found bool) Provenance {
	p := Provenance{Source: src, Found: found}
	if found {
		p.Value = value
		p.Display = DescribeValue(value)
	}
	return p
}

// Winner returns the first layer holding the setting.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON. Raw values are not restored.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

var traceEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("settings: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}()

// ToCBOR serialises the trace with deterministic CBOR encoding, for
// transports that carry binary payloads.
func (t Trace) ToCBOR() ([]byte, error) {
	type alias Trace
	return traceEncMode.Marshal(alias(t))
}

// TraceFromCBOR decodes a payload produced by ToCBOR.
func TraceFromCBOR(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := cbor.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// DescribeValue renders a setting value for traces and the CLI.
func DescribeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", v)
	case bool:
		return fmt.Sprint(v)
	case language.Tag:
		return v.String()
	case *time.Location:
		if v == nil {
			return "<nil>"
		}
		return v.String()
	case *bool:
		if v == nil {
			return "<nil>"
		}
		return fmt.Sprint(*v)
	case map[string]format.Factory:
		return "{" + strings.Join(sortedKeys(v), ", ") + "}"
	case map[string]any:
		keys := sortedKeys(v)
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = fmt.Sprintf("%s=%v", key, v[key])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []AutoImport:
		parts := make([]string, len(v))
		for i, imp := range v {
			parts[i] = fmt.Sprintf("%s=%q", imp.Alias, imp.Template)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
