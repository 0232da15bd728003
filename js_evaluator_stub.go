//go:build !js_eval

package settings

import "github.com/goliatone/go-settings/format"

// NewJSFormatFactory is unavailable without the js_eval build tag and
// returns nil.
func NewJSFormatFactory(opts ...JSFormatOption) format.Factory {
	_ = applyJSFormatOptions(opts)
	return nil
}

func jsFormatsAvailable() bool {
	return false
}
