// Package options defines the generic options interface and common utilities
// shared by the per-component option structs.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join concatenates prefixes with "." and appends a trailing "." when the
// result is non-empty, building flag names like "mysql.host" or
// "assistant.mysql.host".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions is implemented by every component option struct.
type IOptions interface {
	// Validate validates the options and may complete missing values.
	Validate() []error

	// AddFlags registers the options on the given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
