// Package options defines the shared contract of every configuration section
// and small helpers used to assemble them into one command line.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join builds a flag name prefix from dotted segments.
// Join() is "", Join("chat") is "chat.", Join("search", "azure") is "search.azure.".
func Join(prefixes ...string) string {
	parts := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.Trim(p, ".")
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".") + "."
}

// IOptions is implemented by every configuration section.
type IOptions interface {
	// Validate reports every problem found, nil when the section is usable.
	Validate() []error

	// AddFlags registers the section's flags under the given prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Completer is implemented by sections that derive defaults after parsing.
type Completer interface {
	Complete() error
}

// ValidateAll collects the validation errors of all sections in order.
func ValidateAll(opts ...IOptions) []error {
	var errs []error
	for _, o := range opts {
		errs = append(errs, o.Validate()...)
	}
	return errs
}
