package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

// LoggerOptions defines access log middleware options.
type LoggerOptions struct {
	SkipPaths []string `json:"skip-paths" mapstructure:"skip-paths"`
}

// NewLoggerOptions creates default logger middleware options.
func NewLoggerOptions() *LoggerOptions {
	return &LoggerOptions{
		SkipPaths: []string{"/healthz", "/metrics"},
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *LoggerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.SkipPaths, options.Join(append(prefixes, "logger")...)+"skip-paths", o.SkipPaths, "Paths to skip logging.")
}

// Validate validates the logger options.
func (o *LoggerOptions) Validate() []error {
	return nil
}
