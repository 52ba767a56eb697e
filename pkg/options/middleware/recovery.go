package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

// RecoveryOptions defines recovery middleware options.
type RecoveryOptions struct {
	// EnableStackTrace appends the stack to the 500 body outside production.
	EnableStackTrace bool `json:"enable-stack-trace" mapstructure:"enable-stack-trace"`
}

// NewRecoveryOptions creates default recovery middleware options.
func NewRecoveryOptions() *RecoveryOptions {
	return &RecoveryOptions{}
}

// AddFlags adds flags for recovery options to the specified FlagSet.
func (o *RecoveryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.EnableStackTrace, options.Join(append(prefixes, "recovery")...)+"enable-stack-trace", o.EnableStackTrace,
		"Include the panic stack trace in error responses (ignored when APP_ENV=production).")
}

// Validate validates the recovery options.
func (o *RecoveryOptions) Validate() []error {
	return nil
}
