// Package middleware provides middleware configuration options.
package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options groups the options of every HTTP middleware the service installs.
type Options struct {
	Recovery    *RecoveryOptions    `json:"recovery" mapstructure:"recovery"`
	RequestID   *RequestIDOptions   `json:"request-id" mapstructure:"request-id"`
	Logger      *LoggerOptions      `json:"logger" mapstructure:"logger"`
	FunctionKey *FunctionKeyOptions `json:"function-key" mapstructure:"function-key"`
}

// NewOptions creates default middleware options.
func NewOptions() *Options {
	return &Options{
		Recovery:    NewRecoveryOptions(),
		RequestID:   NewRequestIDOptions(),
		Logger:      NewLoggerOptions(),
		FunctionKey: NewFunctionKeyOptions(),
	}
}

// AddFlags adds the flags of all middleware under "middleware.".
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefixes = append(prefixes, "middleware")
	o.Recovery.AddFlags(fs, prefixes...)
	o.RequestID.AddFlags(fs, prefixes...)
	o.Logger.AddFlags(fs, prefixes...)
	o.FunctionKey.AddFlags(fs, prefixes...)
}

// Validate validates all middleware options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateAll(o.Recovery, o.RequestID, o.Logger, o.FunctionKey)
}
