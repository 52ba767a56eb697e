// Package query provides configuration options for the question answering pipeline.
package query

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options bounds the backend calls of a single query.
type Options struct {
	// SearchTimeout bounds the search backend call, 0 leaves it unbounded.
	SearchTimeout time.Duration `json:"search-timeout" mapstructure:"search-timeout"`

	// ChatTimeout bounds the chat completion call, 0 leaves it unbounded.
	ChatTimeout time.Duration `json:"chat-timeout" mapstructure:"chat-timeout"`

	// MaxConcurrentGenerations caps in-flight chat calls.
	MaxConcurrentGenerations int `json:"max-concurrent-generations" mapstructure:"max-concurrent-generations"`

	// MaxWaitingGenerations caps queries waiting for a chat slot; beyond it the service answers 503.
	MaxWaitingGenerations int `json:"max-waiting-generations" mapstructure:"max-waiting-generations"`

	// BreakerMaxFailures opens the chat circuit breaker after this many consecutive failures, 0 disables it.
	BreakerMaxFailures int `json:"breaker-max-failures" mapstructure:"breaker-max-failures"`

	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration `json:"breaker-timeout" mapstructure:"breaker-timeout"`
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		SearchTimeout:            10 * time.Second,
		ChatTimeout:              60 * time.Second,
		MaxConcurrentGenerations: 64,
		MaxWaitingGenerations:    256,
		BreakerMaxFailures:       5,
		BreakerTimeout:           30 * time.Second,
	}
}

// AddFlags adds flags for query options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(append(prefixes, "query")...)
	fs.DurationVar(&o.SearchTimeout, p+"search-timeout", o.SearchTimeout, "Timeout of the search backend call, 0 for none.")
	fs.DurationVar(&o.ChatTimeout, p+"chat-timeout", o.ChatTimeout, "Timeout of the chat completion call, 0 for none.")
	fs.IntVar(&o.MaxConcurrentGenerations, p+"max-concurrent-generations", o.MaxConcurrentGenerations, "Maximum concurrent chat completion calls.")
	fs.IntVar(&o.MaxWaitingGenerations, p+"max-waiting-generations", o.MaxWaitingGenerations, "Maximum queries waiting for a chat slot before answering 503.")
	fs.IntVar(&o.BreakerMaxFailures, p+"breaker-max-failures", o.BreakerMaxFailures, "Consecutive chat failures that open the circuit breaker, 0 disables it.")
	fs.DurationVar(&o.BreakerTimeout, p+"breaker-timeout", o.BreakerTimeout, "How long the chat circuit breaker stays open.")
}

// Validate validates the query options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.SearchTimeout < 0 {
		errs = append(errs, fmt.Errorf("query.search-timeout cannot be negative"))
	}
	if o.ChatTimeout < 0 {
		errs = append(errs, fmt.Errorf("query.chat-timeout cannot be negative"))
	}
	if o.MaxConcurrentGenerations <= 0 {
		errs = append(errs, fmt.Errorf("query.max-concurrent-generations must be positive"))
	}
	if o.MaxWaitingGenerations < 0 {
		errs = append(errs, fmt.Errorf("query.max-waiting-generations cannot be negative"))
	}
	if o.BreakerMaxFailures < 0 {
		errs = append(errs, fmt.Errorf("query.breaker-max-failures cannot be negative"))
	}
	if o.BreakerMaxFailures > 0 && o.BreakerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("query.breaker-timeout must be positive when the breaker is enabled"))
	}
	return errs
}
