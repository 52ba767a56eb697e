package middleware

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

// RequestIDOptions defines request ID middleware options.
type RequestIDOptions struct {
	// Header 读取和回写请求 ID 的请求头。
	Header string `json:"header" mapstructure:"header"`
	// MaxLength 超过该长度的入站请求 ID 会被丢弃并重新生成。
	MaxLength int `json:"max-length" mapstructure:"max-length"`
}

// NewRequestIDOptions creates default request ID middleware options.
func NewRequestIDOptions() *RequestIDOptions {
	return &RequestIDOptions{
		Header:    "X-Request-ID",
		MaxLength: 128,
	}
}

// AddFlags adds flags for request ID options to the specified FlagSet.
func (o *RequestIDOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(append(prefixes, "request-id")...)
	fs.StringVar(&o.Header, p+"header", o.Header, "Request ID header name.")
	fs.IntVar(&o.MaxLength, p+"max-length", o.MaxLength, "Maximum accepted length of an incoming request ID.")
}

// Validate validates the request ID options.
func (o *RequestIDOptions) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Header == "" {
		errs = append(errs, errors.New("request ID header name is required"))
	}
	if o.MaxLength <= 0 {
		errs = append(errs, errors.New("request ID max length must be positive"))
	}
	return errs
}
