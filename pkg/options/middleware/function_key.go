package middleware

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

// FunctionKeyOptions defines the function key middleware options.
// With no keys configured the query endpoint is anonymous.
type FunctionKeyOptions struct {
	// Keys 允许的函数密钥。
	Keys []string `json:"-" mapstructure:"keys"`
	// Header 携带密钥的请求头。
	Header string `json:"header" mapstructure:"header"`
	// QueryParam 携带密钥的查询参数。
	QueryParam string `json:"query-param" mapstructure:"query-param"`
}

// NewFunctionKeyOptions creates default function key options.
func NewFunctionKeyOptions() *FunctionKeyOptions {
	return &FunctionKeyOptions{
		Header:     "x-functions-key",
		QueryParam: "code",
	}
}

// Enabled reports whether at least one non-empty key is configured.
func (o *FunctionKeyOptions) Enabled() bool {
	for _, k := range o.Keys {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// AddFlags adds flags for function key options to the specified FlagSet.
func (o *FunctionKeyOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(append(prefixes, "function-key")...)
	fs.StringSliceVar(&o.Keys, p+"keys", o.Keys, "Accepted function keys; empty disables key enforcement.")
	fs.StringVar(&o.Header, p+"header", o.Header, "Header carrying the function key.")
	fs.StringVar(&o.QueryParam, p+"query-param", o.QueryParam, "Query parameter carrying the function key.")
}

// Validate validates the function key options.
func (o *FunctionKeyOptions) Validate() []error {
	if o == nil || !o.Enabled() {
		return nil
	}
	if o.Header == "" && o.QueryParam == "" {
		return []error{errors.New("function key header or query parameter is required")}
	}
	return nil
}
