// Package options contains flags and options for initializing the RAG query server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/ragquery/internal/ragquery"
	cliflag "github.com/kart-io/ragquery/pkg/app/cliflag"
	"github.com/kart-io/ragquery/pkg/infra/app"
	llmopts "github.com/kart-io/ragquery/pkg/options/llm"
	logopts "github.com/kart-io/ragquery/pkg/options/logger"
	middlewareopts "github.com/kart-io/ragquery/pkg/options/middleware"
	milvusopts "github.com/kart-io/ragquery/pkg/options/milvus"
	queryopts "github.com/kart-io/ragquery/pkg/options/query"
	redisopts "github.com/kart-io/ragquery/pkg/options/redis"
	searchopts "github.com/kart-io/ragquery/pkg/options/search"
	httpopts "github.com/kart-io/ragquery/pkg/options/server/http"
	tracingopts "github.com/kart-io/ragquery/pkg/options/tracing"
)

// Environment variables read when the matching option is left empty.
const (
	EnvSearchEndpoint   = "AZURE_SEARCH_ENDPOINT"
	EnvSearchIndex      = "AZURE_SEARCH_INDEX"
	EnvSearchKey        = "AZURE_SEARCH_KEY"
	EnvOpenAIEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvOpenAIKey        = "AZURE_OPENAI_KEY"
	EnvOpenAIDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvOpenAIAPIVersion = "AZURE_OPENAI_API_VERSION"
	EnvOpenAIEmbedding  = "AZURE_OPENAI_EMBEDDING_DEPLOYMENT"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// MiddlewareOptions contains the HTTP middleware configuration.
	MiddlewareOptions *middlewareopts.Options `json:"middleware" mapstructure:"middleware"`

	// SearchOptions selects and configures the search backend.
	SearchOptions *searchopts.Options `json:"search" mapstructure:"search"`

	// RedisOptions contains the Redis connection used by the redis backend.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// MilvusOptions contains the Milvus connection used by the milvus backend.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// EmbeddingOptions contains embedding provider configuration, used by the milvus backend.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// QueryOptions bounds the backend calls of a single query.
	QueryOptions *queryopts.Options `json:"query" mapstructure:"query"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracingopts.NewOptions(),
		MiddlewareOptions: middlewareopts.NewOptions(),
		SearchOptions:     searchopts.NewOptions(),
		RedisOptions:      redisopts.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		ChatOptions:       llmopts.NewProviderOptions(),
		EmbeddingOptions:  llmopts.NewProviderOptions(),
		QueryOptions:      queryopts.NewOptions(),
		ShutdownTimeout:   30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.MiddlewareOptions.AddFlags(fss.FlagSet("middleware"))
	o.SearchOptions.AddFlags(fss.FlagSet("search"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.QueryOptions.AddFlags(fss.FlagSet("query"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	o.SearchOptions.FillFromEnv(EnvSearchEndpoint, EnvSearchIndex, EnvSearchKey)
	if o.ChatOptions.Provider == llmopts.ProviderAzure {
		o.ChatOptions.FillFromEnv(EnvOpenAIEndpoint, EnvOpenAIKey, EnvOpenAIDeployment, EnvOpenAIAPIVersion)
	}
	if o.EmbeddingOptions.Provider == llmopts.ProviderAzure {
		o.EmbeddingOptions.FillFromEnv(EnvOpenAIEndpoint, EnvOpenAIKey, EnvOpenAIEmbedding, EnvOpenAIAPIVersion)
	}
	o.TracingOptions.Complete(ragquery.Name, app.GetVersion())
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
// Connection sections are only checked for the backend that uses them.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.MiddlewareOptions.Validate()...)
	errs = append(errs, o.SearchOptions.Validate()...)
	errs = append(errs, o.QueryOptions.Validate()...)
	errs = append(errs, prefixed("chat", o.ChatOptions.Validate())...)

	switch o.SearchOptions.Backend {
	case searchopts.BackendRedis:
		errs = append(errs, o.RedisOptions.Validate()...)
	case searchopts.BackendMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
		errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	}

	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a ragquery.Config based on ServerOptions.
func (o *ServerOptions) Config() (*ragquery.Config, error) {
	return &ragquery.Config{
		HTTPOptions:       o.HTTPOptions,
		LogOptions:        o.LogOptions,
		TracingOptions:    o.TracingOptions,
		MiddlewareOptions: o.MiddlewareOptions,
		SearchOptions:     o.SearchOptions,
		RedisOptions:      o.RedisOptions,
		MilvusOptions:     o.MilvusOptions,
		ChatOptions:       o.ChatOptions,
		EmbeddingOptions:  o.EmbeddingOptions,
		QueryOptions:      o.QueryOptions,
		ShutdownTimeout:   o.ShutdownTimeout,
	}, nil
}

func prefixed(section string, errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		out = append(out, fmt.Errorf("%s: %w", section, err))
	}
	return out
}
