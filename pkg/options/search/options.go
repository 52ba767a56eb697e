// Package search provides configuration options for the document search backend.
package search

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported backends.
const (
	BackendAzure  = "azure"
	BackendRedis  = "redis"
	BackendMilvus = "milvus"
)

// Options selects and configures the search backend.
type Options struct {
	// Backend is one of azure, redis, milvus.
	Backend string `json:"backend" mapstructure:"backend"`

	Azure  *AzureOptions  `json:"azure" mapstructure:"azure"`
	Redis  *RedisOptions  `json:"redis" mapstructure:"redis"`
	Milvus *MilvusOptions `json:"milvus" mapstructure:"milvus"`

	// Fields maps the document attributes onto the index schema.
	Fields *FieldOptions `json:"fields" mapstructure:"fields"`
}

// AzureOptions configures Azure AI Search.
type AzureOptions struct {
	Endpoint   string        `json:"endpoint" mapstructure:"endpoint"`
	Index      string        `json:"index" mapstructure:"index"`
	APIKey     string        `json:"-" mapstructure:"api-key"`
	APIVersion string        `json:"api-version" mapstructure:"api-version"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max-retries" mapstructure:"max-retries"`
}

// RedisOptions configures a RediSearch index. Connection settings live in the redis section.
type RedisOptions struct {
	Index string `json:"index" mapstructure:"index"`
}

// MilvusOptions configures a Milvus collection. Connection settings live in the milvus section.
type MilvusOptions struct {
	Collection  string `json:"collection" mapstructure:"collection"`
	VectorField string `json:"vector-field" mapstructure:"vector-field"`
}

// FieldOptions names the index fields holding each document attribute.
type FieldOptions struct {
	ID      string `json:"id" mapstructure:"id"`
	Title   string `json:"title" mapstructure:"title"`
	Content string `json:"content" mapstructure:"content"`
	URL     string `json:"url" mapstructure:"url"`
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Backend: BackendAzure,
		Azure: &AzureOptions{
			APIVersion: "2023-11-01",
			Timeout:    30 * time.Second,
		},
		Redis: &RedisOptions{
			Index: "idx:documents",
		},
		Milvus: &MilvusOptions{
			Collection:  "documents",
			VectorField: "embedding",
		},
		Fields: &FieldOptions{
			ID:      "id",
			Title:   "title",
			Content: "content",
			URL:     "url",
		},
	}
}

// AddFlags adds flags for search options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(append(prefixes, "search")...)
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Search backend (azure, redis, milvus).")

	fs.StringVar(&o.Azure.Endpoint, p+"azure.endpoint", o.Azure.Endpoint, "Azure AI Search service endpoint.")
	fs.StringVar(&o.Azure.Index, p+"azure.index", o.Azure.Index, "Azure AI Search index name.")
	fs.StringVar(&o.Azure.APIKey, p+"azure.api-key", o.Azure.APIKey, "Azure AI Search query key.")
	fs.StringVar(&o.Azure.APIVersion, p+"azure.api-version", o.Azure.APIVersion, "Azure AI Search api-version.")
	fs.DurationVar(&o.Azure.Timeout, p+"azure.timeout", o.Azure.Timeout, "Azure AI Search HTTP client timeout.")
	fs.IntVar(&o.Azure.MaxRetries, p+"azure.max-retries", o.Azure.MaxRetries, "Retries on 5xx or network errors, 0 disables retries.")

	fs.StringVar(&o.Redis.Index, p+"redis.index", o.Redis.Index, "RediSearch index name.")

	fs.StringVar(&o.Milvus.Collection, p+"milvus.collection", o.Milvus.Collection, "Milvus collection name.")
	fs.StringVar(&o.Milvus.VectorField, p+"milvus.vector-field", o.Milvus.VectorField, "Milvus vector field searched with the question embedding.")

	fs.StringVar(&o.Fields.ID, p+"fields.id", o.Fields.ID, "Index field holding the document id.")
	fs.StringVar(&o.Fields.Title, p+"fields.title", o.Fields.Title, "Index field holding the document title.")
	fs.StringVar(&o.Fields.Content, p+"fields.content", o.Fields.Content, "Index field holding the document content.")
	fs.StringVar(&o.Fields.URL, p+"fields.url", o.Fields.URL, "Index field holding the document URL.")
}

// FillFromEnv fills empty Azure settings from the given environment variables.
func (o *Options) FillFromEnv(endpointVar, indexVar, keyVar string) {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	fill(&o.Azure.Endpoint, endpointVar)
	fill(&o.Azure.Index, indexVar)
	fill(&o.Azure.APIKey, keyVar)
}

// Validate validates the search options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Backend {
	case BackendAzure:
		if o.Azure.Endpoint == "" {
			errs = append(errs, fmt.Errorf("search.azure.endpoint is required"))
		}
		if o.Azure.Index == "" {
			errs = append(errs, fmt.Errorf("search.azure.index is required"))
		}
		if o.Azure.APIKey == "" {
			errs = append(errs, fmt.Errorf("search.azure.api-key is required"))
		}
		if o.Azure.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("search.azure.timeout must be positive"))
		}
	case BackendRedis:
		if o.Redis.Index == "" {
			errs = append(errs, fmt.Errorf("search.redis.index is required"))
		}
	case BackendMilvus:
		if o.Milvus.Collection == "" {
			errs = append(errs, fmt.Errorf("search.milvus.collection is required"))
		}
		if o.Milvus.VectorField == "" {
			errs = append(errs, fmt.Errorf("search.milvus.vector-field is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported search backend %q", o.Backend))
	}

	if o.Fields.ID == "" {
		errs = append(errs, fmt.Errorf("search.fields.id is required"))
	}
	return errs
}
