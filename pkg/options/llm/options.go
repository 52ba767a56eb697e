// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragquery/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// 已知供应商名称，与 pkg/llm 下的注册名一致。
const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（azure, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// Endpoint Azure 资源地址或 OpenAI 兼容服务的 base URL。
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 模型名称；azure 供应商下为部署名称。
	Model string `json:"model" mapstructure:"model"`

	// APIVersion Azure OpenAI api-version 参数。
	APIVersion string `json:"api-version" mapstructure:"api-version"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数，默认 0。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewProviderOptions 创建默认 LLM 供应商配置。
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   ProviderAzure,
		APIVersion: "2024-02-15-preview",
		Timeout:    60 * time.Second,
	}
}

// AddFlags 将供应商参数注册到 fs，name 为配置段名（chat、embedding）。
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider (azure, openai).")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "Azure OpenAI resource endpoint or OpenAI-compatible base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name, or deployment name for the azure provider.")
	fs.StringVar(&o.APIVersion, p+"api-version", o.APIVersion, "Azure OpenAI api-version.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "OpenAI organization ID (optional).")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Retries on 5xx or network errors, 0 disables retries.")
}

// FillFromEnv 用环境变量补齐为空的字段，变量名为空时跳过。
func (o *ProviderOptions) FillFromEnv(endpointVar, keyVar, modelVar, versionVar string) {
	fill := func(dst *string, name string) {
		if *dst != "" || name == "" {
			return
		}
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	fill(&o.Endpoint, endpointVar)
	fill(&o.APIKey, keyVar)
	fill(&o.Model, modelVar)
	if v, ok := os.LookupEnv(versionVar); ok && versionVar != "" && v != "" {
		o.APIVersion = v
	}
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Provider {
	case ProviderAzure:
		if o.Endpoint == "" {
			errs = append(errs, fmt.Errorf("endpoint is required for azure provider"))
		}
		if o.Model == "" {
			errs = append(errs, fmt.Errorf("model (deployment) is required for azure provider"))
		}
	case ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unsupported provider %q", o.Provider))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max-retries cannot be negative"))
	}
	return errs
}

// ChatConfig 转换为 Chat 供应商工厂使用的配置 map。
func (o *ProviderOptions) ChatConfig() map[string]any {
	cfg := o.baseConfig()
	cfg["deployment"] = o.Model
	cfg["chat_model"] = o.Model
	return cfg
}

// EmbeddingConfig 转换为 Embedding 供应商工厂使用的配置 map。
func (o *ProviderOptions) EmbeddingConfig() map[string]any {
	cfg := o.baseConfig()
	cfg["embed_deployment"] = o.Model
	cfg["embed_model"] = o.Model
	return cfg
}

func (o *ProviderOptions) baseConfig() map[string]any {
	return map[string]any{
		"endpoint":     o.Endpoint,
		"base_url":     o.Endpoint,
		"api_key":      o.APIKey,
		"api_version":  o.APIVersion,
		"organization": o.Organization,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
	}
}
