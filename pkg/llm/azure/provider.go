// Package azure 提供 Azure OpenAI 的 LLM 供应商实现。
//
// Azure OpenAI 按部署（deployment）寻址，使用 api-key 请求头鉴权，
// 报文格式与 OpenAI 一致，复用 openai 包中的请求/响应结构。
//
// 用法：
//
//	import _ "github.com/kart-io/ragquery/pkg/llm/azure"
//
//	provider, err := llm.NewChatProvider("azure", map[string]any{
//	    "endpoint":   "https://my-resource.openai.azure.com",
//	    "api_key":    "...",
//	    "deployment": "gpt-4o",
//	})
package azure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kart-io/ragquery/pkg/llm"
	"github.com/kart-io/ragquery/pkg/llm/openai"
	"github.com/kart-io/ragquery/pkg/utils/httpclient"
)

// ProviderName 是 Azure OpenAI 供应商的名称标识符。
const ProviderName = "azure"

// DefaultAPIVersion 默认的 Azure OpenAI API 版本。
const DefaultAPIVersion = "2024-02-15-preview"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Azure OpenAI 供应商配置。
type Config struct {
	// Endpoint 资源地址，例如 https://my-resource.openai.azure.com。
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// APIKey 资源密钥。
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Deployment 对话模型部署名称。
	Deployment string `json:"deployment" mapstructure:"deployment"`

	// EmbedDeployment 嵌入模型部署名称（仅 Milvus 检索后端需要）。
	EmbedDeployment string `json:"embed_deployment" mapstructure:"embed_deployment"`

	// APIVersion 请求的 api-version 参数。
	APIVersion string `json:"api_version" mapstructure:"api_version"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数，默认 0（不重试）。
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		APIVersion: DefaultAPIVersion,
		Timeout:    60 * time.Second,
	}
}

// Provider Azure OpenAI 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建 Azure OpenAI 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["endpoint"].(string); ok && v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["deployment"].(string); ok && v != "" {
		cfg.Deployment = v
	}
	if v, ok := configMap["embed_deployment"].(string); ok && v != "" {
		cfg.EmbedDeployment = v
	}
	if v, ok := configMap["api_version"].(string); ok && v != "" {
		cfg.APIVersion = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure: endpoint 是必需的")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure: api_key 是必需的")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Azure OpenAI 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// Chat 调用部署的 chat/completions 接口。req.Model 非空时作为部署名称。
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	deployment := req.Model
	if deployment == "" {
		deployment = p.config.Deployment
	}
	if deployment == "" {
		return nil, fmt.Errorf("azure: 未配置对话部署")
	}

	// 部署已在 URL 中确定，请求体不携带 model。
	httpReq, err := openai.NewJSONRequest(ctx, p.deploymentURL(deployment, "chat/completions"),
		openai.NewChatCompletionRequest("", req))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("api-key", p.config.APIKey)

	var resp openai.ChatCompletionResponse
	if err := p.client.DoJSON(httpReq, &resp); err != nil {
		return nil, err
	}
	return resp.ToChatResponse(), nil
}

// Embed 调用嵌入部署生成向量。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if p.config.EmbedDeployment == "" {
		return nil, fmt.Errorf("azure: 未配置嵌入部署")
	}

	httpReq, err := openai.NewJSONRequest(ctx, p.deploymentURL(p.config.EmbedDeployment, "embeddings"),
		openai.EmbeddingRequest{Input: texts})
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("api-key", p.config.APIKey)

	var resp openai.EmbeddingResponse
	if err := p.client.DoJSON(httpReq, &resp); err != nil {
		return nil, err
	}
	return resp.Vectors(len(texts)), nil
}

// EmbedSingle 为单个文本生成向量。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return openai.EmbedOne(ctx, p, text)
}

func (p *Provider) deploymentURL(deployment, op string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s",
		p.config.Endpoint, url.PathEscape(deployment), op, url.QueryEscape(p.config.APIVersion))
}

var _ llm.Provider = (*Provider)(nil)
