package resilience

import (
	"context"

	"github.com/kart-io/ragquery/pkg/llm"
)

// ResilientChatProvider 带熔断的 Chat Provider 包装器。
type ResilientChatProvider struct {
	provider llm.ChatProvider
	cb       *CircuitBreaker
}

// NewResilientChatProvider 创建带熔断的 Chat Provider。
func NewResilientChatProvider(provider llm.ChatProvider, cbConfig *CircuitBreakerConfig) *ResilientChatProvider {
	return &ResilientChatProvider{
		provider: provider,
		cb:       NewCircuitBreaker(provider.Name()+"-chat", cbConfig),
	}
}

// Chat 经熔断器执行 Chat Completion 调用。
func (r *ResilientChatProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	var resp *llm.ChatResponse
	err := r.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		resp, err = r.provider.Chat(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Name 返回被包装供应商的名称。
func (r *ResilientChatProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 获取熔断器实例（用于监控）。
func (r *ResilientChatProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

// ResilientEmbeddingProvider 带熔断的 Embedding Provider 包装器。
type ResilientEmbeddingProvider struct {
	provider llm.EmbeddingProvider
	cb       *CircuitBreaker
}

// NewResilientEmbeddingProvider 创建带熔断的 Embedding Provider。
func NewResilientEmbeddingProvider(provider llm.EmbeddingProvider, cbConfig *CircuitBreakerConfig) *ResilientEmbeddingProvider {
	return &ResilientEmbeddingProvider{
		provider: provider,
		cb:       NewCircuitBreaker(provider.Name()+"-embedding", cbConfig),
	}
}

// Embed 经熔断器为多个文本生成向量。
func (r *ResilientEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.provider.Embed(ctx, texts)
		return err
	})
	return out, err
}

// EmbedSingle 经熔断器为单个文本生成向量。
func (r *ResilientEmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.provider.EmbedSingle(ctx, text)
		return err
	})
	return out, err
}

// Name 返回被包装供应商的名称。
func (r *ResilientEmbeddingProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 获取熔断器实例（用于监控）。
func (r *ResilientEmbeddingProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

var (
	_ llm.ChatProvider      = (*ResilientChatProvider)(nil)
	_ llm.EmbeddingProvider = (*ResilientEmbeddingProvider)(nil)
)
