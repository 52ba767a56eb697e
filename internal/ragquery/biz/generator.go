package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/pkg/infra/pool"
	"github.com/kart-io/ragquery/pkg/llm"
	"github.com/kart-io/ragquery/pkg/utils/errors"
)

// 生成参数。
const (
	// SystemPrompt 约束模型只依据给定上下文作答。
	SystemPrompt = "Answer only using the context provided."
	// DefaultTemperature 生成温度。
	DefaultTemperature = 0.2
)

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// Model 模型名称，azure 供应商下为部署名称。
	Model string
	// Timeout 单次生成超时，0 表示不限制。
	Timeout time.Duration
}

// Generation 是一次生成的结果。
type Generation struct {
	// Answer 第一个候选回复的内容，无候选时为空字符串。
	Answer string
	// Usage token 消耗，供应商未返回时为 nil。
	Usage *llm.TokenUsage
}

// Generator 负责答案生成。
type Generator struct {
	chatProvider llm.ChatProvider
	limiter      *pool.Limiter
	config       *GeneratorConfig
}

// NewGenerator 创建生成器实例。limiter 为 nil 时不限制并发。
func NewGenerator(chatProvider llm.ChatProvider, limiter *pool.Limiter, config *GeneratorConfig) *Generator {
	return &Generator{
		chatProvider: chatProvider,
		limiter:      limiter,
		config:       config,
	}
}

// Messages 构建发送给模型的两条消息。
func Messages(question, promptContext string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Question: %s\n\nContext:\n%s", question, promptContext)},
	}
}

// Generate 根据问题和上下文生成答案。
// 并发已满或熔断器打开时返回 ErrServiceBusy，其余失败返回 ErrGeneration。
func (g *Generator) Generate(ctx context.Context, question, promptContext string) (*Generation, error) {
	req := &llm.ChatRequest{
		Model:       g.config.Model,
		Messages:    Messages(question, promptContext),
		Temperature: DefaultTemperature,
	}

	var resp *llm.ChatResponse
	call := func(ctx context.Context) error {
		if g.config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
			defer cancel()
		}
		r, err := g.chatProvider.Chat(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	var err error
	if g.limiter != nil {
		err = g.limiter.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, classifyGenerationError(err)
	}

	gen := &Generation{Answer: resp.Content(), Usage: resp.Usage}
	logger.Debugw("Answer generated",
		"provider", g.chatProvider.Name(),
		"answer_length", len(gen.Answer),
	)
	return gen, nil
}

func classifyGenerationError(err error) error {
	// 熔断打开属于生成失败，仅并发队列已满时返回 503。
	if stderrors.Is(err, pool.ErrPoolOverload) {
		return errors.ErrServiceBusy.WithCause(err)
	}
	return errors.ErrGeneration.WithCause(err)
}
