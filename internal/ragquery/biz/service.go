package biz

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/ragquery/internal/ragquery/metrics"
	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	"github.com/kart-io/ragquery/pkg/infra/tracing"
	"github.com/kart-io/ragquery/pkg/utils/errors"
)

// tracerName 业务层 Span 的 tracer 名称。
const tracerName = "github.com/kart-io/ragquery/internal/ragquery/biz"

// Service 定义 RAG 查询服务接口。
type Service interface {
	// Query 执行一次完整的 RAG 查询。
	Query(ctx context.Context, question, businessContext string) (*Response, error)
}

// RAGService 组合 Retriever 和 Generator 提供查询服务。
type RAGService struct {
	retriever *Retriever
	generator *Generator
	metrics   *metrics.QueryMetrics
}

// NewRAGService 创建 RAG 查询服务实例，m 为 nil 时使用全局指标。
func NewRAGService(retriever *Retriever, generator *Generator, m *metrics.QueryMetrics) *RAGService {
	if m == nil {
		m = metrics.GetQueryMetrics()
	}
	return &RAGService{
		retriever: retriever,
		generator: generator,
		metrics:   m,
	}
}

// Query 依次执行校验、检索、上下文拼接、生成、引用构建和响应组装，任一步失败即返回。
func (s *RAGService) Query(ctx context.Context, question, businessContext string) (resp *Response, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RAGService.Query")
	defer func() { tracing.EndSpan(span, err) }()

	// 1. 校验
	q, err := NewQuery(question, businessContext)
	if err != nil {
		s.metrics.RecordInvalid()
		logger.Infow("Query rejected",
			"request_id", common.GetRequestID(ctx),
			"reason", err.Error(),
		)
		return nil, err
	}

	defer func() {
		s.metrics.RecordQuery(err)
		if err == nil {
			return
		}
		if errors.IsCode(err, errors.ErrServiceBusy.Code) {
			s.metrics.RecordRejected()
		}
	}()

	// 2. 检索
	docs, err := s.retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	// 3. 拼接上下文
	promptContext := AssembleContext(docs)
	span.SetAttributes(
		attribute.Int("rag.documents", len(docs)),
		attribute.Int("rag.context_length", len(promptContext)),
	)

	// 4. 生成答案
	gen, err := s.generate(ctx, q, promptContext)
	if err != nil {
		return nil, err
	}

	// 5. 构建引用并组装响应
	return NewResponse(gen.Answer, BuildCitations(docs), docs), nil
}

func (s *RAGService) retrieve(ctx context.Context, q *Query) (docs []Document, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Retriever.Retrieve")
	span.SetAttributes(attribute.String("rag.backend", s.retriever.backend.Name()))
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	docs, err = s.retriever.Retrieve(ctx, q)
	s.metrics.RecordRetrieval(time.Since(start), len(docs), err)
	if err != nil {
		logger.Errorw("Retrieval failed",
			"request_id", common.GetRequestID(ctx),
			"stage", "retrieval",
			"backend", s.retriever.backend.Name(),
			"error", err.Error(),
		)
		return nil, err
	}
	return docs, nil
}

func (s *RAGService) generate(ctx context.Context, q *Query, promptContext string) (gen *Generation, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Generator.Generate")
	span.SetAttributes(attribute.String("rag.model", s.generator.config.Model))
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	gen, err = s.generator.Generate(ctx, q.Question, promptContext)

	var promptTokens, completionTokens int
	if gen != nil && gen.Usage != nil {
		promptTokens = gen.Usage.PromptTokens
		completionTokens = gen.Usage.CompletionTokens
	}
	if !isCallerGone(err) {
		s.metrics.RecordLLMCall(time.Since(start), promptTokens, completionTokens, err)
	}

	if err != nil {
		logger.Errorw("Generation failed",
			"request_id", common.GetRequestID(ctx),
			"stage", "generation",
			"provider", s.generator.chatProvider.Name(),
			"error", err.Error(),
		)
		return nil, err
	}
	return gen, nil
}

// isCallerGone 调用方取消不计为 LLM 调用失败。
func isCallerGone(err error) bool {
	return stderrors.Is(err, context.Canceled)
}

var _ Service = (*RAGService)(nil)
