// Package metrics 提供 RAG 查询服务的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// 熔断器状态取值，与 resilience.CircuitBreakerState 一致。
const (
	BreakerClosed   int32 = 0
	BreakerOpen     int32 = 1
	BreakerHalfOpen int32 = 2
)

// QueryMetrics 查询服务业务指标。
type QueryMetrics struct {
	// 查询指标
	queriesTotal    uint64 // 总查询次数
	queriesInvalid  uint64 // 校验失败次数
	queriesErrors   uint64 // 查询错误次数
	queriesRejected uint64 // 因生成并发已满被拒绝的次数

	// 检索指标
	retrievalTotal     uint64  // 总检索次数
	retrievalDuration  float64 // 检索总耗时（秒）
	retrievalErrors    uint64  // 检索错误次数
	retrievalDocuments uint64  // 返回文档总数

	// LLM 调用指标
	llmCallsTotal       uint64  // LLM 总调用次数
	llmCallsDuration    float64 // LLM 调用总耗时（秒）
	llmCallsErrors      uint64  // LLM 调用错误次数
	llmTokensPrompt     uint64  // Prompt tokens 总数
	llmTokensCompletion uint64  // Completion tokens 总数

	// 熔断器指标
	circuitBreakerOpens uint64 // 熔断器打开次数
	circuitBreakerState int32  // 熔断器当前状态 (0=closed, 1=open, 2=half-open)

	durationMu sync.Mutex
	startTime  time.Time

	// 生成并发限制器，用于导出实时并发与排队数
	limiterMu sync.RWMutex
	limiter   LimiterStats
}

// LimiterStats 生成并发限制器的实时状态，由 pool.Limiter 实现。
type LimiterStats interface {
	Running() int
	Waiting() int
}

var (
	globalMetrics *QueryMetrics
	metricsOnce   sync.Once
)

// GetQueryMetrics 获取全局指标实例。
func GetQueryMetrics() *QueryMetrics {
	metricsOnce.Do(func() {
		globalMetrics = New()
	})
	return globalMetrics
}

// New 创建独立的指标实例，测试中使用。
func New() *QueryMetrics {
	return &QueryMetrics{startTime: time.Now()}
}

// RecordQuery 记录一次查询的最终结果。
func (m *QueryMetrics) RecordQuery(err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
	}
}

// RecordInvalid 记录校验失败的请求。
func (m *QueryMetrics) RecordInvalid() {
	atomic.AddUint64(&m.queriesInvalid, 1)
}

// RecordRejected 记录因过载被拒绝的请求。
func (m *QueryMetrics) RecordRejected() {
	atomic.AddUint64(&m.queriesRejected, 1)
}

// RecordRetrieval 记录检索操作。
func (m *QueryMetrics) RecordRetrieval(duration time.Duration, documents int, err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
		return
	}
	atomic.AddUint64(&m.retrievalDocuments, uint64(documents))

	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordLLMCall 记录 LLM 调用。
func (m *QueryMetrics) RecordLLMCall(duration time.Duration, promptTokens, completionTokens int, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()

	if promptTokens > 0 {
		atomic.AddUint64(&m.llmTokensPrompt, uint64(promptTokens))
	}
	if completionTokens > 0 {
		atomic.AddUint64(&m.llmTokensCompletion, uint64(completionTokens))
	}
}

// RecordCircuitBreakerState 记录熔断器状态变化，进入 open 时计数。
func (m *QueryMetrics) RecordCircuitBreakerState(state int32) {
	if state == BreakerOpen {
		atomic.AddUint64(&m.circuitBreakerOpens, 1)
	}
	atomic.StoreInt32(&m.circuitBreakerState, state)
}

// SetGenerationLimiter 设置导出 generation_running 与 generation_waiting 所用的限制器。
func (m *QueryMetrics) SetGenerationLimiter(l LimiterStats) {
	m.limiterMu.Lock()
	m.limiter = l
	m.limiterMu.Unlock()
}

func (m *QueryMetrics) generationLimiter() LimiterStats {
	m.limiterMu.RLock()
	defer m.limiterMu.RUnlock()
	return m.limiter
}

// Export 导出 Prometheus 文本格式指标。
func (m *QueryMetrics) Export(namespace, subsystem string) string {
	var sb strings.Builder
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	startTime := m.startTime
	m.durationMu.Unlock()

	// 查询指标
	writeCounter(&sb, prefix, "queries_total", "Total number of RAG queries.", atomic.LoadUint64(&m.queriesTotal))
	writeCounter(&sb, prefix, "queries_invalid_total", "Number of queries rejected by validation.", atomic.LoadUint64(&m.queriesInvalid))
	writeCounter(&sb, prefix, "queries_errors_total", "Number of failed queries.", atomic.LoadUint64(&m.queriesErrors))
	writeCounter(&sb, prefix, "queries_rejected_total", "Number of queries rejected while generation was saturated.", atomic.LoadUint64(&m.queriesRejected))

	// 检索指标
	writeCounter(&sb, prefix, "retrieval_total", "Total number of retrievals.", atomic.LoadUint64(&m.retrievalTotal))
	writeMetric(&sb, prefix, "retrieval_duration_seconds_total", "Total retrieval duration.", "counter", fmt.Sprintf("%.6f", retrievalDuration))
	writeCounter(&sb, prefix, "retrieval_errors_total", "Number of retrieval errors.", atomic.LoadUint64(&m.retrievalErrors))
	writeCounter(&sb, prefix, "retrieval_documents_total", "Total documents returned by retrieval.", atomic.LoadUint64(&m.retrievalDocuments))

	// LLM 调用指标
	writeCounter(&sb, prefix, "llm_calls_total", "Total number of LLM calls.", atomic.LoadUint64(&m.llmCallsTotal))
	writeMetric(&sb, prefix, "llm_calls_duration_seconds_total", "Total LLM call duration.", "counter", fmt.Sprintf("%.6f", llmDuration))
	writeCounter(&sb, prefix, "llm_calls_errors_total", "Number of LLM call errors.", atomic.LoadUint64(&m.llmCallsErrors))
	writeCounter(&sb, prefix, "llm_tokens_prompt_total", "Total prompt tokens.", atomic.LoadUint64(&m.llmTokensPrompt))
	writeCounter(&sb, prefix, "llm_tokens_completion_total", "Total completion tokens.", atomic.LoadUint64(&m.llmTokensCompletion))

	// 熔断器指标
	writeCounter(&sb, prefix, "circuit_breaker_opens_total", "Number of circuit breaker opens.", atomic.LoadUint64(&m.circuitBreakerOpens))
	writeMetric(&sb, prefix, "circuit_breaker_state", "Circuit breaker state (0=closed, 1=open, 2=half-open).", "gauge",
		fmt.Sprintf("%d", atomic.LoadInt32(&m.circuitBreakerState)))

	// 生成并发指标
	if l := m.generationLimiter(); l != nil {
		writeMetric(&sb, prefix, "generation_running", "Chat calls currently running.", "gauge", fmt.Sprintf("%d", l.Running()))
		writeMetric(&sb, prefix, "generation_waiting", "Chat calls waiting for a generation slot.", "gauge", fmt.Sprintf("%d", l.Waiting()))
	}

	// 运行时间
	writeMetric(&sb, prefix, "uptime_seconds", "Service uptime in seconds.", "gauge", fmt.Sprintf("%.2f", time.Since(startTime).Seconds()))

	return sb.String()
}

// Stats 返回当前统计信息。
func (m *QueryMetrics) Stats() map[string]any {
	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	state := "closed"
	switch atomic.LoadInt32(&m.circuitBreakerState) {
	case BreakerOpen:
		state = "open"
	case BreakerHalfOpen:
		state = "half-open"
	}

	stats := map[string]any{
		"queries": map[string]any{
			"total":    atomic.LoadUint64(&m.queriesTotal),
			"invalid":  atomic.LoadUint64(&m.queriesInvalid),
			"errors":   atomic.LoadUint64(&m.queriesErrors),
			"rejected": atomic.LoadUint64(&m.queriesRejected),
		},
		"retrieval": map[string]any{
			"total":               atomic.LoadUint64(&m.retrievalTotal),
			"total_duration_secs": retrievalDuration,
			"errors":              atomic.LoadUint64(&m.retrievalErrors),
			"documents":           atomic.LoadUint64(&m.retrievalDocuments),
		},
		"llm": map[string]any{
			"calls_total":         atomic.LoadUint64(&m.llmCallsTotal),
			"total_duration_secs": llmDuration,
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"tokens_prompt":       atomic.LoadUint64(&m.llmTokensPrompt),
			"tokens_completion":   atomic.LoadUint64(&m.llmTokensCompletion),
		},
		"circuit_breaker": map[string]any{
			"state": state,
			"opens": atomic.LoadUint64(&m.circuitBreakerOpens),
		},
	}
	if l := m.generationLimiter(); l != nil {
		stats["generation"] = map[string]any{
			"running": l.Running(),
			"waiting": l.Waiting(),
		}
	}
	return stats
}

// Reset 重置所有指标（仅用于测试）。
func (m *QueryMetrics) Reset() {
	for _, p := range []*uint64{
		&m.queriesTotal, &m.queriesInvalid, &m.queriesErrors, &m.queriesRejected,
		&m.retrievalTotal, &m.retrievalErrors, &m.retrievalDocuments,
		&m.llmCallsTotal, &m.llmCallsErrors, &m.llmTokensPrompt, &m.llmTokensCompletion,
		&m.circuitBreakerOpens,
	} {
		atomic.StoreUint64(p, 0)
	}
	atomic.StoreInt32(&m.circuitBreakerState, BreakerClosed)

	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.llmCallsDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}

func writeCounter(sb *strings.Builder, prefix, name, help string, v uint64) {
	writeMetric(sb, prefix, name, help, "counter", fmt.Sprintf("%d", v))
}

func writeMetric(sb *strings.Builder, prefix, name, help, typ, value string) {
	fmt.Fprintf(sb, "# HELP %s_%s %s\n", prefix, name, help)
	fmt.Fprintf(sb, "# TYPE %s_%s %s\n", prefix, name, typ)
	fmt.Fprintf(sb, "%s_%s %s\n\n", prefix, name, value)
}
