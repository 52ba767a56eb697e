package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetQueryMetrics(t *testing.T) {
	assert.Same(t, GetQueryMetrics(), GetQueryMetrics(), "应该返回同一个单例实例")
}

func TestRecordQuery(t *testing.T) {
	m := New()

	m.RecordQuery(nil)
	m.RecordQuery(assert.AnError)
	m.RecordInvalid()
	m.RecordRejected()

	stats := m.Stats()["queries"].(map[string]any)
	assert.Equal(t, uint64(2), stats["total"])
	assert.Equal(t, uint64(1), stats["errors"])
	assert.Equal(t, uint64(1), stats["invalid"])
	assert.Equal(t, uint64(1), stats["rejected"])
}

func TestRecordRetrieval(t *testing.T) {
	m := New()

	m.RecordRetrieval(100*time.Millisecond, 3, nil)
	m.RecordRetrieval(time.Second, 0, assert.AnError)

	stats := m.Stats()["retrieval"].(map[string]any)
	assert.Equal(t, uint64(2), stats["total"])
	assert.Equal(t, uint64(1), stats["errors"])
	assert.Equal(t, uint64(3), stats["documents"])
	assert.InDelta(t, 0.1, stats["total_duration_secs"], 1e-9)
}

func TestRecordLLMCall(t *testing.T) {
	m := New()

	m.RecordLLMCall(2*time.Second, 100, 20, nil)
	m.RecordLLMCall(time.Second, 0, 0, assert.AnError)

	stats := m.Stats()["llm"].(map[string]any)
	assert.Equal(t, uint64(2), stats["calls_total"])
	assert.Equal(t, uint64(1), stats["errors"])
	assert.Equal(t, uint64(100), stats["tokens_prompt"])
	assert.Equal(t, uint64(20), stats["tokens_completion"])
	assert.InDelta(t, 2.0, stats["total_duration_secs"], 1e-9)
}

func TestRecordCircuitBreakerState(t *testing.T) {
	m := New()

	m.RecordCircuitBreakerState(BreakerOpen)
	cb := m.Stats()["circuit_breaker"].(map[string]any)
	assert.Equal(t, "open", cb["state"])
	assert.Equal(t, uint64(1), cb["opens"])

	m.RecordCircuitBreakerState(BreakerHalfOpen)
	assert.Equal(t, "half-open", m.Stats()["circuit_breaker"].(map[string]any)["state"])

	m.RecordCircuitBreakerState(BreakerClosed)
	cb = m.Stats()["circuit_breaker"].(map[string]any)
	assert.Equal(t, "closed", cb["state"])
	assert.Equal(t, uint64(1), cb["opens"])
}

func TestExport(t *testing.T) {
	m := New()
	m.RecordQuery(nil)
	m.RecordRetrieval(250*time.Millisecond, 5, nil)
	m.RecordCircuitBreakerState(BreakerOpen)

	out := m.Export("ragquery", "")
	assert.Contains(t, out, "# HELP ragquery_queries_total Total number of RAG queries.\n")
	assert.Contains(t, out, "# TYPE ragquery_queries_total counter\n")
	assert.Contains(t, out, "ragquery_queries_total 1\n")
	assert.Contains(t, out, "ragquery_retrieval_documents_total 5\n")
	assert.Contains(t, out, "ragquery_retrieval_duration_seconds_total 0.250000\n")
	assert.Contains(t, out, "# TYPE ragquery_circuit_breaker_state gauge\n")
	assert.Contains(t, out, "ragquery_circuit_breaker_state 1\n")
	assert.Contains(t, out, "ragquery_uptime_seconds ")

	assert.Contains(t, m.Export("app", "rag"), "app_rag_queries_total 1\n")
}

type fakeLimiter struct{ running, waiting int }

func (f fakeLimiter) Running() int { return f.running }
func (f fakeLimiter) Waiting() int { return f.waiting }

func TestGenerationLimiterGauges(t *testing.T) {
	m := New()
	assert.NotContains(t, m.Export("ragquery", ""), "generation_running")
	assert.NotContains(t, m.Stats(), "generation")

	m.SetGenerationLimiter(fakeLimiter{running: 3, waiting: 7})

	out := m.Export("ragquery", "")
	assert.Contains(t, out, "# TYPE ragquery_generation_running gauge\n")
	assert.Contains(t, out, "ragquery_generation_running 3\n")
	assert.Contains(t, out, "# TYPE ragquery_generation_waiting gauge\n")
	assert.Contains(t, out, "ragquery_generation_waiting 7\n")

	gen := m.Stats()["generation"].(map[string]any)
	assert.Equal(t, 3, gen["running"])
	assert.Equal(t, 7, gen["waiting"])
}

func TestReset(t *testing.T) {
	m := New()
	m.RecordQuery(assert.AnError)
	m.RecordLLMCall(time.Second, 1, 1, nil)
	m.RecordCircuitBreakerState(BreakerOpen)

	m.Reset()

	assert.Equal(t, uint64(0), m.Stats()["queries"].(map[string]any)["total"])
	assert.Equal(t, uint64(0), m.Stats()["llm"].(map[string]any)["calls_total"])
	assert.Equal(t, "closed", m.Stats()["circuit_breaker"].(map[string]any)["state"])
}

func TestConcurrentRecording(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery(nil)
			m.RecordRetrieval(time.Millisecond, 1, nil)
			m.RecordLLMCall(time.Millisecond, 1, 1, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), m.Stats()["queries"].(map[string]any)["total"])
	assert.Equal(t, uint64(50), m.Stats()["retrieval"].(map[string]any)["documents"])
	assert.Equal(t, uint64(50), m.Stats()["llm"].(map[string]any)["tokens_prompt"])
}
