package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/ragquery/internal/ragquery/metrics"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "ragquery"

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Metrics exports m in the Prometheus text format.
func Metrics(m *metrics.QueryMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(m.Export(MetricsNamespace, "")))
	}
}
