// Package router provides RAG query service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/internal/ragquery/handler"
	"github.com/kart-io/ragquery/internal/ragquery/metrics"
	"github.com/kart-io/ragquery/pkg/infra/middleware/auth"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

// Query routes. /api/ragQuery is the path the service is reachable on behind a Functions host.
const (
	QueryPath    = "/ragQuery"
	APIQueryPath = "/api/ragQuery"
	HealthPath   = "/healthz"
	MetricsPath  = "/metrics"
)

// Register registers the RAG query routes on router.
// The query routes require a function key when keys are configured; health and metrics never do.
func Register(router gin.IRouter, ragHandler *handler.RAGHandler, m *metrics.QueryMetrics, keyOpts *mwopts.FunctionKeyOptions) {
	logger.Info("Registering RAG query routes...")

	keyed := router.Group("", auth.FunctionKey(*keyOpts))
	{
		keyed.POST(QueryPath, ragHandler.Query)
		keyed.POST(APIQueryPath, ragHandler.Query)
	}

	router.GET(HealthPath, handler.Healthz)
	router.GET(MetricsPath, handler.Metrics(m))

	logger.Infow("HTTP routes registered",
		"query", []string{QueryPath, APIQueryPath},
		"function_key", keyOpts.Enabled(),
	)
}
