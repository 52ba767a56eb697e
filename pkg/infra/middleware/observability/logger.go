// Package observability provides logging and tracing middleware.
package observability

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	"github.com/kart-io/ragquery/pkg/infra/middleware/requestutil"
	"github.com/kart-io/ragquery/pkg/infra/tracing"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

// fieldsPool is a sync.Pool for reusing fields slices to reduce heap allocations.
var fieldsPool = sync.Pool{
	New: func() any {
		s := make([]any, 0, 20)
		return &s
	},
}

func acquireFields() *[]any {
	return fieldsPool.Get().(*[]any)
}

func releaseFields(fields *[]any) {
	*fields = (*fields)[:0]
	fieldsPool.Put(fields)
}

// Logger returns a middleware that logs HTTP requests with default options.
func Logger() gin.HandlerFunc {
	return LoggerWithOptions(*mwopts.NewLoggerOptions())
}

// LoggerWithOptions 返回访问日志中间件，每个请求结束后输出一条结构化日志。
// 5xx 记为 error，4xx 记为 warn，其余为 info。
func LoggerWithOptions(opts mwopts.LoggerOptions) gin.HandlerFunc {
	skip := requestutil.NewPathSet(opts.SkipPaths)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skip.Has(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		req := c.Request
		status := c.Writer.Status()

		fields := acquireFields()
		defer releaseFields(fields)

		*fields = append(*fields,
			"method", req.Method,
			"path", path,
			"status", status,
			"client_ip", requestutil.GetClientIP(req),
			"latency", latency.String(),
			"latency_ms", latency.Milliseconds(),
			"bytes", c.Writer.Size(),
		)
		if requestID := common.GetRequestID(req.Context()); requestID != "" {
			*fields = append(*fields, "request_id", requestID)
		}
		if traceID := tracing.TraceIDFromContext(req.Context()); traceID != "" {
			*fields = append(*fields, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			*fields = append(*fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Errorw("HTTP Request", (*fields)...)
		case status >= 400:
			logger.Warnw("HTTP Request", (*fields)...)
		default:
			logger.Infow("HTTP Request", (*fields)...)
		}
	}
}
