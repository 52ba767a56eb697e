// Package middleware provides the gin middleware shared by HTTP servers.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

// HeaderXRequestID is re-exported from common.
const HeaderXRequestID = common.HeaderXRequestID

// GetRequestID returns the request ID from the context.
var GetRequestID = common.GetRequestID

// RequestID returns a middleware that adds a request ID with default options.
func RequestID() gin.HandlerFunc {
	return RequestIDWithOptions(*mwopts.NewRequestIDOptions(), nil)
}

// RequestIDWithOptions 返回请求 ID 中间件。
// 入站请求头中合法的 ID 原样沿用，否则生成新的 ULID。
// ID 写入响应头和请求上下文。generator 为 nil 时使用 common.GenerateRequestID。
func RequestIDWithOptions(opts mwopts.RequestIDOptions, generator func() string) gin.HandlerFunc {
	if opts.Header == "" {
		opts.Header = HeaderXRequestID
	}
	if generator == nil {
		generator = common.GenerateRequestID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(opts.Header)
		if requestID == "" || (opts.MaxLength > 0 && len(requestID) > opts.MaxLength) {
			requestID = generator()
		}

		c.Header(opts.Header, requestID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
