package resilience

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/pkg/utils/errors"
	"github.com/kart-io/ragquery/pkg/utils/response"
)

// BodyLimit 返回请求体大小限制中间件。maxSize <= 0 时不做限制。
//
// 工作原理：
//  1. Content-Length 已超过限制时直接返回 413
//  2. 否则用 http.MaxBytesReader 限制实际读取的字节数，超限时读取方得到 *http.MaxBytesError
func BodyLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 {
			c.Next()
			return
		}

		req := c.Request
		if req.ContentLength > maxSize {
			logger.Warnw("request body too large (Content-Length check)",
				"path", req.URL.Path,
				"content_length", req.ContentLength,
				"max_size", maxSize,
			)
			response.Abort(c, errors.ErrRequestTooLarge)
			return
		}

		req.Body = http.MaxBytesReader(c.Writer, req.Body, maxSize)
		c.Next()
	}
}
