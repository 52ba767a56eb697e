// Package auth provides authentication middleware.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	"github.com/kart-io/ragquery/pkg/infra/middleware/requestutil"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
	"github.com/kart-io/ragquery/pkg/utils/errors"
	"github.com/kart-io/ragquery/pkg/utils/response"
)

// FunctionKey 返回函数密钥校验中间件。
// 密钥从 opts.Header 请求头读取，缺失时回退到 opts.QueryParam 查询参数。
// 未配置任何密钥时中间件直接放行。
func FunctionKey(opts mwopts.FunctionKeyOptions) gin.HandlerFunc {
	keys := make([][]byte, 0, len(opts.Keys))
	for _, k := range opts.Keys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		presented := lookupKey(c, opts)
		if presented == "" || !matchKey(keys, []byte(presented)) {
			logger.Warnw("function key rejected",
				"path", c.Request.URL.Path,
				"client_ip", requestutil.GetClientIP(c.Request),
				"request_id", common.GetRequestID(c.Request.Context()),
				"key_present", presented != "",
			)
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func lookupKey(c *gin.Context, opts mwopts.FunctionKeyOptions) string {
	if opts.Header != "" {
		if v := c.GetHeader(opts.Header); v != "" {
			return v
		}
	}
	if opts.QueryParam != "" {
		return c.Query(opts.QueryParam)
	}
	return ""
}

// matchKey compares against every key so timing does not reveal which one matched.
func matchKey(keys [][]byte, presented []byte) bool {
	matched := 0
	for _, k := range keys {
		matched |= subtle.ConstantTimeCompare(k, presented)
	}
	return matched == 1
}
