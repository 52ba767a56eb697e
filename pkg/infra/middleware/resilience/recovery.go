// Package resilience provides middleware that keeps a single bad request
// from taking the server down.
package resilience

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
	"github.com/kart-io/ragquery/pkg/utils/errors"
	"github.com/kart-io/ragquery/pkg/utils/response"
)

// PanicHandler 定义 panic 处理器类型。
type PanicHandler func(c *gin.Context, err any, stack []byte)

// Recovery returns a middleware that recovers from panics with default options.
func Recovery() gin.HandlerFunc {
	return RecoveryWithOptions(*mwopts.NewRecoveryOptions(), nil)
}

// RecoveryWithOptions 返回 Recovery 中间件。
// panic 总是连同完整堆栈记录到日志，客户端收到 500 "Error: {panic}"。
// 仅在非生产环境且 EnableStackTrace 打开时，响应体附带堆栈。
func RecoveryWithOptions(opts mwopts.RecoveryOptions, onPanic PanicHandler) gin.HandlerFunc {
	includeStack := validateStackTraceConfig(opts.EnableStackTrace, isProductionEnvironment())

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				logger.Errorw("panic recovered",
					"panic", r,
					"stack_trace", string(stack),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", common.GetRequestID(c.Request.Context()),
				)

				if onPanic != nil {
					onPanic(c, r, stack)
				}

				response.Abort(c, buildClientError(r, stack, includeStack))
			}
		}()
		c.Next()
	}
}

// isProductionEnvironment checks APP_ENV, then GO_ENV.
func isProductionEnvironment() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

func validateStackTraceConfig(enableStackTrace, isProd bool) bool {
	if isProd && enableStackTrace {
		logger.Warn("Stack trace is enabled but running in production environment. " +
			"Stack trace will NOT be returned to clients. Full stack trace will still be logged.")
		return false
	}
	return enableStackTrace
}

func buildClientError(panicValue any, stack []byte, includeStack bool) *errors.Errno {
	if includeStack {
		return errors.ErrPanic.WithMessage(fmt.Sprintf("%v\n%s", panicValue, stack))
	}
	return errors.ErrPanic.WithMessage(fmt.Sprint(panicValue))
}
