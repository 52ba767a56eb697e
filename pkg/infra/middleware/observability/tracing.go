package observability

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	"github.com/kart-io/ragquery/pkg/infra/middleware/requestutil"
)

const (
	// TracerName is the name of the tracer for HTTP middleware.
	TracerName = "github.com/kart-io/ragquery/pkg/infra/middleware"

	// HTTPRequestID is the span attribute carrying the request ID.
	HTTPRequestID = "http.request_id"
)

// Tracing creates a tracing middleware.
//
// The trace context is extracted from the incoming W3C headers, a server span
// named "{method} {route}" wraps the rest of the chain and the response
// status is recorded on the span. Paths in skipPaths are not traced.
func Tracing(skipPaths ...string) gin.HandlerFunc {
	skip := requestutil.NewPathSet(skipPaths)

	return func(c *gin.Context) {
		req := c.Request
		if skip.Has(req.URL.Path) {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		route := c.FullPath()
		if route == "" {
			route = req.URL.Path
		}
		ctx, span := otel.Tracer(TracerName).Start(ctx, fmt.Sprintf("%s %s", req.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		attrs := []attribute.KeyValue{
			semconv.HTTPMethod(req.Method),
			semconv.HTTPRoute(route),
			semconv.HTTPTarget(req.URL.Path),
			semconv.ServerAddress(req.Host),
			semconv.ClientAddress(requestutil.GetClientIP(req)),
		}
		if ua := req.UserAgent(); ua != "" {
			attrs = append(attrs, semconv.UserAgentOriginal(ua))
		}
		if requestID := common.GetRequestID(ctx); requestID != "" {
			attrs = append(attrs, attribute.String(HTTPRequestID, requestID))
		}
		span.SetAttributes(attrs...)

		if sc := span.SpanContext(); sc.IsValid() {
			c.Header(common.HeaderTraceID, sc.TraceID().String())
		}

		c.Request = req.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
	}
}
