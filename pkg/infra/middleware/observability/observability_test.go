package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kart-io/ragquery/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return rec
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	rec := setupRecorder(t)

	r := gin.New()
	r.Use(Tracing("/healthz"))
	r.POST("/ragQuery", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/ragQuery", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "POST /ragQuery", span.Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.Int("http.status_code", http.StatusInternalServerError))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", w.Header().Get(common.HeaderTraceID))
}

func TestLogger_PassesThrough(t *testing.T) {
	opts := *mwopts.NewLoggerOptions()

	called := 0
	r := gin.New()
	r.Use(LoggerWithOptions(opts))
	r.GET("/healthz", func(c *gin.Context) { called++; c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { called++; c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/healthz", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 2, called)
}

func TestFieldsPool(t *testing.T) {
	f := acquireFields()
	*f = append(*f, "k", "v")
	releaseFields(f)

	f = acquireFields()
	assert.Empty(t, *f)
	releaseFields(f)
}
