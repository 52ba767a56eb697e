package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveRequestID(t *testing.T, mw gin.HandlerFunc, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var seen string
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(HeaderXRequestID, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestRequestID_Generates(t *testing.T) {
	w, seen := serveRequestID(t, RequestID(), "")

	assert.NotEmpty(t, seen)
	assert.Len(t, seen, 26)
	assert.Equal(t, seen, w.Header().Get(HeaderXRequestID))
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	w, seen := serveRequestID(t, RequestID(), "client-id-1")

	assert.Equal(t, "client-id-1", seen)
	assert.Equal(t, "client-id-1", w.Header().Get(HeaderXRequestID))
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	opts := *mwopts.NewRequestIDOptions()
	opts.MaxLength = 8
	mw := RequestIDWithOptions(opts, func() string { return "generated" })

	_, seen := serveRequestID(t, mw, strings.Repeat("x", 9))
	assert.Equal(t, "generated", seen)

	_, seen = serveRequestID(t, mw, strings.Repeat("x", 8))
	assert.Equal(t, strings.Repeat("x", 8), seen)
}

func TestRequestID_CustomHeader(t *testing.T) {
	opts := *mwopts.NewRequestIDOptions()
	opts.Header = "X-Correlation-ID"

	r := gin.New()
	r.Use(RequestIDWithOptions(opts, nil))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Correlation-ID", "corr")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "corr", w.Header().Get("X-Correlation-ID"))
	assert.Empty(t, w.Header().Get(HeaderXRequestID))
}
