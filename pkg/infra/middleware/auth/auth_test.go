package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(opts mwopts.FunctionKeyOptions) *gin.Engine {
	r := gin.New()
	r.Use(FunctionKey(opts))
	r.POST("/ragQuery", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestFunctionKey(t *testing.T) {
	opts := *mwopts.NewFunctionKeyOptions()
	opts.Keys = []string{"alpha", " beta "}

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "header key", target: "/ragQuery", header: "alpha", want: http.StatusOK},
		{name: "second key trimmed", target: "/ragQuery", header: "beta", want: http.StatusOK},
		{name: "query key", target: "/ragQuery?code=alpha", want: http.StatusOK},
		{name: "missing key", target: "/ragQuery", want: http.StatusUnauthorized},
		{name: "wrong key", target: "/ragQuery", header: "gamma", want: http.StatusUnauthorized},
		{name: "header wins over query", target: "/ragQuery?code=alpha", header: "gamma", want: http.StatusUnauthorized},
	}
	r := newRouter(opts)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("x-functions-key", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "Unauthorized", w.Body.String())
			}
		})
	}
}

func TestFunctionKey_NoKeysConfigured(t *testing.T) {
	opts := *mwopts.NewFunctionKeyOptions()
	opts.Keys = []string{"", "  "}

	w := httptest.NewRecorder()
	newRouter(opts).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ragQuery", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMatchKey(t *testing.T) {
	keys := [][]byte{[]byte("a"), []byte("b")}
	assert.True(t, matchKey(keys, []byte("b")))
	assert.False(t, matchKey(keys, []byte("c")))
	assert.False(t, matchKey(nil, []byte("a")))
}
