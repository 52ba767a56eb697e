package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/ragquery/internal/ragquery/biz"
	"github.com/kart-io/ragquery/internal/ragquery/handler"
	"github.com/kart-io/ragquery/internal/ragquery/metrics"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
)

type okService struct{}

func (okService) Query(context.Context, string, string) (*biz.Response, error) {
	return biz.NewResponse("ok", nil, nil), nil
}

func newRouter(keys ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	opts := mwopts.NewFunctionKeyOptions()
	opts.Keys = keys
	Register(r, handler.NewRAGHandler(okService{}), metrics.New(), opts)
	return r
}

func do(r http.Handler, method, target, key string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if method == http.MethodPost {
		body = strings.NewReader(`{"question":"q"}`)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if key != "" {
		req.Header.Set("x-functions-key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Anonymous(t *testing.T) {
	r := newRouter()

	for _, path := range []string{QueryPath, APIQueryPath} {
		w := do(r, http.MethodPost, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"answer":"ok","citations":[],"rawDocuments":[]}`, w.Body.String())
	}
}

func TestRegister_FunctionKey(t *testing.T) {
	r := newRouter("secret")

	w := do(r, http.MethodPost, QueryPath, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", w.Body.String())

	w = do(r, http.MethodPost, QueryPath, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, QueryPath, "secret")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, APIQueryPath+"?code=secret", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, HealthPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = do(r, http.MethodGet, MetricsPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ragquery_queries_total")
}

func TestRegister_MethodNotRouted(t *testing.T) {
	w := do(newRouter(), http.MethodGet, QueryPath, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
