package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
	options "github.com/kart-io/ragquery/pkg/options/server/http"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	opts := options.NewOptions()
	opts.ApplyOptions(options.WithAddr("127.0.0.1:0"))
	opts.MaxBodyBytes = 16
	return NewServer(opts, mwopts.NewOptions())
}

func TestServer_Middleware(t *testing.T) {
	s := newTestServer(t)
	s.Engine().POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, string(b))
	})
	s.Engine().GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hi")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 17))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error: boom", w.Body.String())
}

func TestServer_NoRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", w.Body.String())
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t)
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	_, err = http.Get("http://" + s.Addr() + "/ping")
	assert.Error(t, err)
}

func TestServer_StartBindError(t *testing.T) {
	first := newTestServer(t)
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	opts := options.NewOptions()
	opts.Addr = first.Addr()
	second := NewServer(opts, nil)
	assert.Error(t, second.Start(context.Background()))
}

func TestServer_StopBeforeStart(t *testing.T) {
	assert.NoError(t, newTestServer(t).Stop(context.Background()))
}
