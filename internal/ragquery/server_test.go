package ragquery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragquery/pkg/llm/openai"
	llmopts "github.com/kart-io/ragquery/pkg/options/llm"
	logopts "github.com/kart-io/ragquery/pkg/options/logger"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
	milvusopts "github.com/kart-io/ragquery/pkg/options/milvus"
	queryopts "github.com/kart-io/ragquery/pkg/options/query"
	redisopts "github.com/kart-io/ragquery/pkg/options/redis"
	searchopts "github.com/kart-io/ragquery/pkg/options/search"
	httpopts "github.com/kart-io/ragquery/pkg/options/server/http"
	tracingopts "github.com/kart-io/ragquery/pkg/options/tracing"
	"github.com/kart-io/ragquery/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestConfig(searchURL, chatURL string) *Config {
	search := searchopts.NewOptions()
	search.Azure.Endpoint = searchURL
	search.Azure.Index = "policies"
	search.Azure.APIKey = "search-key"

	chat := llmopts.NewProviderOptions()
	chat.Provider = llmopts.ProviderOpenAI
	chat.Endpoint = chatURL
	chat.APIKey = "chat-key"
	chat.Model = "gpt-4o"

	return &Config{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracingopts.NewOptions(),
		MiddlewareOptions: mwopts.NewOptions(),
		SearchOptions:     search,
		RedisOptions:      redisopts.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		ChatOptions:       chat,
		EmbeddingOptions:  llmopts.NewProviderOptions(),
		QueryOptions:      queryopts.NewOptions(),
	}
}

func TestNewServer_EndToEnd(t *testing.T) {
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/policies/docs/search", r.URL.Path)
		assert.Equal(t, "search-key", r.Header.Get("api-key"))
		_, _ = w.Write([]byte(`{"value":[
			{"id":"1","title":"Refund Policy","content":"Refunds are accepted within 30 days.","url":"https://kb/1"},
			{"id":2,"title":"Shipping","content":"Ships in 2 days."}
		]}`))
	}))
	defer searchSrv.Close()

	chatSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Contains(t, body.Messages[1].Content, "Source 1 – Refund Policy:")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Within 30 days."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":40,"completion_tokens":5,"total_tokens":45}}`))
	}))
	defer chatSrv.Close()

	s, err := newTestConfig(searchSrv.URL, chatSrv.URL).NewServer(context.Background())
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.close()) }()

	req := httptest.NewRequest(http.MethodPost, "/ragQuery",
		strings.NewReader(`{"question":"What is the refund policy?","businessContext":"EU"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.http.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{
		"answer":"Within 30 days.",
		"citations":[
			{"sourceId":"1","snippet":"Refunds are accepted within 30 days."},
			{"sourceId":"2","snippet":"Ships in 2 days."}
		],
		"rawDocuments":[
			{"id":"1","title":"Refund Policy","content":"Refunds are accepted within 30 days.","url":"https://kb/1"},
			{"id":"2","title":"Shipping","content":"Ships in 2 days.","url":""}
		]
	}`, w.Body.String())

	w = httptest.NewRecorder()
	s.http.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ragQuery", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing question", w.Body.String())

	w = httptest.NewRecorder()
	s.http.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ragquery_generation_running 0\n")
	assert.Contains(t, w.Body.String(), "ragquery_generation_waiting 0\n")
}

func TestNewServer_UnsupportedBackend(t *testing.T) {
	cfg := newTestConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.SearchOptions.Backend = "elastic"

	_, err := cfg.NewServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported search backend "elastic"`)
}

func TestNewServer_UnknownChatProvider(t *testing.T) {
	cfg := newTestConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.ChatOptions.Provider = "ollama"

	_, err := cfg.NewServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize chat provider")
}
