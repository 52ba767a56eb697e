package azure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragquery/pkg/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProviderWithConfig(&Config{
		Endpoint:        srv.URL,
		APIKey:          "azure-key",
		Deployment:      "chat-deploy",
		EmbedDeployment: "embed-deploy",
		APIVersion:      DefaultAPIVersion,
		Timeout:         5 * time.Second,
	})
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(map[string]any{"api_key": "k"})
	assert.Error(t, err)

	_, err = NewProvider(map[string]any{"endpoint": "https://x.openai.azure.com"})
	assert.Error(t, err)

	p, err := NewProvider(map[string]any{
		"endpoint":   "https://x.openai.azure.com/",
		"api_key":    "k",
		"deployment": "d",
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())
}

func TestChat(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/chat-deploy/chat/completions", r.URL.Path)
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "model")
		assert.InDelta(t, 0.2, body["temperature"], 1e-9)

		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Paris"}}]}`))
	})

	resp, err := p.Chat(context.Background(), &llm.ChatRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "capital of France?"}},
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Content())
}

func TestChat_ModelOverridesDeployment(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/other/chat/completions", r.URL.Path)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	resp, err := p.Chat(context.Background(), &llm.ChatRequest{Model: "other"})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Content())
}

func TestChat_ServerError(t *testing.T) {
	calls := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Chat(context.Background(), &llm.ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/embed-deploy/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.25]}]}`))
	})

	vec, err := p.EmbedSingle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestEmbed_NoDeployment(t *testing.T) {
	p := NewProviderWithConfig(&Config{Endpoint: "http://127.0.0.1:1", APIKey: "k"})
	_, err := p.Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}
