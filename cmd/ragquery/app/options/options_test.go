package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragquery/pkg/infra/app"
	llmopts "github.com/kart-io/ragquery/pkg/options/llm"
	searchopts "github.com/kart-io/ragquery/pkg/options/search"
)

func setAzureEnv(t *testing.T) {
	t.Setenv(EnvSearchEndpoint, "https://docs.search.windows.net")
	t.Setenv(EnvSearchIndex, "policies")
	t.Setenv(EnvSearchKey, "search-key")
	t.Setenv(EnvOpenAIEndpoint, "https://res.openai.azure.com")
	t.Setenv(EnvOpenAIKey, "openai-key")
	t.Setenv(EnvOpenAIDeployment, "gpt-4o")
	t.Setenv(EnvOpenAIAPIVersion, "2024-06-01")
}

func TestFlags_Sections(t *testing.T) {
	fss := NewServerOptions().Flags()

	assert.Equal(t, []string{
		"http", "log", "tracing", "middleware", "search", "redis",
		"milvus", "chat", "embedding", "query", "misc",
	}, fss.Order)

	for section, name := range map[string]string{
		"http":       "http.addr",
		"middleware": "middleware.function-key.keys",
		"search":     "search.azure.endpoint",
		"chat":       "chat.api-key",
		"embedding":  "embedding.model",
		"query":      "query.chat-timeout",
		"misc":       "shutdown-timeout",
	} {
		assert.NotNil(t, fss.FlagSet(section).Lookup(name), name)
	}
}

func TestComplete_FillsFromEnv(t *testing.T) {
	setAzureEnv(t)

	o := NewServerOptions()
	o.SearchOptions.Azure.Index = "from-flag"
	require.NoError(t, o.Complete())

	assert.Equal(t, "https://docs.search.windows.net", o.SearchOptions.Azure.Endpoint)
	assert.Equal(t, "from-flag", o.SearchOptions.Azure.Index)
	assert.Equal(t, "search-key", o.SearchOptions.Azure.APIKey)
	assert.Equal(t, "https://res.openai.azure.com", o.ChatOptions.Endpoint)
	assert.Equal(t, "openai-key", o.ChatOptions.APIKey)
	assert.Equal(t, "gpt-4o", o.ChatOptions.Model)
	assert.Equal(t, "2024-06-01", o.ChatOptions.APIVersion)
	assert.Empty(t, o.EmbeddingOptions.Model)
	assert.Equal(t, "ragquery", o.TracingOptions.ServiceName)

	assert.NoError(t, o.Validate())
}

func TestComplete_OpenAIIgnoresAzureEnv(t *testing.T) {
	setAzureEnv(t)

	o := NewServerOptions()
	o.ChatOptions.Provider = llmopts.ProviderOpenAI
	require.NoError(t, o.Complete())

	assert.Empty(t, o.ChatOptions.Endpoint)
	assert.Empty(t, o.ChatOptions.APIKey)
}

func TestValidate(t *testing.T) {
	o := NewServerOptions()
	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.azure.endpoint is required")
	assert.Contains(t, err.Error(), "chat: api-key is required")
	assert.NotContains(t, err.Error(), "embedding")

	o.SearchOptions.Backend = searchopts.BackendMilvus
	o.MilvusOptions.Address = ""
	err = o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milvus.address is required")
	assert.Contains(t, err.Error(), "embedding: api-key is required")

	o.SearchOptions.Backend = searchopts.BackendRedis
	o.RedisOptions.Port = 0
	err = o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.port must be between 1 and 65535")
	assert.NotContains(t, err.Error(), "milvus.address")
}

func TestConfig(t *testing.T) {
	o := NewServerOptions()
	o.ShutdownTimeout = 5 * time.Second

	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.SearchOptions, cfg.SearchOptions)
	assert.Same(t, o.ChatOptions, cfg.ChatOptions)
	assert.Same(t, o.MiddlewareOptions, cfg.MiddlewareOptions)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestApp_FlagsAndEnv(t *testing.T) {
	setAzureEnv(t)
	t.Setenv("RAGQUERY_QUERY_CHAT_TIMEOUT", "15s")

	o := NewServerOptions()
	ran := false
	a := app.NewApp(
		app.WithName("ragquery"),
		app.WithOptions(o),
		app.WithNoVersion(),
		app.WithNoConfig(),
		app.WithDotenv(),
		app.WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{
		"--search.backend=azure",
		"--search.azure.index=kb",
		"--middleware.function-key.keys=k1,k2",
		"--http.addr=:9090",
	})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.Equal(t, ":9090", o.HTTPOptions.Addr)
	assert.Equal(t, "kb", o.SearchOptions.Azure.Index)
	assert.Equal(t, "search-key", o.SearchOptions.Azure.APIKey)
	assert.Equal(t, []string{"k1", "k2"}, o.MiddlewareOptions.FunctionKey.Keys)
	assert.Equal(t, 15*time.Second, o.QueryOptions.ChatTimeout)
}
