package llm

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFlags_Prefixed(t *testing.T) {
	o := NewProviderOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs, "chat")

	require.NoError(t, fs.Parse([]string{
		"--chat.provider=openai",
		"--chat.model=gpt-4o",
		"--chat.timeout=5s",
	}))
	assert.Equal(t, ProviderOpenAI, o.Provider)
	assert.Equal(t, "gpt-4o", o.Model)
	assert.Equal(t, 5*time.Second, o.Timeout)
}

func TestValidate(t *testing.T) {
	o := NewProviderOptions()
	errs := o.Validate()
	assert.Len(t, errs, 3)

	o.Endpoint = "https://x.openai.azure.com"
	o.Model = "gpt-4o"
	o.APIKey = "k"
	assert.Empty(t, o.Validate())

	o.Provider = "ollama"
	assert.Len(t, o.Validate(), 1)

	o.Provider = ProviderOpenAI
	o.Endpoint = ""
	o.Model = ""
	assert.Empty(t, o.Validate())
}

func TestFillFromEnv(t *testing.T) {
	t.Setenv("TEST_EP", "https://env.openai.azure.com")
	t.Setenv("TEST_KEY", "env-key")
	t.Setenv("TEST_VER", "2024-06-01")

	o := NewProviderOptions()
	o.Model = "from-flag"
	o.FillFromEnv("TEST_EP", "TEST_KEY", "TEST_MODEL", "TEST_VER")

	assert.Equal(t, "https://env.openai.azure.com", o.Endpoint)
	assert.Equal(t, "env-key", o.APIKey)
	assert.Equal(t, "from-flag", o.Model)
	assert.Equal(t, "2024-06-01", o.APIVersion)
}

func TestConfigMaps(t *testing.T) {
	o := NewProviderOptions()
	o.Model = "m"

	chat := o.ChatConfig()
	assert.Equal(t, "m", chat["deployment"])
	assert.Equal(t, "m", chat["chat_model"])
	assert.Equal(t, 0, chat["max_retries"])

	embed := o.EmbeddingConfig()
	assert.Equal(t, "m", embed["embed_deployment"])
	assert.NotContains(t, embed, "deployment")
}
