package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderType(t *testing.T) {
	for _, known := range ProviderTypes() {
		parsed, err := ParseProviderType(string(known))
		require.NoError(t, err)
		assert.Equal(t, known, parsed)
	}

	_, err := ParseProviderType("grok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider type "grok"`)
	assert.Contains(t, err.Error(), "deepseek")
}

func TestProviderCatalog(t *testing.T) {
	tests := []struct {
		providerType ProviderType
		displayName  string
		apiBase      string
		requiresKey  bool
		hasModels    bool
	}{
		{ProviderDeepSeek, "DeepSeek", "https://api.deepseek.com/v1", true, true},
		{ProviderQwen, "Qwen", "https://dashscope.aliyuncs.com/compatible-mode/v1", true, true},
		{ProviderClaude, "Claude", "https://api.anthropic.com/v1", true, true},
		{ProviderOpenAI, "OpenAI", "https://api.openai.com/v1", true, true},
		{ProviderOllama, "Ollama", "http://localhost:11434/v1", false, true},
		{ProviderCustom, "Custom", "", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.providerType), func(t *testing.T) {
			assert.Equal(t, tt.displayName, tt.providerType.DisplayName())
			assert.Equal(t, tt.apiBase, tt.providerType.DefaultAPIBase())
			assert.Equal(t, tt.requiresKey, tt.providerType.RequiresAPIKey())

			models := tt.providerType.DefaultModels()
			if tt.hasModels {
				assert.NotEmpty(t, models)
				for _, m := range models {
					assert.NotEmpty(t, m.ID)
					assert.NotEmpty(t, m.Name)
				}
			} else {
				assert.Empty(t, models)
			}
		})
	}
}

func TestDefaultModelCatalogEntries(t *testing.T) {
	deepseek := ProviderDeepSeek.DefaultModels()
	require.Len(t, deepseek, 2)
	assert.Equal(t, "deepseek-chat", deepseek[0].ID)

	ollama := ProviderOllama.DefaultModels()
	require.Len(t, ollama, 3)
	assert.Equal(t, "llama3.1:latest", ollama[0].ID)
}
