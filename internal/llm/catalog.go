package llm

import (
	"fmt"
	"strings"
)

// ProviderType identifies an LLM provider family.
type ProviderType string

const (
	ProviderDeepSeek ProviderType = "deepseek"
	ProviderQwen     ProviderType = "qwen"
	ProviderClaude   ProviderType = "claude"
	ProviderOpenAI   ProviderType = "openai"
	ProviderOllama   ProviderType = "ollama"
	ProviderCustom   ProviderType = "custom"
)

// ProviderTypes returns every known provider type.
func ProviderTypes() []ProviderType {
	return []ProviderType{
		ProviderDeepSeek,
		ProviderQwen,
		ProviderClaude,
		ProviderOpenAI,
		ProviderOllama,
		ProviderCustom,
	}
}

// ParseProviderType maps a stored discriminator onto a known type.
func ParseProviderType(s string) (ProviderType, error) {
	t := ProviderType(s)
	for _, known := range ProviderTypes() {
		if t == known {
			return t, nil
		}
	}

	names := make([]string, 0, len(ProviderTypes()))
	for _, known := range ProviderTypes() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("unknown provider type %q (known: %s)", s, strings.Join(names, ", "))
}

// DisplayName returns the human-readable provider name.
func (t ProviderType) DisplayName() string {
	switch t {
	case ProviderDeepSeek:
		return "DeepSeek"
	case ProviderQwen:
		return "Qwen"
	case ProviderClaude:
		return "Claude"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderOllama:
		return "Ollama"
	case ProviderCustom:
		return "Custom"
	default:
		return string(t)
	}
}

// DefaultAPIBase returns the provider's stock endpoint. Custom providers
// have none and must configure one.
func (t ProviderType) DefaultAPIBase() string {
	switch t {
	case ProviderDeepSeek:
		return "https://api.deepseek.com/v1"
	case ProviderQwen:
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	case ProviderClaude:
		return "https://api.anthropic.com/v1"
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderOllama:
		return "http://localhost:11434/v1"
	default:
		return ""
	}
}

// RequiresAPIKey reports whether the provider needs a key. Ollama is local
// and custom endpoints decide for themselves.
func (t ProviderType) RequiresAPIKey() bool {
	switch t {
	case ProviderOllama, ProviderCustom:
		return false
	default:
		return true
	}
}

// ModelInfo describes one model a provider offers.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DefaultModels returns the provider's built-in model catalog, used when
// the GUI cannot list models from the endpoint itself.
func (t ProviderType) DefaultModels() []ModelInfo {
	switch t {
	case ProviderDeepSeek:
		return []ModelInfo{
			{ID: "deepseek-chat", Name: "DeepSeek Chat", Description: "General purpose chat model"},
			{ID: "deepseek-coder", Name: "DeepSeek Coder", Description: "Code generation and completion"},
		}
	case ProviderQwen:
		return []ModelInfo{
			{ID: "qwen-max", Name: "Qwen Max", Description: "Most capable Qwen model"},
			{ID: "qwen-plus", Name: "Qwen Plus", Description: "Balanced performance"},
			{ID: "qwen-turbo", Name: "Qwen Turbo", Description: "Fast and cost-effective"},
			{ID: "qwen-long", Name: "Qwen Long", Description: "Long context support"},
		}
	case ProviderClaude:
		return []ModelInfo{
			{ID: "claude-opus-4-5-20251101", Name: "Claude Opus 4.5", Description: "Most capable Claude model"},
			{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Description: "Balanced performance and speed"},
			{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Description: "Previous generation model"},
			{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Description: "Fast and cost-effective"},
		}
	case ProviderOpenAI:
		return []ModelInfo{
			{ID: "gpt-4o", Name: "GPT-4o", Description: "Most advanced GPT-4 model"},
			{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Faster and more affordable"},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "Previous generation model"},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Fast and cost-effective"},
		}
	case ProviderOllama:
		return []ModelInfo{
			{ID: "llama3.1:latest", Name: "Llama 3.1", Description: "Meta's latest Llama model"},
			{ID: "mistral:latest", Name: "Mistral", Description: "Mistral AI model"},
			{ID: "codellama:latest", Name: "Code Llama", Description: "Code generation model"},
		}
	default:
		return nil
	}
}
