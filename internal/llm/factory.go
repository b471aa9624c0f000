package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factgate/internal/model"
)

// NewProvider creates an LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - verification falls back to heuristics
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config, pulling the API
// key from the environment when the config does not carry one.
func ConfigFromModel(modelConfig model.LLMConfig, maxRetries int) Config {
	apiKey := modelConfig.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	baseURL := modelConfig.BaseURL
	if baseURL == "" && strings.EqualFold(modelConfig.Provider, "ollama") {
		baseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		MaxRetries: maxRetries,
	}
}
