package llm

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/bimmerbailey/promptune/internal/config"
	ollamanative "github.com/bimmerbailey/promptune/internal/llm/ollama"
)

// resolveAPIKey checks config first, then falls back to environment variable.
// Returns empty string if neither is set.
func resolveAPIKey(configKey, envVarName string) string {
	if configKey != "" {
		return configKey
	}
	return os.Getenv(envVarName)
}

// newOllamaProvider creates an Ollama provider backed by the native client.
func newOllamaProvider(cfg config.LLMConfig, logger *slog.Logger) (Provider, error) {
	provider, err := ollamanative.New(ollamanative.Config{
		Host:      cfg.Ollama.Host,
		Model:     cfg.Ollama.Model,
		KeepAlive: cfg.Ollama.KeepAlive,
		NumCtx:    cfg.Ollama.NumCtx,
		NumGPU:    cfg.Ollama.NumGPU,
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("initialized ollama provider",
		"host", cfg.Ollama.Host,
		"model", cfg.Ollama.Model,
	)

	return &ollamaProviderAdapter{provider: provider}, nil
}

// newOpenAIProvider creates an OpenAI provider. With base_url set it
// reaches any OpenAI-compatible endpoint, which is how the DeepSeek
// generator and self-hosted Qwen predictor deployments are addressed.
func newOpenAIProvider(cfg config.LLMConfig, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.OpenAI.APIKey, "OPENAI_API_KEY")

	if apiKey == "" {
		return nil, fmt.Errorf(
			"openai api key not configured: set OPENAI_API_KEY environment variable or openai.api_key in config",
		)
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(cfg.OpenAI.Model),
	}

	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}

	if cfg.OpenAI.OrgID != "" {
		orgID := resolveAPIKey(cfg.OpenAI.OrgID, "OPENAI_ORG_ID")
		if orgID != "" {
			opts = append(opts, openai.WithOrganization(orgID))
		}
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai provider: %w", err)
	}

	logger.Info("initialized openai provider",
		"model", cfg.OpenAI.Model,
		"base_url", cfg.OpenAI.BaseURL,
	)

	return &langchainAdapter{
		model:        model,
		defaultModel: cfg.OpenAI.Model,
		providerType: "openai",
		logger:       logger,
	}, nil
}

// newAnthropicProvider creates an Anthropic/Claude provider.
func newAnthropicProvider(cfg config.LLMConfig, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")

	if apiKey == "" {
		return nil, fmt.Errorf(
			"anthropic api key not configured: set ANTHROPIC_API_KEY environment variable or anthropic.api_key in config",
		)
	}

	opts := []anthropic.Option{
		anthropic.WithToken(apiKey),
		anthropic.WithModel(cfg.Anthropic.Model),
	}

	model, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic provider: %w", err)
	}

	logger.Info("initialized anthropic provider",
		"model", cfg.Anthropic.Model,
	)

	return &langchainAdapter{
		model:        model,
		defaultModel: cfg.Anthropic.Model,
		providerType: "anthropic",
		logger:       logger,
	}, nil
}
