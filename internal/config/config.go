// Package config provides configuration types and helpers for promptune.
package config

// Config holds the application-wide configuration.
type Config struct {
	Format    string          `mapstructure:"format"`
	Verbose   bool            `mapstructure:"verbose"`
	Data      DataConfig      `mapstructure:"data"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Generator LLMConfig       `mapstructure:"generator"`
	Predictor LLMConfig       `mapstructure:"predictor"`
}

// DataConfig holds the dataset and result locations.
type DataConfig struct {
	// InputsDir contains one <case>_exam_input.json file per case
	InputsDir string `mapstructure:"inputs_dir"`

	// GroundTruthDir contains one <case>_gt.json file per case
	GroundTruthDir string `mapstructure:"ground_truth_dir"`

	// ResultsDir is the parent directory for per-run result directories
	ResultsDir string `mapstructure:"results_dir"`
}

// OptimizerConfig holds the core loop settings.
type OptimizerConfig struct {
	// MaxIterations bounds the number of refinement iterations (must be > 0)
	MaxIterations int `mapstructure:"max_iterations"`

	// TaskDescription seeds the very first candidate prompt
	TaskDescription string `mapstructure:"task_description"`
}

// LLMConfig holds configuration for one LLM role.
// The generator and predictor roles are configured independently so
// they can point at different providers, as the original deployment
// used one model to rewrite prompts and another to classify cases.
type LLMConfig struct {
	// Provider selects which backend to use: "ollama", "openai", "anthropic"
	Provider string `mapstructure:"provider"`

	// Temperature applied to every request for this role
	Temperature float32 `mapstructure:"temperature"`

	// MaxTokens limits response length (0 = provider default)
	MaxTokens int `mapstructure:"max_tokens"`

	// Provider-specific configuration
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// Model returns the configured model name for the selected provider.
func (c LLMConfig) Model() string {
	switch c.Provider {
	case "ollama":
		return c.Ollama.Model
	case "openai":
		return c.OpenAI.Model
	case "anthropic":
		return c.Anthropic.Model
	default:
		return ""
	}
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Default model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
	NumCtx    int    `mapstructure:"num_ctx"`    // Context window size
	NumGPU    int    `mapstructure:"num_gpu"`    // GPU layers to offload
}

// OpenAIConfig holds settings for OpenAI and OpenAI-compatible endpoints.
// DeepSeek and self-hosted Qwen deployments are reached by setting
// BaseURL to the compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`  // Optional: read from OPENAI_API_KEY if empty
	Model   string `mapstructure:"model"`    // e.g., "gpt-4o", "deepseek-chat"
	BaseURL string `mapstructure:"base_url"` // Optional: for compatible endpoints
	OrgID   string `mapstructure:"org_id"`   // Optional: organization ID
}

// AnthropicConfig holds Anthropic/Claude-specific settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"` // Optional: read from ANTHROPIC_API_KEY if empty
	Model  string `mapstructure:"model"`   // e.g. "claude-3-7-sonnet-20250219"
}
