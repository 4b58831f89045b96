package config

import "testing"

func TestLLMConfig_Model(t *testing.T) {
	tests := []struct {
		name string
		cfg  LLMConfig
		want string
	}{
		{
			name: "ollama",
			cfg: LLMConfig{
				Provider: "ollama",
				Ollama:   OllamaConfig{Model: "llama3.2"},
				OpenAI:   OpenAIConfig{Model: "gpt-4o"},
			},
			want: "llama3.2",
		},
		{
			name: "openai",
			cfg: LLMConfig{
				Provider: "openai",
				OpenAI:   OpenAIConfig{Model: "deepseek-chat"},
			},
			want: "deepseek-chat",
		},
		{
			name: "anthropic",
			cfg: LLMConfig{
				Provider:  "anthropic",
				Anthropic: AnthropicConfig{Model: "claude-3-7-sonnet-20250219"},
			},
			want: "claude-3-7-sonnet-20250219",
		},
		{
			name: "unknown provider",
			cfg: LLMConfig{
				Provider: "gemini",
			},
			want: "",
		},
		{
			name: "empty provider",
			cfg:  LLMConfig{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Model(); got != tt.want {
				t.Errorf("Model() = %q, want %q", got, tt.want)
			}
		})
	}
}
