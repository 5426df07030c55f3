package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.CompletionHost)
	assert.Equal(t, "deepseek-chat", cfg.CompletionModel)
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-v4", cfg.EmbeddingModel)
	assert.Equal(t, 1024, cfg.EmbeddingDimensions)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithCompletionHost("http://llm:8080/v1"),
			WithEmbeddingHost("http://embed:9090/v1"),
		)

		assert.Equal(t, "http://llm:8080/v1", cfg.CompletionHost)
		assert.Equal(t, "http://embed:9090/v1", cfg.EmbeddingHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithBackend(BackendGemini),
			WithCompletionModel("gemini-2.0-flash"),
			WithCompletionAPIKey("ck"),
			WithEmbeddingModel("custom-embed"),
			WithEmbeddingAPIKey("ek"),
			WithEmbeddingDimensions(256),
			WithTemperature(0.7),
		)

		assert.Equal(t, BackendGemini, cfg.Backend)
		assert.Equal(t, "gemini-2.0-flash", cfg.CompletionModel)
		assert.Equal(t, "ck", cfg.CompletionAPIKey)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "ek", cfg.EmbeddingAPIKey)
		assert.Equal(t, 256, cfg.EmbeddingDimensions)
		assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name               string
		backend            Backend
		completionHost     string
		embeddingHost      string
		expectedCompletion string
		expectedEmbedding  string
	}{
		{
			name:               "already has /v1",
			backend:            BackendOpenAI,
			completionHost:     "http://localhost:11434/v1",
			embeddingHost:      "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
			expectedEmbedding:  "http://localhost:11434/v1",
		},
		{
			name:               "missing /v1",
			backend:            BackendOpenAI,
			completionHost:     "http://localhost:11434",
			embeddingHost:      "http://localhost:11434",
			expectedCompletion: "http://localhost:11434/v1",
			expectedEmbedding:  "http://localhost:11434/v1",
		},
		{
			name:               "has trailing slash",
			backend:            BackendOpenAI,
			completionHost:     "http://localhost:11434/",
			embeddingHost:      "http://localhost:11434/",
			expectedCompletion: "http://localhost:11434/v1",
			expectedEmbedding:  "http://localhost:11434/v1",
		},
		{
			name:               "empty hosts",
			backend:            BackendOpenAI,
			expectedCompletion: "",
			expectedEmbedding:  "",
		},
		{
			name:               "gemini leaves completion host alone",
			backend:            BackendGemini,
			completionHost:     "https://generativelanguage.googleapis.com",
			embeddingHost:      "http://embed:8080",
			expectedCompletion: "https://generativelanguage.googleapis.com",
			expectedEmbedding:  "http://embed:8080/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Backend:        tt.backend,
				CompletionHost: tt.completionHost,
				EmbeddingHost:  tt.embeddingHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedCompletion, cfg.CompletionHost)
			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
		})
	}

	t.Run("empty backend defaults to openai", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, BackendOpenAI, cfg.Backend)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend:             BackendOpenAI,
			CompletionHost:      "http://localhost:11434",
			CompletionModel:     "deepseek-chat",
			EmbeddingHost:       "http://localhost:11434",
			EmbeddingModel:      "text-embedding-v4",
			EmbeddingDimensions: 1024,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"missing completion host", func(c *Config) { c.CompletionHost = "" }, "CompletionHost"},
		{"missing completion model", func(c *Config) { c.CompletionModel = "" }, "CompletionModel"},
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"zero dimensions", func(c *Config) { c.EmbeddingDimensions = 0 }, "EmbeddingDimensions"},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, "Temperature"},
		{"unknown backend", func(c *Config) { c.Backend = "bedrock" }, "Backend"},
		{"gemini without key", func(c *Config) { c.Backend = BackendGemini }, "CompletionAPIKey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
