package ai

import (
	"errors"
	"strings"
)

// Backend names the completion implementation a provider should use.
type Backend string

const (
	// BackendOpenAI talks to any OpenAI-compatible chat API (DeepSeek, vLLM, Ollama).
	BackendOpenAI Backend = "openai"
	// BackendGemini talks to the Gemini API.
	BackendGemini Backend = "gemini"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the completion implementation.
	// Default: BackendOpenAI
	Backend Backend

	// CompletionHost is the base URL for the chat completion API.
	// Ignored by the Gemini backend.
	// Example: "https://api.deepseek.com/v1"
	CompletionHost string

	// CompletionModel is the model identifier used for study material generation.
	// Example: "deepseek-chat", "gemini-2.0-flash"
	CompletionModel string

	// CompletionAPIKey authenticates completion requests.
	CompletionAPIKey string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://dashscope.aliyuncs.com/compatible-mode/v1"
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-v4"
	EmbeddingModel string

	// EmbeddingAPIKey authenticates embedding requests.
	EmbeddingAPIKey string

	// EmbeddingDimensions fixes the vector length requested from the embedding service.
	// Default: 1024
	EmbeddingDimensions int

	// Temperature is the sampling temperature for completions.
	Temperature float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend selects the completion backend.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithCompletionAPIKey sets the completion API key.
func WithCompletionAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.CompletionAPIKey = key
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingAPIKey sets the embedding API key.
func WithEmbeddingAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingAPIKey = key
	}
}

// WithEmbeddingDimensions sets the embedding vector length.
func WithEmbeddingDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dims
	}
}

// WithTemperature sets the completion sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// DefaultConfig returns a Config pointing at DeepSeek for completions and
// DashScope's OpenAI-compatible mode for embeddings. API keys are left empty.
func DefaultConfig() *Config {
	return &Config{
		Backend:             BackendOpenAI,
		CompletionHost:      "https://api.deepseek.com/v1",
		CompletionModel:     "deepseek-chat",
		EmbeddingHost:       "https://dashscope.aliyuncs.com/compatible-mode/v1",
		EmbeddingModel:      "text-embedding-v4",
		EmbeddingDimensions: 1024,
		Temperature:         0.3,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithCompletionAPIKey(os.Getenv("DEEPSEEK_API_KEY")),
//	    WithEmbeddingAPIKey(os.Getenv("DASHSCOPE_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix when it is missing; the
// empty backend becomes BackendOpenAI.
func (c *Config) Normalize() {
	if c.Backend == "" {
		c.Backend = BackendOpenAI
	}
	c.EmbeddingHost = withVersionSuffix(c.EmbeddingHost)
	if c.Backend == BackendOpenAI {
		c.CompletionHost = withVersionSuffix(c.CompletionHost)
	}
}

func withVersionSuffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendOpenAI:
		if c.CompletionHost == "" {
			return errors.New("ai config: CompletionHost is required")
		}
	case BackendGemini:
		if c.CompletionAPIKey == "" {
			return errors.New("ai config: CompletionAPIKey is required for the gemini backend")
		}
	default:
		return errors.New("ai config: unknown Backend " + string(c.Backend))
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return errors.New("ai config: EmbeddingDimensions must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	return nil
}
