// Package ai provides abstractions for the AI services studyforge depends on.
//
// Two capabilities are modelled:
//
//   - Embedder: maps text to fixed-dimension vectors for transcript retrieval
//   - Completer: turns a system prompt plus a user prompt into free text
//
// AIProvider bundles both so they can be configured and closed together.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo client for OpenAI-compatible APIs (DeepSeek, DashScope)
//   - ai/gemini: Gemini completions through google.golang.org/genai
//   - ai/mock: deterministic test doubles
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types. Mock constructors return concrete types so tests can
// inject behaviour and assert call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithCompletionAPIKey(os.Getenv("DEEPSEEK_API_KEY")),
//	    ai.WithEmbeddingAPIKey(os.Getenv("DASHSCOPE_API_KEY")),
//	)
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "photosynthesis")
//	text, err := provider.Completer().Complete(ctx, system, prompt)
package ai
