// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder returns deterministic unit vectors derived from an FNV hash of
// the text, so equal texts embed identically. MockCompleter answers from an
// ordered list of substring rules, which is enough to script one reply per
// generation module.
//
// # Usage in Tests
//
//	completer := mock.NewMockCompleter(
//	    mock.Rule{Contains: "Summarize", Reply: `{"summary": "..."}`},
//	)
//	embedder := mock.NewMockEmbedder().
//	    WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
//	        return nil, errors.New("down")
//	    })
//	provider := mock.NewMockProviderWithServices(embedder, completer)
package mock
