// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.AIProvider interface using the langchaingo
// library. Completions target DeepSeek by default and embeddings target
// DashScope's compatible mode, but any OpenAI-compatible host works.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithCompletionAPIKey(os.Getenv("DEEPSEEK_API_KEY")),
//	    ai.WithEmbeddingAPIKey(os.Getenv("DASHSCOPE_API_KEY")),
//	)
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, chunks)
//	reply, err := provider.Completer().Complete(ctx, system, prompt)
package openai
