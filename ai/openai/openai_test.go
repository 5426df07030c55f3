package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/studyforge/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func fakeServer(t *testing.T, dims int) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var chats []chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			var req chatRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			chats = append(chats, req)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "cmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   req.Model,
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": `{"summary":"ok"}`},
					"finish_reason": "stop",
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var req embeddingRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			data := make([]map[string]any, len(req.Input))
			for i := range req.Input {
				vec := make([]float32, dims)
				vec[i%dims] = 1
				data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"model":  req.Model,
				"data":   data,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &chats
}

func testConfig(host string, dims int) *ai.Config {
	return ai.NewConfig(
		ai.WithCompletionHost(host),
		ai.WithEmbeddingHost(host),
		ai.WithEmbeddingDimensions(dims),
	)
}

func TestCompleterSendsSystemAndUserPrompts(t *testing.T) {
	srv, chats := fakeServer(t, 4)

	completer, err := NewCompleter(testConfig(srv.URL, 4))
	require.NoError(t, err)

	reply, err := completer.Complete(context.Background(), "you are a tutor", "transcript")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, reply)

	require.Len(t, *chats, 1)
	req := (*chats)[0]
	assert.Equal(t, "deepseek-chat", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "you are a tutor", req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "transcript", req.Messages[1].Content)
}

func TestEmbedderBatch(t *testing.T) {
	srv, _ := fakeServer(t, 4)

	embedder, err := NewEmbedder(testConfig(srv.URL, 4))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.Len(t, v, 4)
	}

	single, err := embedder.EmbedText(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, single, 4)
}

func TestEmbedderRejectsWrongDimension(t *testing.T) {
	srv, _ := fakeServer(t, 4)

	embedder, err := NewEmbedder(testConfig(srv.URL, 8))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingMismatch)
}

func TestNewProviderValidatesConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))

	_, err := NewProvider(cfg)
	assert.Error(t, err)
}
