package generation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/studyforge/ai/mock"
	"github.com/poiesic/studyforge/retry"
	"github.com/poiesic/studyforge/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noWait = retry.Policy{
	MaxAttempts: 3,
	Sleep:       func(context.Context, time.Duration) error { return nil },
}

type fakeRetriever struct {
	queries []string
	err     error
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, topK int) ([]semantic.Match, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return []semantic.Match{{Score: 1}}[:min(topK, 1)], nil
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(nil)
	assert.ErrorIs(t, err, ErrCompleterRequired)

	g, err := NewGenerator(mock.NewMockCompleter(), WithPoolSize(0), WithTopK(3), WithRetryPolicy(noWait), WithLogger(nil))
	require.NoError(t, err)
	defer g.Release()
	assert.Equal(t, 3, g.topK)
	assert.Equal(t, 1, g.pool.Cap())
}

func TestPrompts(t *testing.T) {
	assert.Equal(t, "T\n\nI", PlainPrompt("T", "I"))
	assert.Equal(t, "R\n\nT\n\nI", RAGPrompt("R", "T", "I"))
}

func TestModule(t *testing.T) {
	for _, m := range AllModules {
		assert.NotEmpty(t, m.Instruction(), m)
	}
	assert.False(t, ModuleSummary.RAG())
	assert.False(t, ModuleChapters.RAG())
	assert.True(t, ModuleKnowledgePoints.RAG())
	assert.True(t, ModuleEssay.RAG())
	assert.Empty(t, Module("nope").Instruction())
}

func TestGenerator_Run(t *testing.T) {
	completer := mock.NewMockCompleter(
		mock.Rule{Contains: "concise summary", Reply: `{"summary": "S"}`},
		mock.Rule{Contains: "keywords", Reply: `["k"]`},
		mock.Rule{Contains: "multiple-choice", Reply: `{"multipleChoice": []}`},
	)
	g, err := NewGenerator(completer, WithRetryPolicy(noWait))
	require.NoError(t, err)
	defer g.Release()

	out, err := g.Run(context.Background(), Request{Transcript: "TRANSCRIPT", ReferencesContext: "REFS"},
		ModuleSummary, ModuleKeywords, ModuleMultipleChoice)
	require.NoError(t, err)
	assert.Equal(t, `{"summary": "S"}`, out[ModuleSummary])
	assert.Equal(t, `["k"]`, out[ModuleKeywords])
	assert.Equal(t, `{"multipleChoice": []}`, out[ModuleMultipleChoice])

	var plain, rag int
	for _, p := range completer.Prompts() {
		require.True(t, strings.Contains(p, "TRANSCRIPT"))
		if strings.HasPrefix(p, "REFS\n\nTRANSCRIPT\n\n") {
			rag++
		} else if strings.HasPrefix(p, "TRANSCRIPT\n\n") {
			plain++
		}
	}
	assert.Equal(t, 2, plain)
	assert.Equal(t, 1, rag)
}

func TestGenerator_RunAppendsExcerptsToRAGModules(t *testing.T) {
	completer := mock.NewMockCompleter()
	g, err := NewGenerator(completer, WithRetryPolicy(noWait))
	require.NoError(t, err)
	defer g.Release()

	retriever := &fakeRetriever{}
	_, err = g.Run(context.Background(), Request{Transcript: "T", Query: "gravity", Retriever: retriever},
		ModuleHighlights, ModuleKnowledgePoints)
	require.NoError(t, err)

	assert.Equal(t, []string{"knowledge points key concepts definitions gravity"}, retriever.queries)

	var found bool
	for _, p := range completer.Prompts() {
		if strings.Contains(p, "Relevant transcript excerpts:") {
			found = true
			assert.Contains(t, p, "knowledge points")
		}
	}
	assert.True(t, found)
}

func TestGenerator_RetrievalFailureIsTolerated(t *testing.T) {
	completer := mock.NewMockCompleter()
	g, err := NewGenerator(completer, WithRetryPolicy(noWait))
	require.NoError(t, err)
	defer g.Release()

	retriever := &fakeRetriever{err: errors.New("embedding down")}
	out, err := g.Run(context.Background(), Request{Transcript: "T", Retriever: retriever}, ModuleEssay)
	require.NoError(t, err)
	assert.Equal(t, "{}", out[ModuleEssay])
	assert.NotContains(t, completer.Prompts()[0], "Relevant transcript excerpts")
}

func TestGenerator_RunRetriesThenFails(t *testing.T) {
	boom := errors.New("rate limited")
	var calls atomic.Int32
	completer := mock.NewMockCompleter().WithCompleteFunc(func(_ context.Context, _, prompt string) (string, error) {
		if strings.Contains(prompt, "chapters") {
			calls.Add(1)
			return "", boom
		}
		return "ok", nil
	})
	g, err := NewGenerator(completer, WithRetryPolicy(noWait))
	require.NoError(t, err)
	defer g.Release()

	out, err := g.Run(context.Background(), Request{Transcript: "T"}, ModuleHighlights, ModuleChapters)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chapters")
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "ok", out[ModuleHighlights])
}

func TestGenerator_RunUnknownModule(t *testing.T) {
	g, err := NewGenerator(mock.NewMockCompleter(), WithRetryPolicy(noWait))
	require.NoError(t, err)
	defer g.Release()

	_, err = g.Run(context.Background(), Request{}, Module("bogus"))
	assert.ErrorIs(t, err, ErrUnknownModule)
}
