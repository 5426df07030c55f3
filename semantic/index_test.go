package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/studyforge/ai/mock"
	"github.com/poiesic/studyforge/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noWait = retry.Policy{
	MaxAttempts: 3,
	Sleep:       func(context.Context, time.Duration) error { return nil },
}

type recordingMonitor struct {
	queries []string
	hits    int
}

func (m *recordingMonitor) Start(q string)         { m.queries = append(m.queries, q) }
func (m *recordingMonitor) Finish(matches []Match) { m.hits += len(matches) }

func TestNewIndex(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewIndex(nil)
		assert.ErrorIs(t, err, ErrNilEmbedder)
	})

	t.Run("invalid chunking", func(t *testing.T) {
		_, err := NewIndex(mock.NewMockEmbedder(), WithChunking(10, 10))
		assert.Error(t, err)
	})

	t.Run("with options", func(t *testing.T) {
		ix, err := NewIndex(mock.NewMockEmbedder(), WithLogger(nil), WithChunking(100, 10), WithRetryPolicy(noWait), WithMonitor(nil))
		require.NoError(t, err)
		assert.Zero(t, ix.Store().Len())
	})
}

func TestIndex_BuildAndRetrieve(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	mon := &recordingMonitor{}
	ix, err := NewIndex(embedder, WithChunking(20, 0), WithRetryPolicy(noWait), WithMonitor(mon))
	require.NoError(t, err)

	sentences := []string{"Photosynthesis.\n", "Cell division.\n", "Plate tectonics.\n"}
	n, err := ix.Build(ctx, strings.Join(sentences, ""))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, Stats{Count: 3, Dimensions: mock.DefaultDimensions}, ix.Store().Stats())

	// The mock embeds identical text to identical vectors, so the exact
	// chunk comes back first with a perfect score.
	matches, err := ix.Retrieve(ctx, "Cell division.\n", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Cell division.\n", matches[0].Record.Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, 16, matches[0].Record.Metadata["start"])
	assert.Equal(t, 1, matches[0].Record.Metadata["chunkIndex"])
	assert.NotEmpty(t, matches[0].Record.ID)

	assert.Equal(t, []string{"Cell division.\n"}, mon.queries)
	assert.Equal(t, 2, mon.hits)
}

func TestIndex_BuildSkipsBlankChunks(t *testing.T) {
	ix, err := NewIndex(mock.NewMockEmbedder(), WithRetryPolicy(noWait))
	require.NoError(t, err)

	n, err := ix.Build(context.Background(), "   \n\n  ")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_BuildRetriesEmbedding(t *testing.T) {
	calls := 0
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rate limited")
		}
		out := make([][]float32, len(texts))
		for i, s := range texts {
			out[i] = mock.Vector(s, 8)
		}
		return out, nil
	})
	ix, err := NewIndex(embedder, WithRetryPolicy(noWait))
	require.NoError(t, err)

	n, err := ix.Build(context.Background(), "Hello there. General Kenobi.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, calls)
}

func TestIndex_BuildFailure(t *testing.T) {
	boom := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	})
	ix, err := NewIndex(embedder, WithRetryPolicy(noWait))
	require.NoError(t, err)

	_, err = ix.Build(context.Background(), "Some transcript.")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, embedder.CallCount())
	assert.Zero(t, ix.Store().Len())
}

func TestIndex_BuildCountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) {
		return [][]float32{}, nil
	})
	ix, err := NewIndex(embedder, WithRetryPolicy(noWait))
	require.NoError(t, err)

	_, err = ix.Build(context.Background(), "Some transcript.")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIndex_BuildNormalizesEmbeddings(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{3, 4}
		}
		return out, nil
	})
	ix, err := NewIndex(embedder, WithRetryPolicy(noWait))
	require.NoError(t, err)

	_, err = ix.Build(context.Background(), "Entropy always increases.")
	require.NoError(t, err)

	matches := ix.Store().Search([]float32{3, 4}, 1)
	require.Len(t, matches, 1)
	emb := matches[0].Record.Embedding
	require.Len(t, emb, 2)
	assert.InDelta(t, 0.6, emb[0], 1e-6)
	assert.InDelta(t, 0.8, emb[1], 1e-6)
}

func TestIndex_RetrieveEmptyQuery(t *testing.T) {
	ix, err := NewIndex(mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = ix.Retrieve(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestEnhanceQuery(t *testing.T) {
	assert.Equal(t, "knowledge points key concepts definitions gravity", EnhanceQuery("knowledgePoints", "gravity"))
	assert.Equal(t, "gravity", EnhanceQuery("unknown", "gravity"))
}

func TestFormatResults(t *testing.T) {
	assert.Equal(t, NoMatches, FormatResults(nil))

	out := FormatResults([]Match{
		{Record: rec("a"), Score: 0.9},
		{Record: rec("b"), Score: 0.5},
	})
	assert.Contains(t, out, "1. a")
	assert.Contains(t, out, "2. b")

	r := rec("with range")
	r.Metadata = map[string]any{"start": 3, "end": 9}
	out = FormatResults([]Match{{Record: r}})
	assert.Contains(t, out, "[chars 3-9] with range")
}
