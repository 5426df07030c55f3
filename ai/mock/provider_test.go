package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Services(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder()
	completer := NewMockCompleter(Rule{Contains: "outline", Reply: `{"chapters":[]}`})

	provider := NewMockProviderWithServices(embedder, completer).(*MockProvider)
	require.Same(t, embedder, provider.GetMockEmbedder())
	require.Same(t, completer, provider.GetMockCompleter())

	_, err := provider.Embedder().EmbedText(ctx, "lecture")
	require.NoError(t, err)
	reply, err := provider.Completer().Complete(ctx, "system", "build an outline")
	require.NoError(t, err)

	assert.Equal(t, `{"chapters":[]}`, reply)
	assert.Equal(t, 1, provider.GetMockEmbedder().CallCount())
	assert.Equal(t, 1, provider.GetMockCompleter().CallCount())
	assert.Equal(t, []string{"build an outline"}, provider.GetMockCompleter().Prompts())
	assert.NoError(t, provider.Close())
}

func TestMockProvider_Defaults(t *testing.T) {
	provider := NewMockProvider().(*MockProvider)
	require.NotNil(t, provider.GetMockEmbedder())
	require.NotNil(t, provider.GetMockCompleter())

	reply, err := provider.Completer().Complete(context.Background(), "", "anything")
	require.NoError(t, err)
	assert.Equal(t, "{}", reply)
}

func TestMockCompleter_Rules(t *testing.T) {
	quota := errors.New("quota exceeded")
	c := NewMockCompleter(
		Rule{Contains: "quiz", Err: quota},
		Rule{Contains: "summary", Reply: "first"},
		Rule{Contains: "summary", Reply: "second"},
	)

	_, err := c.Complete(context.Background(), "", "write a quiz")
	assert.ErrorIs(t, err, quota)

	reply, err := c.Complete(context.Background(), "", "write a summary")
	require.NoError(t, err)
	assert.Equal(t, "first", reply)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(ctx, "", "write a summary")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, c.CallCount())
}

func TestVector_Deterministic(t *testing.T) {
	a := Vector("mitosis", 16)
	b := Vector("mitosis", 16)
	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Vector("meiosis", 16))
}
