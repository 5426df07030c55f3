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


package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/studyforge/ai"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/retry"
)

// DefaultTopK is the number of excerpts retrieved per query.
const DefaultTopK = 5

// Index chunks a transcript, embeds the chunks and answers similarity queries.
// One Index belongs to one task and is discarded with it.
type Index struct {
	embedder ai.Embedder
	store    *Store
	policy   retry.Policy
	maxChunk int
	overlap  int
	logger   *slog.Logger
	monitor  Monitor
}

type Option func(*Index) error

func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// WithChunking overrides the chunk size and overlap, in runes.
func WithChunking(maxSize, overlap int) Option {
	return func(ix *Index) error {
		if maxSize <= 0 || overlap < 0 || overlap >= maxSize {
			return fmt.Errorf("semantic: invalid chunking max=%d overlap=%d", maxSize, overlap)
		}
		ix.maxChunk = maxSize
		ix.overlap = overlap
		return nil
	}
}

// WithRetryPolicy sets the retry policy wrapped around embedding calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(ix *Index) error {
		ix.policy = p
		return nil
	}
}

// WithMonitor attaches a monitor that observes queries.
func WithMonitor(m Monitor) Option {
	return func(ix *Index) error {
		if m == nil {
			m = noopMonitor{}
		}
		ix.monitor = m
		return nil
	}
}

// NewIndex creates an empty index backed by embedder.
func NewIndex(embedder ai.Embedder, opts ...Option) (*Index, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	ix := &Index{
		embedder: embedder,
		store:    NewStore(),
		policy:   retry.DefaultPolicy,
		maxChunk: DefaultMaxChunkSize,
		overlap:  DefaultOverlap,
		logger:   slog.Default().With("component", "semantic-index"),
		monitor:  noopMonitor{},
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Build chunks text, embeds every non-blank chunk in one batch and appends
// the resulting records with unit-length embeddings. It returns the number of records added.
func (ix *Index) Build(ctx context.Context, text string) (int, error) {
	chunks := Chunk(text, ix.maxChunk, ix.overlap)

	kept := make([]core.Chunk, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		kept = append(kept, c)
		texts = append(texts, c.Content)
	}
	if len(texts) == 0 {
		ix.logger.Warn("nothing to index", "length", len(text))
		return 0, nil
	}

	vectors, err := retry.Do(ctx, ix.policy, func(ctx context.Context) ([][]float32, error) {
		return ix.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return 0, fmt.Errorf("embed transcript chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: %d vectors for %d chunks", ErrDimensionMismatch, len(vectors), len(texts))
	}

	records := make([]core.VectorRecord, len(kept))
	for i, c := range kept {
		records[i] = core.VectorRecord{
			ID:        core.IDFromContent(fmt.Sprintf("%d:%d:%s", c.Start, c.End, c.Content)),
			Text:      c.Content,
			Embedding: NormalizeVector(vectors[i]),
			Metadata: map[string]any{
				"start":      c.Start,
				"end":        c.End,
				"chunkIndex": i,
			},
		}
	}
	if err := ix.store.AddBatch(records); err != nil {
		return 0, err
	}

	stats := ix.store.Stats()
	ix.logger.Debug("transcript indexed", "chunks", len(records), "total", stats.Count, "dims", stats.Dimensions)
	return len(records), nil
}

// Retrieve embeds query and returns the topK most similar chunks.
func (ix *Index) Retrieve(ctx context.Context, query string, topK int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	ix.monitor.Start(query)

	vec, err := retry.Do(ctx, ix.policy, func(ctx context.Context) ([]float32, error) {
		return ix.embedder.EmbedText(ctx, query)
	})
	if err != nil {
		ix.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches := ix.store.Search(vec, topK)
	ix.monitor.Finish(matches)
	return matches, nil
}

// Store exposes the underlying vector store.
func (ix *Index) Store() *Store {
	return ix.store
}
