package semantic

import (
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/studyforge/core"
)

// Match is one search hit.
type Match struct {
	Record core.VectorRecord
	Score  float64
}

// Stats summarizes a store's contents.
type Stats struct {
	Count      int
	Dimensions int
}

// Store is an append-only in-memory collection of vector records.
// It is safe for one writer and many concurrent readers.
type Store struct {
	mu      sync.RWMutex
	records []core.VectorRecord
	dims    int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add appends one record. All records must share the first record's dimension.
func (s *Store) Add(r core.VectorRecord) error {
	return s.AddBatch([]core.VectorRecord{r})
}

// AddBatch appends records atomically: either all are added or none.
func (s *Store) AddBatch(records []core.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dims
	for i, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %d", ErrEmptyEmbedding, i)
		}
		if dims == 0 {
			dims = len(r.Embedding)
		}
		if len(r.Embedding) != dims {
			return fmt.Errorf("%w: record %d has %d, store has %d", ErrDimensionMismatch, i, len(r.Embedding), dims)
		}
	}
	s.dims = dims
	s.records = append(s.records, records...)
	return nil
}

// Search scores every record against query by cosine similarity and returns
// the topK best, highest first. Equal scores keep insertion order.
func (s *Store) Search(query []float32, topK int) []Match {
	if topK <= 0 {
		return nil
	}

	s.mu.RLock()
	matches := make([]Match, len(s.records))
	for i, r := range s.records {
		matches[i] = Match{Record: r, Score: CosineSimilarity(query, r.Embedding)}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stats returns the record count and vector dimension.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Count: len(s.records), Dimensions: s.dims}
}
