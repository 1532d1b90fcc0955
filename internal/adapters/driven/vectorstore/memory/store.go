// Package memory provides an in-memory vector store, used for tests and
// for ephemeral sessions where persistence is not wanted.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store holds records in a map guarded by a read-write mutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]driven.Record
	dims    int
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{records: make(map[string]driven.Record)}
}

// Upsert inserts or overwrites records keyed by ChunkID.
func (s *Store) Upsert(_ context.Context, records []driven.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.ChunkID == "" {
			return fmt.Errorf("%w: record without chunk id", domain.ErrInvalidInput)
		}
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %s without embedding", domain.ErrInvalidInput, r.ChunkID)
		}
		if s.dims == 0 {
			s.dims = len(r.Embedding)
		} else if len(r.Embedding) != s.dims {
			return fmt.Errorf("%w: store holds %d-dimensional vectors, record %s has %d",
				domain.ErrDimensionMismatch, s.dims, r.ChunkID, len(r.Embedding))
		}
		s.records[r.ChunkID] = r
	}
	return nil
}

// Query returns up to k records ranked by descending cosine similarity,
// ties broken by ascending ChunkID.
func (s *Store) Query(_ context.Context, embedding []float32, k int) ([]driven.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return []driven.Hit{}, nil
	}
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("%w: store holds %d-dimensional vectors, query has %d",
			domain.ErrDimensionMismatch, s.dims, len(embedding))
	}

	hits := make([]driven.Hit, 0, len(s.records))
	for _, r := range s.records {
		hits = append(hits, driven.Hit{
			Record:     r,
			Similarity: cosineSimilarity(embedding, r.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Record.ChunkID < hits[j].Record.ChunkID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// List returns up to limit records ordered by chunk id. A non-positive
// limit returns everything.
func (s *Store) List(_ context.Context, limit int) ([]driven.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]driven.Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ChunkID < records[j].ChunkID })
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Dimensions returns the stored vector dimension, or 0 when empty.
func (s *Store) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return 0, nil
	}
	return s.dims, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors compare as 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
