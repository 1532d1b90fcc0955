package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driving"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// RetrievalService embeds a query and ranks stored chunks by cosine
// similarity.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.VectorStore) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns up to k chunks ranked by descending similarity to the
// query, ties broken by ascending chunk ID. An empty corpus yields an empty
// result without calling the embedder.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if count == 0 {
		logger.Debug("Retrieval over empty store, returning no results")
		return []domain.RetrievedChunk{}, nil
	}

	storeDims, err := s.store.Dimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("store dimensions: %w", err)
	}
	if storeDims != 0 && storeDims != s.embedder.Dimensions() {
		return nil, fmt.Errorf("%w: store holds %d-dimensional vectors, embedder %q produces %d",
			domain.ErrDimensionMismatch, storeDims, s.embedder.ModelName(), s.embedder.Dimensions())
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	// Stores are expected to rank, but the ordering contract is enforced
	// here so every adapter behaves identically.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Record.ChunkID < hits[j].Record.ChunkID
	})

	results := make([]domain.RetrievedChunk, len(hits))
	for i, hit := range hits {
		results[i] = domain.RetrievedChunk{
			ChunkID:    hit.Record.ChunkID,
			DocumentID: hit.Record.DocumentID,
			Content:    hit.Record.Content,
			Metadata:   hit.Record.Metadata,
			Similarity: hit.Similarity,
		}
	}
	logger.Debug("Retrieved %d/%d chunks for query", len(results), count)
	return results, nil
}
