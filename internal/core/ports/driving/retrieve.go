package driving

import (
	"context"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

// Retriever serves top-k nearest-neighbour queries for the chat loop.
type Retriever interface {
	// Retrieve embeds the query and returns up to k stored chunks ranked
	// by descending cosine similarity, ties broken by ascending ChunkID.
	// k larger than the corpus returns all records; an empty corpus
	// returns an empty result. A dimension mismatch between the query
	// embedding and the store is domain.ErrDimensionMismatch.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}
