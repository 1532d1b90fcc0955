package driven

import "context"

// Record is the persisted tuple for one chunk. The store owns the on-disk
// representation; the pipeline only issues upserts, never direct mutation.
type Record struct {
	// ChunkID is the upsert key. Writing an existing ID overwrites the
	// record (last write wins, no merge).
	ChunkID string

	// DocumentID links back to the source document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Embedding is the chunk vector. All records in one store share a
	// single dimension.
	Embedding []float32

	// Metadata contains arbitrary key-value pairs stored alongside.
	Metadata map[string]any
}

// Hit is a nearest-neighbour result.
type Hit struct {
	// Record is the stored record.
	Record Record

	// Similarity is the cosine similarity to the query vector (1.0 is an
	// exact match).
	Similarity float64
}

// VectorStore persists chunk vectors and serves top-k nearest-neighbour
// queries under cosine similarity.
//
// Implementations must support concurrent upserts with per-ChunkID
// last-write-wins semantics, and reads concurrent with writes (readers are
// not guaranteed to see in-flight writes).
type VectorStore interface {
	// Upsert inserts or overwrites records keyed by ChunkID.
	// Records whose embedding dimension differs from the store's are
	// rejected with domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to k records ranked by descending similarity to
	// the query vector, ties broken by ascending ChunkID. Fewer than k
	// stored records returns all of them; an empty store returns an
	// empty slice.
	Query(ctx context.Context, embedding []float32, k int) ([]Hit, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the dimension of the stored vectors, or 0 when
	// the store is empty.
	Dimensions(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
