package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//
// The vector dimension is constant for the lifetime of the service and must
// match the vector store it feeds; mixing dimensions is a configuration
// error surfaced by the retriever.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Empty input is rejected with domain.ErrEmptyInput.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	// This is more efficient than calling Embed in a loop for large
	// batches. A batch error applies to the whole call; the ingestion
	// pipeline degrades to per-item retries on failure.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
