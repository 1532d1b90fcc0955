package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunkConfig indicates an invalid chunk size and overlap
	// relationship. It is a configuration error: surfaced immediately,
	// before any chunking work begins, and never retried.
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")

	// ErrUnknownStrategy indicates an unrecognised chunking strategy.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")

	// ErrDimensionMismatch indicates the query embedding dimension does not
	// match the dimension of the stored vectors. This is a fatal
	// configuration error, never a silent truncation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyInput indicates text that the embedding service rejects
	// outright. It is a permanent failure: the chunk is skipped rather
	// than retried.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnsupportedKind indicates a document kind with no registered
	// extractor.
	ErrUnsupportedKind = errors.New("unsupported document kind")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the vector store is not configured or
	// unreachable. Retrieval-time store errors propagate as a single
	// terminal failure; there is no partial result for one query.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Retrieval still works without it; only chat is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// IsPermanentEmbeddingError reports whether an embedding failure should be
// recorded and skipped instead of retried. Everything that is not an input
// rejection is treated as transient and retried with backoff.
func IsPermanentEmbeddingError(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrInvalidInput)
}
