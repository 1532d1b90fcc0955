package driven

import (
	"context"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

// Extractor obtains plain text from a raw document of a specific kind.
// The core never parses binary formats itself; extractors are the boundary
// behind which format-specific parsing lives.
type Extractor interface {
	// SupportedKinds returns the document kinds this extractor handles.
	SupportedKinds() []domain.DocumentKind

	// Priority returns the selection priority (higher = preferred) when
	// several extractors claim the same kind. Generic extractors should
	// return 1-9, format-aware extractors 50-89.
	Priority() int

	// Extract converts raw bytes into a Document with Content populated.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// ExtractorRegistry selects the extractor for a raw document by kind.
type ExtractorRegistry interface {
	// Extract dispatches to the highest-priority extractor registered for
	// the raw document's kind. Unregistered kinds fail with
	// domain.ErrUnsupportedKind.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
