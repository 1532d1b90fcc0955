package driving

import (
	"context"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

// Ingestor runs the chunk-embed-upsert pipeline over a document set.
type Ingestor interface {
	// Ingest processes each raw document independently: extraction,
	// chunking, embedding, upsert. A failure in one document is recorded
	// in the report and does not abort the run. The returned report is
	// always non-nil; when ctx is cancelled the report covers the
	// documents finished so far and Cancelled is set.
	Ingest(ctx context.Context, raws []domain.RawDocument) (*domain.IngestionReport, error)

	// Status returns a snapshot of the running ingestion, for progress
	// display. It is safe to call concurrently with Ingest.
	Status() IngestStatus
}

// IngestStatus is a point-in-time snapshot of an ingestion run.
type IngestStatus struct {
	// Running is true while a run is in flight.
	Running bool

	// DocumentsProcessed is the number of documents with a terminal
	// outcome so far.
	DocumentsProcessed int

	// DocumentsTotal is the number of input documents.
	DocumentsTotal int

	// ErrorCount is the number of failed documents so far.
	ErrorCount int
}
