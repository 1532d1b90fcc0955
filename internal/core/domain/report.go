package domain

import "time"

// DocumentStatus is the terminal state of one document in an ingestion run.
type DocumentStatus string

const (
	// StatusSucceeded means every chunk of the document was embedded and
	// upserted.
	StatusSucceeded DocumentStatus = "succeeded"

	// StatusFailed means the document could not be processed. The reason
	// is recorded; the run continues with the next document.
	StatusFailed DocumentStatus = "failed"

	// StatusSkipped means the document was not processed (no extractor,
	// empty content, or the run was cancelled before reaching it).
	StatusSkipped DocumentStatus = "skipped"
)

// DocumentOutcome records the result of processing a single document.
type DocumentOutcome struct {
	// DocumentID is the stable document identifier.
	DocumentID string

	// Path is the source location, for operator-facing output.
	Path string

	// Status is the terminal state.
	Status DocumentStatus

	// Reason explains a failed or skipped status.
	Reason string

	// ChunksProduced is the number of chunks the chunker emitted.
	ChunksProduced int

	// VectorsUpserted is the number of vectors written to the store.
	// It can be lower than ChunksProduced when individual chunks were
	// skipped on permanent embedding failures.
	VectorsUpserted int
}

// IngestionReport enumerates per-document outcomes of an ingestion run.
// Partial success is a valid terminal state: the report distinguishes
// success and failure per document instead of failing the whole run.
type IngestionReport struct {
	// RunID identifies the ingestion run.
	RunID string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Outcomes holds one entry per input document, in completion order.
	Outcomes []DocumentOutcome

	// TotalChunks is the number of chunks produced across all documents.
	TotalChunks int

	// TotalVectors is the number of vectors upserted across all documents.
	TotalVectors int

	// Cancelled is true when the run stopped early on context
	// cancellation. Outcomes gathered up to that point are retained.
	Cancelled bool
}

// Add appends an outcome and folds its counters into the totals.
func (r *IngestionReport) Add(outcome DocumentOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	r.TotalChunks += outcome.ChunksProduced
	r.TotalVectors += outcome.VectorsUpserted
}

// Succeeded returns the number of documents that completed fully.
func (r *IngestionReport) Succeeded() int {
	return r.countByStatus(StatusSucceeded)
}

// Failed returns the number of documents that failed.
func (r *IngestionReport) Failed() int {
	return r.countByStatus(StatusFailed)
}

// Skipped returns the number of documents that were skipped.
func (r *IngestionReport) Skipped() int {
	return r.countByStatus(StatusSkipped)
}

func (r *IngestionReport) countByStatus(status DocumentStatus) int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].Status == status {
			n++
		}
	}
	return n
}
