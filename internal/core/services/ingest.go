package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marrow-labs/docchat-cli/internal/chunker"
	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driving"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.Ingestor = (*IngestionPipeline)(nil)

const (
	defaultConcurrency = 4
	defaultMaxRetries  = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// PipelineConfig configures the ingestion pipeline.
type PipelineConfig struct {
	// Chunking holds the splitting strategy and window sizes. It is
	// validated before any document is touched.
	Chunking chunker.Config

	// Concurrency bounds the number of documents processed in parallel.
	// Zero means defaultConcurrency.
	Concurrency int

	// MaxRetries is the number of attempts for a transient embedding
	// failure before the document is marked failed. Zero means
	// defaultMaxRetries.
	MaxRetries int

	// RetryDelay is the base delay between retry attempts, doubled on
	// each attempt. Zero means defaultRetryDelay.
	RetryDelay time.Duration
}

// IngestionPipeline runs extraction, chunking, embedding and upsert over a
// set of raw documents. Documents fail independently; one bad file never
// aborts the run.
type IngestionPipeline struct {
	registry driven.ExtractorRegistry
	embedder driven.EmbeddingService
	store    driven.VectorStore
	cfg      PipelineConfig

	mu     sync.RWMutex
	status driving.IngestStatus
}

// NewIngestionPipeline creates an ingestion pipeline.
func NewIngestionPipeline(
	registry driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	cfg PipelineConfig,
) *IngestionPipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &IngestionPipeline{
		registry: registry,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Ingest processes each raw document through extract, chunk, embed, upsert.
// Configuration errors are detected before any work starts and fail the
// whole call; per-document errors are recorded in the report.
func (p *IngestionPipeline) Ingest(ctx context.Context, raws []domain.RawDocument) (*domain.IngestionReport, error) {
	report := &domain.IngestionReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	if err := p.cfg.Chunking.Validate(); err != nil {
		report.FinishedAt = time.Now()
		return report, err
	}

	p.setStatus(driving.IngestStatus{Running: true, DocumentsTotal: len(raws)})
	defer func() {
		p.mu.Lock()
		p.status.Running = false
		p.mu.Unlock()
	}()

	logger.Info("Ingestion run %s: %d documents, strategy=%s size=%d overlap=%d",
		report.RunID, len(raws), p.cfg.Chunking.Strategy,
		p.cfg.Chunking.ChunkSize, p.cfg.Chunking.ChunkOverlap)

	type job struct {
		index int
		raw   domain.RawDocument
	}

	jobs := make(chan job)
	outcomes := make([]domain.DocumentOutcome, len(raws))

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcome := p.processDocument(ctx, j.raw)
				outcomes[j.index] = outcome
				p.recordProgress(outcome)
			}
		}()
	}

dispatch:
	for i, raw := range raws {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- job{index: i, raw: raw}:
		}
	}
	close(jobs)
	wg.Wait()

	for i, outcome := range outcomes {
		if outcome.Status == "" {
			// Never dispatched before cancellation.
			outcome = domain.DocumentOutcome{
				DocumentID: domain.DocumentID(raws[i].Path),
				Path:       raws[i].Path,
				Status:     domain.StatusSkipped,
				Reason:     "cancelled",
			}
		}
		report.Add(outcome)
	}
	report.Cancelled = ctx.Err() != nil
	report.FinishedAt = time.Now()

	logger.Info("Ingestion run %s finished: %d succeeded, %d failed, %d skipped",
		report.RunID, report.Succeeded(), report.Failed(), report.Skipped())

	return report, nil
}

// Status returns a snapshot of the running ingestion.
func (p *IngestionPipeline) Status() driving.IngestStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *IngestionPipeline) setStatus(s driving.IngestStatus) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *IngestionPipeline) recordProgress(outcome domain.DocumentOutcome) {
	p.mu.Lock()
	p.status.DocumentsProcessed++
	if outcome.Status == domain.StatusFailed {
		p.status.ErrorCount++
	}
	p.mu.Unlock()
}

// processDocument runs one document through the pipeline stages and returns
// its terminal outcome. Errors become a failed outcome, never a panic or an
// aborted run.
func (p *IngestionPipeline) processDocument(ctx context.Context, raw domain.RawDocument) domain.DocumentOutcome {
	docID := domain.DocumentID(raw.Path)
	outcome := domain.DocumentOutcome{
		DocumentID: docID,
		Path:       raw.Path,
	}

	if ctx.Err() != nil {
		outcome.Status = domain.StatusSkipped
		outcome.Reason = "cancelled"
		return outcome
	}

	doc, err := p.registry.Extract(ctx, &raw)
	if err != nil {
		outcome.Status = domain.StatusFailed
		outcome.Reason = fmt.Sprintf("extract: %v", err)
		return outcome
	}

	spans, err := chunker.Split(doc.Content, p.cfg.Chunking)
	if err != nil {
		outcome.Status = domain.StatusFailed
		outcome.Reason = fmt.Sprintf("chunk: %v", err)
		return outcome
	}
	if len(spans) == 0 {
		outcome.Status = domain.StatusSkipped
		outcome.Reason = "no content"
		return outcome
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = domain.Chunk{
			ID:            domain.ChunkID(docID, i),
			DocumentID:    docID,
			Content:       span.Text,
			SequenceIndex: i,
			StartOffset:   span.Start,
			EndOffset:     span.End,
			Strategy:      string(p.cfg.Chunking.Strategy),
		}
	}
	outcome.ChunksProduced = len(chunks)

	records, err := p.embedChunks(ctx, doc, chunks)
	if err != nil {
		outcome.Status = domain.StatusFailed
		outcome.Reason = fmt.Sprintf("embed: %v", err)
		return outcome
	}
	if len(records) == 0 {
		outcome.Status = domain.StatusSkipped
		outcome.Reason = "no embeddable content"
		return outcome
	}

	if err := p.upsert(ctx, records); err != nil {
		outcome.Status = domain.StatusFailed
		outcome.Reason = fmt.Sprintf("store: %v", err)
		return outcome
	}

	outcome.Status = domain.StatusSucceeded
	outcome.VectorsUpserted = len(records)
	logger.Debug("Document %s (%s): %d chunks, %d vectors",
		docID, raw.Path, len(chunks), len(records))
	return outcome
}

// embedChunks embeds all chunks of one document. It tries a single batch
// call first and degrades to per-chunk calls with retries when the batch
// fails. Chunks rejected as permanently unembeddable are dropped; any
// other exhausted failure fails the document.
func (p *IngestionPipeline) embedChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]driven.Record, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	records := make([]driven.Record, 0, len(chunks))

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(chunks) {
		for i, c := range chunks {
			records = append(records, p.toRecord(doc, c, vectors[i]))
		}
		return records, nil
	}
	if err != nil {
		logger.Warn("Batch embedding failed for %s, retrying per chunk: %v", doc.ID, err)
	}

	for _, c := range chunks {
		vector, err := p.embedWithRetry(ctx, c.Content)
		if err != nil {
			if domain.IsPermanentEmbeddingError(err) {
				logger.Debug("Skipping chunk %s: %v", c.ID, err)
				continue
			}
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		records = append(records, p.toRecord(doc, c, vector))
	}
	return records, nil
}

// embedWithRetry embeds one text with bounded retries and exponential
// backoff. Permanent errors are returned immediately.
func (p *IngestionPipeline) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	delay := p.cfg.RetryDelay
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		vector, err := p.embedder.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		if domain.IsPermanentEmbeddingError(err) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w after %d attempts: %w",
		domain.ErrEmbeddingUnavailable, p.cfg.MaxRetries, lastErr)
}

// upsert writes records to the vector store, retrying once on failure.
func (p *IngestionPipeline) upsert(ctx context.Context, records []driven.Record) error {
	err := p.store.Upsert(ctx, records)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrDimensionMismatch) {
		return err
	}
	logger.Warn("Upsert failed, retrying once: %v", err)
	if err := p.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *IngestionPipeline) toRecord(doc *domain.Document, c domain.Chunk, vector []float32) driven.Record {
	meta := map[string]any{
		"path":           doc.Path,
		"title":          doc.Title,
		"kind":           doc.Kind.String(),
		"strategy":       c.Strategy,
		"sequence_index": c.SequenceIndex,
		"start_offset":   c.StartOffset,
		"end_offset":     c.EndOffset,
		// Content hash identifies a chunk across boundary shifts, for
		// dedup tooling downstream of the store.
		"content_hash": domain.ContentChunkID(c.Content),
	}
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	return driven.Record{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		Content:    c.Content,
		Embedding:  vector,
		Metadata:   meta,
	}
}
