package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-labs/docchat-cli/internal/chunker"
	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

func testPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Chunking: chunker.Config{
			Strategy:     chunker.StrategyWord,
			ChunkSize:    5,
			ChunkOverlap: 1,
		},
		Concurrency: 2,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
	}
}

func rawDoc(path, content string) domain.RawDocument {
	return domain.RawDocument{
		Path:    path,
		Kind:    domain.KindPlainText,
		Content: []byte(content),
	}
}

func TestIngestionPipeline_Ingest(t *testing.T) {
	t.Run("successful run upserts all chunks", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		raws := []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo charlie delta echo foxtrot golf hotel"),
			rawDoc("docs/b.txt", "one two three"),
		}

		report, err := pipeline.Ingest(context.Background(), raws)
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.Equal(t, 2, report.Succeeded())
		assert.Zero(t, report.Failed())
		assert.False(t, report.Cancelled)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, report.TotalChunks, report.TotalVectors)

		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, report.TotalVectors, count)
	})

	t.Run("re-ingesting is idempotent", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		raws := []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo charlie delta echo foxtrot"),
		}

		_, err := pipeline.Ingest(context.Background(), raws)
		require.NoError(t, err)
		first, err := store.Count(context.Background())
		require.NoError(t, err)

		_, err = pipeline.Ingest(context.Background(), raws)
		require.NoError(t, err)
		second, err := store.Count(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second, "identical input must overwrite, not duplicate")
	})

	t.Run("re-ingesting one document leaves the others untouched", func(t *testing.T) {
		cfg := testPipelineConfig()
		cfg.Chunking.ChunkSize = 2
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, cfg)

		docA := rawDoc("docs/a.txt", "alpha bravo charlie")
		docB := rawDoc("docs/b.txt", "delta echo foxtrot")

		_, err := pipeline.Ingest(context.Background(), []domain.RawDocument{docA, docB})
		require.NoError(t, err)
		both, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, both, "two chunks per document at size 2 overlap 1")

		_, err = pipeline.Ingest(context.Background(), []domain.RawDocument{docA})
		require.NoError(t, err)
		after, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, both, after, "a subset re-ingest must not disturb other documents")

		docBID := domain.DocumentID("docs/b.txt")
		store.mu.Lock()
		defer store.mu.Unlock()
		var kept int
		for _, record := range store.records {
			if record.DocumentID == docBID {
				kept++
			}
		}
		assert.Equal(t, 2, kept)
	})

	t.Run("one failing document does not abort the run", func(t *testing.T) {
		registry := &mockRegistry{failPath: "docs/bad.txt", err: errors.New("parse failure")}
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(registry, embedder, store, testPipelineConfig())

		raws := []domain.RawDocument{
			rawDoc("docs/good.txt", "alpha bravo charlie"),
			rawDoc("docs/bad.txt", "whatever"),
		}

		report, err := pipeline.Ingest(context.Background(), raws)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Succeeded())
		assert.Equal(t, 1, report.Failed())

		var failed *domain.DocumentOutcome
		for i := range report.Outcomes {
			if report.Outcomes[i].Status == domain.StatusFailed {
				failed = &report.Outcomes[i]
			}
		}
		require.NotNil(t, failed)
		assert.Equal(t, "docs/bad.txt", failed.Path)
		assert.Contains(t, failed.Reason, "parse failure")
	})

	t.Run("empty document is skipped", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		report, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
			rawDoc("docs/empty.txt", "   \n\t "),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Skipped())
		assert.Zero(t, report.TotalVectors)
		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("invalid chunk configuration fails before any work", func(t *testing.T) {
		cfg := testPipelineConfig()
		cfg.Chunking.ChunkOverlap = cfg.Chunking.ChunkSize
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, cfg)

		report, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo"),
		})
		require.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
		require.NotNil(t, report)
		assert.Empty(t, report.Outcomes)

		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count, "no embedding or upsert may happen on config errors")
	})

	t.Run("batch failure degrades to per-chunk retries", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4, batchErr: errors.New("batch endpoint down"), transientFailures: 1}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		report, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo charlie delta"),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Succeeded())
		assert.Positive(t, report.TotalVectors)
	})

	t.Run("exhausted retries fail the document", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4, batchErr: errors.New("down"), transientFailures: 100}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		report, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo charlie"),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Failed())
		assert.Contains(t, report.Outcomes[0].Reason, "embed")
	})

	t.Run("transient store failure is retried once", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		store.upsertFailures = 1
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		report, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo charlie"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Succeeded())
	})

	t.Run("persistent store failure fails the document", func(t *testing.T) {
		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		store.upsertFailures = 2
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		report, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha bravo charlie"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed())
		assert.Contains(t, report.Outcomes[0].Reason, "store")
	})

	t.Run("cancelled context stops dispatch and marks the report", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		embedder := &mockEmbedder{dims: 4}
		store := newMockStore()
		pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

		report, err := pipeline.Ingest(ctx, []domain.RawDocument{
			rawDoc("docs/a.txt", "alpha"),
			rawDoc("docs/b.txt", "bravo"),
		})
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.True(t, report.Cancelled)
		assert.Zero(t, report.Succeeded())

		require.Len(t, report.Outcomes, 2, "every input must be accounted for")
		assert.Equal(t, 2, report.Skipped())
		for _, outcome := range report.Outcomes {
			assert.Equal(t, domain.StatusSkipped, outcome.Status)
			assert.Equal(t, "cancelled", outcome.Reason)
			assert.NotEmpty(t, outcome.Path)
		}
	})
}

func TestIngestionPipeline_Status(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	store := newMockStore()
	pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

	status := pipeline.Status()
	assert.False(t, status.Running)

	_, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
		rawDoc("docs/a.txt", "alpha bravo"),
		rawDoc("docs/b.txt", "charlie delta"),
	})
	require.NoError(t, err)

	status = pipeline.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 2, status.DocumentsProcessed)
	assert.Equal(t, 2, status.DocumentsTotal)
	assert.Zero(t, status.ErrorCount)
}

func TestIngestionPipeline_ChunkIdentity(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	store := newMockStore()
	pipeline := NewIngestionPipeline(&mockRegistry{}, embedder, store, testPipelineConfig())

	_, err := pipeline.Ingest(context.Background(), []domain.RawDocument{
		rawDoc("docs/a.txt", "alpha bravo charlie delta echo foxtrot golf hotel india"),
	})
	require.NoError(t, err)

	docID := domain.DocumentID("docs/a.txt")
	store.mu.Lock()
	defer store.mu.Unlock()
	for id, record := range store.records {
		assert.Equal(t, docID, record.DocumentID)
		assert.Contains(t, id, docID+":")
		assert.Equal(t, "word", record.Metadata["strategy"])
		assert.Equal(t, "docs/a.txt", record.Metadata["path"])
	}
}
