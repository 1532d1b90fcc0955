package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockRegistry implements driven.ExtractorRegistry for testing. Raw bytes
// pass through as plain text; failPath makes one document fail.
type mockRegistry struct {
	failPath string
	err      error
}

func (m *mockRegistry) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if m.failPath != "" && raw.Path == m.failPath {
		return nil, m.err
	}
	return &domain.Document{
		ID:       domain.DocumentID(raw.Path),
		Path:     raw.Path,
		Title:    raw.Path,
		Kind:     raw.Kind,
		Content:  string(raw.Content),
		LoadedAt: time.Now(),
	}, nil
}

// mockEmbedder implements driven.EmbeddingService for testing. Vectors are
// derived deterministically from the text unless fixed is set.
type mockEmbedder struct {
	dims     int
	fixed    []float32
	batchErr error
	embedErr error

	mu                sync.Mutex
	transientFailures int
	embedCalls        int
	batchCalls        int
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.fixed != nil {
		return m.fixed
	}
	v := make([]float32, m.dims)
	for i, b := range []byte(text) {
		v[i%m.dims] += float32(b)
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.transientFailures > 0 {
		m.transientFailures--
		return nil, domain.ErrEmbeddingUnavailable
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	batchErr := m.batchErr
	m.mu.Unlock()
	if batchErr != nil {
		return nil, batchErr
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockStore implements driven.VectorStore for testing with a plain map and
// brute-force cosine ranking.
type mockStore struct {
	mu             sync.Mutex
	records        map[string]driven.Record
	upsertFailures int
	upsertErr      error
	queryErr       error
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]driven.Record)}
}

func (m *mockStore) Upsert(_ context.Context, records []driven.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertFailures > 0 {
		m.upsertFailures--
		if m.upsertErr != nil {
			return m.upsertErr
		}
		return domain.ErrStoreUnavailable
	}
	for _, r := range records {
		for _, existing := range m.records {
			if len(existing.Embedding) != len(r.Embedding) {
				return domain.ErrDimensionMismatch
			}
			break
		}
		m.records[r.ChunkID] = r
	}
	return nil
}

func (m *mockStore) Query(_ context.Context, embedding []float32, k int) ([]driven.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	hits := make([]driven.Hit, 0, len(m.records))
	for _, r := range m.records {
		hits = append(hits, driven.Hit{Record: r, Similarity: cosine(embedding, r.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Record.ChunkID < hits[j].Record.ChunkID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *mockStore) Dimensions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		return len(r.Embedding), nil
	}
	return 0, nil
}

func (m *mockStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mockLLM implements driven.LLMService for testing and records the last
// message set passed to Chat.
type mockLLM struct {
	answer  string
	chatErr error

	mu           sync.Mutex
	lastMessages []driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.answer, m.chatErr
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.lastMessages = messages
	m.mu.Unlock()
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockRetriever implements driving.Retriever for chat tests.
type mockRetriever struct {
	chunks []domain.RetrievedChunk
	err    error

	mu        sync.Mutex
	lastQuery string
	lastK     int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	m.mu.Lock()
	m.lastQuery = query
	m.lastK = k
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}
