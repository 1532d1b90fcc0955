// Package chroma provides a vector store backed by a ChromaDB server over
// its REST API. The collection is created with cosine similarity space, so
// reported similarity is 1 minus the query distance.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultCollection = "document_embeddings"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Chroma vector store.
type Config struct {
	// BaseURL is the Chroma server URL (default: http://localhost:8000).
	BaseURL string

	// Collection is the collection name (default: document_embeddings).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Store is a REST client to a Chroma collection.
type Store struct {
	client     *http.Client
	baseURL    string
	collection string

	mu           sync.Mutex
	collectionID string
}

// NewStore creates a Chroma vector store client. The collection is created
// lazily on first use.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
	}
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ensureCollection creates or fetches the collection and caches its id.
func (s *Store) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionID != "" {
		return s.collectionID, nil
	}

	body := map[string]any{
		"name":          s.collection,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
		"get_or_create": true,
	}
	var resp collectionResponse
	if err := s.post(ctx, "/api/v1/collections", body, &resp); err != nil {
		return "", fmt.Errorf("%w: create collection: %w", domain.ErrStoreUnavailable, err)
	}
	s.collectionID = resp.ID
	return s.collectionID, nil
}

// Upsert inserts or overwrites records keyed by ChunkID.
func (s *Store) Upsert(ctx context.Context, records []driven.Record) error {
	if len(records) == 0 {
		return nil
	}

	dims, err := s.Dimensions(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ChunkID == "" || len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %q missing id or embedding", domain.ErrInvalidInput, r.ChunkID)
		}
		if dims == 0 {
			dims = len(r.Embedding)
		} else if len(r.Embedding) != dims {
			return fmt.Errorf("%w: collection holds %d-dimensional vectors, record %s has %d",
				domain.ErrDimensionMismatch, dims, r.ChunkID, len(r.Embedding))
		}
	}

	id, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]any, len(records))
	for i, r := range records {
		ids[i] = r.ChunkID
		embeddings[i] = r.Embedding
		documents[i] = r.Content
		meta := map[string]any{"document_id": r.DocumentID}
		for k, v := range r.Metadata {
			meta[k] = v
		}
		metadatas[i] = meta
	}

	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	if err := s.post(ctx, "/api/v1/collections/"+id+"/upsert", body, nil); err != nil {
		return fmt.Errorf("%w: upsert: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// Query returns up to k records ranked by descending similarity, ties
// broken by ascending ChunkID.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]driven.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []driven.Hit{}, nil
	}
	if count < k {
		// Chroma rejects n_results larger than the collection
		k = count
	}

	id, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var resp queryResponse
	if err := s.post(ctx, "/api/v1/collections/"+id+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrStoreUnavailable, err)
	}
	if len(resp.IDs) == 0 {
		return []driven.Hit{}, nil
	}

	hits := make([]driven.Hit, 0, len(resp.IDs[0]))
	for i, chunkID := range resp.IDs[0] {
		record := driven.Record{ChunkID: chunkID}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			record.Content = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			record.Metadata = resp.Metadatas[0][i]
			if docID, ok := record.Metadata["document_id"].(string); ok {
				record.DocumentID = docID
			}
		}
		similarity := 0.0
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			similarity = 1 - resp.Distances[0][i]
		}
		hits = append(hits, driven.Hit{Record: record, Similarity: similarity})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Record.ChunkID < hits[j].Record.ChunkID
	})

	return hits, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/api/v1/collections/"+id+"/count", http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	return count, nil
}

type getResponse struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

// List returns up to limit stored records. A non-positive limit returns
// everything.
func (s *Store) List(ctx context.Context, limit int) ([]driven.Record, error) {
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"include": []string{"embeddings", "documents", "metadatas"},
	}
	if limit > 0 {
		body["limit"] = limit
	}
	var resp getResponse
	if err := s.post(ctx, "/api/v1/collections/"+id+"/get", body, &resp); err != nil {
		return nil, fmt.Errorf("%w: get: %w", domain.ErrStoreUnavailable, err)
	}

	records := make([]driven.Record, 0, len(resp.IDs))
	for i, chunkID := range resp.IDs {
		r := driven.Record{ChunkID: chunkID}
		if i < len(resp.Embeddings) {
			r.Embedding = resp.Embeddings[i]
		}
		if i < len(resp.Documents) {
			r.Content = resp.Documents[i]
		}
		if i < len(resp.Metadatas) {
			r.Metadata = resp.Metadatas[i]
			if docID, ok := r.Metadata["document_id"].(string); ok {
				r.DocumentID = docID
			}
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ChunkID < records[j].ChunkID })
	return records, nil
}

// Dimensions returns the stored vector dimension, or 0 when empty.
func (s *Store) Dimensions(ctx context.Context) (int, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	id, err := s.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}

	body := map[string]any{
		"limit":   1,
		"include": []string{"embeddings"},
	}
	var resp getResponse
	if err := s.post(ctx, "/api/v1/collections/"+id+"/get", body, &resp); err != nil {
		return 0, fmt.Errorf("%w: get: %w", domain.ErrStoreUnavailable, err)
	}
	if len(resp.Embeddings) == 0 {
		return 0, nil
	}
	return len(resp.Embeddings[0]), nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// post sends a JSON request and decodes the response when out is non-nil.
func (s *Store) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
