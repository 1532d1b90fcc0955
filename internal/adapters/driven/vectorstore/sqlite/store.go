// Package sqlite provides a persistent vector store backed by SQLite.
// Embeddings are stored as little-endian float32 blobs; similarity is
// computed in Go over a full scan, which is fast enough for the corpus
// sizes a local document chat handles.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/marrow-labs/docchat-cli/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite vector store at the specified data directory.
// If dataDir is empty, defaults to ~/.docchat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docchat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// WAL mode keeps reads concurrent with the ingestion writers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or overwrites records keyed by ChunkID inside a single
// transaction.
func (s *Store) Upsert(ctx context.Context, records []driven.Record) error {
	if len(records) == 0 {
		return nil
	}

	dims, err := s.Dimensions(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ChunkID == "" {
			return fmt.Errorf("%w: record without chunk id", domain.ErrInvalidInput)
		}
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %s without embedding", domain.ErrInvalidInput, r.ChunkID)
		}
		if dims == 0 {
			dims = len(r.Embedding)
		} else if len(r.Embedding) != dims {
			return fmt.Errorf("%w: store holds %d-dimensional vectors, record %s has %d",
				domain.ErrDimensionMismatch, dims, r.ChunkID, len(r.Embedding))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, document_id, content, embedding, dimensions, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", r.ChunkID, err)
		}
		_, err = stmt.ExecContext(ctx,
			r.ChunkID, r.DocumentID, r.Content,
			float32SliceToBytes(r.Embedding), len(r.Embedding),
			string(metadataJSON), now)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", r.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Query scans all stored vectors and returns the k nearest by cosine
// similarity, ties broken by ascending ChunkID.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]driven.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	dims, err := s.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if dims == 0 {
		return []driven.Hit{}, nil
	}
	if len(embedding) != dims {
		return nil, fmt.Errorf("%w: store holds %d-dimensional vectors, query has %d",
			domain.ErrDimensionMismatch, dims, len(embedding))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, content, embedding, metadata FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.Hit
	for rows.Next() {
		var r driven.Record
		var blob []byte
		var metadataJSON sql.NullString
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Embedding = bytesToFloat32Slice(blob)
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata for %s: %w", r.ChunkID, err)
			}
		}
		hits = append(hits, driven.Hit{
			Record:     r,
			Similarity: cosineSimilarity(embedding, r.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
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
	if hits == nil {
		hits = []driven.Hit{}
	}
	return hits, nil
}

// List returns up to limit stored records ordered by chunk id, without
// similarity scoring. A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]driven.Record, error) {
	q := "SELECT chunk_id, document_id, content, embedding, metadata FROM chunks ORDER BY chunk_id"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	records := []driven.Record{}
	for rows.Next() {
		var r driven.Record
		var blob []byte
		var metadataJSON sql.NullString
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Embedding = bytesToFloat32Slice(blob)
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata for %s: %w", r.ChunkID, err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Dimensions returns the stored vector dimension, or 0 when empty.
func (s *Store) Dimensions(ctx context.Context) (int, error) {
	var dims int
	row := s.db.QueryRowContext(ctx, "SELECT dimensions FROM chunks LIMIT 1")
	if err := row.Scan(&dims); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading dimensions: %w", err)
	}
	return dims, nil
}

// DeleteDocument removes all chunks of a document, for re-ingestion of a
// shrunk file whose trailing chunk ids would otherwise linger.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors compare as 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
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
