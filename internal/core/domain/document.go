package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DocumentKind identifies the format of a source document.
// The kind is resolved once at discovery time from the file extension and
// dispatched through the extractor registry; call sites never branch on
// extension strings.
type DocumentKind int

const (
	// KindUnknown is a document with no registered extractor.
	KindUnknown DocumentKind = iota

	// KindPlainText is a plain text document (.txt and code files).
	KindPlainText

	// KindMarkdown is a Markdown document (.md, .markdown).
	KindMarkdown
)

// String returns the kind name for logging.
func (k DocumentKind) String() string {
	switch k {
	case KindPlainText:
		return "plaintext"
	case KindMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// KindForExtension resolves a DocumentKind from a file extension.
// The extension may be passed with or without the leading dot.
func KindForExtension(ext string) DocumentKind {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "md", "markdown":
		return KindMarkdown
	case "txt", "text", "log", "go", "py", "rs", "java", "c", "h", "sh", "sql",
		"json", "yaml", "yml", "toml", "csv":
		return KindPlainText
	default:
		return KindUnknown
	}
}

// RawDocument represents opaque bytes discovered under a document root.
// It is the loader's output before extraction.
type RawDocument struct {
	// Path is the original location on disk.
	Path string

	// Kind is the document format, resolved at discovery time.
	Kind DocumentKind

	// Content is the raw bytes.
	Content []byte

	// Metadata contains loader-specific key-value pairs.
	Metadata map[string]any
}

// Document is a unit of source content after extraction.
// It is immutable once loaded and dropped when the ingestion run ends.
type Document struct {
	// ID is the stable identifier, derived from the source path.
	ID string

	// Path is the original location on disk.
	Path string

	// Title is the human-readable title.
	Title string

	// Kind is the document format.
	Kind DocumentKind

	// Content is the full plain text after extraction.
	Content string

	// Metadata contains arbitrary key-value pairs (page, title, ...).
	Metadata map[string]any

	// LoadedAt is when the document text was obtained.
	LoadedAt time.Time
}

// DocumentID derives a stable document identifier from a source path.
// Identical paths always produce identical IDs across runs.
func DocumentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}

// Chunk is a bounded span of a document's text, the unit of embedding
// and retrieval. Chunks are created by the chunker per ingestion run and
// never mutated; re-ingestion supersedes them via upsert.
type Chunk struct {
	// ID is the deterministic chunk identifier.
	ID string

	// DocumentID links to the source Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// SequenceIndex is the 0-based position within the document.
	SequenceIndex int

	// StartOffset and EndOffset are byte offsets into the source text.
	// EndOffset is always greater than StartOffset.
	StartOffset int
	EndOffset   int

	// Strategy names the chunking method that produced this chunk.
	Strategy string

	// Embedding is the vector representation, populated during ingestion.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ChunkID derives the composite chunk identifier from the document ID and
// the chunk's sequence index. Identical document and chunking configuration
// always yield an identical ID set, which is what makes re-ingestion an
// upsert rather than an append.
func ChunkID(documentID string, sequenceIndex int) string {
	return fmt.Sprintf("%s:%d", documentID, sequenceIndex)
}

// ContentChunkID derives a chunk identifier from the chunk text itself.
// It is the fallback for corpora whose chunk boundaries may shift between
// runs (strategy or parameters changed): content-identical chunks upsert
// in place instead of duplicating under new composite keys.
func ContentChunkID(text string) string {
	normalised := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:16])
}
