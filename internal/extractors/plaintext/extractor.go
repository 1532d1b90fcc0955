package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents. It is also the fallback for any
// kind no format-aware extractor claims.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the document kinds this extractor handles.
func (e *Extractor) SupportedKinds() []domain.DocumentKind {
	return []domain.DocumentKind{
		domain.KindPlainText,
		domain.KindMarkdown,
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract converts raw bytes into a document. Line endings are normalised
// so chunk offsets stay stable across platforms.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")

	doc := domain.Document{
		ID:       domain.DocumentID(raw.Path),
		Path:     raw.Path,
		Title:    extractTitle(raw.Path),
		Kind:     raw.Kind,
		Content:  content,
		Metadata: copyMetadata(raw.Metadata),
		LoadedAt: time.Now(),
	}
	return &doc, nil
}

// extractTitle derives a human-readable title from a file path.
func extractTitle(path string) string {
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
