package extractors

import (
	"context"
	"fmt"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest-priority extractor
// registered for their kind.
type Registry struct {
	byKind map[domain.DocumentKind][]driven.Extractor
}

// NewRegistry creates a registry with the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byKind: make(map[domain.DocumentKind][]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for all kinds it supports.
func (r *Registry) Register(e driven.Extractor) {
	for _, kind := range e.SupportedKinds() {
		r.byKind[kind] = append(r.byKind[kind], e)
	}
}

// Extract selects the highest-priority extractor for the raw document's
// kind and runs it.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	candidates := r.byKind[raw.Kind]
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedKind, raw.Kind, raw.Path)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Priority() > best.Priority() {
			best = c
		}
	}

	logger.Debug("Extracting %s as %s", raw.Path, raw.Kind)
	return best.Extract(ctx, raw)
}
