// Package loader reads documents from the local filesystem for ingestion.
// It walks directories, filters by extension and can watch a tree for
// changes so edits are re-ingested without restarting.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// DefaultMaxFileSize bounds single files; anything larger is skipped with
// a warning rather than ballooning memory.
const DefaultMaxFileSize = 16 << 20 // 16 MiB

// Config holds loader configuration.
type Config struct {
	// Extensions restricts which files are loaded (e.g. ".txt", ".md").
	// Empty means every extension with a known document kind.
	Extensions []string

	// MaxFileSize is the per-file size cap in bytes. Zero means
	// DefaultMaxFileSize.
	MaxFileSize int64
}

// Loader reads raw documents from disk.
type Loader struct {
	extensions  map[string]bool
	maxFileSize int64
}

// New creates a loader.
func New(cfg Config) *Loader {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	var extensions map[string]bool
	if len(cfg.Extensions) > 0 {
		extensions = make(map[string]bool, len(cfg.Extensions))
		for _, ext := range cfg.Extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			extensions[strings.ToLower(ext)] = true
		}
	}
	return &Loader{
		extensions:  extensions,
		maxFileSize: cfg.MaxFileSize,
	}
}

// LoadDir walks root and loads every acceptable file. Hidden directories
// and hidden files are skipped. Files that cannot be read are skipped with
// a warning; a missing root is an error.
func (l *Loader) LoadDir(ctx context.Context, root string) ([]domain.RawDocument, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		raw, err := l.LoadFile(root)
		if err != nil {
			return nil, err
		}
		return []domain.RawDocument{raw}, nil
	}

	var raws []domain.RawDocument
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !l.accepts(path) {
			return nil
		}

		raw, err := l.LoadFile(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		raws = append(raws, raw)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	logger.Info("Loaded %d documents from %s", len(raws), root)
	return raws, nil
}

// LoadFile reads one file into a raw document.
func (l *Loader) LoadFile(path string) (domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > l.maxFileSize {
		return domain.RawDocument{}, fmt.Errorf("%s: file size %d exceeds limit %d",
			path, info.Size(), l.maxFileSize)
	}

	kind := domain.KindForExtension(filepath.Ext(path))
	if kind == domain.KindUnknown {
		return domain.RawDocument{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.RawDocument{
		Path:    path,
		Kind:    kind,
		Content: content,
		Metadata: map[string]any{
			"size_bytes": info.Size(),
			"mod_time":   info.ModTime().UTC(),
		},
	}, nil
}

// accepts reports whether a path passes the extension filter and maps to a
// known document kind.
func (l *Loader) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if l.extensions != nil {
		return l.extensions[ext]
	}
	return domain.KindForExtension(ext) != domain.KindUnknown
}
