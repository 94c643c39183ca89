package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/sounding-etl/internal/domain"
)

// Store writes rendered soundings under a root directory as
// <root>/<station folder>/<yyyymmdd>_<hhmm>_<station id>.txt.
// It implements pipeline.Store.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{root: dir, logger: logger}
}

// Path returns where s is written.
func (s *Store) Path(sounding domain.Sounding) string {
	return filepath.Join(s.root, sounding.FolderName(), sounding.Request.FileName())
}

// Save creates the station directory if needed and overwrites any existing
// file at the target path. Failures wrap domain.ErrWrite.
func (s *Store) Save(_ context.Context, sounding domain.Sounding, content []byte) (string, error) {
	path := s.Path(sounding)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory: %w", domain.ErrWrite, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrWrite, path, err)
	}

	s.logger.Debug("wrote sounding file", "path", path, "bytes", len(content))
	return path, nil
}
