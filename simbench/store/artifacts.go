package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"

	"github.com/google/uuid"
)

// ArtifactStore materializes derived artifacts under one directory. Writes
// are staged to a temp file and renamed into place, so a crash mid-build
// leaves no artifact and the next run rebuilds cleanly.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore opens (and creates if needed) the artifact directory.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, common.ErrPathEmpty
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir %s: %w", dir, err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir returns the artifact directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Path renders the on-disk location for key with the given extension.
func (s *ArtifactStore) Path(key CacheKey, ext string) string {
	return filepath.Join(s.dir, key.Stem()+"."+ext)
}

// Exists reports whether the artifact has been published.
func (s *ArtifactStore) Exists(key CacheKey, ext string) bool {
	_, err := os.Stat(s.Path(key, ext))
	return err == nil
}

// Open opens a published artifact for reading.
func (s *ArtifactStore) Open(key CacheKey, ext string) (*os.File, error) {
	f, err := os.Open(s.Path(key, ext))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", key.Stem(), err)
	}
	return f, nil
}

// Create stages a new artifact. The artifact becomes visible only when the
// returned writer is closed successfully.
func (s *ArtifactStore) Create(key CacheKey, ext string) (*ArtifactWriter, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	final := s.Path(key, ext)
	tmp := final + "." + uuid.NewString() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to stage artifact %s: %w", key.Stem(), err)
	}
	return &ArtifactWriter{f: f, tmp: tmp, final: final}, nil
}

// Remove deletes a published artifact. Missing artifacts are not an error.
func (s *ArtifactStore) Remove(key CacheKey, ext string) error {
	err := os.Remove(s.Path(key, ext))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact %s: %w", key.Stem(), err)
	}
	return nil
}

// ArtifactWriter stages artifact bytes until Close publishes them.
type ArtifactWriter struct {
	f     *os.File
	tmp   string
	final string
}

func (w *ArtifactWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close flushes the staged bytes and atomically publishes the artifact.
func (w *ArtifactWriter) Close() error {
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("failed to flush staged artifact: %w", err)
	}
	if err := os.Rename(w.tmp, w.final); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("failed to publish artifact %s: %w", w.final, err)
	}
	slog.Debug("Published artifact", "path", w.final)
	return nil
}

// Abort discards the staged bytes without publishing.
func (w *ArtifactWriter) Abort() {
	w.f.Close()
	os.Remove(w.tmp)
}
