// Package integrity computes deterministic directory checksums that serve as
// dataset identity. The fast tier folds file metadata only and is cheap
// enough to run before every benchmark; the secure tier folds file content
// and additionally detects byte-identical duplicates.
package integrity

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"

	"github.com/sourcegraph/conc/pool"
	"lukechampine.com/blake3"
)

const (
	fastDigestSize   = 8
	secureDigestSize = 32
)

// FastChecksum folds "<relpath>;<size>;<mtime>" per file, in walk order,
// into a truncated blake3 digest. It touches metadata only, so it detects
// renames, additions, removals and rewrites, but not content swaps that
// preserve size and modification time.
func FastChecksum(ctx context.Context, root string, opts ChecksumOptions) (string, error) {
	vu := common.NewValidationUtils()

	records, err := dataset.ListFiles(root, opts.Walk)
	if err != nil {
		return "", err
	}

	sink := opts.progress()
	sink.Start(int64(len(records)))
	defer sink.Finish()

	hasher := blake3.New(fastDigestSize, nil)
	for _, rec := range records {
		if err := vu.ValidateContextCancellation(ctx); err != nil {
			return "", err
		}
		if rec.Size <= 0 {
			if !opts.AllowEmpty {
				return "", &common.EmptyFileError{Path: filepath.Join(root, filepath.FromSlash(rec.RelPath))}
			}
			slog.Warn("Empty file in dataset", "path", rec.RelPath)
		}
		fmt.Fprintf(hasher, "%s;%d;%d", rec.RelPath, rec.Size, rec.ModTime.Unix())
		sink.Add(1)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	return verified(root, actual, opts.Expected)
}

// SecureChecksum hashes every file's content on a bounded pool, then folds
// the per-file digests in sorted digest order into a full blake3 digest.
// The fold depends on content alone, so renames and reorders that keep
// content intact leave the checksum unchanged.
func SecureChecksum(ctx context.Context, root string, opts ChecksumOptions) (string, error) {
	records, err := dataset.ListFiles(root, opts.Walk)
	if err != nil {
		return "", err
	}

	sink := opts.progress()
	sink.Start(int64(len(records)))
	defer sink.Finish()

	digests := make([][]byte, len(records))
	p := pool.New().WithMaxGoroutines(opts.workers()).WithContext(ctx)
	for i, rec := range records {
		p.Go(func(ctx context.Context) error {
			if rec.Size <= 0 {
				if !opts.AllowEmpty {
					return &common.EmptyFileError{Path: filepath.Join(root, filepath.FromSlash(rec.RelPath))}
				}
				slog.Warn("Empty file in dataset", "path", rec.RelPath)
			}
			digest, err := hashFileSecure(filepath.Join(root, filepath.FromSlash(rec.RelPath)))
			if err != nil {
				return err
			}
			digests[i] = digest
			sink.Add(1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return "", err
	}

	// Duplicate detection runs over walk order so the reported pair is
	// stable regardless of which goroutine finished first.
	seen := make(map[string]int, len(records))
	for i := range records {
		key := string(digests[i])
		if first, ok := seen[key]; ok {
			if !opts.AllowDupes {
				return "", &common.DuplicateFileError{PathA: records[i].RelPath, PathB: records[first].RelPath}
			}
			slog.Warn("Duplicate file content in dataset",
				"path", records[i].RelPath,
				"duplicate_of", records[first].RelPath)
			continue
		}
		seen[key] = i
	}

	sorted := make([][]byte, len(digests))
	copy(sorted, digests)
	sort.Slice(sorted, func(a, b int) bool {
		return bytes.Compare(sorted[a], sorted[b]) < 0
	})

	hasher := blake3.New(secureDigestSize, nil)
	for _, digest := range sorted {
		hasher.Write(digest)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	return verified(root, actual, opts.Expected)
}

// verified compares the computed checksum against the expected one. The
// computed value is returned even on mismatch so callers can persist it.
func verified(root, actual, expected string) (string, error) {
	if expected == "" {
		slog.Info("Computed new checksum, pin it to detect drift", "folder", root, "checksum", actual)
		return actual, nil
	}
	if actual != expected {
		return actual, &common.IntegrityError{Path: root, Expected: expected, Actual: actual}
	}
	slog.Debug("Checksum verified", "folder", root, "checksum", actual)
	return actual, nil
}

func hashFileSecure(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hasher := blake3.New(secureDigestSize, nil)
	if _, err := io.Copy(hasher, f); err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hasher.Sum(nil), nil
}
