package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Clusterize copies files from src into the labeled layout expected by the
// benchmark: the first clusters files each seed their own zero-padded
// cluster folder under dst, every remaining file lands flat in dst as a
// distractor. Files are taken in deterministic walk order so repeated runs
// produce identical layouts. Returns the number of files copied.
func Clusterize(src, dst string, clusters int) (int, error) {
	records, err := ListFiles(src, DefaultWalkOptions())
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination %s: %w", dst, err)
	}

	copied := 0
	for i, rec := range records {
		name := filepath.Base(filepath.FromSlash(rec.RelPath))
		var target string
		if i < clusters {
			clusterDir := filepath.Join(dst, fmt.Sprintf("%07d", i))
			if err := os.MkdirAll(clusterDir, 0o755); err != nil {
				return copied, fmt.Errorf("failed to create cluster folder %s: %w", clusterDir, err)
			}
			target = filepath.Join(clusterDir, name)
		} else {
			target = filepath.Join(dst, name)
		}
		if err := copyFile(filepath.Join(src, filepath.FromSlash(rec.RelPath)), target); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
