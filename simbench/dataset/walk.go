package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"

	ignore "github.com/sabhiram/go-gitignore"
)

// FileRecord describes one regular file discovered by the walker.
type FileRecord struct {
	RelPath string // forward-slash path relative to the walk root
	Size    int64
	ModTime time.Time
}

// WalkOptions tunes directory walking behavior
type WalkOptions struct {
	IgnoreRules *ignore.GitIgnore // Optional gitignore-style exclusion rules
	SkipHidden  bool              // Skip dot-files and dot-directories
}

// DefaultWalkOptions returns sensible walking defaults
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{}
}

// WalkFunc receives one record per file; returning an error stops the walk.
type WalkFunc func(rec FileRecord) error

// Walk visits every regular file under root in a deterministic order:
// directory entries are taken lexicographically, all subdirectories of a
// directory are recursed before the directory's own files are emitted, and
// symlinks are skipped. The order is a pure function of tree shape, so
// checksums and task IDs derived from it are reproducible across runs.
func Walk(root string, opts WalkOptions, fn WalkFunc) error {
	if root == "" {
		return common.ErrPathEmpty
	}
	vu := common.NewValidationUtils()
	if err := vu.ValidateDirectoryExists(root); err != nil {
		return err
	}
	return walkDir(root, "", opts, fn)
}

func walkDir(abs, rel string, opts WalkOptions, fn WalkFunc) error {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", abs, err)
	}

	// os.ReadDir returns entries sorted by name. Subdirectories first.
	var files []fs.DirEntry
	for _, entry := range entries {
		name := entry.Name()
		if opts.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		if entry.IsDir() {
			if opts.IgnoreRules != nil && opts.IgnoreRules.MatchesPath(childRel+"/") {
				continue
			}
			if err := walkDir(filepath.Join(abs, name), childRel, opts, fn); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, entry)
	}

	for _, entry := range files {
		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}
		if opts.IgnoreRules != nil && opts.IgnoreRules.MatchesPath(childRel) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", childRel, err)
		}
		rec := FileRecord{RelPath: childRel, Size: fi.Size(), ModTime: fi.ModTime()}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadIgnoreFile compiles gitignore-style rules from path when it exists.
// A missing file yields nil rules, which the walker treats as "keep all".
func LoadIgnoreFile(path string) (*ignore.GitIgnore, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check ignore file %s: %w", path, err)
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	return gi, nil
}

// ListFiles collects all file records under root in walk order.
func ListFiles(root string, opts WalkOptions) ([]FileRecord, error) {
	var records []FileRecord
	err := Walk(root, opts, func(rec FileRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountFiles counts the files a walk would visit.
func CountFiles(root string, opts WalkOptions) (int, error) {
	count := 0
	err := Walk(root, opts, func(FileRecord) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
