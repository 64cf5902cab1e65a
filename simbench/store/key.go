// Package store manages derived benchmark artifacts: simprint tables, index
// blobs and metric files. Artifacts are content-addressed by the dataset
// checksum, so dataset drift changes every key and orphans stale artifacts
// wholesale instead of serving them silently.
package store

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
)

// CacheKey identifies one derived artifact. Cache decisions compare typed
// keys; file names are a rendering of the key, never the source of truth.
type CacheKey struct {
	Algorithm string
	Dataset   string
	Checksum  string
	Tag       string // distinguishes artifact roles under one key, e.g. "simprint"
}

// Stem renders the canonical file stem: algorithm-dataset-checksum[-tag].
func (k CacheKey) Stem() string {
	parts := []string{k.Algorithm, k.Dataset, k.Checksum}
	if k.Tag != "" {
		parts = append(parts, k.Tag)
	}
	return strings.Join(parts, "-")
}

// WithTag returns a copy of the key carrying the given tag.
func (k CacheKey) WithTag(tag string) CacheKey {
	k.Tag = tag
	return k
}

// Validate ensures the key is complete enough to address an artifact.
func (k CacheKey) Validate() error {
	vu := common.NewValidationUtils()
	if err := vu.ValidateRequiredString(k.Algorithm, "cache key algorithm"); err != nil {
		return err
	}
	if err := vu.ValidateRequiredString(k.Dataset, "cache key dataset"); err != nil {
		return err
	}
	return vu.ValidateRequiredString(k.Checksum, "cache key checksum")
}

// ParseStem recovers a key from a file stem produced by Stem. It exists for
// inspecting cache directories; nothing on the benchmark path parses names.
func ParseStem(stem string) (CacheKey, error) {
	parts := strings.SplitN(stem, "-", 4)
	if len(parts) < 3 {
		return CacheKey{}, fmt.Errorf("malformed artifact stem %q", stem)
	}
	key := CacheKey{Algorithm: parts[0], Dataset: parts[1], Checksum: parts[2]}
	if len(parts) == 4 {
		key.Tag = parts[3]
	}
	return key, key.Validate()
}
