// Package dataset provides deterministic traversal of labeled benchmark
// datasets and the capability type the runner consumes. A dataset is a
// directory tree where each top-level subdirectory is a near-duplicate
// cluster and top-level files are distractors.
package dataset

import (
	"path/filepath"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
)

// Mode classifies the media type of a dataset or algorithm.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
)

// Dataset describes one labeled benchmark dataset on disk.
type Dataset struct {
	Name     string
	Label    string
	URL      string
	Mode     Mode
	Samples  int
	Clusters int
	Seed     int
	Checksum string // expected fast checksum, empty until pinned
	// DataFolder overrides the conventional location under the root folder
	// when set to an absolute path.
	DataFolder string
}

// DataDir resolves the dataset folder, defaulting to <rootFolder>/<label>.
func (d Dataset) DataDir(rootFolder string) string {
	if d.DataFolder != "" {
		return d.DataFolder
	}
	return filepath.Join(rootFolder, d.Label)
}

// Validate checks the fields required before a dataset can be benchmarked.
func (d Dataset) Validate() error {
	vu := common.NewValidationUtils()
	if err := vu.ValidateRequiredString(d.Label, "dataset label"); err != nil {
		return err
	}
	return vu.ValidateRequiredString(d.Name, "dataset name")
}
