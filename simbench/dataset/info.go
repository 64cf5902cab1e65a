package dataset

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
)

// Info summarizes the labeled layout of a dataset folder.
type Info struct {
	DatasetLabel  string        `json:"dataset_label"`
	Mode          Mode          `json:"dataset_mode,omitempty"`
	TotalSize     int64         `json:"total_size"`
	TotalFiles    int           `json:"total_files"`
	TotalClusters int           `json:"total_clusters"`
	ClusterSizes  common.Spread `json:"cluster_sizes"`
	// TotalDistractorFiles counts top-level files outside any cluster.
	TotalDistractorFiles int `json:"total_distractor_files"`
	// RatioClusterToDistractor is clustered/distractor file count, 0 when
	// the dataset has no distractors.
	RatioClusterToDistractor float64  `json:"ratio_cluster_to_distractor"`
	Transformations          []string `json:"transformations"`
	Checksum                 string   `json:"checksum,omitempty"`
}

// CollectInfo walks folder once and summarizes cluster structure, sizes and
// transformation labels. The checksum field is left empty; callers pin it
// with the integrity package when needed.
func CollectInfo(ctx context.Context, folder string, opts WalkOptions) (*Info, error) {
	vu := common.NewValidationUtils()

	info := &Info{DatasetLabel: path.Base(strings.ReplaceAll(folder, "\\", "/"))}
	clusterSizes := make(map[string]int)
	transformations := make(map[string]struct{})

	err := Walk(folder, opts, func(rec FileRecord) error {
		if err := vu.ValidateContextCancellation(ctx); err != nil {
			return err
		}
		info.TotalFiles++
		info.TotalSize += rec.Size
		if cluster, ok := ClusterOf(rec.RelPath); ok {
			clusterSizes[cluster]++
		}
		if transform, ok := TransformOf(rec.RelPath); ok {
			transformations[transform] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	clustered := 0
	sizes := make([]float64, 0, len(clusterSizes))
	for _, n := range clusterSizes {
		clustered += n
		sizes = append(sizes, float64(n))
	}
	info.TotalClusters = len(clusterSizes)
	info.ClusterSizes = common.NewSpread(sizes)
	info.TotalDistractorFiles = info.TotalFiles - clustered
	if info.TotalDistractorFiles > 0 {
		info.RatioClusterToDistractor = float64(clustered) / float64(info.TotalDistractorFiles)
	}

	for t := range transformations {
		info.Transformations = append(info.Transformations, t)
	}
	sort.Strings(info.Transformations)

	return info, nil
}

// ClusterOf extracts the cluster a relative path belongs to: its first path
// segment. Top-level files belong to no cluster.
func ClusterOf(relPath string) (string, bool) {
	idx := strings.IndexByte(relPath, '/')
	if idx < 0 {
		return "", false
	}
	return relPath[:idx], true
}

// TransformOf extracts the transformation label from a relative path: the
// final underscore-delimited token of the filename stem. Files without an
// underscore in their stem carry no transformation label.
func TransformOf(relPath string) (string, bool) {
	base := path.Base(relPath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	idx := strings.LastIndexByte(stem, '_')
	if idx < 0 {
		return "", false
	}
	return stem[idx+1:], true
}
