package eval

import (
	"sort"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/hamming"
)

// TransformStats summarizes how far one transformation pushes codes away
// from their cluster originals.
type TransformStats struct {
	Transform string `json:"transform"`
	common.Spread
}

// Robustness measures each cluster original against every transformed
// variant in its cluster and aggregates the bit distances per
// transformation, sorted by transform label. Variants without a transform
// token in their filename cannot be attributed and are skipped.
func Robustness(view *ClusterView) []TransformStats {
	samples := make(map[string][]float64)
	for _, original := range view.Originals() {
		for _, id := range view.index.Members(original.Cluster) {
			if id == original.ID {
				continue
			}
			variant, ok := view.Row(id)
			if !ok || variant.Transform == "" {
				continue
			}
			d := hamming.Distance(original.Code, variant.Code)
			samples[variant.Transform] = append(samples[variant.Transform], float64(d))
		}
	}

	labels := make([]string, 0, len(samples))
	for label := range samples {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	stats := make([]TransformStats, 0, len(labels))
	for _, label := range labels {
		stats = append(stats, TransformStats{
			Transform: label,
			Spread:    common.NewSpread(samples[label]),
		})
	}
	return stats
}
