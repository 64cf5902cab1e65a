package eval

import (
	"github.com/ZanzyTHEbar/simprint-bench/simbench/hamming"
)

// GroundTruth lists the expected neighbors of one query: every other member
// of its cluster with the exact bit distance between their codes, sorted
// ascending. Distractors expect nothing.
type GroundTruth struct {
	QueryID  int
	Expected []hamming.Match
}

// DeriveGroundTruth computes expected neighbor lists for every row of the
// view. Expected distances are computed directly between codes, independent
// of any search engine, so the evaluator compares two separately derived
// quantities. Cluster members are expected at any distance; recall measures
// how much of each cluster a threshold actually recovers.
func DeriveGroundTruth(view *ClusterView) []GroundTruth {
	truth := make([]GroundTruth, 0, len(view.rows))
	for _, row := range view.rows {
		gt := GroundTruth{QueryID: row.ID}
		if row.Cluster != "" {
			for _, id := range view.index.Members(row.Cluster) {
				if id == row.ID {
					continue
				}
				other, _ := view.Row(id)
				gt.Expected = append(gt.Expected, hamming.Match{
					Distance: hamming.Distance(row.Code, other.Code),
					ID:       id,
				})
			}
			hamming.SortMatches(gt.Expected)
		}
		truth = append(truth, gt)
	}
	return truth
}
