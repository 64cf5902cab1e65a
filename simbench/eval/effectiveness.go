package eval

import (
	"fmt"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/hamming"

	roaring "github.com/RoaringBitmap/roaring"
)

// EffectivenessPoint scores retrieval at one Hamming threshold, micro
// averaged across all queries.
type EffectivenessPoint struct {
	Threshold int     `json:"threshold"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// Effectiveness sweeps thresholds 0..maxThreshold and scores observed
// results against ground truth. The expected set of a query is its whole
// cluster regardless of distance; only observed results are cut down to the
// threshold. Recall therefore measures how much of the true near-duplicate
// relation the codes keep within t bits, and saturates only once the
// threshold covers the cluster's full code spread. True/false positives and
// false negatives are summed across queries before the ratios are taken,
// and zero denominators score zero.
//
// Observed results must have been searched at maxThreshold or above;
// results from a narrower search silently deflate recall.
func Effectiveness(truth []GroundTruth, results []hamming.QueryResult, maxThreshold int) ([]EffectivenessPoint, error) {
	if maxThreshold < 0 {
		return nil, fmt.Errorf("max threshold must not be negative, got %d", maxThreshold)
	}

	observed := make(map[int][]hamming.Match, len(results))
	for _, qr := range results {
		observed[qr.QueryID] = qr.Matches
	}

	// Expected sets do not depend on the threshold, build them once.
	expected := make([]*roaring.Bitmap, len(truth))
	for i, gt := range truth {
		bm := roaring.New()
		for _, m := range gt.Expected {
			bm.Add(uint32(m.ID))
		}
		expected[i] = bm
	}

	curve := make([]EffectivenessPoint, 0, maxThreshold+1)
	for threshold := 0; threshold <= maxThreshold; threshold++ {
		var tp, fp, fn uint64

		for i, gt := range truth {
			got := withinThreshold(observed[gt.QueryID], threshold)

			hits := clone(got)
			hits.And(expected[i])
			tp += hits.GetCardinality()

			strays := clone(got)
			strays.AndNot(expected[i])
			fp += strays.GetCardinality()

			missed := clone(expected[i])
			missed.AndNot(got)
			fn += missed.GetCardinality()
		}

		var precision, recall, f1 float64
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		curve = append(curve, EffectivenessPoint{
			Threshold: threshold,
			Precision: precision,
			Recall:    recall,
			F1Score:   f1,
		})
	}
	return curve, nil
}

// BestThreshold returns the sweep point with the highest F1 score. Ties go
// to the lowest threshold.
func BestThreshold(curve []EffectivenessPoint) (EffectivenessPoint, bool) {
	if len(curve) == 0 {
		return EffectivenessPoint{}, false
	}
	best := curve[0]
	for _, point := range curve[1:] {
		if point.F1Score > best.F1Score {
			best = point
		}
	}
	return best, true
}

// withinThreshold collects the IDs of matches at or under the threshold
// into a bitmap.
func withinThreshold(matches []hamming.Match, threshold int) *roaring.Bitmap {
	bm := roaring.New()
	for _, m := range matches {
		if m.Distance <= threshold {
			bm.Add(uint32(m.ID))
		}
	}
	return bm
}

func clone(b *roaring.Bitmap) *roaring.Bitmap {
	c := roaring.New()
	c.Or(b) // copy
	return c
}
