package common

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Spread is a four-number summary of a sample.
type Spread struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// NewSpread reduces values to min/max/mean/median. The input slice is left
// unmodified; an empty sample yields the zero Spread.
func NewSpread(values []float64) Spread {
	if len(values) == 0 {
		return Spread{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Spread{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
	}
}

// HumanRate renders a bytes-per-millisecond figure as a MB/s string.
func HumanRate(bytesPerMS float64) string {
	return fmt.Sprintf("%.2f MB/s", bytesPerMS*1000/1_000_000)
}
