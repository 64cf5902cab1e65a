package eval

import (
	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"
)

// SpeedStats reports fingerprinting throughput in bytes per millisecond,
// with display-friendly MB/s renderings alongside.
type SpeedStats struct {
	common.Spread
	MinHuman    string `json:"min_human"`
	MaxHuman    string `json:"max_human"`
	MeanHuman   string `json:"mean_human"`
	MedianHuman string `json:"median_human"`
}

// Speed aggregates per-file throughput over the table. Timings under the
// millisecond tick are floored to one millisecond; a fast hash over a tiny
// file must not divide by zero.
func Speed(table *simprint.Table) (SpeedStats, error) {
	if table == nil || len(table.Rows) == 0 {
		return SpeedStats{}, common.ErrEmptyTable
	}

	rates := make([]float64, 0, len(table.Rows))
	for _, task := range table.Rows {
		ms := task.TimeMS
		if ms <= 0 {
			ms = 1
		}
		rates = append(rates, float64(task.Size)/float64(ms))
	}

	spread := common.NewSpread(rates)
	return SpeedStats{
		Spread:      spread,
		MinHuman:    common.HumanRate(spread.Min),
		MaxHuman:    common.HumanRate(spread.Max),
		MeanHuman:   common.HumanRate(spread.Mean),
		MedianHuman: common.HumanRate(spread.Median),
	}, nil
}
