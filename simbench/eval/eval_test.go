package eval

import (
	"bytes"
	"context"
	"testing"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/hamming"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"

	assertlib "github.com/ZanzyTHEbar/assert-lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, files []string, codes [][]byte) *simprint.Table {
	t.Helper()
	require.Equal(t, len(files), len(codes), "Fixture files and codes must align")

	table := &simprint.Table{}
	for i := range files {
		table.Rows = append(table.Rows, simprint.Task{
			ID:     i,
			File:   files[i],
			Code:   codes[i],
			Size:   1000,
			TimeMS: 1,
		})
	}
	return table
}

// code64 builds an eight-byte code whose last byte is tail.
func code64(tail byte) []byte {
	code := make([]byte, 8)
	code[7] = tail
	return code
}

// benchFixture is one six-file cluster with pairwise distances 0 to 2 plus
// four distractors at least 32 bits from everything, 64-bit codes.
func benchFixture(t *testing.T) *simprint.Table {
	t.Helper()
	files := []string{
		"0000000/img.png",
		"0000000/img_blur.png",
		"0000000/img_gray.png",
		"0000000/img_jpg-high.png",
		"0000000/img_rot90.png",
		"0000000/img_scale.png",
		"aaa.png",
		"bbb.png",
		"ccc.png",
		"ddd.png",
	}
	codes := [][]byte{
		code64(0x00),
		code64(0x00),
		code64(0x01),
		code64(0x01),
		code64(0x02),
		code64(0x03),
		bytes.Repeat([]byte{0xFF}, 8),
		bytes.Repeat([]byte{0xF0}, 8),
		bytes.Repeat([]byte{0x0F}, 8),
		bytes.Repeat([]byte{0xCC}, 8),
	}
	return buildTable(t, files, codes)
}

func benchView(t *testing.T) *ClusterView {
	t.Helper()
	view, err := NewClusterView(benchFixture(t))
	require.NoError(t, err, "Cluster view should build from the fixture")
	return view
}

func TestClusterView(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{
			name: "AnnotatesRows",
			test: func(t *testing.T) {
				view := benchView(t)
				rows := view.Rows()
				require.Len(t, rows, 10, "All table rows should be annotated")

				assert.Equal(t, "0000000", rows[0].Cluster, "First path segment names the cluster")
				assert.True(t, rows[0].Original, "First file of a cluster is the original")
				assert.Empty(t, rows[0].Transform, "Originals carry no transform token")

				assert.Equal(t, "gray", rows[2].Transform, "Last underscore token of the stem names the transform")
				assert.Equal(t, "jpg-high", rows[3].Transform, "Transform tokens may contain dashes")
				assert.False(t, rows[2].Original, "Later cluster files are variants")

				assert.Empty(t, rows[6].Cluster, "Top-level files are distractors")
				assert.False(t, rows[6].Original, "Distractors are never originals")
			},
		},
		{
			name: "OriginalsOnePerCluster",
			test: func(t *testing.T) {
				files := []string{
					"0000000/a.txt", "0000000/a_x.txt",
					"0000001/b.txt", "0000001/b_x.txt",
					"loose.txt",
				}
				codes := [][]byte{{0x00}, {0x01}, {0x10}, {0x11}, {0xFF}}
				view, err := NewClusterView(buildTable(t, files, codes))
				require.NoError(t, err, "Cluster view should build")

				originals := view.Originals()
				require.Len(t, originals, 2, "Each cluster contributes one original")
				assert.Equal(t, 0, originals[0].ID, "Cluster 0000000 opens at row 0")
				assert.Equal(t, 2, originals[1].ID, "Cluster 0000001 opens at row 2")
			},
		},
		{
			name: "RejectsNonContiguousIDs",
			test: func(t *testing.T) {
				table := buildTable(t, []string{"a.txt", "b.txt"}, [][]byte{{0x00}, {0x01}})
				table.Rows[1].ID = 7
				_, err := NewClusterView(table)
				assert.ErrorContains(t, err, "contiguous", "Gapped IDs should be rejected")
			},
		},
		{
			name: "EmptyTable",
			test: func(t *testing.T) {
				_, err := NewClusterView(&simprint.Table{})
				assert.ErrorIs(t, err, common.ErrEmptyTable, "Empty tables cannot be annotated")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func TestClusterIndex(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{
			name: "MembersKeepInsertionOrder",
			test: func(t *testing.T) {
				idx := NewClusterIndex()
				idx.Add("0000001", 3)
				idx.Add("0000001", 4)
				idx.Add("0000000", 0)

				assert.Equal(t, []int{3, 4}, idx.Members("0000001"), "Members should keep insertion order")
				assert.Equal(t, []int{0}, idx.Members("0000000"), "Single member cluster")
				assert.Nil(t, idx.Members("9999999"), "Unknown labels have no members")
			},
		},
		{
			name: "LabelsSorted",
			test: func(t *testing.T) {
				idx := NewClusterIndex()
				idx.Add("0000002", 5)
				idx.Add("0000000", 0)
				idx.Add("0000001", 3)

				assert.Equal(t, []string{"0000000", "0000001", "0000002"}, idx.Labels(),
					"Trie walk should yield labels in sorted order")
				assert.Equal(t, 3, idx.Len(), "Three clusters indexed")
			},
		},
		{
			name: "WalkPrefix",
			test: func(t *testing.T) {
				idx := NewClusterIndex()
				idx.Add("000a", 0)
				idx.Add("000b", 1)
				idx.Add("111a", 2)

				var seen []string
				idx.WalkPrefix("000", func(label string, members []int) bool {
					seen = append(seen, label)
					return false
				})
				assert.Equal(t, []string{"000a", "000b"}, seen, "Prefix walk should cover matching labels only")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func TestGroundTruth(t *testing.T) {
	view := benchView(t)
	truth := DeriveGroundTruth(view)
	require.Len(t, truth, 10, "Every row is a query")

	t.Run("ClusterMembersExpectedAtAnyDistance", func(t *testing.T) {
		want := []hamming.Match{
			{Distance: 0, ID: 1},
			{Distance: 1, ID: 2},
			{Distance: 1, ID: 3},
			{Distance: 1, ID: 4},
			{Distance: 2, ID: 5},
		}
		assert.Equal(t, want, truth[0].Expected, "Expected neighbors are all cluster mates, sorted by distance then ID")
	})

	t.Run("SelfExcluded", func(t *testing.T) {
		for _, gt := range truth {
			for _, m := range gt.Expected {
				assert.NotEqual(t, gt.QueryID, m.ID, "A query must not expect itself")
			}
		}
	})

	t.Run("DistractorsExpectNothing", func(t *testing.T) {
		for _, gt := range truth[6:] {
			assert.Empty(t, gt.Expected, "Distractors have empty expected sets")
		}
	})
}

func TestEffectiveness(t *testing.T) {
	searchFixture := func(t *testing.T) ([]GroundTruth, []hamming.QueryResult) {
		t.Helper()
		view := benchView(t)
		matrix, err := simprint.NewCodeMatrix(benchFixture(t))
		require.NoError(t, err, "Matrix should build")
		engine := hamming.NewExact(matrix, assertlib.NewAssertHandler())
		results, err := engine.Search(context.Background(), 16)
		require.NoError(t, err, "Exhaustive search should succeed")
		return DeriveGroundTruth(view), results
	}

	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{
			name: "BenchmarkScenario",
			test: func(t *testing.T) {
				truth, results := searchFixture(t)
				curve, err := Effectiveness(truth, results, 16)
				require.NoError(t, err, "Sweep should succeed")
				require.Len(t, curve, 17, "Thresholds 0 through 16 inclusive")

				// At threshold 2 the whole cluster is retrieved and no
				// distractor is close enough to pollute the results.
				assert.Equal(t, 1.0, curve[2].Precision, "Precision at threshold 2")
				assert.Equal(t, 1.0, curve[2].Recall, "Recall at threshold 2")
				assert.Equal(t, 1.0, curve[2].F1Score, "F1 at threshold 2")

				// At threshold 0 only the two duplicate pairs are found;
				// the distance-1 and distance-2 neighbors are missed.
				assert.Equal(t, 1.0, curve[0].Precision, "Duplicates only, so no false positives")
				assert.Less(t, curve[0].Recall, 1.0, "Distance 1 and 2 pairs are missed at threshold 0")
				assert.InDelta(t, 4.0/30.0, curve[0].Recall, 1e-9, "Four of thirty expected pairs sit at distance 0")
			},
		},
		{
			name: "Monotonicity",
			test: func(t *testing.T) {
				truth, results := searchFixture(t)
				curve, err := Effectiveness(truth, results, 16)
				require.NoError(t, err, "Sweep should succeed")

				for i := 1; i < len(curve); i++ {
					assert.GreaterOrEqual(t, curve[i].Recall, curve[i-1].Recall,
						"Recall must never decrease as the threshold grows")
					assert.LessOrEqual(t, curve[i].Precision, curve[i-1].Precision,
						"Precision must not increase with the threshold when no distances tie")
				}
			},
		},
		{
			name: "StrayResultsLowerPrecision",
			test: func(t *testing.T) {
				truth := []GroundTruth{
					{QueryID: 0, Expected: []hamming.Match{{Distance: 0, ID: 1}}},
					{QueryID: 1, Expected: []hamming.Match{{Distance: 0, ID: 0}}},
				}
				results := []hamming.QueryResult{
					{QueryID: 0, Matches: []hamming.Match{{Distance: 0, ID: 1}, {Distance: 1, ID: 9}}},
					{QueryID: 1, Matches: []hamming.Match{{Distance: 0, ID: 0}}},
				}

				curve, err := Effectiveness(truth, results, 1)
				require.NoError(t, err, "Sweep should succeed")

				assert.Equal(t, 1.0, curve[0].Precision, "The stray sits beyond threshold 0")
				assert.InDelta(t, 2.0/3.0, curve[1].Precision, 1e-9, "The stray becomes a false positive at threshold 1")
				assert.Equal(t, 1.0, curve[1].Recall, "Both expected pairs are still found")
			},
		},
		{
			name: "ZeroDenominatorsScoreZero",
			test: func(t *testing.T) {
				curve, err := Effectiveness(nil, nil, 2)
				require.NoError(t, err, "Empty inputs are a valid sweep")
				for _, point := range curve {
					assert.Zero(t, point.Precision, "No observations means zero precision")
					assert.Zero(t, point.Recall, "No expectations means zero recall")
					assert.Zero(t, point.F1Score, "Zero precision and recall means zero F1")
				}
			},
		},
		{
			name: "NegativeMaxThreshold",
			test: func(t *testing.T) {
				_, err := Effectiveness(nil, nil, -1)
				assert.Error(t, err, "Negative sweeps are rejected")
			},
		},
		{
			name: "BestThreshold",
			test: func(t *testing.T) {
				truth, results := searchFixture(t)
				curve, err := Effectiveness(truth, results, 16)
				require.NoError(t, err, "Sweep should succeed")

				best, ok := BestThreshold(curve)
				require.True(t, ok, "A non-empty curve has a best point")
				assert.Equal(t, 2, best.Threshold, "Ties on F1 resolve to the lowest threshold")
				assert.Equal(t, 1.0, best.F1Score, "The fixture saturates at threshold 2")

				_, ok = BestThreshold(nil)
				assert.False(t, ok, "An empty curve has no best point")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func TestRobustness(t *testing.T) {
	t.Run("PerTransformStats", func(t *testing.T) {
		stats := Robustness(benchView(t))
		require.Len(t, stats, 5, "One entry per transform label")

		labels := make([]string, 0, len(stats))
		for _, s := range stats {
			labels = append(labels, s.Transform)
		}
		assert.Equal(t, []string{"blur", "gray", "jpg-high", "rot90", "scale"}, labels,
			"Transforms should be sorted by label")

		assert.Equal(t, 0.0, stats[0].Mean, "The blur variant is byte-identical to the original")
		assert.Equal(t, 2.0, stats[4].Mean, "The scale variant sits two bits from the original")
	})

	t.Run("AggregatesAcrossClusters", func(t *testing.T) {
		files := []string{
			"0000000/a.txt", "0000000/a_gray.txt",
			"0000001/b.txt", "0000001/b_gray.txt",
		}
		codes := [][]byte{
			{0x00}, {0x01}, // distance 1
			{0xF0}, {0xFE}, // distance 3
		}
		view, err := NewClusterView(buildTable(t, files, codes))
		require.NoError(t, err, "Cluster view should build")

		stats := Robustness(view)
		require.Len(t, stats, 1, "Both clusters feed the same transform")
		assert.Equal(t, "gray", stats[0].Transform, "Transform label")
		assert.Equal(t, 1.0, stats[0].Min, "Closest gray variant")
		assert.Equal(t, 3.0, stats[0].Max, "Farthest gray variant")
		assert.Equal(t, 2.0, stats[0].Mean, "Mean across clusters")
		assert.Equal(t, 2.0, stats[0].Median, "Median across clusters")
	})
}

func TestSpeed(t *testing.T) {
	t.Run("ComputesThroughputSpread", func(t *testing.T) {
		table := &simprint.Table{Rows: []simprint.Task{
			{ID: 0, File: "a", Code: []byte{0x00}, Size: 1000, TimeMS: 1},
			{ID: 1, File: "b", Code: []byte{0x01}, Size: 4000, TimeMS: 2},
			{ID: 2, File: "c", Code: []byte{0x02}, Size: 500, TimeMS: 0},
		}}

		stats, err := Speed(table)
		require.NoError(t, err, "Speed should compute")

		assert.Equal(t, 500.0, stats.Min, "Sub-millisecond task floors to one millisecond")
		assert.Equal(t, 2000.0, stats.Max, "Fastest task")
		assert.InDelta(t, 3500.0/3.0, stats.Mean, 1e-9, "Mean bytes per millisecond")
		assert.Equal(t, 1000.0, stats.Median, "Median bytes per millisecond")

		assert.Equal(t, "0.50 MB/s", stats.MinHuman, "Human rendering of the minimum")
		assert.Equal(t, "2.00 MB/s", stats.MaxHuman, "Human rendering of the maximum")
	})

	t.Run("EmptyTable", func(t *testing.T) {
		_, err := Speed(&simprint.Table{})
		assert.ErrorIs(t, err, common.ErrEmptyTable, "Speed needs at least one timed task")
	})
}
