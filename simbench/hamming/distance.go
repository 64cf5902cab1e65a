// Package hamming compares simprint codes. It provides the bit distance
// kernel, an exact all-pairs engine that doubles as the distance distribution
// collector, and an approximate HNSW engine whose candidates are re-scored
// with exact distances before anything reaches an evaluator.
package hamming

import (
	"context"
	"math/bits"
	"sort"
)

// Distance returns the number of differing bits between two equal-width
// codes. Width equality is guaranteed upstream by the code matrix.
func Distance(a, b []byte) int {
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}

// Match is one neighbor of a query: its row ID and exact bit distance.
type Match struct {
	Distance int `json:"distance"`
	ID       int `json:"id"`
}

// QueryResult lists every neighbor of one query within the threshold,
// sorted ascending by (distance, ID), the query itself excluded.
type QueryResult struct {
	QueryID int
	Matches []Match
}

// Engine searches all codes of a matrix against themselves.
type Engine interface {
	Search(ctx context.Context, threshold int) ([]QueryResult, error)
}

// SortMatches orders matches ascending by distance, ties broken by ID. Both
// engines and the ground-truth deriver emit lists in this order so result
// sets compare positionally.
func SortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
}
