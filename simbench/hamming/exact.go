package hamming

import (
	"context"
	"runtime"
	"sync"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/sourcegraph/conc/pool"
)

// exactChunkSize rows per pool task; small enough to balance, large enough
// to amortize scheduling.
const exactChunkSize = 100

// ExactEngine compares every ordered pair of codes. Quadratic and exact; it
// is the reference the approximate engine is judged against and the only
// source of the pairwise distance distribution.
type ExactEngine struct {
	matrix  *simprint.CodeMatrix
	handler *assert.AssertHandler
	workers int

	mu           sync.Mutex
	distribution map[int]int64
}

// NewExact builds the brute-force engine over a populated code matrix.
func NewExact(matrix *simprint.CodeMatrix, handler *assert.AssertHandler) *ExactEngine {
	handler.Assert(context.Background(), matrix != nil && matrix.Len() > 0,
		"exact engine requires a populated code matrix")
	return &ExactEngine{
		matrix:  matrix,
		handler: handler,
		workers: min(max(runtime.NumCPU(), 4), 32),
	}
}

// Search scans all ordered pairs on a chunked pool. Every query collects the
// rows within threshold; the distance histogram is rebuilt from the same
// scan and covers every ordered pair regardless of threshold.
func (e *ExactEngine) Search(ctx context.Context, threshold int) ([]QueryResult, error) {
	e.handler.Assert(ctx, threshold >= 0, "search threshold must not be negative")

	n := e.matrix.Len()
	results := make([]QueryResult, n)

	e.mu.Lock()
	e.distribution = make(map[int]int64)
	e.mu.Unlock()

	pl := pool.New().WithMaxGoroutines(e.workers).WithContext(ctx)
	for start := 0; start < n; start += exactChunkSize {
		end := min(start+exactChunkSize, n)
		pl.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := make(map[int]int64)
			for i := start; i < end; i++ {
				code := e.matrix.At(i)
				qr := QueryResult{QueryID: i}
				for j := 0; j < n; j++ {
					if j == i {
						continue
					}
					d := Distance(code, e.matrix.At(j))
					local[d]++
					if d <= threshold {
						qr.Matches = append(qr.Matches, Match{Distance: d, ID: j})
					}
				}
				SortMatches(qr.Matches)
				results[i] = qr
			}
			e.mu.Lock()
			for d, count := range local {
				e.distribution[d] += count
			}
			e.mu.Unlock()
			return nil
		})
	}
	if err := pl.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Distribution returns the ordered-pair distance histogram accumulated by
// the most recent Search. Each unordered pair contributes twice, once per
// direction, mirroring how queries see each other.
func (e *ExactEngine) Distribution() map[int]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[int]int64, len(e.distribution))
	for d, count := range e.distribution {
		out[d] = count
	}
	return out
}
