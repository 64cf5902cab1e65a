package hamming

import (
	"context"
	"io"
	"log/slog"
	"math/bits"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/store"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/coder/hnsw"
)

// indexExt is the artifact extension of a persisted graph, stored under the
// same stem as the simprint table it was built from.
const indexExt = "anns"

// hammingDistanceName keys the distance function in the graph serialization
// registry so exported indexes resolve back to hammingVector on import.
const hammingDistanceName = "hamming8"

func init() {
	// Register distance function for graph serialization
	hnsw.RegisterDistanceFunc(hammingDistanceName, hammingVector)
}

// hammingVector is the graph distance function. Codes are widened to one
// float32 component per byte, so the popcount of the componentwise XOR is
// the true Hamming distance.
func hammingVector(a, b hnsw.Vector) float32 {
	n := 0
	for i := range a {
		n += bits.OnesCount8(uint8(a[i]) ^ uint8(b[i]))
	}
	return float32(n)
}

// vectorize widens a code for graph storage. Byte values survive the
// float32 round trip exactly, keeping hammingVector lossless.
func vectorize(code []byte) hnsw.Vector {
	vec := make(hnsw.Vector, len(code))
	for i, b := range code {
		vec[i] = float32(b)
	}
	return vec
}

// HNSWOptions tune graph traversal.
type HNSWOptions struct {
	ProbeWidth int // candidate pool consulted per traversal step
}

// DefaultHNSWOptions returns the traversal defaults.
func DefaultHNSWOptions() HNSWOptions {
	return HNSWOptions{ProbeWidth: 10}
}

// HNSWEngine answers threshold queries through a navigable small-world
// graph over the code matrix. Each query asks the graph for at most
// threshold candidates; candidates beyond that cap are not guaranteed to be
// found, which is the accuracy/performance trade the engine makes. Reported
// distances are always exact: every candidate is re-scored against the true
// codes before filtering.
type HNSWEngine struct {
	matrix  *simprint.CodeMatrix
	graph   *hnsw.Graph[int]
	handler *assert.AssertHandler
	opts    HNSWOptions
}

// NewHNSW builds a fresh graph from the matrix, one node per row keyed by
// row ID.
func NewHNSW(matrix *simprint.CodeMatrix, handler *assert.AssertHandler, opts HNSWOptions) *HNSWEngine {
	handler.Assert(context.Background(), matrix != nil && matrix.Len() > 0,
		"hnsw engine requires a populated code matrix")
	if opts.ProbeWidth <= 0 {
		opts.ProbeWidth = DefaultHNSWOptions().ProbeWidth
	}

	g := hnsw.NewGraph[int]()
	g.Distance = hammingVector
	g.EfSearch = opts.ProbeWidth
	for i := 0; i < matrix.Len(); i++ {
		g.Add(hnsw.MakeNode(i, vectorize(matrix.At(i))))
	}
	return &HNSWEngine{matrix: matrix, graph: g, handler: handler, opts: opts}
}

// LoadHNSW restores a previously exported graph instead of rebuilding it.
// The matrix must be the same table the export was built from; row IDs are
// the link between graph keys and codes.
func LoadHNSW(matrix *simprint.CodeMatrix, handler *assert.AssertHandler, opts HNSWOptions, r io.Reader) (*HNSWEngine, error) {
	handler.Assert(context.Background(), matrix != nil && matrix.Len() > 0,
		"hnsw engine requires a populated code matrix")
	if opts.ProbeWidth <= 0 {
		opts.ProbeWidth = DefaultHNSWOptions().ProbeWidth
	}

	g := hnsw.NewGraph[int]()
	if err := g.Import(r); err != nil {
		return nil, err
	}
	g.EfSearch = opts.ProbeWidth
	return &HNSWEngine{matrix: matrix, graph: g, handler: handler, opts: opts}, nil
}

// OpenHNSW loads the persisted index for key when one exists and builds and
// publishes it otherwise. The index shares the simprint table's stem, so a
// checksum change invalidates both together.
func OpenHNSW(st *store.ArtifactStore, key store.CacheKey, matrix *simprint.CodeMatrix, handler *assert.AssertHandler, opts HNSWOptions) (*HNSWEngine, error) {
	if st.Exists(key, indexExt) {
		f, err := st.Open(key, indexExt)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		slog.Debug("Loading Hamming index", "stem", key.Stem())
		return LoadHNSW(matrix, handler, opts, f)
	}

	slog.Debug("Building Hamming index", "stem", key.Stem())
	eng := NewHNSW(matrix, handler, opts)
	if err := eng.SaveIndex(st, key); err != nil {
		return nil, err
	}
	return eng, nil
}

// SaveIndex exports the graph to the store under key so later runs against
// the same checksum skip the build.
func (e *HNSWEngine) SaveIndex(st *store.ArtifactStore, key store.CacheKey) error {
	w, err := st.Create(key, indexExt)
	if err != nil {
		return err
	}
	if err := e.graph.Export(w); err != nil {
		w.Abort()
		return err
	}
	return w.Close()
}

// Search runs every row as a query, asking the graph for at most threshold
// candidates, then filters self-matches and re-scores survivors exactly.
func (e *HNSWEngine) Search(ctx context.Context, threshold int) ([]QueryResult, error) {
	e.handler.Assert(ctx, threshold >= 0, "search threshold must not be negative")

	n := e.matrix.Len()
	results := make([]QueryResult, n)
	if threshold == 0 {
		// A zero candidate budget cannot return anything.
		for i := range results {
			results[i] = QueryResult{QueryID: i}
		}
		return results, nil
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code := e.matrix.At(i)
		nodes := e.graph.Search(vectorize(code), threshold)
		qr := QueryResult{QueryID: i}
		for _, node := range nodes {
			if node.Key == i {
				continue
			}
			d := Distance(code, e.matrix.At(node.Key))
			if d <= threshold {
				qr.Matches = append(qr.Matches, Match{Distance: d, ID: node.Key})
			}
		}
		SortMatches(qr.Matches)
		results[i] = qr
	}
	return results, nil
}
