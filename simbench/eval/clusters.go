// Package eval scores search results against the ground truth encoded in a
// dataset's naming conventions: the first path segment names a near-duplicate
// cluster, the last underscore token of the filename stem names the applied
// transformation, and the first file of each cluster is the untransformed
// original.
package eval

import (
	"fmt"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"
)

// Row is one annotated simprint table entry.
type Row struct {
	ID        int
	File      string
	Code      []byte
	Cluster   string // empty for distractor files
	Transform string // empty when the filename carries no transform token
	Original  bool
}

// ClusterView annotates a simprint table with cluster membership and keeps a
// label index for cluster-scoped lookups.
type ClusterView struct {
	rows  []Row
	index *ClusterIndex
}

// NewClusterView derives annotations for every table row. A row is the
// cluster original when it opens a new cluster block; the table layout
// guarantees cluster files are contiguous and name-sorted, so the block
// opener is also the lexicographically first file.
func NewClusterView(table *simprint.Table) (*ClusterView, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, common.ErrEmptyTable
	}

	view := &ClusterView{
		rows:  make([]Row, 0, len(table.Rows)),
		index: NewClusterIndex(),
	}

	prevCluster := ""
	for i, task := range table.Rows {
		if task.ID != i {
			return nil, fmt.Errorf("table rows must carry contiguous ids sorted ascending, row %d has id %d", i, task.ID)
		}

		cluster, _ := dataset.ClusterOf(task.File)
		transform, _ := dataset.TransformOf(task.File)
		row := Row{
			ID:        task.ID,
			File:      task.File,
			Code:      task.Code,
			Cluster:   cluster,
			Transform: transform,
			Original:  cluster != "" && cluster != prevCluster,
		}
		view.rows = append(view.rows, row)
		if cluster != "" {
			view.index.Add(cluster, task.ID)
		}
		prevCluster = cluster
	}
	return view, nil
}

// Rows returns all annotated rows in table order.
func (v *ClusterView) Rows() []Row {
	return v.rows
}

// Row returns the annotated row with the given ID.
func (v *ClusterView) Row(id int) (Row, bool) {
	if id < 0 || id >= len(v.rows) {
		return Row{}, false
	}
	return v.rows[id], true
}

// Originals returns the untransformed original of every cluster in table
// order.
func (v *ClusterView) Originals() []Row {
	var originals []Row
	for _, row := range v.rows {
		if row.Original {
			originals = append(originals, row)
		}
	}
	return originals
}

// Index exposes the cluster membership index.
func (v *ClusterView) Index() *ClusterIndex {
	return v.index
}
