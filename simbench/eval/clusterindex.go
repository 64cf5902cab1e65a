package eval

import (
	"log/slog"
	"sync"

	"github.com/armon/go-radix"
)

// ClusterIndex maps cluster labels to member row IDs using a compressed
// trie, giving O(k) label lookups and sorted iteration over labels.
type ClusterIndex struct {
	tree *radix.Tree
	mu   sync.RWMutex
}

// NewClusterIndex creates an empty index.
func NewClusterIndex() *ClusterIndex {
	return &ClusterIndex{tree: radix.New()}
}

// Add records a member row under the cluster label.
func (idx *ClusterIndex) Add(label string, id int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var members []int
	if value, found := idx.tree.Get(label); found {
		members = value.([]int)
	}
	idx.tree.Insert(label, append(members, id))
}

// Members returns the row IDs of a cluster in insertion order. The returned
// slice is a copy.
func (idx *ClusterIndex) Members(label string) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	value, found := idx.tree.Get(label)
	if !found {
		slog.Debug("Cluster lookup miss", "label", label)
		return nil
	}
	members := value.([]int)
	out := make([]int, len(members))
	copy(out, members)
	return out
}

// Labels returns all cluster labels in sorted order.
func (idx *ClusterIndex) Labels() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	labels := make([]string, 0, idx.tree.Len())
	idx.tree.Walk(func(key string, value interface{}) bool {
		labels = append(labels, key)
		return false // Continue walking
	})
	return labels
}

// WalkClusters visits every cluster in sorted label order. Returning true
// from fn stops the walk.
func (idx *ClusterIndex) WalkClusters(fn func(label string, members []int) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.tree.Walk(func(key string, value interface{}) bool {
		return fn(key, value.([]int))
	})
}

// WalkPrefix visits clusters whose label starts with prefix, in sorted
// order.
func (idx *ClusterIndex) WalkPrefix(prefix string, fn func(label string, members []int) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.tree.WalkPrefix(prefix, func(key string, value interface{}) bool {
		return fn(key, value.([]int))
	})
}

// Len returns the number of clusters.
func (idx *ClusterIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}
