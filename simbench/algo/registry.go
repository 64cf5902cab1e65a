// Package algo defines the hash algorithm capability the fingerprint
// pipeline consumes and a typed registry that resolves configured labels to
// implementations at startup.
package algo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
)

// HashFunc produces a compact binary code for one file. Implementations
// never return a nil code without an error; failures travel through the
// error return.
type HashFunc func(ctx context.Context, path string) ([]byte, error)

// Algorithm couples a registry label with its hash implementation. The
// label is the short identifier used in cache keys and config files.
type Algorithm struct {
	Name  string
	Label string
	Mode  dataset.Mode
	Fn    HashFunc
}

// Registry maps algorithm labels to implementations. Registration happens
// during startup; benchmark-time lookups are read-only.
type Registry struct {
	mu    sync.RWMutex
	algos map[string]Algorithm
}

// NewRegistry returns a registry preloaded with the built-in algorithms.
func NewRegistry() *Registry {
	r := &Registry{algos: make(map[string]Algorithm)}
	r.MustRegister(SimhashText())
	r.MustRegister(Blake3Prefix())
	return r
}

// Register adds or replaces an algorithm under its label.
func (r *Registry) Register(a Algorithm) error {
	if strings.TrimSpace(a.Label) == "" {
		return fmt.Errorf("algorithm %q has no label", a.Name)
	}
	if a.Fn == nil {
		return fmt.Errorf("algorithm %q has no hash function", a.Label)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algos[a.Label] = a
	return nil
}

// MustRegister registers an algorithm and panics on a malformed definition.
// Reserved for built-ins wired at construction time.
func (r *Registry) MustRegister(a Algorithm) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Resolve returns the algorithm registered under label. Unknown labels are
// configuration errors and name every registered label for diagnosis.
func (r *Registry) Resolve(label string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algos[label]
	if !ok {
		return Algorithm{}, fmt.Errorf("unknown algorithm %q, registered labels: %s",
			label, strings.Join(r.labelsLocked(), ", "))
	}
	return a, nil
}

// Labels lists every registered label in sorted order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.labelsLocked()
}

func (r *Registry) labelsLocked() []string {
	labels := make([]string, 0, len(r.algos))
	for label := range r.algos {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
