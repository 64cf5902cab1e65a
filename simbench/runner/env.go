// Package runner drives configured benchmarks end to end: dataset
// verification, fingerprinting, search, metric reduction, and metric
// persistence.
package runner

import (
	internal "github.com/ZanzyTHEbar/simprint-bench/simbench"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/algo"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/config"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/progress"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/store"

	assert "github.com/ZanzyTHEbar/assert-lib"
)

// Env is the explicit runtime environment threaded through every benchmark
// component. It is created once at process start; nothing in this package
// reads package-level state, so two runners with different environments can
// coexist in one process.
type Env struct {
	RootDir  string
	CacheDir string
	Workers  int
	Progress bool

	Registry *algo.Registry
	Store    *store.ArtifactStore
	Asserts  *assert.AssertHandler
}

// NewEnv builds the runtime environment from configuration, falling back to
// the application defaults for anything unset.
func NewEnv(cfg *config.Config) (*Env, error) {
	rootDir := cfg.Bench.RootFolder
	if rootDir == "" {
		rootDir = internal.DefaultRootFolder
	}
	cacheDir := cfg.Bench.CacheDir
	if cacheDir == "" {
		cacheDir = internal.DefaultCacheDir
	}
	workers := cfg.Bench.Workers
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}

	st, err := store.NewArtifactStore(cacheDir)
	if err != nil {
		return nil, err
	}

	return &Env{
		RootDir:  rootDir,
		CacheDir: cacheDir,
		Workers:  workers,
		Progress: cfg.Bench.Progress,
		Registry: algo.NewRegistry(),
		Store:    st,
		Asserts:  assert.NewAssertHandler(),
	}, nil
}

// DataDir resolves a dataset's folder under this environment's root.
func (e *Env) DataDir(ds dataset.Dataset) string {
	return ds.DataDir(e.RootDir)
}

func (e *Env) progressSink() progress.Sink {
	return progress.New(e.Progress)
}

// datasetFromConfig maps a dataset declaration onto the domain type.
func datasetFromConfig(dc config.DatasetConfig) dataset.Dataset {
	return dataset.Dataset{
		Name:     dc.Name,
		Label:    dc.Label,
		URL:      dc.URL,
		Mode:     dataset.Mode(dc.Mode),
		Samples:  dc.Samples,
		Clusters: dc.Clusters,
		Seed:     dc.Seed,
		Checksum: dc.Checksum,
	}
}
