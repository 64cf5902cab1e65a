// Package fingerprint runs a hash algorithm over every file of a dataset on
// a bounded worker pool and assembles the ordered simprint table. Completion
// order never leaks into results; rows are re-sorted by task ID before the
// table leaves the pipeline.
package fingerprint

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/algo"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/progress"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/store"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// TaskResult pairs a task with the failure that prevented its completion.
// Failures are data, not control flow: they are collected, logged and
// dropped from the table without aborting the batch.
type TaskResult struct {
	Task simprint.Task
	Err  error
}

// Succeeded reports whether the task produced a code.
func (r TaskResult) Succeeded() bool {
	return r.Err == nil
}

// PipelineOptions tunes pipeline execution
type PipelineOptions struct {
	Workers  int                 // Hash pool size, defaults to the CPU count
	Progress progress.Sink       // Advisory progress reporting, nil for silent runs
	Walk     dataset.WalkOptions // Traversal tuning shared with the walker
}

// DefaultPipelineOptions returns sensible pipeline defaults
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Workers: runtime.NumCPU(),
		Walk:    dataset.DefaultWalkOptions(),
	}
}

// PipelineStats tracks pipeline throughput with atomic counters.
type PipelineStats struct {
	FilesProcessed atomic.Int64
	FilesFailed    atomic.Int64
	BytesProcessed atomic.Int64
}

// Pipeline fingerprints dataset folders with one hash implementation.
type Pipeline struct {
	fn    algo.HashFunc
	opts  PipelineOptions
	stats PipelineStats
}

// NewPipeline builds a pipeline around a hash function.
func NewPipeline(fn algo.HashFunc, opts PipelineOptions) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Progress == nil {
		opts.Progress = progress.Noop{}
	}
	return &Pipeline{fn: fn, opts: opts}
}

// Stats exposes the pipeline's throughput counters.
func (p *Pipeline) Stats() *PipelineStats {
	return &p.stats
}

// Run enumerates dataFolder in deterministic walk order, assigns sequential
// task IDs, hashes every file on the pool and returns the table of completed
// tasks plus the per-task results including failures. Per-file failures are
// logged with their path and skipped; only cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, dataFolder string) (*simprint.Table, []TaskResult, error) {
	runID := uuid.NewString()
	start := time.Now()

	records, err := dataset.ListFiles(dataFolder, p.opts.Walk)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Fingerprinting dataset",
		"run_id", runID,
		"folder", dataFolder,
		"files", len(records),
		"workers", p.opts.Workers)

	sink := p.opts.Progress
	sink.Start(int64(len(records)))
	defer sink.Finish()

	results := make([]TaskResult, len(records))
	pl := pool.New().WithMaxGoroutines(p.opts.Workers).WithContext(ctx)
	for i, rec := range records {
		pl.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			task := simprint.Task{ID: i, File: rec.RelPath, Size: rec.Size}

			hashStart := time.Now()
			code, err := p.fn(ctx, filepath.Join(dataFolder, filepath.FromSlash(rec.RelPath)))
			task.TimeMS = time.Since(hashStart).Milliseconds()

			if err != nil {
				results[i] = TaskResult{Task: task, Err: err}
				p.stats.FilesFailed.Add(1)
				slog.Error("Fingerprint failed", "run_id", runID, "file", task.File, "error", err)
			} else {
				task.Code = code
				results[i] = TaskResult{Task: task}
				p.stats.FilesProcessed.Add(1)
				p.stats.BytesProcessed.Add(task.Size)
			}
			sink.Add(1)
			return nil
		})
	}
	if err := pl.Wait(); err != nil {
		return nil, nil, err
	}

	table := &simprint.Table{}
	for _, res := range results {
		if !res.Succeeded() {
			continue
		}
		table.Rows = append(table.Rows, res.Task)
	}
	sort.Slice(table.Rows, func(a, b int) bool {
		return table.Rows[a].ID < table.Rows[b].ID
	})
	// Failed files leave holes in the walk numbering. Close them so a row's
	// id always equals its matrix position; search engines and evaluators
	// identify rows by that position.
	for i := range table.Rows {
		table.Rows[i].ID = i
	}

	p.logRunStats(runID, len(records), time.Since(start))
	return table, results, nil
}

// CachedRun returns the cached simprint table for key when it exists,
// otherwise runs the pipeline and publishes the table atomically. The bool
// reports a cache hit. A hit skips hashing entirely; the checksum in the key
// already guarantees the dataset has not drifted.
func (p *Pipeline) CachedRun(ctx context.Context, st *store.ArtifactStore, key store.CacheKey, dataFolder string) (*simprint.Table, bool, error) {
	if st.Exists(key, "csv") {
		f, err := st.Open(key, "csv")
		if err != nil {
			return nil, false, err
		}
		defer f.Close()

		table, err := simprint.ReadCSV(f)
		if err != nil {
			return nil, false, err
		}
		slog.Info("Reusing cached simprint table", "stem", key.Stem(), "rows", len(table.Rows))
		return table, true, nil
	}

	table, _, err := p.Run(ctx, dataFolder)
	if err != nil {
		return nil, false, err
	}
	if len(table.Rows) == 0 {
		return nil, false, common.ErrEmptyTable
	}

	w, err := st.Create(key, "csv")
	if err != nil {
		return nil, false, err
	}
	if err := table.WriteCSV(w); err != nil {
		w.Abort()
		return nil, false, err
	}
	if err := w.Close(); err != nil {
		return nil, false, err
	}
	return table, false, nil
}

func (p *Pipeline) logRunStats(runID string, total int, elapsed time.Duration) {
	processed := p.stats.FilesProcessed.Load()
	failed := p.stats.FilesFailed.Load()
	bytes := p.stats.BytesProcessed.Load()

	filesPerSec := float64(0)
	if elapsed.Seconds() > 0 {
		filesPerSec = float64(processed) / elapsed.Seconds()
	}

	slog.Info("Fingerprinting complete",
		"run_id", runID,
		"total", total,
		"processed", processed,
		"failed", failed,
		"bytes", bytes,
		"duration", elapsed,
		"files_per_sec", filesPerSec)
}
