package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/algo"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/config"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/eval"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/fingerprint"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/hamming"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/integrity"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/simprint"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/store"
)

// exactSearchCutoff is the table size up to which the brute-force engine is
// preferred over the graph index. The quadratic scan stays tractable in this
// range and needs no persisted index.
const exactSearchCutoff = 1000

// simprintTag keys the code table and its index in the artifact store.
const simprintTag = "simprint"

// metricFunc computes one named metric value for the metrics document.
type metricFunc func(ctx context.Context, run *benchRun) (any, error)

// Runner executes configured benchmarks against an environment. Metric
// labels resolve through a typed dispatch table; an unknown label is a
// configuration error, not a runtime lookup surprise.
type Runner struct {
	env     *Env
	cfg     *config.Config
	metrics map[string]metricFunc
	errs    *common.ErrorUtils
}

// NewRunner wires a runner for the given environment and configuration.
func NewRunner(env *Env, cfg *config.Config) *Runner {
	r := &Runner{
		env:  env,
		cfg:  cfg,
		errs: common.NewErrorUtils(),
	}
	r.metrics = map[string]metricFunc{
		"effectiveness": r.effectivenessMetric,
		"robustness":    r.robustnessMetric,
		"speed":         r.speedMetric,
		"distribution":  r.distributionMetric,
	}
	return r
}

// MetricLabels returns the metric names the runner can compute, sorted.
func (r *Runner) MetricLabels() []string {
	labels := make([]string, 0, len(r.metrics))
	for label := range r.metrics {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// RunAll executes every active benchmark. A failing benchmark is logged and
// does not stop the remaining ones; the collected failures are returned
// after the last benchmark finishes.
func (r *Runner) RunAll(ctx context.Context) error {
	benches := r.cfg.ActiveBenchmarks()
	if len(benches) == 0 {
		slog.Warn("No active benchmarks configured")
		return nil
	}

	var failures []error
	for _, bm := range benches {
		if err := ctx.Err(); err != nil {
			return err
		}
		slog.Info("Running benchmark", "algorithm", bm.Algorithm, "dataset", bm.Dataset)
		if err := r.RunBenchmark(ctx, bm); err != nil {
			slog.Error("Benchmark failed",
				"algorithm", bm.Algorithm,
				"dataset", bm.Dataset,
				"error", err)
			failures = append(failures, fmt.Errorf("benchmark %s on %s: %w", bm.Algorithm, bm.Dataset, err))
		}
	}
	return errors.Join(failures...)
}

// RunBenchmark executes one algorithm/dataset pair: verify the dataset,
// produce or reuse the simprint table, then compute and persist every
// requested metric.
func (r *Runner) RunBenchmark(ctx context.Context, bm config.BenchmarkConfig) error {
	run, err := r.prepare(ctx, bm)
	if err != nil {
		return err
	}

	for _, label := range bm.Metrics {
		fn, ok := r.metrics[label]
		if !ok {
			return fmt.Errorf("unknown metric %q, have %v", label, r.MetricLabels())
		}

		value, err := fn(ctx, run)
		if err != nil {
			return r.errs.WrapError(err, "computing %s metric", label)
		}
		if err := r.env.Store.UpdateMetrics(run.key, label, value); err != nil {
			return r.errs.WrapError(err, "persisting %s metric", label)
		}
		slog.Info("Metric stored", "metric", label, "stem", run.key.Stem())
	}
	return nil
}

// benchRun carries the shared state of one benchmark execution. The search
// engine and its results materialize the first time a metric asks for them.
type benchRun struct {
	bench  config.BenchmarkConfig
	algo   algo.Algorithm
	ds     dataset.Dataset
	key    store.CacheKey
	table  *simprint.Table
	matrix *simprint.CodeMatrix
	view   *eval.ClusterView

	maxThreshold int

	exact   *hamming.ExactEngine
	results []hamming.QueryResult
}

// prepare resolves the benchmark's collaborators and materializes the code
// table, verifying dataset integrity on the way.
func (r *Runner) prepare(ctx context.Context, bm config.BenchmarkConfig) (*benchRun, error) {
	alg, err := r.env.Registry.Resolve(bm.Algorithm)
	if err != nil {
		return nil, err
	}

	dc, ok := r.cfg.Dataset(bm.Dataset)
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", bm.Dataset)
	}
	ds := datasetFromConfig(dc)
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if alg.Mode != "" && ds.Mode != "" && alg.Mode != ds.Mode {
		return nil, fmt.Errorf("algorithm %q handles %s media but dataset %q holds %s", alg.Label, alg.Mode, ds.Label, ds.Mode)
	}

	dataFolder := r.env.DataDir(ds)

	sumOpts := integrity.DefaultChecksumOptions()
	sumOpts.Expected = ds.Checksum
	sumOpts.Workers = r.env.Workers
	sumOpts.Progress = r.env.progressSink()
	checksum, err := integrity.FastChecksum(ctx, dataFolder, sumOpts)
	if err != nil {
		return nil, err
	}

	key := store.CacheKey{
		Algorithm: alg.Label,
		Dataset:   ds.Label,
		Checksum:  checksum,
		Tag:       simprintTag,
	}

	pipeOpts := fingerprint.DefaultPipelineOptions()
	pipeOpts.Workers = r.env.Workers
	pipeOpts.Progress = r.env.progressSink()
	pipeline := fingerprint.NewPipeline(alg.Fn, pipeOpts)

	table, cached, err := pipeline.CachedRun(ctx, r.env.Store, key, dataFolder)
	if err != nil {
		return nil, err
	}
	if !cached {
		stats := pipeline.Stats()
		if failed := stats.FilesFailed.Load(); failed > 0 {
			slog.Warn("Some files failed fingerprinting and are excluded",
				"failed", failed,
				"processed", stats.FilesProcessed.Load())
		}
	}

	matrix, err := simprint.NewCodeMatrix(table)
	if err != nil {
		return nil, err
	}
	view, err := eval.NewClusterView(table)
	if err != nil {
		return nil, err
	}

	maxThreshold := bm.MaxThreshold
	if maxThreshold <= 0 {
		maxThreshold = matrix.BitLength() / 4
	}

	return &benchRun{
		bench:        bm,
		algo:         alg,
		ds:           ds,
		key:          key,
		table:        table,
		matrix:       matrix,
		view:         view,
		maxThreshold: maxThreshold,
	}, nil
}

// searchResults runs the threshold search once per benchmark. The exact
// engine serves when the distribution metric is requested (only its pass
// yields the histogram) or when the table is small; otherwise the persisted
// graph index answers.
func (r *Runner) searchResults(ctx context.Context, run *benchRun) ([]hamming.QueryResult, error) {
	if run.results != nil {
		return run.results, nil
	}

	var engine hamming.Engine
	if slices.Contains(run.bench.Metrics, "distribution") || run.matrix.Len() <= exactSearchCutoff {
		run.exact = hamming.NewExact(run.matrix, r.env.Asserts)
		engine = run.exact
		slog.Debug("Using exact search engine", "rows", run.matrix.Len())
	} else {
		approx, err := hamming.OpenHNSW(r.env.Store, run.key, run.matrix, r.env.Asserts, hamming.DefaultHNSWOptions())
		if err != nil {
			return nil, r.errs.LogAndWrapError(err, slog.LevelError, "opening hamming index")
		}
		engine = approx
		slog.Debug("Using graph search engine", "rows", run.matrix.Len())
	}

	results, err := engine.Search(ctx, run.maxThreshold)
	if err != nil {
		return nil, err
	}
	run.results = results
	return results, nil
}

func (r *Runner) effectivenessMetric(ctx context.Context, run *benchRun) (any, error) {
	results, err := r.searchResults(ctx, run)
	if err != nil {
		return nil, err
	}

	truth := eval.DeriveGroundTruth(run.view)
	curve, err := eval.Effectiveness(truth, results, run.maxThreshold)
	if err != nil {
		return nil, err
	}
	if best, ok := eval.BestThreshold(curve); ok {
		slog.Info("Best threshold",
			"threshold", best.Threshold,
			"precision", best.Precision,
			"recall", best.Recall,
			"f1_score", best.F1Score)
	}
	return curve, nil
}

func (r *Runner) robustnessMetric(_ context.Context, run *benchRun) (any, error) {
	return eval.Robustness(run.view), nil
}

func (r *Runner) speedMetric(_ context.Context, run *benchRun) (any, error) {
	return eval.Speed(run.table)
}

// distributionMetric reuses a previously persisted histogram when the
// metrics document already holds one for this checksum; the all-pairs scan
// is the most expensive reduction and its inputs are immutable.
func (r *Runner) distributionMetric(ctx context.Context, run *benchRun) (any, error) {
	cached, ok, err := r.env.Store.ReadMetric(run.key, "distribution")
	if err != nil {
		return nil, err
	}
	if ok {
		slog.Debug("Using cached distribution metric", "stem", run.key.Stem())
		return cached, nil
	}

	if _, err := r.searchResults(ctx, run); err != nil {
		return nil, err
	}
	if run.exact == nil {
		// Results were computed by the approximate engine before the
		// distribution was requested; rerun exactly.
		run.exact = hamming.NewExact(run.matrix, r.env.Asserts)
		if _, err := run.exact.Search(ctx, run.maxThreshold); err != nil {
			return nil, err
		}
	}
	return run.exact.Distribution(), nil
}
