package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	internal "github.com/ZanzyTHEbar/simprint-bench/simbench"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/algo"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/config"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/integrity"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/progress"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/runner"
)

const appVersion = "0.1.0"

const usage = `simbench benchmarks near-duplicate detection across hash algorithms.

Usage:
  simbench [flags] <command> [args]

Commands:
  run                Compute all active benchmarks
  checksum <folder>  Fast recursive checksum of a data folder
  hash <folder>      Secure recursive content hash of a data folder
  info <folder>      Data folder summary as JSON
  algorithms         List registered algorithms
  datasets           List configured datasets
  benchmarks         List configured benchmarks
  version            Show version

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	quiet := flag.Bool("quiet", false, "Suppress logs below error level")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Setup JSON Logger. Command output goes to stdout, logs to stderr.
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	if *quiet {
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, flag.Args()); err != nil {
		logger := internal.GetLogger()
		logger.Fatal().Err(err).Msg("simbench failed")
	}
}

func run(configPath string, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return nil
	}
	command, args := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	switch command {
	case "run":
		env, err := runner.NewEnv(cfg)
		if err != nil {
			return err
		}
		return runner.NewRunner(env, cfg).RunAll(ctx)
	case "checksum":
		folder, err := folderArg(args)
		if err != nil {
			return err
		}
		opts := integrity.DefaultChecksumOptions()
		opts.AllowEmpty = true
		opts.Progress = progress.New(cfg.Bench.Progress)
		sum, err := integrity.FastChecksum(ctx, folder, opts)
		if err != nil {
			return err
		}
		fmt.Println(sum)
		return nil
	case "hash":
		folder, err := folderArg(args)
		if err != nil {
			return err
		}
		opts := integrity.DefaultChecksumOptions()
		opts.AllowDupes = true
		opts.Progress = progress.New(cfg.Bench.Progress)
		sum, err := integrity.SecureChecksum(ctx, folder, opts)
		if err != nil {
			return err
		}
		fmt.Println(sum)
		return nil
	case "info":
		folder, err := folderArg(args)
		if err != nil {
			return err
		}
		return printInfo(ctx, folder)
	case "algorithms":
		return listAlgorithms()
	case "datasets":
		listDatasets(cfg)
		return nil
	case "benchmarks":
		listBenchmarks(cfg)
		return nil
	case "version":
		fmt.Printf("simbench v%s\n", appVersion)
		return nil
	default:
		return fmt.Errorf("unknown command %q, run simbench without arguments for usage", command)
	}
}

func folderArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing folder argument")
	}
	return args[0], nil
}

// printInfo summarizes a data folder and pins its fast checksum into the
// report, tolerating empty files since nothing is benchmarked here.
func printInfo(ctx context.Context, folder string) error {
	info, err := dataset.CollectInfo(ctx, folder, dataset.DefaultWalkOptions())
	if err != nil {
		return err
	}

	opts := integrity.DefaultChecksumOptions()
	opts.AllowEmpty = true
	sum, err := integrity.FastChecksum(ctx, folder, opts)
	if err != nil {
		return err
	}
	info.Checksum = sum

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// listAlgorithms prints the runnable algorithms compiled into this binary.
// Config algorithm declarations only select from these by label.
func listAlgorithms() error {
	reg := algo.NewRegistry()
	for _, label := range reg.Labels() {
		a, err := reg.Resolve(label)
		if err != nil {
			return err
		}
		mode := string(a.Mode)
		if mode == "" {
			mode = "any"
		}
		fmt.Printf("%-12s %-24s %s\n", a.Label, a.Name, mode)
	}
	return nil
}

func listDatasets(cfg *config.Config) {
	for _, ds := range cfg.Datasets {
		fmt.Printf("%-12s %-24s %-6s samples=%d clusters=%d\n",
			ds.Label, ds.Name, ds.Mode, ds.Samples, ds.Clusters)
	}
}

func listBenchmarks(cfg *config.Config) {
	for _, bm := range cfg.Benchmarks {
		fmt.Printf("%-12s %-12s metrics=%s active=%t\n",
			bm.Algorithm, bm.Dataset, strings.Join(bm.Metrics, ","), bm.Active)
	}
}
