package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/simprint-bench/simbench"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Bench      BenchConfig       `mapstructure:"bench"`
	Algorithms []AlgorithmConfig `mapstructure:"algorithms"`
	Datasets   []DatasetConfig   `mapstructure:"datasets"`
	Benchmarks []BenchmarkConfig `mapstructure:"benchmarks"`
}

// BenchConfig stores harness-wide settings shared by every benchmark run.
type BenchConfig struct {
	RootFolder string `mapstructure:"rootFolder"`
	CacheDir   string `mapstructure:"cacheDir"`
	Workers    int    `mapstructure:"workers"`
	Progress   bool   `mapstructure:"progress"`
}

// AlgorithmConfig declares a hash algorithm by registry label.
type AlgorithmConfig struct {
	Name  string `mapstructure:"name"`
	Label string `mapstructure:"label"`
	Mode  string `mapstructure:"mode"`
}

// DatasetConfig declares a labeled dataset rooted under Bench.RootFolder.
type DatasetConfig struct {
	Name     string `mapstructure:"name"`
	Label    string `mapstructure:"label"`
	URL      string `mapstructure:"url"`
	Mode     string `mapstructure:"mode"`
	Samples  int    `mapstructure:"samples"`
	Clusters int    `mapstructure:"clusters"`
	Seed     int    `mapstructure:"seed"`
	Checksum string `mapstructure:"checksum"`
}

// BenchmarkConfig pairs an algorithm with a dataset and the metrics to compute.
type BenchmarkConfig struct {
	Algorithm    string   `mapstructure:"algorithm"`
	Dataset      string   `mapstructure:"dataset"`
	Metrics      []string `mapstructure:"metrics"`
	MaxThreshold int      `mapstructure:"maxThreshold"`
	Active       bool     `mapstructure:"active"`
}

// LoadConfig reads configuration from file or environment variables.
// The decoded config is returned to the caller; nothing is stored in
// package state, so concurrent runs with different configs stay isolated.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("bench.rootFolder", internal.DefaultRootFolder)
	viper.SetDefault("bench.cacheDir", internal.DefaultCacheDir)
	viper.SetDefault("bench.workers", internal.DefaultWorkers)
	viper.SetDefault("bench.progress", true)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env var names e.g. bench.rootFolder becomes BENCH_ROOTFOLDER

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used. This is not an error for the application to halt on.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// ActiveBenchmarks filters the configured benchmarks down to the active ones.
func (c *Config) ActiveBenchmarks() []BenchmarkConfig {
	active := make([]BenchmarkConfig, 0, len(c.Benchmarks))
	for _, bm := range c.Benchmarks {
		if bm.Active {
			active = append(active, bm)
		}
	}
	return active
}

// Algorithm looks up an algorithm declaration by label.
func (c *Config) Algorithm(label string) (AlgorithmConfig, bool) {
	for _, a := range c.Algorithms {
		if a.Label == label {
			return a, true
		}
	}
	return AlgorithmConfig{}, false
}

// Dataset looks up a dataset declaration by label.
func (c *Config) Dataset(label string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Label == label {
			return d, true
		}
	}
	return DatasetConfig{}, false
}
