package integrity

import (
	"runtime"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/progress"
)

// ChecksumOptions configures directory checksum behavior
type ChecksumOptions struct {
	Expected   string              // Known checksum to verify against, empty skips verification
	AllowEmpty bool                // Tolerate zero-byte files with a warning instead of failing
	AllowDupes bool                // Tolerate byte-identical files with a warning (secure tier only)
	Workers    int                 // Content hashing pool size
	Progress   progress.Sink       // Advisory progress reporting, nil for silent runs
	Walk       dataset.WalkOptions // Traversal tuning shared with the walker
}

// DefaultChecksumOptions returns sensible checksum defaults
func DefaultChecksumOptions() ChecksumOptions {
	return ChecksumOptions{
		Workers: min(max(runtime.NumCPU()*2, 4), 32),
		Walk:    dataset.DefaultWalkOptions(),
	}
}

func (o ChecksumOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return min(max(runtime.NumCPU()*2, 4), 32)
}

func (o ChecksumOptions) progress() progress.Sink {
	if o.Progress != nil {
		return o.Progress
	}
	return progress.Noop{}
}
