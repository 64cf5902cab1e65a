// Package progress provides advisory progress reporting for long-running
// hashing and fingerprinting stages. Sinks never gate correctness; dropping
// every update changes nothing but console output.
package progress

import (
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
)

// Sink receives progress updates from a batch stage.
type Sink interface {
	Start(total int64)
	Add(n int64)
	Finish()
}

// New returns a terminal bar when enabled, otherwise a no-op sink.
func New(enabled bool) Sink {
	if enabled {
		return &Bar{}
	}
	return Noop{}
}

// Noop discards all progress updates.
type Noop struct{}

func (Noop) Start(int64) {}
func (Noop) Add(int64)   {}
func (Noop) Finish()     {}

// Bar renders a terminal progress bar.
type Bar struct {
	bar *pb.ProgressBar
}

func (b *Bar) Start(total int64) {
	b.bar = pb.New64(total).Start()
}

func (b *Bar) Add(n int64) {
	if b.bar != nil {
		b.bar.Add64(n)
	}
}

func (b *Bar) Finish() {
	if b.bar != nil {
		b.bar.Finish()
	}
}

// Tracker counts completed work without rendering. Safe for concurrent use;
// pools report into it and observers poll it.
type Tracker struct {
	total atomic.Int64
	done  atomic.Int64
}

func (t *Tracker) Start(total int64) {
	t.total.Store(total)
	t.done.Store(0)
}

func (t *Tracker) Add(n int64) {
	t.done.Add(n)
}

func (t *Tracker) Finish() {}

// Done reports the number of completed items so far.
func (t *Tracker) Done() int64 {
	return t.done.Load()
}

// Total reports the expected item count.
func (t *Tracker) Total() int64 {
	return t.total.Load()
}
