// Package perfstats is a single place where we record the performance of
// the pipeline's hot operations (frame decode, region extraction, OCR),
// so that it's easy to compare different backends and hardware.
package perfstats

import (
	"sync/atomic"
	"time"
)

// Update a moving average stored in an atomic int64.
// We don't bother about strict correctness here, with CompareAndSwap,
// because this is just sampled stats, and it's OK to miss one or two samples.
func UpdateMovingAverage(stat *atomic.Int64, value int64) {
	if stat.Load() == 0 {
		stat.Store(value)
	} else {
		stat.Store((stat.Load()*15 + value) / 16)
	}
}

// Accumulate samples of how long something took
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
}

func (a *TimeAccumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}
