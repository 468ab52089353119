// Package bench measures single-example inference latency
// for the two conversion directions.
package bench

import (
	"math"
	"time"
)

// A Welford accumulates a running mean and standard
// deviation in constant memory.
type Welford struct {
	count int
	mean  float64
	m2    float64
}

// Update folds one observation into the estimate.
func (w *Welford) Update(x float64) {
	w.count++
	delta := x - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (x - w.mean)
}

// Count returns the number of observations so far.
func (w *Welford) Count() int {
	return w.count
}

// Mean returns the running mean.
func (w *Welford) Mean() float64 {
	return w.mean
}

// Std returns the running sample standard deviation.
func (w *Welford) Std() float64 {
	if w.count < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.count-1))
}

// Measure times n calls to f and returns the per-call
// wall-clock latency estimate in seconds.
// It makes no correctness assertions; it is purely
// observational.
func Measure(f func(), n int) *Welford {
	var w Welford
	for i := 0; i < n; i++ {
		start := time.Now()
		f()
		w.Update(time.Since(start).Seconds())
	}
	return &w
}
