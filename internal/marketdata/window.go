package marketdata

import (
	"math"
	"time"
)

// DefaultRetention keeps one contract length of history.
const DefaultRetention = 900 * time.Second

// Sample is one timestamped reference price observation.
type Sample struct {
	At    time.Time
	Price float64
}

// SampleWindow is a rolling window of reference prices. Samples arrive
// in time order, so pruning expired history is a prefix trim.
//
// SampleWindow is not synchronized; Context guards all access.
type SampleWindow struct {
	retention time.Duration
	samples   []Sample
}

// NewSampleWindow creates a window with the given retention.
func NewSampleWindow(retention time.Duration) *SampleWindow {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &SampleWindow{retention: retention}
}

// Add appends a sample and prunes everything older than the retention.
func (w *SampleWindow) Add(at time.Time, price float64) {
	w.samples = append(w.samples, Sample{At: at, Price: price})
	cutoff := at.Add(-w.retention)
	i := 0
	for i < len(w.samples) && w.samples[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

// Len returns the number of retained samples.
func (w *SampleWindow) Len() int { return len(w.samples) }

// Clear discards all samples.
func (w *SampleWindow) Clear() { w.samples = w.samples[:0] }

// Latest returns the most recent sample price.
func (w *SampleWindow) Latest() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}
	return w.samples[len(w.samples)-1].Price, true
}

// MovingAverage returns the mean price over the trailing window.
// Falls back to the single latest sample when no sample is recent
// enough; false only when the window holds nothing at all.
func (w *SampleWindow) MovingAverage(now time.Time, window time.Duration) (float64, bool) {
	in := w.inWindow(now, window)
	if len(in) == 0 {
		return w.Latest()
	}
	sum := 0.0
	for _, s := range in {
		sum += s.Price
	}
	return sum / float64(len(in)), true
}

// Momentum returns latest minus the oldest in-window price. Requires at
// least one in-window sample besides the latest.
func (w *SampleWindow) Momentum(now time.Time, window time.Duration) (float64, bool) {
	in := w.inWindow(now, window)
	if len(in) < 2 {
		return 0, false
	}
	return in[len(in)-1].Price - in[0].Price, true
}

// RealizedVolatility returns the sample standard deviation of
// consecutive log returns over the trailing window, scaled to a
// percentage. Requires at least 3 prices and 2 returns.
func (w *SampleWindow) RealizedVolatility(now time.Time, window time.Duration) (float64, bool) {
	in := w.inWindow(now, window)
	if len(in) < 3 {
		return 0, false
	}

	returns := make([]float64, 0, len(in)-1)
	for i := 0; i < len(in)-1; i++ {
		if in[i].Price > 0 {
			returns = append(returns, math.Log(in[i+1].Price/in[i].Price))
		}
	}
	if len(returns) < 2 {
		return 0, false
	}

	n := float64(len(returns))
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= n

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= n - 1 // Bessel correction

	return math.Sqrt(variance) * 100, true
}

func (w *SampleWindow) inWindow(now time.Time, window time.Duration) []Sample {
	cutoff := now.Add(-window)
	for i, s := range w.samples {
		if !s.At.Before(cutoff) {
			return w.samples[i:]
		}
	}
	return nil
}
