// Package kernel holds the numeric primitives shared by every pattern evaluator.
// All functions are pure: inputs are never modified and outputs are freshly allocated.
package kernel

import "math"

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA computes the simple moving average over period.
// Indices before the first full window are NaN.
func SMA(values []float64, period int) []float64 {
	out := NaNs(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out[i] = sum / float64(period)
	}
	return out
}

// EMA computes the exponential moving average seeded with the SMA of the first window.
// Indices before the seed are NaN.
func EMA(values []float64, period int) []float64 {
	out := NaNs(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	k := 2.0 / float64(period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	prev := sum / float64(period)
	out[period-1] = prev
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// StdDev computes the rolling population standard deviation over period.
func StdDev(values []float64, period int) []float64 {
	out := NaNs(len(values))
	if period <= 1 || len(values) < period {
		return out
	}
	mean := SMA(values, period)
	for i := period - 1; i < len(values); i++ {
		ss := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period))
	}
	return out
}

// Last returns the final element, or NaN for an empty slice.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Highest returns the maximum of values[from:to] and its index.
func Highest(values []float64, from, to int) (float64, int) {
	from, to = clampRange(len(values), from, to)
	best, idx := math.Inf(-1), -1
	for i := from; i < to; i++ {
		if values[i] > best {
			best, idx = values[i], i
		}
	}
	return best, idx
}

// Lowest returns the minimum of values[from:to] and its index.
func Lowest(values []float64, from, to int) (float64, int) {
	from, to = clampRange(len(values), from, to)
	best, idx := math.Inf(1), -1
	for i := from; i < to; i++ {
		if values[i] < best {
			best, idx = values[i], i
		}
	}
	return best, idx
}

// CrossedAbove reports whether a crossed above b on the last bar.
func CrossedAbove(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	return a[n-2] <= b[n-2] && a[n-1] > b[n-1] && valid(a[n-2], b[n-2], a[n-1], b[n-1])
}

// CrossedBelow reports whether a crossed below b on the last bar.
func CrossedBelow(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	return a[n-2] >= b[n-2] && a[n-1] < b[n-1] && valid(a[n-2], b[n-2], a[n-1], b[n-1])
}

func valid(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clampRange(n, from, to int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	return from, to
}
