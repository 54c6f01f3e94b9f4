package kernel

import "math"

// TrueRange computes the per-bar true range. The first bar uses high-low.
func TrueRange(high, low, close []float64) []float64 {
	n := minLen(high, low, close)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the Average True Range with Wilder smoothing.
// atr[period-1] is the mean of the first period true ranges, then
// atr[i] = (atr[i-1]*(period-1) + tr[i]) / period. Earlier indices are NaN.
func ATR(high, low, close []float64, period int) []float64 {
	tr := TrueRange(high, low, close)
	out := NaNs(len(tr))
	if period <= 0 || len(tr) < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	p := float64(period)
	out[period-1] = sum / p
	for i := period; i < len(tr); i++ {
		out[i] = (out[i-1]*(p-1) + tr[i]) / p
	}
	return out
}

// Bands holds Bollinger-style envelopes around a moving average.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes SMA(period) ± k standard deviations.
func Bollinger(close []float64, period int, k float64) Bands {
	mid := SMA(close, period)
	sd := StdDev(close, period)
	up := make([]float64, len(close))
	lo := make([]float64, len(close))
	for i := range close {
		up[i] = mid[i] + k*sd[i]
		lo[i] = mid[i] - k*sd[i]
	}
	return Bands{Upper: up, Middle: mid, Lower: lo}
}

// Width returns (upper-lower)/middle per bar.
func (b Bands) Width() []float64 {
	out := NaNs(len(b.Middle))
	for i, m := range b.Middle {
		if m != 0 && !math.IsNaN(m) {
			out[i] = (b.Upper[i] - b.Lower[i]) / m
		}
	}
	return out
}

func minLen(xs ...[]float64) int {
	n := math.MaxInt
	for _, x := range xs {
		if len(x) < n {
			n = len(x)
		}
	}
	if n == math.MaxInt {
		return 0
	}
	return n
}
