package kernel

import (
	"sync"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volume"
)

// RSI computes the Relative Strength Index with Wilder smoothing.
// The seed at index period averages the first period changes. A zero average
// loss yields 100. Indices before period are NaN.
func RSI(close []float64, period int) []float64 {
	out := NaNs(len(close))
	if period <= 0 || len(close) <= period {
		return out
	}
	gain, loss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		ch := close[i] - close[i-1]
		if ch > 0 {
			gain += ch
		} else {
			loss -= ch
		}
	}
	p := float64(period)
	avgGain, avgLoss := gain/p, loss/p
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(close); i++ {
		ch := close[i] - close[i-1]
		g, l := 0.0, 0.0
		if ch > 0 {
			g = ch
		} else {
			l = -ch
		}
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line and signal line aligned to the input length.
func MACD(close []float64, fast, slow, signal int) ([]float64, []float64) {
	n := len(close)
	if fast <= 0 || slow <= fast || signal <= 0 || n < slow+signal {
		return NaNs(n), NaNs(n)
	}
	m := trend.NewMacdWithPeriod[float64](fast, slow, signal)
	lineCh, signalCh := m.Compute(helper.SliceToChan(close))

	// Both outputs come from a duplicated pipeline, so drain them concurrently.
	var line []float64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		line = helper.ChanToSlice(lineCh)
	}()
	sig := helper.ChanToSlice(signalCh)
	wg.Wait()

	return padFront(line, n), padFront(sig, n)
}

// OBV returns on-balance volume aligned to the input length.
func OBV(close, vol []float64) []float64 {
	n := minLen(close, vol)
	if n < 2 {
		return NaNs(n)
	}
	obv := volume.NewObv[float64]()
	out := helper.ChanToSlice(obv.Compute(helper.SliceToChan(close[:n]), helper.SliceToChan(vol[:n])))
	return padFront(out, n)
}

// padFront left-pads a shortened indicator output with NaN up to n.
func padFront(values []float64, n int) []float64 {
	if len(values) >= n {
		return values[len(values)-n:]
	}
	out := NaNs(n)
	copy(out[n-len(values):], values)
	return out
}
