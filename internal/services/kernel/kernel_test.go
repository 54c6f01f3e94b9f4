package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMAAndEMA(t *testing.T) {
	in := []float64{1, 2, 3, 4, 5}

	sma := SMA(in, 3)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 4.0, sma[4], 1e-9)

	ema := EMA(in, 3)
	assert.True(t, math.IsNaN(ema[1]))
	assert.InDelta(t, 2.0, ema[2], 1e-9)
	assert.InDelta(t, 3.0, ema[3], 1e-9)
	assert.InDelta(t, 4.0, ema[4], 1e-9)
}

func TestATRConstantSeriesIsZero(t *testing.T) {
	c := constant(30, 100)
	atr := ATR(c, c, c, 14)
	for i := 0; i < 13; i++ {
		assert.True(t, math.IsNaN(atr[i]), "index %d", i)
	}
	for i := 13; i < len(atr); i++ {
		assert.Equal(t, 0.0, atr[i], "index %d", i)
	}
}

func TestATRStepIncreases(t *testing.T) {
	n := 40
	high := constant(n, 101)
	low := constant(n, 99)
	close := constant(n, 100)
	for i := 30; i < n; i++ {
		high[i], low[i], close[i] = 121, 119, 120
	}

	atr := ATR(high, low, close, 14)
	assert.InDelta(t, 2.0, atr[29], 1e-9)
	assert.Greater(t, atr[30], atr[29])

	// Wilder recurrence on the step bar: TR = |121 - 100| = 21.
	assert.InDelta(t, (2.0*13+21)/14, atr[30], 1e-9)
}

func TestATRShortInput(t *testing.T) {
	c := constant(5, 1)
	atr := ATR(c, c, c, 14)
	require.Len(t, atr, 5)
	for _, v := range atr {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSI(t *testing.T) {
	flat := RSI(constant(20, 50), 14)
	assert.True(t, math.IsNaN(flat[13]))
	assert.Equal(t, 100.0, flat[14])
	assert.Equal(t, 100.0, flat[19])

	rising := make([]float64, 20)
	falling := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i + 1)
		falling[i] = float64(100 - i)
	}
	assert.Equal(t, 100.0, RSI(rising, 14)[19])
	assert.InDelta(t, 0.0, RSI(falling, 14)[19], 1e-9)
}

func TestPivotsDeterministic(t *testing.T) {
	high := []float64{10, 11, 12, 15, 12, 11, 10, 9, 8, 9, 10, 11, 14, 11, 10, 9, 8}
	low := make([]float64, len(high))
	for i, h := range high {
		low[i] = h - 1
	}
	cfg := PivotConfig{Left: 2, Right: 2, MinProminencePct: 0.5, MinDistance: 2}

	first := Pivots(high, low, cfg)
	second := Pivots(high, low, cfg)
	require.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.Equal(t, Pivot{Index: 3, Price: 15, Kind: PivotHigh}, first[0])
	assert.Equal(t, Pivot{Index: 8, Price: 7, Kind: PivotLow}, first[1])
	assert.Equal(t, Pivot{Index: 12, Price: 14, Kind: PivotHigh}, first[2])
}

func TestPivotsTieFirstOccurrenceWins(t *testing.T) {
	high := []float64{1, 2, 3, 5, 5, 3, 2, 1, 1}
	low := []float64{0.5, 1.5, 2.5, 4.5, 4.5, 2.5, 1.5, 0.5, 0.5}
	p := Pivots(high, low, PivotConfig{Left: 2, Right: 2, MinProminencePct: 0.1, MinDistance: 1})
	highs := FilterPivots(p, PivotHigh)
	require.Len(t, highs, 1)
	assert.Equal(t, 3, highs[0].Index)
}

func TestPivotsOutsideBarYieldsHighOnly(t *testing.T) {
	high := []float64{12, 11, 10, 11, 12, 11, 20, 11, 12, 11, 10}
	low := []float64{11, 10, 9, 10, 11, 10, 1, 10, 11, 10, 9}
	p := Pivots(high, low, PivotConfig{Left: 2, Right: 2, MinProminencePct: 0.1, MinDistance: 1})

	require.Equal(t, []Pivot{
		{Index: 2, Price: 9, Kind: PivotLow},
		{Index: 6, Price: 20, Kind: PivotHigh},
	}, p)
	assert.Empty(t, FilterPivots(p[1:], PivotLow))
}

func TestPivotsAlternate(t *testing.T) {
	n := 200
	high := make([]float64, n)
	low := make([]float64, n)
	for i := 0; i < n; i++ {
		v := 100 + 10*math.Sin(float64(i)/5) + 3*math.Sin(float64(i)/1.7)
		high[i], low[i] = v+1, v-1
	}
	p := Pivots(high, low, DefaultPivotConfig())
	require.NotEmpty(t, p)
	for i := 1; i < len(p); i++ {
		assert.NotEqual(t, p[i-1].Kind, p[i].Kind)
		assert.Greater(t, p[i].Index, p[i-1].Index)
	}
}

func TestBreakoutConfirmed(t *testing.T) {
	closes := []float64{100, 100, 103, 104}
	assert.True(t, BreakoutConfirmed(closes, 100, Up, 2, 1))
	assert.False(t, BreakoutConfirmed(closes, 100, Up, 3, 1))
	assert.False(t, BreakoutConfirmed(closes, 103, Up, 2, 0))
	assert.True(t, BreakoutConfirmed([]float64{100, 95, 94}, 100, Down, 2, 2))

	levels := []float64{99, 100, 101, 102}
	assert.True(t, BreakoutConfirmedSeries(closes, levels, Up, 2, 0.5))
	assert.False(t, BreakoutConfirmedSeries(closes, levels[:3], Up, 2, 0.5))
}

func TestVolumeSurge(t *testing.T) {
	vol := append(constant(20, 100), 140)
	assert.InDelta(t, 1.4, VolumeRatio(vol, 20), 1e-9)
	assert.True(t, VolumeSurge(vol, 20, 1.2))
	assert.False(t, VolumeSurge(vol, 20, 1.5))

	zero := constant(21, 0)
	assert.False(t, VolumeSurge(zero, 20, 1.2))
	assert.Equal(t, 0.0, VolumeRatio(zero, 20))
}

func TestMACDAndOBVAligned(t *testing.T) {
	n := 80
	close := make([]float64, n)
	vol := make([]float64, n)
	for i := range close {
		close[i] = 100 + float64(i)
		vol[i] = 10
	}
	line, signal := MACD(close, 12, 26, 9)
	require.Len(t, line, n)
	require.Len(t, signal, n)
	assert.True(t, math.IsNaN(line[0]))
	assert.False(t, math.IsNaN(Last(line)))
	assert.Greater(t, Last(line), 0.0)

	obv := OBV(close, vol)
	require.Len(t, obv, n)
	assert.Greater(t, Last(obv), 0.0)
}

func TestFitLineAndRetracement(t *testing.T) {
	l := FitLine([]Pivot{{Index: 0, Price: 1}, {Index: 2, Price: 5}, {Index: 4, Price: 9}})
	assert.InDelta(t, 2.0, l.Slope, 1e-9)
	assert.InDelta(t, 1.0, l.Intercept, 1e-9)
	assert.InDelta(t, 11.0, l.At(5), 1e-9)

	assert.InDelta(t, 161.8, Retracement(100, 200, 0.382), 1e-9)
}

func TestInputsNotMutated(t *testing.T) {
	in := []float64{5, 4, 3, 4, 5, 6, 7, 6, 5, 4, 3, 4, 5, 6, 7, 8}
	cp := append([]float64(nil), in...)
	_ = SMA(in, 3)
	_ = EMA(in, 3)
	_ = RSI(in, 5)
	_ = ATR(in, in, in, 5)
	_ = Pivots(in, in, DefaultPivotConfig())
	_ = Bollinger(in, 5, 2)
	assert.Equal(t, cp, in)
}
