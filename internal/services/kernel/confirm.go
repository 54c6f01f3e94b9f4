package kernel

import "math"

// Side is the direction a breakout test expects.
type Side int8

const (
	Down Side = -1
	Up   Side = 1
)

// BreakoutConfirmed reports whether the last bars closes all lie strictly beyond
// level by at least marginPct percent in the given direction.
func BreakoutConfirmed(close []float64, level float64, side Side, bars int, marginPct float64) bool {
	if bars <= 0 || len(close) < bars || level <= 0 {
		return false
	}
	for i := len(close) - bars; i < len(close); i++ {
		if !beyond(close[i], level, side, marginPct) {
			return false
		}
	}
	return true
}

// BreakoutConfirmedSeries is BreakoutConfirmed against a per-index level series,
// used for sloped necklines and trendlines. levels must align with close.
func BreakoutConfirmedSeries(close, levels []float64, side Side, bars int, marginPct float64) bool {
	if bars <= 0 || len(close) < bars || len(levels) != len(close) {
		return false
	}
	for i := len(close) - bars; i < len(close); i++ {
		if levels[i] <= 0 || math.IsNaN(levels[i]) || !beyond(close[i], levels[i], side, marginPct) {
			return false
		}
	}
	return true
}

func beyond(price, level float64, side Side, marginPct float64) bool {
	m := level * marginPct / 100
	if side == Up {
		return price > level+m
	}
	return price < level-m
}

// VolumeRatio returns the last volume divided by the mean of the period volumes
// before it. Zero when the trailing mean is not positive.
func VolumeRatio(vol []float64, period int) float64 {
	n := len(vol)
	if period <= 0 || n < period+1 {
		return 0
	}
	avg := Mean(vol[n-1-period : n-1])
	if !(avg > 0) {
		return 0
	}
	return vol[n-1] / avg
}

// VolumeSurge reports whether the last bar's volume exceeds multiple times the
// trailing moving average of volume.
func VolumeSurge(vol []float64, period int, multiple float64) bool {
	return VolumeRatio(vol, period) > multiple
}

// Line is y = Slope*x + Intercept over bar indices.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at index x.
func (l Line) At(x int) float64 { return l.Slope*float64(x) + l.Intercept }

// Series evaluates the line for indices [0, n).
func (l Line) Series(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

// LineThrough returns the line passing through two pivots.
func LineThrough(a, b Pivot) Line {
	if a.Index == b.Index {
		return Line{Intercept: a.Price}
	}
	slope := (b.Price - a.Price) / float64(b.Index-a.Index)
	return Line{Slope: slope, Intercept: a.Price - slope*float64(a.Index)}
}

// FitLine fits a least-squares line through pivot prices.
func FitLine(points []Pivot) Line {
	if len(points) == 0 {
		return Line{}
	}
	if len(points) == 1 {
		return Line{Intercept: points[0].Price}
	}
	var sx, sy, sxx, sxy float64
	for _, p := range points {
		x := float64(p.Index)
		sx += x
		sy += p.Price
		sxx += x * x
		sxy += x * p.Price
	}
	n := float64(len(points))
	den := n*sxx - sx*sx
	if den == 0 {
		return Line{Intercept: sy / n}
	}
	slope := (n*sxy - sx*sy) / den
	return Line{Slope: slope, Intercept: (sy - slope*sx) / n}
}

// Retracement returns the price ratio of the way back from `to` towards `from`.
func Retracement(from, to, ratio float64) float64 {
	return to - (to-from)*ratio
}

// PctDiff returns |a-b| as a percentage of the smaller absolute value.
func PctDiff(a, b float64) float64 {
	base := math.Min(math.Abs(a), math.Abs(b))
	if base == 0 {
		return math.Inf(1)
	}
	return math.Abs(a-b) / base * 100
}
