package kernel

// PivotKind tells a swing high from a swing low.
type PivotKind int8

const (
	PivotLow  PivotKind = -1
	PivotHigh PivotKind = 1
)

// Pivot is an accepted local extremum.
type Pivot struct {
	Index int
	Price float64
	Kind  PivotKind
}

// PivotConfig controls swing extraction.
type PivotConfig struct {
	Left             int     // bars to the left that must not exceed the pivot
	Right            int     // bars to the right that must not exceed the pivot
	MinProminencePct float64 // distance to the opposite extreme of the window, in percent
	MinDistance      int     // bars between pivots of the same kind
}

// DefaultPivotConfig is used by templates that do not tune pivot detection.
func DefaultPivotConfig() PivotConfig {
	return PivotConfig{Left: 3, Right: 3, MinProminencePct: 0.5, MinDistance: 3}
}

// Pivots extracts alternating swing highs and lows from high/low series.
//
// A bar is a candidate high when its high is the maximum of [i-Left, i+Right],
// earlier bars in the window being strictly lower (the first of equal highs wins),
// and it stands at least MinProminencePct above the window's lowest low.
// Lows are symmetric. Accepted pivots alternate: a candidate of the same kind as
// the last accepted pivot replaces it only when more extreme, and a candidate
// closer than MinDistance to the previous pivot of its kind is dropped.
//
// An outside bar that qualifies as both kinds is tried as a high first. When the
// high is accepted the low at the same index is discarded, so one bar never
// yields two pivots.
func Pivots(high, low []float64, cfg PivotConfig) []Pivot {
	n := len(high)
	if len(low) < n {
		n = len(low)
	}
	if cfg.Left < 1 {
		cfg.Left = 1
	}
	if cfg.Right < 1 {
		cfg.Right = 1
	}

	var accepted []Pivot
	for i := cfg.Left; i < n-cfg.Right; i++ {
		if isSwingHigh(high, low, i, cfg) {
			accepted = acceptPivot(accepted, Pivot{Index: i, Price: high[i], Kind: PivotHigh}, cfg.MinDistance)
		}
		if isSwingLow(high, low, i, cfg) {
			accepted = acceptPivot(accepted, Pivot{Index: i, Price: low[i], Kind: PivotLow}, cfg.MinDistance)
		}
	}
	return accepted
}

func isSwingHigh(high, low []float64, i int, cfg PivotConfig) bool {
	v := high[i]
	if v <= 0 {
		return false
	}
	for j := i - cfg.Left; j < i; j++ {
		if high[j] >= v {
			return false
		}
	}
	for j := i + 1; j <= i+cfg.Right; j++ {
		if high[j] > v {
			return false
		}
	}
	floor, _ := Lowest(low, i-cfg.Left, i+cfg.Right+1)
	return (v-floor)/v*100 >= cfg.MinProminencePct
}

func isSwingLow(high, low []float64, i int, cfg PivotConfig) bool {
	v := low[i]
	if v <= 0 {
		return false
	}
	for j := i - cfg.Left; j < i; j++ {
		if low[j] <= v {
			return false
		}
	}
	for j := i + 1; j <= i+cfg.Right; j++ {
		if low[j] < v {
			return false
		}
	}
	ceil, _ := Highest(high, i-cfg.Left, i+cfg.Right+1)
	return (ceil-v)/v*100 >= cfg.MinProminencePct
}

func acceptPivot(acc []Pivot, p Pivot, minDistance int) []Pivot {
	if len(acc) == 0 {
		return append(acc, p)
	}
	last := acc[len(acc)-1]
	if p.Kind == last.Kind {
		if moreExtreme(p, last) {
			acc[len(acc)-1] = p
		}
		return acc
	}
	// outside bar: the high already took this index
	if p.Index == last.Index {
		return acc
	}
	if len(acc) >= 2 {
		prevSame := acc[len(acc)-2]
		if p.Index-prevSame.Index < minDistance {
			return acc
		}
	}
	return append(acc, p)
}

func moreExtreme(p, than Pivot) bool {
	if p.Kind == PivotHigh {
		return p.Price > than.Price
	}
	return p.Price < than.Price
}

// FilterPivots returns the pivots of one kind, preserving order.
func FilterPivots(pivots []Pivot, kind PivotKind) []Pivot {
	out := make([]Pivot, 0, len(pivots)/2+1)
	for _, p := range pivots {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// TailPivots returns the last n pivots, or nil when fewer exist.
func TailPivots(pivots []Pivot, n int) []Pivot {
	if n <= 0 || len(pivots) < n {
		return nil
	}
	return pivots[len(pivots)-n:]
}
