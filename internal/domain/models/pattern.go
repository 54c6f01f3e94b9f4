package models

import "math"

// Direction is the expected price move of a pattern or prediction.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Opposite returns the reverse direction. Neutral stays neutral.
func (d Direction) Opposite() Direction {
	switch d {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Neutral
	}
}

// Category groups evaluators by the family of heuristic they implement.
type Category string

const (
	CategoryStructural  Category = "structural"
	CategoryHarmonic    Category = "harmonic"
	CategoryElliott     Category = "elliott"
	CategoryWyckoff     Category = "wyckoff"
	CategoryVolume      Category = "volume"
	CategoryFibonacci   Category = "fibonacci"
	CategoryCandlestick Category = "candlestick"
	CategoryOscillator  Category = "oscillator"
	CategoryMoving      Category = "moving_average"
	CategoryVolatility  Category = "volatility"
	CategoryCombination Category = "combination"
)

// IsCombination reports whether evaluators of this category consume other matches.
func (c Category) IsCombination() bool { return c == CategoryCombination }

// Tier is a named group of profiles. Weight is informational only.
type Tier struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// PatternProfile is the static configuration of one named pattern.
type PatternProfile struct {
	Name           string    `json:"name"`
	Category       Category  `json:"category"`
	Tier           string    `json:"tier"`
	Direction      Direction `json:"direction"`
	SuccessRate    float64   `json:"success_rate"`
	Reliability    float64   `json:"reliability"`
	AverageGainPct float64   `json:"average_gain_pct"`
	Grade          string    `json:"grade"`
	MinTimeframe   Timeframe `json:"min_timeframe"`
}

// PatternMatch is one detection produced by an evaluator.
type PatternMatch struct {
	Name                   string    `json:"name"`
	Category               Category  `json:"category"`
	Direction              Direction `json:"direction"`
	Timeframe              Timeframe `json:"timeframe"`
	SuccessRate            float64   `json:"success_rate"`
	Confidence             float64   `json:"confidence"`
	SignalStrength         float64   `json:"signal_strength"`
	EntryPrice             float64   `json:"entry_price"`
	TargetPrice            float64   `json:"target_price"`
	StopLoss               float64   `json:"stop_loss"`
	VolumeConfirmed        bool      `json:"volume_confirmed"`
	InstitutionalConfirmed bool      `json:"institutional_confirmed"`
	PatternGrade           string    `json:"pattern_grade"`
	MarketStructureScore   float64   `json:"market_structure_score"`
	FibonacciConfluence    float64   `json:"fibonacci_confluence"`
	SmartMoneyFlow         float64   `json:"smart_money_flow"`
	Reliability            float64   `json:"reliability"`
	AverageGain            float64   `json:"average_gain"`
}

// TargetPct is the distance from entry to target in percent of entry.
func (m PatternMatch) TargetPct() float64 {
	if m.EntryPrice == 0 {
		return 0
	}
	return math.Abs(m.TargetPrice-m.EntryPrice) / m.EntryPrice * 100
}

// Consistent reports whether the price levels agree with the declared direction.
func (m PatternMatch) Consistent() bool {
	for _, v := range []float64{m.EntryPrice, m.TargetPrice, m.StopLoss, m.Confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if m.EntryPrice <= 0 || m.StopLoss <= 0 {
		return false
	}
	switch m.Direction {
	case Bullish:
		return m.TargetPrice > m.EntryPrice && m.StopLoss < m.EntryPrice
	case Bearish:
		return m.TargetPrice < m.EntryPrice && m.StopLoss > m.EntryPrice
	default:
		return false
	}
}
