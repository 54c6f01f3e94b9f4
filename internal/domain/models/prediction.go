package models

import "time"

// Prediction is the per-symbol, per-horizon output of the confluence step.
type Prediction struct {
	Symbol       string         `json:"symbol"`
	Horizon      Horizon        `json:"horizon"`
	Direction    Direction      `json:"direction"`
	Confidence   float64        `json:"confidence"`
	Patterns     []PatternMatch `json:"patterns"`
	CurrentPrice float64        `json:"current_price"`
	ComputedAt   time.Time      `json:"computed_at"`
}

// Best returns the contributing pattern with the highest confidence.
func (p Prediction) Best() (PatternMatch, bool) {
	if len(p.Patterns) == 0 {
		return PatternMatch{}, false
	}
	best := p.Patterns[0]
	for _, m := range p.Patterns[1:] {
		if m.Confidence > best.Confidence {
			best = m
		}
	}
	return best, true
}

// SymbolAnalysis is the result of one analysis pass over a symbol.
type SymbolAnalysis struct {
	Symbol       string                                  `json:"symbol"`
	CurrentPrice float64                                 `json:"current_price"`
	Matches      map[Horizon]map[Timeframe][]PatternMatch `json:"matches"`
	Predictions  map[Horizon]Prediction                  `json:"predictions"`
	AnalyzedAt   time.Time                               `json:"analyzed_at"`
}

// Alert is the payload handed to the notifier and the alert publisher.
type Alert struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Horizon      Horizon   `json:"horizon"`
	Direction    Direction `json:"direction"`
	CurrentPrice float64   `json:"current_price"`
	Entry        float64   `json:"entry"`
	StopLoss     float64   `json:"stop_loss"`
	TP1          float64   `json:"tp1"`
	TP2          float64   `json:"tp2"`
	TP3          float64   `json:"tp3"`
	Pattern      string    `json:"pattern"`
	Confidence   float64   `json:"confidence"`
	Grade        string    `json:"grade"`
	CreatedAt    time.Time `json:"created_at"`
}
