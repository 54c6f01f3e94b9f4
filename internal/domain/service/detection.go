package service

import (
	"context"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

// PatternDetector runs every evaluator over one series snapshot.
type PatternDetector interface {
	Detect(ctx context.Context, key models.SeriesKey, candles []models.Candle, price float64) []models.PatternMatch
}

// ConfluenceAggregator merges one horizon's matches into a prediction.
type ConfluenceAggregator interface {
	Aggregate(symbol string, horizon models.Horizon, price float64, matches []models.PatternMatch, now time.Time) models.Prediction
}

// AlertGate decides whether a prediction becomes an outbound alert.
type AlertGate interface {
	Admit(ctx context.Context, p models.Prediction, now time.Time) (bool, error)
}
