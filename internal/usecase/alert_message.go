package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

// Staged take-profit levels as fractions of the entry to target distance.
var takeProfitSteps = [3]decimal.Decimal{
	decimal.NewFromFloat(0.3),
	decimal.NewFromFloat(0.6),
	decimal.NewFromInt(1),
}

var (
	directionEmoji = map[models.Direction]string{models.Bullish: "🚀", models.Bearish: "🔻"}
	horizonEmoji   = map[models.Horizon]string{models.HorizonShort: "⚡", models.HorizonMid: "🎯", models.HorizonLong: "📈"}
)

// NewAlert builds the alert for an admitted prediction from its best match.
// Missing levels fall back to ±5% stop and ±10% target around the current price.
func NewAlert(p models.Prediction, now time.Time) (*models.Alert, error) {
	best, ok := p.Best()
	if !ok {
		return nil, fmt.Errorf("prediction %s %s has no patterns", p.Symbol, p.Horizon)
	}
	if p.Direction != models.Bullish && p.Direction != models.Bearish {
		return nil, fmt.Errorf("prediction %s %s is not directional", p.Symbol, p.Horizon)
	}

	bull := p.Direction == models.Bullish
	entry := best.EntryPrice
	if entry <= 0 {
		entry = p.CurrentPrice
	}
	stop := best.StopLoss
	if stop <= 0 {
		stop = p.CurrentPrice * pick(bull, 0.95, 1.05)
	}
	target := best.TargetPrice
	if target <= 0 {
		target = p.CurrentPrice * pick(bull, 1.1, 0.9)
	}
	grade := best.PatternGrade
	if grade == "" {
		grade = "N/A"
	}

	tps := takeProfits(entry, target)
	return &models.Alert{
		ID:           uuid.NewString(),
		Symbol:       p.Symbol,
		Horizon:      p.Horizon,
		Direction:    p.Direction,
		CurrentPrice: p.CurrentPrice,
		Entry:        entry,
		StopLoss:     stop,
		TP1:          tps[0],
		TP2:          tps[1],
		TP3:          tps[2],
		Pattern:      best.Name,
		Confidence:   p.Confidence,
		Grade:        grade,
		CreatedAt:    now,
	}, nil
}

// takeProfits places each level at entry + step*(target-entry). The signed
// distance covers both directions and keeps TP3 exactly on target.
func takeProfits(entry, target float64) [3]float64 {
	e := decimal.NewFromFloat(entry)
	dist := decimal.NewFromFloat(target).Sub(e)
	var out [3]float64
	for i, step := range takeProfitSteps {
		out[i] = e.Add(dist.Mul(step)).InexactFloat64()
	}
	return out
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// FormatAlert renders the Telegram Markdown message.
func FormatAlert(a *models.Alert) string {
	term := strings.ToUpper(string(a.Horizon))
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* %s %s TERM SIGNAL\n\n", directionEmoji[a.Direction], a.Symbol, horizonEmoji[a.Horizon], term)
	fmt.Fprintf(&b, "💰 *CURRENT PRICE:* $%.6f\n", a.CurrentPrice)
	fmt.Fprintf(&b, "🎯 *BEST ENTRY:* $%.6f\n", a.Entry)
	fmt.Fprintf(&b, "🛡️ *STOP LOSS:* $%.6f\n\n", a.StopLoss)
	fmt.Fprintf(&b, "🎯 *TP 1:* $%.6f\n", a.TP1)
	fmt.Fprintf(&b, "🎯 *TP 2:* $%.6f\n", a.TP2)
	fmt.Fprintf(&b, "🎯 *TP 3:* $%.6f\n\n", a.TP3)
	fmt.Fprintf(&b, "📊 *PATTERN:* %s\n", escapeMarkdown(a.Pattern))
	fmt.Fprintf(&b, "📈 *CONFIDENCE:* %.1f%%\n", a.Confidence)
	fmt.Fprintf(&b, "⭐ *GRADE:* %s\n\n", escapeMarkdown(a.Grade))
	fmt.Fprintf(&b, "#%s #%sTERM #%s", a.Symbol, term, a.Direction)
	return b.String()
}

// escapeMarkdown guards pattern names such as DOUBLE_BOTTOM, whose
// underscores would otherwise open italics.
func escapeMarkdown(s string) string {
	return strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[").Replace(s)
}
