// Package binance adapts the Binance spot REST API and combined kline stream
// to the market data interfaces.
package binance

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	drepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	pkghttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
)

const (
	DefaultRESTURL   = "https://api.binance.com"
	DefaultStreamURL = "wss://stream.binance.com:9443"

	tickerPath = "/api/v3/ticker/24hr"
	klinesPath = "/api/v3/klines"
	maxKlines  = 1000
)

// REST implements MarketData over the public spot endpoints.
type REST struct {
	client *pkghttp.Client
	now    func() time.Time
}

func NewREST(baseURL string, timeout time.Duration) *REST {
	if baseURL == "" {
		baseURL = DefaultRESTURL
	}
	return &REST{
		client: pkghttp.NewClient(
			pkghttp.WithBaseURL(baseURL),
			pkghttp.WithTimeout(timeout),
			pkghttp.WithHeader("Accept", "application/json"),
		),
		now: time.Now,
	}
}

type ticker24h struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

// TopSymbols returns pairs quoted in quote with a 24h quote volume above
// minQuoteVolume, largest first.
func (r *REST) TopSymbols(ctx context.Context, quote string, minQuoteVolume float64, limit int) ([]models.SymbolTicker, error) {
	var raw []ticker24h
	if err := r.client.GetJSON(ctx, tickerPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("ticker 24hr: %w", err)
	}

	quote = strings.ToUpper(quote)
	out := make([]models.SymbolTicker, 0, len(raw))
	for _, t := range raw {
		if !strings.HasSuffix(t.Symbol, quote) || t.Symbol == quote {
			continue
		}
		qv, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || qv <= minQuoteVolume {
			continue
		}
		last, _ := strconv.ParseFloat(t.LastPrice, 64)
		out = append(out, models.SymbolTicker{Symbol: t.Symbol, LastPrice: last, QuoteVolume: qv})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].QuoteVolume > out[j].QuoteVolume })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Klines fetches the most recent closed candles, oldest first. The exchange
// counts the open bar towards limit and returns it last; it is dropped.
func (r *REST) Klines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > maxKlines {
		limit = maxKlines
	}
	var raw [][]interface{}
	err := r.client.GetJSON(ctx, klinesPath, map[string][]string{
		"symbol":   {strings.ToUpper(symbol)},
		"interval": {string(tf)},
		"limit":    {strconv.Itoa(limit)},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("klines %s %s: %w", symbol, tf, err)
	}

	if n := len(raw); n > 0 && stillOpen(raw[n-1], r.now()) {
		raw = raw[:n-1]
	}

	out := make([]models.Candle, 0, len(raw))
	for i, row := range raw {
		c, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("klines %s %s row %d: %w", symbol, tf, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// stillOpen reports whether the row's close time (field 6) is after now.
func stillOpen(row []interface{}, now time.Time) bool {
	if len(row) < 7 {
		return false
	}
	ms, ok := row[6].(float64)
	return ok && time.UnixMilli(int64(ms)).After(now)
}

// parseKlineRow decodes [openTime, open, high, low, close, volume, ...].
func parseKlineRow(row []interface{}) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("short row (%d fields)", len(row))
	}
	ms, ok := row[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("open time %v", row[0])
	}
	var vals [5]float64
	for i := range vals {
		s, ok := row[i+1].(string)
		if !ok {
			return models.Candle{}, fmt.Errorf("field %d: %v", i+1, row[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(int64(ms)).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

var _ drepo.MarketData = (*REST)(nil)
