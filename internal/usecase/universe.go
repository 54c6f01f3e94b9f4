package usecase

import (
	"context"
	"strings"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// FallbackSymbols is used when no universe can be fetched.
var FallbackSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "ADAUSDT", "XRPUSDT",
	"SOLUSDT", "DOTUSDT", "DOGEUSDT", "AVAXUSDT", "LINKUSDT",
}

type UniverseConfig struct {
	Quote          string
	MinQuoteVolume float64
	Size           int
	// Symbols, when set, replaces the volume ranking.
	Symbols []string
}

// Universe picks the symbols the process tracks. It is resolved once at startup.
type Universe struct {
	market domrepo.MarketData
	cfg    UniverseConfig
	logger *logger.Logger
}

func NewUniverse(market domrepo.MarketData, cfg UniverseConfig, l *logger.Logger) *Universe {
	if l == nil {
		l = logger.Nop()
	}
	return &Universe{market: market, cfg: cfg, logger: l}
}

// Select never fails: errors and empty results fall back to FallbackSymbols.
func (u *Universe) Select(ctx context.Context) []string {
	if len(u.cfg.Symbols) > 0 {
		return normalizeSymbols(u.cfg.Symbols)
	}

	tickers, err := u.market.TopSymbols(ctx, u.cfg.Quote, u.cfg.MinQuoteVolume, u.cfg.Size)
	if err != nil || len(tickers) == 0 {
		u.logger.Warn("universe unavailable, using fallback list",
			logger.Error(err), logger.Int("fallback", len(FallbackSymbols)))
		return append([]string(nil), FallbackSymbols...)
	}

	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = t.Symbol
	}
	u.logger.Info("universe selected",
		logger.Int("symbols", len(out)),
		logger.Strings("top", out[:min(10, len(out))]))
	return out
}

func normalizeSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SeriesKeys expands symbols across every configured timeframe, symbol-major.
func SeriesKeys(symbols []string, groups models.HorizonGroups) []models.SeriesKey {
	tfs := groups.Timeframes()
	keys := make([]models.SeriesKey, 0, len(symbols)*len(tfs))
	for _, s := range symbols {
		for _, tf := range tfs {
			keys = append(keys, models.NewSeriesKey(s, tf))
		}
	}
	return keys
}
